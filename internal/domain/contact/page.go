package contact

import "math"

// pageWindow returns the inclusive index range of page. ok is false when the
// page starts past any index a sorted set can hold.
func pageWindow(page, size int) (start, stop int64, ok bool) {
	p, n := int64(page-1), int64(size)
	if p > (math.MaxInt64-n)/n {
		return 0, 0, false
	}
	start = p * n
	return start, start + n - 1, true
}

func totalPages(total, size int) int {
	if total == 0 {
		return 0
	}
	return (total-1)/size + 1
}
