package project

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ganot/verdant/internal/kv"
)

// Slugify lower-cases s, strips diacritics and collapses every run of
// characters other than ASCII letters and digits into a single hyphen.
// "Jardín Botánico (2024)" becomes "jardin-botanico-2024".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
			continue
		}
		hyphen = true
	}
	return b.String()
}

// slugs is the unique slug → id index.
type slugs struct{}

// Resolve returns the id mapped to slug. ok is false for unknown slugs.
func (slugs) Resolve(ctx context.Context, r kv.Reader, slug string) (id string, ok bool, err error) {
	if slug == "" {
		return "", false, nil
	}
	return r.Get(ctx, keySlug(slug))
}

// Check fails with ErrDuplicateSlug when slug maps to a live record other
// than id. A mapping whose record is gone is treated as free.
func (x slugs) Check(ctx context.Context, r kv.Reader, slug, id string) error {
	owner, ok, err := x.Resolve(ctx, r, slug)
	if err != nil || !ok || owner == id {
		return err
	}
	live, err := r.Exists(ctx, keyProject(owner))
	if err != nil {
		return err
	}
	if live {
		return ErrDuplicateSlug
	}
	return nil
}

// Assign maps slug to id. Callers run Check first, in the same transaction.
func (slugs) Assign(ctx context.Context, w kv.Writer, slug, id string) error {
	return w.Set(ctx, keySlug(slug), id)
}

// Release removes the mapping for slug if it still points at id. owner is
// the value read earlier in the transaction.
func (slugs) Release(ctx context.Context, w kv.Writer, slug, id, owner string) error {
	if slug == "" || owner != id {
		return nil
	}
	return w.Del(ctx, keySlug(slug))
}
