package contact

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qri-io/jsonschema"
)

//go:embed schema.json
var schemaJSON []byte

func loadSchema() (*jsonschema.Schema, error) {
	rs := &jsonschema.Schema{}
	if err := json.Unmarshal(schemaJSON, rs); err != nil {
		return nil, fmt.Errorf("parsing contact schema: %w", err)
	}
	return rs, nil
}

// validate checks a raw form payload against the submission schema.
func validate(ctx context.Context, rs *jsonschema.Schema, raw []byte) error {
	verrs, err := rs.ValidateBytes(ctx, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = strings.TrimSpace(v.PropertyPath + " " + v.Message)
		}
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return nil
}
