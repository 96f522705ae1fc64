package store

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/todosoa/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodePatch converts a request body into a Patch.
//
// Accepted bodies: domain.Patch, domain.Item, a map, or JSON (bytes or string).
// Values are weakly typed ("1", 1 and "true" all mean true). An "id" field is
// ignored. Any other unknown field is rejected with domain.ErrMalformedBody.
func DecodePatch(body any) (domain.Patch, error) {
	var patch domain.Patch

	switch b := body.(type) {
	case nil:
		return patch, nil
	case domain.Patch:
		return b, nil
	case *domain.Patch:
		if b == nil {
			return patch, nil
		}
		return *b, nil
	case domain.Item:
		return domain.Patch{Title: &b.Title, Completed: &b.Completed}, nil
	case []byte:
		return decodeJSON(b)
	case json.RawMessage:
		return decodeJSON(b)
	case string:
		return decodeJSON([]byte(b))
	case map[string]any:
		return decodeMap(b)
	case map[string]string:
		m := make(map[string]any, len(b))
		for k, v := range b {
			m[k] = v
		}
		return decodeMap(m)
	}
	return patch, fmt.Errorf("%w: unsupported body type %T", domain.ErrMalformedBody, body)
}

func decodeJSON(data []byte) (domain.Patch, error) {
	if len(data) == 0 {
		return domain.Patch{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.Patch{}, fmt.Errorf("%w: %w", domain.ErrMalformedBody, err)
	}
	return decodeMap(m)
}

func decodeMap(m map[string]any) (domain.Patch, error) {
	var patch domain.Patch

	fields := make(map[string]any, len(m))
	for k, v := range m {
		if k == "id" {
			continue
		}
		fields[k] = v
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &patch,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return patch, fmt.Errorf("failed to build body decoder: %w", err)
	}

	if err := decoder.Decode(fields); err != nil {
		return domain.Patch{}, fmt.Errorf("%w: %w", domain.ErrMalformedBody, err)
	}
	return patch, nil
}
