package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// decodeObject streams a top-level JSON object, calling fn for each key in document order.
// fn must consume exactly one value from dec. Repeated keys fail instead of silently
// overwriting, which encoding/json's map decoding would do.
func decodeObject(r io.Reader, fn func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read opening brace: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	seen := make(map[string]struct{})
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("read key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", tok)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate key %q", key)
		}
		seen[key] = struct{}{}

		if err := fn(key, dec); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("read closing brace: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after the top-level object")
	}
	return nil
}
