package fetch

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errNullDetail = errors.New("detail payload is null")

// Field returns the value stored under a top-level key of a JSON object body.
func Field(body []byte, key string) (json.RawMessage, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, err
	}
	v, ok := top[key]
	if !ok {
		return nil, fmt.Errorf("missing top-level key %q", key)
	}
	return v, nil
}
