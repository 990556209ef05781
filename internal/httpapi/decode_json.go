package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DecodeJSON decodes a single JSON value of at most 1MB from the request body.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return InvalidJSON("empty body")
	}
	defer func() {
		_ = r.Body.Close()
	}()

	const maxSize = 1 << 20
	dec := json.NewDecoder(io.LimitReader(r.Body, maxSize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var se *json.SyntaxError
		var ute *json.UnmarshalTypeError
		switch {
		case errors.As(err, &se):
			return InvalidJSON("malformed JSON")
		case errors.As(err, &ute):
			return InvalidJSON("type mismatch in JSON")
		default:
			return InvalidJSON("invalid JSON")
		}
	}
	if dec.More() {
		return InvalidJSON("multiple JSON values")
	}
	return nil
}
