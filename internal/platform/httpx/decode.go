package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultMaxBodyBytes = 1 << 20

// DecodeJSON reads the request body into dst, rejecting unknown fields and
// trailing content. Errors are safe to surface to clients.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, defaultMaxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxBytesErr *http.MaxBytesError

		switch {
		case errors.Is(err, io.EOF):
			return errors.New("request body must not be empty")
		case errors.As(err, &syntaxErr):
			return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			if typeErr.Field != "" {
				return fmt.Errorf("invalid value for field %q", typeErr.Field)
			}
			return fmt.Errorf("invalid JSON value at offset %d", typeErr.Offset)
		case errors.As(err, &maxBytesErr):
			return fmt.Errorf("request body exceeds %d bytes", maxBytesErr.Limit)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("unknown field %s", field)
		default:
			return errors.New("invalid request body")
		}
	}

	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
