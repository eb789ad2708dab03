package util

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/debemdeboas/inkpot/internal/config"
)

const maxBodyBytes = 1 << 20

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if v == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) error {
	return WriteJSON(w, status, map[string]string{"error": msg})
}

// DecodeJSON reads a JSON request body into v. An empty body leaves v
// untouched and reports ok=false.
func DecodeJSON(r *http.Request, v any) (ok bool, err error) {
	if r.Body == nil {
		return false, nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
