package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Global validator instance for reuse
var validate = validator.New()

// MaxRequestBodyBytes caps how much of a request body DecodeJSON reads.
const MaxRequestBodyBytes = 512 << 10

// DecodeJSON decodes the request body into the given value, reading at most
// MaxRequestBodyBytes. A larger body fails with *http.MaxBytesError.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return nil
}

// ValidateEach validates every element of a slice of structs.
func ValidateEach(items interface{}) error {
	return validate.Var(items, "dive")
}
