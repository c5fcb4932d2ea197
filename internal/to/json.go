// Package to serialises values onto HTTP responses.
package to

import (
	"net/http"

	"github.com/go-json-experiment/json"
)

// JSON writes obj to the response body as compact JSON. Nil slices are
// written as empty arrays and nil maps as empty objects, so peers always
// receive the container they expect.
func JSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.MarshalFull(w, obj)
}
