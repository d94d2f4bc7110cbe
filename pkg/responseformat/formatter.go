// Package responseformat encodes API responses as JSON (default) or
// MessagePack when the client asks for it.
package responseformat

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter handles encoding and writing responses in JSON or MessagePack format
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes the response in the appropriate format based on the query parameter.
// JSON is the default format. MessagePack is used when format=msgpack is specified
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any) error {
	// Always set CORS header
	w.Header().Set("Access-Control-Allow-Origin", "*")

	if req.URL.Query().Get("format") == "msgpack" {
		return f.writeMsgPack(w, data)
	}
	return f.writeJSON(w, data)
}

// WriteError writes an error payload with the given HTTP status, in the
// same negotiated format as successful responses.
func (f *Formatter) WriteError(w http.ResponseWriter, req *http.Request, status int, message string) error {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	payload := map[string]string{"error": message}
	if req.URL.Query().Get("format") == "msgpack" {
		w.Header().Set("Content-Type", "application/x-msgpack")
		w.WriteHeader(status)
		encoder := msgpack.NewEncoder(w)
		encoder.SetCustomStructTag("json")
		return encoder.Encode(payload)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}

func (f *Formatter) writeJSON(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func (f *Formatter) writeMsgPack(w http.ResponseWriter, data any) error {
	w.Header().Set("Content-Type", "application/x-msgpack")
	encoder := msgpack.NewEncoder(w)
	encoder.SetCustomStructTag("json") // Use json tags for MessagePack
	return encoder.Encode(data)
}
