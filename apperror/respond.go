// Response-writing helpers shared by all handler packages.
// Adapted to the wire contract of this API: a ValidationError serializes as a
// bare JSON array of messages, every other error as {"error": "..."}.
package apperror

import (
	"encoding/json"
	"net/http"
)

// WriteJSON serializes data to JSON and writes it to the response with the
// given status. A nil data value writes the literal JSON `null`, which some
// endpoints rely on (show-by-id for a missing entity). Use WriteEmpty for
// responses with no body at all.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// WriteEmpty writes a status code with an empty body.
func WriteEmpty(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}

// WriteError converts any error into the standardized error response.
// Errors that are not *AppError are wrapped as internal errors so every
// failure path produces a well-formed JSON body.
func WriteError(w http.ResponseWriter, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("an unexpected error occurred: "+err.Error(), err)
	}

	if appErr.Type == ValidationError {
		// 400 with the plain message array, no field keys and no envelope.
		WriteJSON(w, appErr.StatusCode(), appErr.Messages)
		return
	}

	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
