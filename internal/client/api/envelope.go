package api

import "encoding/json"

// envelope is the backend's response wrapper. The legacy API marks both
// outcomes with ok and mixes the payload fields into the same object, so
// the full body is retained for a second, typed decode on success.
type envelope struct {
	OK      *bool          `json:"ok"`
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details"`
}

// decodeEnvelope turns a response body into either a nil error (success)
// or a *APIError carrying the backend's message verbatim. It is the single
// place the ok/error union shape is interpreted.
func decodeEnvelope(status int, body []byte) *APIError {
	var env envelope
	_ = json.Unmarshal(body, &env)
	failed := status >= 300 || (env.OK != nil && !*env.OK)
	if !failed {
		return nil
	}
	msg := env.Error
	if msg == "" {
		msg = "server error"
	}
	return &APIError{
		Kind:    KindServer,
		Message: msg,
		Code:    env.Code,
		Status:  status,
		Details: env.Details,
	}
}
