package responses

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public half of a pkg/errors.Error. RequestID echoes the
// X-Request-Id header so a support ticket can be matched to its log line.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
