package event

// CodeDispatchedDestination is the subject for code delivery outcomes.
const CodeDispatchedDestination string = "verification.code.dispatched"

// CodeDispatchedMessage reports the final delivery outcome of a queued code.
type CodeDispatchedMessage struct {
	JobID       int64  `json:"job_id"`
	UserID      string `json:"user_id"`
	Channel     string `json:"channel"`
	Destination string `json:"destination"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}
