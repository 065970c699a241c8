package ingest

// Result holds the outcome of feeding frames to a session.
type Result struct {
	FramesReceived  int      `json:"frames_received"`
	FramesProcessed int      `json:"frames_processed"`
	FramesRejected  int      `json:"frames_rejected"`
	Errors          []string `json:"errors,omitempty"`

	Message string `json:"message,omitempty"`
}

// maxErrors caps the messages kept in a Result.
const maxErrors = 10

// Reject counts a rejected frame and keeps its error message.
func (r *Result) Reject(err error) {
	r.FramesRejected++
	if len(r.Errors) < maxErrors {
		r.Errors = append(r.Errors, err.Error())
	}
}
