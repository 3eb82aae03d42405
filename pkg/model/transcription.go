package model

// TranscriptionSuccess is the status value of a usable transcript.
const TranscriptionSuccess = "success"

// Transcription is the body returned by POST /transcribe.
type Transcription struct {
	Status   string `json:"status"`
	Text     string `json:"text"`
	Error    string `json:"error,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Language string `json:"language,omitempty"`
}

// Succeeded reports whether the payload carries text to fill in.
func (t Transcription) Succeeded() bool {
	return t.Status == TranscriptionSuccess && t.Text != ""
}
