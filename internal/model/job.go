package model

// TranslationJob identifies one scheduler pass over a profile at one bio fingerprint.
// It is never persisted.
type TranslationJob struct {
	ProfileID  string `json:"profileId"`
	SourceHash string `json:"sourceHash"`
}

// Key is the deduplication key of the job.
func (j TranslationJob) Key() string {
	return j.ProfileID + ":" + j.SourceHash
}

// SweepPayload is the asynq payload of a translation sweep task
type SweepPayload struct {
	Force     bool   `json:"force"`
	RequestID string `json:"requestId,omitempty"`
}
