package model

// Translation status of a single target language
type TranslationStatus string

const (
	TranslationStatusPending    TranslationStatus = "pending"
	TranslationStatusProcessing TranslationStatus = "processing"
	TranslationStatusDone       TranslationStatus = "done"
	TranslationStatusFailed     TranslationStatus = "failed"
)

var ValidTranslationStatuses = []TranslationStatus{
	TranslationStatusPending, TranslationStatusProcessing,
	TranslationStatusDone, TranslationStatusFailed,
}

// ErrorClass separates provider outages from failures caused by the input itself.
type ErrorClass string

const (
	// ErrorClassUnavailable covers network failures, timeouts, 5xx/429 responses
	// and exhausted quotas.
	ErrorClassUnavailable ErrorClass = "unavailable"
	// ErrorClassContent covers rejected input and empty translations.
	ErrorClassContent ErrorClass = "content"
)

// Roles carried in auth claims
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
