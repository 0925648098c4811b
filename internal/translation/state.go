package translation

import (
	"errors"
	"fmt"
	"time"

	"github.com/modelboard/api/internal/client"
	"github.com/modelboard/api/internal/model"
)

// ErrInvalidTransition is returned when an entry update breaks the state machine.
var ErrInvalidTransition = errors.New("invalid translation state transition")

// errInterrupted is recorded on an entry left processing by a job that never finished.
var errInterrupted = errors.New("translation interrupted before completion")

// RetryPolicy bounds how many tries a target gets for one fingerprint.
type RetryPolicy struct {
	MaxAttempts int
	// UnavailableBonus extends MaxAttempts while the last failure was a
	// provider outage rather than a problem with the text.
	UnavailableBonus int
}

// DefaultRetryPolicy returns 3 attempts plus 2 more during provider outages.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, UnavailableBonus: 2}
}

// Limit returns the effective attempt cap for entry.
func (rp RetryPolicy) Limit(entry model.TranslationEntry) int {
	if entry.Error != nil && entry.Error.Class == model.ErrorClassUnavailable {
		return rp.MaxAttempts + rp.UnavailableBonus
	}
	return rp.MaxAttempts
}

// Claimable reports whether a job may start another try on entry.
// Processing entries are only seen by a job when an earlier one died mid-try.
func (rp RetryPolicy) Claimable(entry model.TranslationEntry) bool {
	switch entry.Status {
	case model.TranslationStatusPending, model.TranslationStatusProcessing, model.TranslationStatusFailed:
		return entry.Attempts < rp.Limit(entry)
	default:
		return false
	}
}

// CanTransition enforces the allowed entry state machine edges.
func CanTransition(from, to model.TranslationStatus) bool {
	switch from {
	case model.TranslationStatusPending:
		return to == model.TranslationStatusProcessing
	case model.TranslationStatusProcessing:
		return to == model.TranslationStatusProcessing || to == model.TranslationStatusDone || to == model.TranslationStatusFailed
	case model.TranslationStatusFailed:
		return to == model.TranslationStatusProcessing
	default:
		return false
	}
}

// Begin claims entry for a new try.
func Begin(entry model.TranslationEntry, now time.Time) model.TranslationEntry {
	entry.Status = model.TranslationStatusProcessing
	entry.Attempts++
	entry.UpdatedAt = now
	return entry
}

// Complete stores a successful translation. Empty text is recorded as a failure.
func Complete(entry model.TranslationEntry, text string, now time.Time) model.TranslationEntry {
	if text == "" {
		return Fail(entry, &client.ProviderError{Provider: "chain", Class: model.ErrorClassContent, Err: client.ErrEmptyTranslation}, now)
	}
	entry.Status = model.TranslationStatusDone
	entry.Text = text
	entry.Error = nil
	entry.UpdatedAt = now
	return entry
}

// Fail records err as the last failure of entry.
func Fail(entry model.TranslationEntry, err error, now time.Time) model.TranslationEntry {
	entry.Status = model.TranslationStatusFailed
	entry.Text = ""
	entry.Error = &model.TranslationError{
		Class:   client.ClassOf(err),
		Message: err.Error(),
	}
	entry.UpdatedAt = now
	return entry
}

// Interrupt fails an entry that was left processing.
func Interrupt(entry model.TranslationEntry, now time.Time) model.TranslationEntry {
	return Fail(entry, errInterrupted, now)
}

func checkTransition(from, to model.TranslationEntry) error {
	if !CanTransition(from.Status, to.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from.Status, to.Status)
	}
	return nil
}
