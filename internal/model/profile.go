package model

import "time"

// Profile is a model/listing profile owning a free-text biography.
type Profile struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Bio          string         `json:"bio"`
	BioLanguage  string         `json:"bioLanguage,omitempty"`
	BioHash      string         `json:"bioHash,omitempty"`
	Translations TranslationSet `json:"translations,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// TranslationSet maps a target language code to its entry.
type TranslationSet map[string]TranslationEntry

// TranslationEntry is the state of one target language for one profile.
type TranslationEntry struct {
	Text      string            `json:"text"`
	Status    TranslationStatus `json:"status"`
	Attempts  int               `json:"attempts"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Error     *TranslationError `json:"error,omitempty"`
}

// TranslationError records the last failure of a target language.
type TranslationError struct {
	Class   ErrorClass `json:"class"`
	Message string     `json:"message"`
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Translations = p.Translations.Clone()
	return &cp
}

// Clone returns a deep copy of the set. A nil set stays nil.
func (s TranslationSet) Clone() TranslationSet {
	if s == nil {
		return nil
	}
	out := make(TranslationSet, len(s))
	for lang, entry := range s {
		if entry.Error != nil {
			e := *entry.Error
			entry.Error = &e
		}
		out[lang] = entry
	}
	return out
}

// ProfileCreateRequest represents the request to create a profile
type ProfileCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Bio         string `json:"bio" validate:"max=5000"`
	BioLanguage string `json:"bioLanguage" validate:"omitempty,min=2,max=10"`
}

// BioUpdateRequest represents the request to edit a profile biography
type BioUpdateRequest struct {
	Bio         string `json:"bio" validate:"max=5000"`
	BioLanguage string `json:"bioLanguage" validate:"omitempty,min=2,max=10"`
}

// RetranslateRequest is the operator request to retranslate one profile
type RetranslateRequest struct {
	EntityID string `json:"entityId" validate:"required"`
	Force    bool   `json:"force"`
}

// SweepRequest is the operator request to sweep every profile
type SweepRequest struct {
	Force bool `json:"force"`
}

// ProfileResponse is the public view of a profile in one display language
type ProfileResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Bio                  string    `json:"bio"`
	BioLanguage          string    `json:"bioLanguage,omitempty"`
	DisplayLanguage      string    `json:"displayLanguage,omitempty"`
	TranslationsComplete bool      `json:"translationsComplete"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// TranslationStatusResponse lists every target entry of a profile
type TranslationStatusResponse struct {
	ProfileID string         `json:"profileId"`
	BioHash   string         `json:"bioHash"`
	Complete  bool           `json:"complete"`
	InFlight  bool           `json:"inFlight"`
	Targets   []string       `json:"targets"`
	Entries   TranslationSet `json:"entries"`
}

// RetranslateResponse is returned by the operator retranslate endpoint
type RetranslateResponse struct {
	ProfileID string         `json:"profileId"`
	Scheduled bool           `json:"scheduled"`
	Entries   TranslationSet `json:"entries"`
}

// SweepResponse is returned when a sweep has been queued
type SweepResponse struct {
	TaskID string `json:"taskId"`
	Queue  string `json:"queue"`
	Force  bool   `json:"force"`
}
