package translation

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/modelboard/api/internal/model"
)

// Fingerprint returns the SHA-1 hex digest of text.
func Fingerprint(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// NormalizeLanguage lowercases a language code and strips any region suffix,
// so "pt-BR" and "PT_br" both become "pt".
func NormalizeLanguage(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// NormalizeTargets normalizes codes and drops blanks and duplicates,
// keeping the first occurrence order.
func NormalizeTargets(codes []string) []string {
	seen := make(map[string]struct{}, len(codes))
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = NormalizeLanguage(code)
		if code == "" {
			continue
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out
}

func hasSource(p *model.Profile) bool {
	return p.Bio != ""
}

// IsStale reports whether the stored fingerprint no longer matches the bio.
func IsStale(p *model.Profile) bool {
	return p.BioHash != Fingerprint(p.Bio)
}

// NeedsReseed reports whether the translation set must be rebuilt before any
// entry can be trusted: the fingerprint is stale, an entry is missing, or an
// empty bio still carries entries.
func NeedsReseed(p *model.Profile, targets []string) bool {
	if IsStale(p) {
		return true
	}
	if !hasSource(p) {
		return len(p.Translations) > 0
	}
	for _, target := range targets {
		if _, ok := p.Translations[target]; !ok {
			return true
		}
	}
	return false
}

// Reseed rebuilds the translation set of p for targets and stores the current
// fingerprint.
//
// An empty bio empties the set. The target matching the bio language becomes
// a done identity copy. When the fingerprint is unchanged and force is false,
// existing entries are kept so finished translations and attempt counts
// survive unrelated updates. Everything else is reset to pending.
func Reseed(p *model.Profile, targets []string, force bool, now time.Time) {
	hash := Fingerprint(p.Bio)
	changed := p.BioHash != hash
	p.BioHash = hash

	if !hasSource(p) {
		p.Translations = model.TranslationSet{}
		return
	}

	source := NormalizeLanguage(p.BioLanguage)
	previous := p.Translations
	next := make(model.TranslationSet, len(targets))

	for _, target := range targets {
		if target == source {
			next[target] = model.TranslationEntry{
				Text:      p.Bio,
				Status:    model.TranslationStatusDone,
				UpdatedAt: now,
			}
			continue
		}

		if !force && !changed {
			if entry, ok := previous[target]; ok && !(entry.Status == model.TranslationStatusDone && entry.Text == "") {
				next[target] = entry
				continue
			}
		}

		next[target] = model.TranslationEntry{
			Status:    model.TranslationStatusPending,
			UpdatedAt: now,
		}
	}

	p.Translations = next
}
