package translation

import "github.com/modelboard/api/internal/model"

// IsComplete reports whether p needs no more translation work: the bio is
// empty, or every target is done with text.
func IsComplete(p *model.Profile, targets []string) bool {
	if !hasSource(p) {
		return true
	}
	if IsStale(p) {
		return false
	}
	for _, target := range targets {
		entry, ok := p.Translations[target]
		if !ok || entry.Status != model.TranslationStatusDone || entry.Text == "" {
			return false
		}
	}
	return true
}

// DisplayText returns the bio to show in target. It never blocks and never
// returns empty while a bio exists: anything not yet translated falls back to
// the source text.
func DisplayText(p *model.Profile, target string) string {
	target = NormalizeLanguage(target)
	if !hasSource(p) || target == "" || target == NormalizeLanguage(p.BioLanguage) {
		return p.Bio
	}
	if IsStale(p) {
		return p.Bio
	}
	if entry, ok := p.Translations[target]; ok && entry.Status == model.TranslationStatusDone && entry.Text != "" {
		return entry.Text
	}
	return p.Bio
}
