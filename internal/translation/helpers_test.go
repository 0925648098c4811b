package translation

import (
	"context"
	"sync"
	"time"

	"github.com/modelboard/api/internal/model"
)

// stubProvider is a client.Provider driven by fn that counts its calls.
type stubProvider struct {
	name string
	fn   func(ctx context.Context, text, source, target string) (string, error)

	mu    sync.Mutex
	calls int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.fn(ctx, text, source, target)
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// prefixProvider maps any input to "<target>:<input>".
func prefixProvider(name string) *stubProvider {
	return &stubProvider{
		name: name,
		fn: func(_ context.Context, text, _, target string) (string, error) {
			return target + ":" + text, nil
		},
	}
}

type transition struct {
	profileID string
	target    string
	entry     model.TranslationEntry
	at        time.Time
}

// recordingNotifier keeps every transition it is told about.
type recordingNotifier struct {
	mu        sync.Mutex
	updates   []transition
	completed []string
}

func (n *recordingNotifier) TranslationUpdated(profileID, target string, entry model.TranslationEntry) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, transition{profileID: profileID, target: target, entry: entry, at: time.Now()})
}

func (n *recordingNotifier) TranslationsComplete(profileID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, profileID)
}

func (n *recordingNotifier) forTarget(target string) []model.TranslationEntry {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.TranslationEntry
	for _, u := range n.updates {
		if u.target == target {
			out = append(out, u.entry)
		}
	}
	return out
}

// startedAt returns when each target entered processing, in order.
func (n *recordingNotifier) startedAt() []transition {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []transition
	for _, u := range n.updates {
		if u.entry.Status == model.TranslationStatusProcessing {
			out = append(out, u)
		}
	}
	return out
}
