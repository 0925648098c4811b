package translation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/modelboard/api/internal/client"
	"github.com/modelboard/api/internal/model"
	"github.com/modelboard/api/internal/repository"
)

var (
	// ErrFingerprintChanged aborts a job whose profile bio was edited after
	// it was scheduled. A job for the new fingerprint replaces it.
	ErrFingerprintChanged = errors.New("profile bio changed since job was scheduled")
	// ErrJobInFlight is returned by Execute when the job is already running.
	ErrJobInFlight = errors.New("translation job already in flight")
)

// ProfileStore is the persistence the scheduler reads from and writes back to.
// Update must run fn and store its result without letting another write in
// between.
type ProfileStore interface {
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	Update(ctx context.Context, id string, fn repository.UpdateFunc) (*model.Profile, error)
}

// Notifier receives every persisted entry transition.
type Notifier interface {
	TranslationUpdated(profileID, target string, entry model.TranslationEntry)
	TranslationsComplete(profileID string)
}

// SchedulerConfig holds the tunables of a Scheduler
type SchedulerConfig struct {
	Targets     []string
	Retry       RetryPolicy
	TargetDelay time.Duration
}

// Scheduler drives translation jobs to completion, at most one per
// profile and fingerprint.
type Scheduler struct {
	store      ProfileStore
	translator Translator
	registry   *Registry
	notifier   Notifier

	targets []string
	retry   RetryPolicy
	delay   time.Duration

	now func() time.Time
	wg  sync.WaitGroup
}

// NewScheduler creates a scheduler. A nil registry gets a fresh one.
func NewScheduler(store ProfileStore, translator Translator, registry *Registry, cfg SchedulerConfig) *Scheduler {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Scheduler{
		store:      store,
		translator: translator,
		registry:   registry,
		targets:    NormalizeTargets(cfg.Targets),
		retry:      cfg.Retry,
		delay:      cfg.TargetDelay,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetNotifier installs n to receive transitions
func (s *Scheduler) SetNotifier(n Notifier) {
	s.notifier = n
}

// Targets returns the supported target languages in processing order
func (s *Scheduler) Targets() []string {
	out := make([]string, len(s.targets))
	copy(out, s.targets)
	return out
}

// IsComplete reports whether p has every supported target translated
func (s *Scheduler) IsComplete(p *model.Profile) bool {
	return IsComplete(p, s.targets)
}

// InFlight reports whether a job for profileID is running in this process
func (s *Scheduler) InFlight(profileID string) bool {
	return s.registry.InFlightFor(profileID)
}

// ScheduleTranslations loads the profile and schedules a job for its current
// bio. It returns once the job is started or found redundant.
func (s *Scheduler) ScheduleTranslations(ctx context.Context, profileID string) (bool, error) {
	p, err := s.store.GetByID(ctx, profileID)
	if err != nil {
		return false, err
	}
	return s.Schedule(p), nil
}

// Schedule starts a background job for the snapshot p unless one is already
// running for the same fingerprint or nothing is left to do. The job runs
// detached from any caller context.
func (s *Scheduler) Schedule(p *model.Profile) bool {
	if !s.hasWork(p) {
		return false
	}

	job := model.TranslationJob{ProfileID: p.ID, SourceHash: Fingerprint(p.Bio)}
	if !s.registry.TryClaim(job.Key()) {
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.registry.Release(job.Key())

		if err := s.Run(context.Background(), job); err != nil {
			if errors.Is(err, ErrFingerprintChanged) {
				log.Printf("Translation job %s aborted: bio changed", job.Key())
				return
			}
			log.Printf("Translation job %s failed: %v", job.Key(), err)
		}
	}()
	return true
}

// Execute runs job synchronously under the registry claim.
func (s *Scheduler) Execute(ctx context.Context, job model.TranslationJob) error {
	if !s.registry.TryClaim(job.Key()) {
		return ErrJobInFlight
	}
	defer s.registry.Release(job.Key())
	return s.Run(ctx, job)
}

// Wait blocks until every job started by Schedule has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// ForceRetranslate resets every non-identity target of the stored version of
// p to pending, persists it and schedules a job. It reports whether a new
// job started.
func (s *Scheduler) ForceRetranslate(ctx context.Context, p *model.Profile) (*model.Profile, bool, error) {
	saved, err := s.store.Update(ctx, p.ID, func(current *model.Profile) error {
		Reseed(current, s.targets, true, s.now())
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to save profile: %w", err)
	}
	return saved, s.Schedule(saved), nil
}

// Run is the job body. Targets are processed one after another in
// configuration order, and every transition is written back before the next
// step, so progress survives a restart.
func (s *Scheduler) Run(ctx context.Context, job model.TranslationJob) error {
	p, err := s.reload(ctx, job)
	if err != nil {
		return err
	}

	if NeedsReseed(p, s.targets) {
		_, err := s.store.Update(ctx, job.ProfileID, func(current *model.Profile) error {
			if Fingerprint(current.Bio) != job.SourceHash {
				return ErrFingerprintChanged
			}
			Reseed(current, s.targets, false, s.now())
			return nil
		})
		if err != nil {
			return wrapStoreError(err)
		}
	}

	log.Printf("Starting translation job: %s", job.Key())

	called := false
	for _, target := range s.targets {
		p, err := s.reload(ctx, job)
		if err != nil {
			return err
		}

		entry, ok := p.Translations[target]
		if !ok {
			continue
		}

		if !s.retry.Claimable(entry) {
			if entry.Status == model.TranslationStatusProcessing {
				if _, err := s.update(ctx, job, target, func(e model.TranslationEntry) model.TranslationEntry {
					return Interrupt(e, s.now())
				}); err != nil {
					return err
				}
			}
			continue
		}

		if called {
			if err := sleep(ctx, s.delay); err != nil {
				return err
			}
		}
		called = true

		if _, err := s.update(ctx, job, target, func(e model.TranslationEntry) model.TranslationEntry {
			return Begin(e, s.now())
		}); err != nil {
			return err
		}

		source := NormalizeLanguage(p.BioLanguage)
		if source == "" {
			source = client.AutoDetect
		}
		text, terr := s.translator.Translate(ctx, p.Bio, source, target)

		if _, err := s.update(ctx, job, target, func(e model.TranslationEntry) model.TranslationEntry {
			if terr != nil {
				return Fail(e, terr, s.now())
			}
			return Complete(e, text, s.now())
		}); err != nil {
			return err
		}
		if terr != nil {
			log.Printf("Translation %s -> %s failed: %v", job.Key(), target, terr)
		}
	}

	final, err := s.reload(ctx, job)
	if err != nil {
		return err
	}
	if s.IsComplete(final) && s.notifier != nil {
		s.notifier.TranslationsComplete(job.ProfileID)
	}

	log.Printf("Translation job %s finished", job.Key())
	return nil
}

// hasWork reports whether a job for p would change anything
func (s *Scheduler) hasWork(p *model.Profile) bool {
	if NeedsReseed(p, s.targets) {
		return true
	}
	for _, target := range s.targets {
		entry, ok := p.Translations[target]
		if !ok {
			continue
		}
		if s.retry.Claimable(entry) || entry.Status == model.TranslationStatusProcessing {
			return true
		}
	}
	return false
}

// reload fetches a fresh snapshot and checks it still belongs to job
func (s *Scheduler) reload(ctx context.Context, job model.TranslationJob) (*model.Profile, error) {
	p, err := s.store.GetByID(ctx, job.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if Fingerprint(p.Bio) != job.SourceHash {
		return nil, ErrFingerprintChanged
	}
	return p, nil
}

// update applies fn to one entry of the stored profile. The fingerprint is
// checked in the same write, so an edit that lands mid-job is never
// overwritten.
func (s *Scheduler) update(ctx context.Context, job model.TranslationJob, target string, fn func(model.TranslationEntry) model.TranslationEntry) (*model.Profile, error) {
	var next model.TranslationEntry
	saved, err := s.store.Update(ctx, job.ProfileID, func(p *model.Profile) error {
		if Fingerprint(p.Bio) != job.SourceHash || p.BioHash != job.SourceHash {
			return ErrFingerprintChanged
		}
		current := p.Translations[target]
		next = fn(current)
		if err := checkTransition(current, next); err != nil {
			return err
		}
		if p.Translations == nil {
			p.Translations = model.TranslationSet{}
		}
		p.Translations[target] = next
		return nil
	})
	if err != nil {
		return nil, wrapStoreError(err)
	}

	if s.notifier != nil {
		s.notifier.TranslationUpdated(job.ProfileID, target, next)
	}
	return saved, nil
}

// wrapStoreError keeps job-level sentinels unwrapped
func wrapStoreError(err error) error {
	if errors.Is(err, ErrFingerprintChanged) || errors.Is(err, ErrInvalidTransition) {
		return err
	}
	return fmt.Errorf("failed to save profile: %w", err)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
