package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/modelboard/api/internal/model"
	"github.com/modelboard/api/internal/repository"
	"github.com/modelboard/api/internal/translation"
)

const (
	TaskTypeTranslationSweep = "translation:sweep"
	QueueTranslation         = "translation"
)

// ErrQueueUnavailable is returned when a sweep is requested without a task queue.
var ErrQueueUnavailable = errors.New("task queue not configured")

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ProfileService handles profile reads and writes and keeps bio
// translations scheduled.
type ProfileService struct {
	repo      repository.ProfileRepository
	scheduler *translation.Scheduler
	queue     TaskEnqueuer
	now       func() time.Time
}

// NewProfileService creates the service. queue may be nil, in which case
// sweeps can only run through SweepTranslations.
func NewProfileService(repo repository.ProfileRepository, scheduler *translation.Scheduler, queue TaskEnqueuer) *ProfileService {
	return &ProfileService{
		repo:      repo,
		scheduler: scheduler,
		queue:     queue,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new profile and schedules its translations
func (s *ProfileService) Create(ctx context.Context, req *model.ProfileCreateRequest) (*model.ProfileResponse, error) {
	now := s.now()
	p := &model.Profile{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Bio:         req.Bio,
		BioLanguage: translation.NormalizeLanguage(req.BioLanguage),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	translation.Reseed(p, s.scheduler.Targets(), false, now)

	saved, err := s.repo.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	s.scheduler.Schedule(saved)

	return s.toResponse(saved, saved.BioLanguage), nil
}

// Get returns the profile with its bio in lang. Reading an incomplete
// profile schedules the missing work; the read itself never waits for it.
func (s *ProfileService) Get(ctx context.Context, id, lang string) (*model.ProfileResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.ensureScheduled(p)
	return s.toResponse(p, lang), nil
}

// List returns every profile with its bio in lang
func (s *ProfileService) List(ctx context.Context, lang string) ([]model.ProfileResponse, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]model.ProfileResponse, 0, len(profiles))
	for _, p := range profiles {
		s.ensureScheduled(p)
		out = append(out, *s.toResponse(p, lang))
	}
	return out, nil
}

// UpdateBio replaces the bio. A new fingerprint invalidates every
// translation, and so does a new bio language even when the text is the same.
func (s *ProfileService) UpdateBio(ctx context.Context, id string, req *model.BioUpdateRequest) (*model.ProfileResponse, error) {
	saved, err := s.repo.Update(ctx, id, func(p *model.Profile) error {
		languageChanged := false
		if req.BioLanguage != "" {
			lang := translation.NormalizeLanguage(req.BioLanguage)
			languageChanged = lang != p.BioLanguage
			p.BioLanguage = lang
		}
		p.Bio = req.Bio
		p.UpdatedAt = s.now()
		translation.Reseed(p, s.scheduler.Targets(), languageChanged, p.UpdatedAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	s.scheduler.Schedule(saved)

	return s.toResponse(saved, saved.BioLanguage), nil
}

// TranslationStatus returns every target entry of a profile
func (s *ProfileService) TranslationStatus(ctx context.Context, id string) (*model.TranslationStatusResponse, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries := p.Translations
	if entries == nil {
		entries = model.TranslationSet{}
	}
	return &model.TranslationStatusResponse{
		ProfileID: p.ID,
		BioHash:   p.BioHash,
		Complete:  s.scheduler.IsComplete(p),
		InFlight:  s.scheduler.InFlight(p.ID),
		Targets:   s.scheduler.Targets(),
		Entries:   entries,
	}, nil
}

// Retranslate schedules one profile. With Force every non-identity target
// is reset first, including targets that gave up.
func (s *ProfileService) Retranslate(ctx context.Context, req *model.RetranslateRequest) (*model.RetranslateResponse, error) {
	p, err := s.repo.GetByID(ctx, req.EntityID)
	if err != nil {
		return nil, err
	}

	var scheduled bool
	if req.Force {
		p, scheduled, err = s.scheduler.ForceRetranslate(ctx, p)
		if err != nil {
			return nil, err
		}
	} else {
		scheduled = s.scheduler.Schedule(p)
	}

	log.Printf("Retranslate requested for profile %s (force=%t, scheduled=%t)", p.ID, req.Force, scheduled)

	return &model.RetranslateResponse{
		ProfileID: p.ID,
		Scheduled: scheduled,
		Entries:   p.Translations,
	}, nil
}

// EnqueueSweep queues a sweep over every profile on the translation queue
func (s *ProfileService) EnqueueSweep(ctx context.Context, req *model.SweepRequest) (*model.SweepResponse, error) {
	if s.queue == nil {
		return nil, ErrQueueUnavailable
	}

	task, err := NewSweepTask(req.Force, uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	info, err := s.queue.Enqueue(task,
		asynq.Queue(QueueTranslation),
		asynq.MaxRetry(1),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.SweepResponse{
		TaskID: info.ID,
		Queue:  info.Queue,
		Force:  req.Force,
	}, nil
}

// SweepTranslations schedules every incomplete profile, or every profile
// with force. It returns how many jobs were started.
func (s *ProfileService) SweepTranslations(ctx context.Context, force bool) (int, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list profiles: %w", err)
	}

	started := 0
	for _, p := range profiles {
		if err := ctx.Err(); err != nil {
			return started, err
		}

		if force {
			_, scheduled, err := s.scheduler.ForceRetranslate(ctx, p)
			if err != nil {
				log.Printf("Sweep failed to reset profile %s: %v", p.ID, err)
				continue
			}
			if scheduled {
				started++
			}
			continue
		}

		if s.scheduler.Schedule(p) {
			started++
		}
	}
	return started, nil
}

// NewSweepTask builds the asynq task for a translation sweep
func NewSweepTask(force bool, requestID string) (*asynq.Task, error) {
	data, err := json.Marshal(model.SweepPayload{Force: force, RequestID: requestID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTranslationSweep, data), nil
}

func (s *ProfileService) ensureScheduled(p *model.Profile) {
	if !s.scheduler.IsComplete(p) {
		s.scheduler.Schedule(p)
	}
}

func (s *ProfileService) toResponse(p *model.Profile, lang string) *model.ProfileResponse {
	display := translation.NormalizeLanguage(lang)
	if display == "" {
		display = p.BioLanguage
	}
	return &model.ProfileResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Bio:                  translation.DisplayText(p, display),
		BioLanguage:          p.BioLanguage,
		DisplayLanguage:      display,
		TranslationsComplete: s.scheduler.IsComplete(p),
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
