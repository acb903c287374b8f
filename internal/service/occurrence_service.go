package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"birthdays/internal/config"
	"birthdays/internal/models"
	"birthdays/internal/repository"
)

// OccurrenceService materialises annual event occurrences into durable
// scheduled records. It is safe to run concurrently across replicas: the
// store's unique identity index makes the insert idempotent.
type OccurrenceService struct {
	users     repository.UserRepository
	messages  repository.MessageRepository
	templates *TemplateService
	hour      int
	minute    int
	log       *zap.Logger
	now       func() time.Time
}

// NewOccurrenceService creates a new occurrence materialiser
func NewOccurrenceService(
	users repository.UserRepository,
	messages repository.MessageRepository,
	templates *TemplateService,
	cfg config.SchedulerConfig,
	log *zap.Logger,
) *OccurrenceService {
	return &OccurrenceService{
		users:     users,
		messages:  messages,
		templates: templates,
		hour:      cfg.MessageHour,
		minute:    cfg.MessageMinute,
		log:       log,
		now:       time.Now,
	}
}

// MaterializeToday walks all active users and inserts a pending birthday
// record for everyone whose event day it is in their own timezone. Per-user
// errors are logged and do not abort the batch.
func (s *OccurrenceService) MaterializeToday(ctx context.Context) error {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}

	now := s.now()
	created := 0
	for _, user := range users {
		ok, err := s.materializeUser(ctx, user, now)
		if err != nil {
			s.log.Error("failed to materialise occurrence",
				zap.Int("user_id", user.ID),
				zap.Error(err))
			continue
		}
		if ok {
			created++
		}
	}

	s.log.Info("materialisation pass finished",
		zap.Int("users", len(users)),
		zap.Int("created", created))
	return nil
}

// materializeUser inserts the user's record when today (in the user's zone)
// matches the birthday anchor. Returns true when a new record was created.
func (s *OccurrenceService) materializeUser(ctx context.Context, user *models.User, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(user.Timezone)
	if err != nil {
		return false, fmt.Errorf("invalid timezone %q: %w", user.Timezone, err)
	}

	anchorMonth, anchorDay, ok := user.BirthdayMonthDay()
	if !ok {
		return false, fmt.Errorf("malformed birthday %q", user.Birthday)
	}

	// Textual month/day comparison: a Feb 29 anchor never matches on
	// non-leap years, it is not shifted.
	local := now.In(loc)
	if local.Format("01") != anchorMonth || local.Format("02") != anchorDay {
		return false, nil
	}

	body, err := s.templates.Render(DefaultGreetingTemplate, user, string(models.MessageTypeBirthday))
	if err != nil {
		return false, fmt.Errorf("failed to render greeting: %w", err)
	}

	msg := &models.ScheduledMessage{
		UserID:        user.ID,
		MessageType:   models.MessageTypeBirthday,
		MessageBody:   body,
		ScheduledDate: civilDate(now, loc),
		ScheduledAt:   sendInstant(local.Year(), local.Month(), local.Day(), s.hour, s.minute, loc),
	}

	created, err := s.messages.CreateIfAbsent(ctx, msg)
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info("materialised occurrence",
			zap.Int("user_id", user.ID),
			zap.String("scheduled_date", msg.ScheduledDate),
			zap.Time("scheduled_at", msg.ScheduledAt))
	}
	return created, nil
}
