package service

import (
	"context"
	"fmt"
	"time"

	"github.com/evently/evently/internal/domain"
	"github.com/evently/evently/internal/mailer"
	"github.com/evently/evently/internal/repository"
	"github.com/evently/evently/pkg/config"
	"github.com/evently/evently/pkg/events"
	"github.com/evently/evently/pkg/logger"
)

type EventService interface {
	Create(ctx context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error)
	Get(ctx context.Context, id int64) (*domain.Event, error)
	List(ctx context.Context, limit, offset int) ([]domain.Event, error)
	Update(ctx context.Context, id, userID int64, patch domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id, userID int64) error
	RSVP(ctx context.Context, eventID, userID int64) (*domain.RSVP, error)
}

type eventService struct {
	eventRepo repository.EventRepository
	rsvpRepo  repository.RSVPRepository
	userRepo  repository.UserRepository
	mailer    mailer.Service
	eventBus  events.Publisher
	config    *config.Config
}

func NewEventService(
	eventRepo repository.EventRepository,
	rsvpRepo repository.RSVPRepository,
	userRepo repository.UserRepository,
	mailer mailer.Service,
	eventBus events.Publisher,
	config *config.Config,
) EventService {
	return &eventService{
		eventRepo: eventRepo,
		rsvpRepo:  rsvpRepo,
		userRepo:  userRepo,
		mailer:    mailer,
		eventBus:  eventBus,
		config:    config,
	}
}

func (s *eventService) Create(ctx context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	event, err := s.eventRepo.Create(ctx, userID, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	// Announce to all users; a mail failure never fails the creation.
	if emails, err := s.userRepo.ListEmails(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to list recipients for event notice", "error", err, "event_id", event.ID)
	} else if len(emails) > 0 {
		if err := s.mailer.SendEventCreated(emails, event); err != nil {
			logger.ErrorContext(ctx, "Failed to send event created email", "error", err, "event_id", event.ID)
		}
	}

	s.publish(ctx, events.EventCreated, events.EventCreatedEvent{
		EventID:   event.ID,
		Title:     event.Title,
		Location:  event.Location,
		Date:      event.Date,
		CreatedBy: event.CreatedBy,
		CreatedAt: event.CreatedAt,
	})

	return event, nil
}

func (s *eventService) Get(ctx context.Context, id int64) (*domain.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) List(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	evts, err := s.eventRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return evts, nil
}

func (s *eventService) Update(ctx context.Context, id, userID int64, patch domain.EventPatch) (*domain.Event, error) {
	if err := patch.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrEventNotFound
	}
	if existing.CreatedBy != userID {
		return nil, domain.ErrNotOwner
	}

	updated, err := s.eventRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrEventNotFound
	}

	changes := changedFields(existing, updated)
	if len(changes) > 0 {
		s.notifyAttendees(ctx, id, func(emails []string) error {
			return s.mailer.SendEventUpdated(emails, updated, changes, s.displayName(ctx, userID))
		})
	}

	s.publish(ctx, events.EventUpdated, events.EventUpdatedEvent{
		EventID:   updated.ID,
		Title:     updated.Title,
		Changes:   changes,
		UpdatedBy: userID,
		UpdatedAt: updated.UpdatedAt,
	})

	return updated, nil
}

func (s *eventService) Delete(ctx context.Context, id, userID int64) error {
	existing, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get event: %w", err)
	}
	if existing == nil {
		return domain.ErrEventNotFound
	}
	if existing.CreatedBy != userID {
		return domain.ErrNotOwner
	}

	// Attendee emails have to be collected before the delete cascades away
	// the RSVP rows.
	attendees, err := s.rsvpRepo.ListAttendeeEmails(ctx, id)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list attendees before delete", "error", err, "event_id", id)
	}

	deleted, err := s.eventRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if !deleted {
		return domain.ErrEventNotFound
	}

	if len(attendees) > 0 {
		if err := s.mailer.SendEventCanceled(attendees, existing, s.displayName(ctx, userID)); err != nil {
			logger.ErrorContext(ctx, "Failed to send event canceled email", "error", err, "event_id", id)
		}
	}

	s.publish(ctx, events.EventDeleted, events.EventDeletedEvent{
		EventID:   existing.ID,
		Title:     existing.Title,
		DeletedBy: userID,
		DeletedAt: time.Now().UTC(),
	})

	return nil
}

func (s *eventService) RSVP(ctx context.Context, eventID, userID int64) (*domain.RSVP, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, domain.ErrEventNotFound
	}

	existing, err := s.rsvpRepo.Find(ctx, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to check rsvp: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrAlreadyRSVPed
	}

	rsvp, err := s.rsvpRepo.Create(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		logger.ErrorContext(ctx, "Failed to load user for rsvp confirmation", "error", err, "user_id", userID)
	} else if err := s.mailer.SendRSVPConfirmed(user.Email, event); err != nil {
		logger.ErrorContext(ctx, "Failed to send rsvp confirmation email", "error", err, "event_id", eventID)
	}

	s.publish(ctx, events.EventRSVP, events.EventRSVPEvent{
		EventID:  eventID,
		UserID:   userID,
		RSVPedAt: rsvp.CreatedAt,
	})

	return rsvp, nil
}

func (s *eventService) notifyAttendees(ctx context.Context, eventID int64, send func(emails []string) error) {
	emails, err := s.rsvpRepo.ListAttendeeEmails(ctx, eventID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to list attendees", "error", err, "event_id", eventID)
		return
	}
	if len(emails) == 0 {
		return
	}
	if err := send(emails); err != nil {
		logger.ErrorContext(ctx, "Failed to send attendee notice", "error", err, "event_id", eventID)
	}
}

func (s *eventService) displayName(ctx context.Context, userID int64) string {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil || user == nil {
		return "Event Organizer"
	}
	return user.FullName
}

func changedFields(before, after *domain.Event) []string {
	var changes []string
	if before.Title != after.Title {
		changes = append(changes, "title")
	}
	if before.Description != after.Description {
		changes = append(changes, "description")
	}
	if before.Location != after.Location {
		changes = append(changes, "location")
	}
	if !before.Date.Equal(after.Date) {
		changes = append(changes, "date")
	}
	return changes
}

func (s *eventService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.ErrorContext(ctx, "Failed to publish event", "error", err, "subject", subject)
	}
}
