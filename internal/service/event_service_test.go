package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/evently/evently/internal/domain"
)

type mockEventRepo struct {
	events map[int64]*domain.Event
	nextID int64
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{events: make(map[int64]*domain.Event), nextID: 1}
}

func (m *mockEventRepo) Create(_ context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error) {
	e := &domain.Event{
		ID:          m.nextID,
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Date:        req.Date,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	m.nextID++
	m.events[e.ID] = e
	return e, nil
}

func (m *mockEventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	e, exists := m.events[id]
	if !exists {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (m *mockEventRepo) List(_ context.Context, limit, offset int) ([]domain.Event, error) {
	var out []domain.Event
	for _, e := range m.events {
		out = append(out, *e)
	}
	return out, nil
}

func (m *mockEventRepo) Update(_ context.Context, id int64, patch domain.EventPatch) (*domain.Event, error) {
	e, exists := m.events[id]
	if !exists {
		return nil, nil
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.Date != nil {
		e.Date = *patch.Date
	}
	e.UpdatedAt = time.Now()
	copied := *e
	return &copied, nil
}

func (m *mockEventRepo) Delete(_ context.Context, id int64) (bool, error) {
	if _, exists := m.events[id]; !exists {
		return false, nil
	}
	delete(m.events, id)
	return true, nil
}

type rsvpKey struct{ userID, eventID int64 }

type mockRSVPRepo struct {
	rsvps     map[rsvpKey]*domain.RSVP
	attendees map[int64][]string
	nextID    int64
}

func newMockRSVPRepo() *mockRSVPRepo {
	return &mockRSVPRepo{
		rsvps:     make(map[rsvpKey]*domain.RSVP),
		attendees: make(map[int64][]string),
		nextID:    1,
	}
}

func (m *mockRSVPRepo) Create(_ context.Context, userID, eventID int64) (*domain.RSVP, error) {
	key := rsvpKey{userID, eventID}
	if _, exists := m.rsvps[key]; exists {
		return nil, domain.ErrAlreadyRSVPed
	}
	r := &domain.RSVP{ID: m.nextID, UserID: userID, EventID: eventID, CreatedAt: time.Now()}
	m.nextID++
	m.rsvps[key] = r
	return r, nil
}

func (m *mockRSVPRepo) Find(_ context.Context, userID, eventID int64) (*domain.RSVP, error) {
	r, exists := m.rsvps[rsvpKey{userID, eventID}]
	if !exists {
		return nil, nil
	}
	copied := *r
	return &copied, nil
}

func (m *mockRSVPRepo) ListAttendeeEmails(_ context.Context, eventID int64) ([]string, error) {
	return m.attendees[eventID], nil
}

// recordingMailer tracks the event-notification calls the plain mockMailer
// only returns errors for.
type recordingMailer struct {
	mockMailer
	createdTo  []string
	updatedTo  []string
	changes    []string
	canceledTo []string
	rsvpTo     string
}

func (m *recordingMailer) SendEventCreated(recipients []string, _ *domain.Event) error {
	m.createdTo = recipients
	return m.sendErr
}

func (m *recordingMailer) SendEventUpdated(recipients []string, _ *domain.Event, changes []string, _ string) error {
	m.updatedTo = recipients
	m.changes = changes
	return m.sendErr
}

func (m *recordingMailer) SendEventCanceled(recipients []string, _ *domain.Event, _ string) error {
	m.canceledTo = recipients
	return m.sendErr
}

func (m *recordingMailer) SendRSVPConfirmed(email string, _ *domain.Event) error {
	m.rsvpTo = email
	return m.sendErr
}

func newTestEventService(eventRepo *mockEventRepo, rsvpRepo *mockRSVPRepo, userRepo *mockUserRepo, mail *recordingMailer) EventService {
	return NewEventService(eventRepo, rsvpRepo, userRepo, mail, &mockPublisher{}, testConfig())
}

func strPtr(s string) *string { return &s }

func TestCreateEventNotifiesAllUsers(t *testing.T) {
	eventRepo := newMockEventRepo()
	userRepo := newMockUserRepo()
	mail := &recordingMailer{}
	svc := newTestEventService(eventRepo, newMockRSVPRepo(), userRepo, mail)
	owner := seedUser(t, userRepo, "owner@x.com", "secret1", true)

	event, err := svc.Create(context.Background(), owner.ID, &domain.CreateEventRequest{
		Title: "Launch Party",
		Date:  time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if event.CreatedBy != owner.ID {
		t.Errorf("CreatedBy = %d, want %d", event.CreatedBy, owner.ID)
	}
	if len(mail.createdTo) != 1 || mail.createdTo[0] != "owner@x.com" {
		t.Errorf("announcement recipients = %v, want [owner@x.com]", mail.createdTo)
	}
}

func TestCreateEventValidation(t *testing.T) {
	svc := newTestEventService(newMockEventRepo(), newMockRSVPRepo(), newMockUserRepo(), &recordingMailer{})

	_, err := svc.Create(context.Background(), 1, &domain.CreateEventRequest{Title: "  "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestGetEventNotFound(t *testing.T) {
	svc := newTestEventService(newMockEventRepo(), newMockRSVPRepo(), newMockUserRepo(), &recordingMailer{})

	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}

func TestUpdateEventOwnerOnly(t *testing.T) {
	eventRepo := newMockEventRepo()
	userRepo := newMockUserRepo()
	svc := newTestEventService(eventRepo, newMockRSVPRepo(), userRepo, &recordingMailer{})
	owner := seedUser(t, userRepo, "owner@x.com", "secret1", true)
	event, _ := eventRepo.Create(context.Background(), owner.ID, &domain.CreateEventRequest{
		Title: "Meetup", Date: time.Now().Add(24 * time.Hour),
	})

	_, err := svc.Update(context.Background(), event.ID, owner.ID+100, domain.EventPatch{Title: strPtr("Taken Over")})
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
	if stored, _ := eventRepo.GetByID(context.Background(), event.ID); stored.Title != "Meetup" {
		t.Errorf("title changed by non-owner: %q", stored.Title)
	}
}

func TestUpdateEventNotifiesAttendeesOfChanges(t *testing.T) {
	eventRepo := newMockEventRepo()
	rsvpRepo := newMockRSVPRepo()
	userRepo := newMockUserRepo()
	mail := &recordingMailer{}
	svc := newTestEventService(eventRepo, rsvpRepo, userRepo, mail)
	owner := seedUser(t, userRepo, "owner@x.com", "secret1", true)
	event, _ := eventRepo.Create(context.Background(), owner.ID, &domain.CreateEventRequest{
		Title: "Meetup", Location: "HQ", Date: time.Now().Add(24 * time.Hour),
	})
	rsvpRepo.attendees[event.ID] = []string{"guest@x.com"}

	updated, err := svc.Update(context.Background(), event.ID, owner.ID, domain.EventPatch{
		Title:    strPtr("Meetup v2"),
		Location: strPtr("Rooftop"),
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Title != "Meetup v2" || updated.Location != "Rooftop" {
		t.Errorf("update not applied: %+v", updated)
	}

	if len(mail.updatedTo) != 1 || mail.updatedTo[0] != "guest@x.com" {
		t.Errorf("update notice recipients = %v, want [guest@x.com]", mail.updatedTo)
	}
	want := map[string]bool{"title": true, "location": true}
	if len(mail.changes) != 2 || !want[mail.changes[0]] || !want[mail.changes[1]] {
		t.Errorf("changed fields = %v, want title and location", mail.changes)
	}
}

func TestUpdateEventNoChangeSkipsNotice(t *testing.T) {
	eventRepo := newMockEventRepo()
	rsvpRepo := newMockRSVPRepo()
	userRepo := newMockUserRepo()
	mail := &recordingMailer{}
	svc := newTestEventService(eventRepo, rsvpRepo, userRepo, mail)
	owner := seedUser(t, userRepo, "owner@x.com", "secret1", true)
	event, _ := eventRepo.Create(context.Background(), owner.ID, &domain.CreateEventRequest{
		Title: "Meetup", Date: time.Now().Add(24 * time.Hour),
	})
	rsvpRepo.attendees[event.ID] = []string{"guest@x.com"}

	if _, err := svc.Update(context.Background(), event.ID, owner.ID, domain.EventPatch{Title: strPtr("Meetup")}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if mail.updatedTo != nil {
		t.Errorf("notice sent for a no-op patch: %v", mail.updatedTo)
	}
}

func TestDeleteEventNotifiesAttendees(t *testing.T) {
	eventRepo := newMockEventRepo()
	rsvpRepo := newMockRSVPRepo()
	userRepo := newMockUserRepo()
	mail := &recordingMailer{}
	svc := newTestEventService(eventRepo, rsvpRepo, userRepo, mail)
	owner := seedUser(t, userRepo, "owner@x.com", "secret1", true)
	event, _ := eventRepo.Create(context.Background(), owner.ID, &domain.CreateEventRequest{
		Title: "Meetup", Date: time.Now().Add(24 * time.Hour),
	})
	rsvpRepo.attendees[event.ID] = []string{"guest@x.com"}

	if err := svc.Delete(context.Background(), event.ID, owner.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, exists := eventRepo.events[event.ID]; exists {
		t.Error("event still present after delete")
	}
	if len(mail.canceledTo) != 1 || mail.canceledTo[0] != "guest@x.com" {
		t.Errorf("cancellation recipients = %v, want [guest@x.com]", mail.canceledTo)
	}
}

func TestDeleteEventRejectsNonOwner(t *testing.T) {
	eventRepo := newMockEventRepo()
	svc := newTestEventService(eventRepo, newMockRSVPRepo(), newMockUserRepo(), &recordingMailer{})
	event, _ := eventRepo.Create(context.Background(), 1, &domain.CreateEventRequest{
		Title: "Meetup", Date: time.Now().Add(24 * time.Hour),
	})

	if err := svc.Delete(context.Background(), event.ID, 2); !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("err = %v, want ErrNotOwner", err)
	}
}

func TestRSVPConfirmsOnce(t *testing.T) {
	eventRepo := newMockEventRepo()
	rsvpRepo := newMockRSVPRepo()
	userRepo := newMockUserRepo()
	mail := &recordingMailer{}
	svc := newTestEventService(eventRepo, rsvpRepo, userRepo, mail)
	guest := seedUser(t, userRepo, "guest@x.com", "secret1", true)
	event, _ := eventRepo.Create(context.Background(), 99, &domain.CreateEventRequest{
		Title: "Meetup", Date: time.Now().Add(24 * time.Hour),
	})

	rsvp, err := svc.RSVP(context.Background(), event.ID, guest.ID)
	if err != nil {
		t.Fatalf("RSVP returned error: %v", err)
	}
	if rsvp.UserID != guest.ID || rsvp.EventID != event.ID {
		t.Errorf("rsvp = %+v, want user %d event %d", rsvp, guest.ID, event.ID)
	}
	if mail.rsvpTo != "guest@x.com" {
		t.Errorf("confirmation sent to %q, want guest@x.com", mail.rsvpTo)
	}

	if _, err := svc.RSVP(context.Background(), event.ID, guest.ID); !errors.Is(err, domain.ErrAlreadyRSVPed) {
		t.Fatalf("second rsvp err = %v, want ErrAlreadyRSVPed", err)
	}
}

func TestRSVPUnknownEvent(t *testing.T) {
	svc := newTestEventService(newMockEventRepo(), newMockRSVPRepo(), newMockUserRepo(), &recordingMailer{})

	if _, err := svc.RSVP(context.Background(), 42, 1); !errors.Is(err, domain.ErrEventNotFound) {
		t.Fatalf("err = %v, want ErrEventNotFound", err)
	}
}
