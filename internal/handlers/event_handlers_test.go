package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/evently/evently/internal/domain"
	"github.com/evently/evently/pkg/auth"
	"github.com/go-chi/chi/v5"
)

type stubEventService struct {
	createFn func(ctx context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error)
	getFn    func(ctx context.Context, id int64) (*domain.Event, error)
	listFn   func(ctx context.Context, limit, offset int) ([]domain.Event, error)
	updateFn func(ctx context.Context, id, userID int64, patch domain.EventPatch) (*domain.Event, error)
	deleteFn func(ctx context.Context, id, userID int64) error
	rsvpFn   func(ctx context.Context, eventID, userID int64) (*domain.RSVP, error)
}

func (s *stubEventService) Create(ctx context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error) {
	return s.createFn(ctx, userID, req)
}

func (s *stubEventService) Get(ctx context.Context, id int64) (*domain.Event, error) {
	return s.getFn(ctx, id)
}

func (s *stubEventService) List(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	return s.listFn(ctx, limit, offset)
}

func (s *stubEventService) Update(ctx context.Context, id, userID int64, patch domain.EventPatch) (*domain.Event, error) {
	return s.updateFn(ctx, id, userID, patch)
}

func (s *stubEventService) Delete(ctx context.Context, id, userID int64) error {
	return s.deleteFn(ctx, id, userID)
}

func (s *stubEventService) RSVP(ctx context.Context, eventID, userID int64) (*domain.RSVP, error) {
	return s.rsvpFn(ctx, eventID, userID)
}

func eventRouter(svc *stubEventService) http.Handler {
	h := New(&stubAuthService{}, svc, handlerConfig())
	r := chi.NewRouter()
	r.Get("/events", h.ListEvents)
	r.Get("/events/{id}", h.GetEvent)
	r.Post("/events", h.CreateEvent)
	r.Patch("/events/{id}", h.UpdateEvent)
	r.Delete("/events/{id}", h.DeleteEvent)
	r.Post("/events/{id}/rsvp", h.RSVPEvent)
	return r
}

func authedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	claims := &auth.Claims{UserID: 7, Email: "a@x.com", Role: domain.RoleUser}
	return req.WithContext(context.WithValue(req.Context(), claimsKey, claims))
}

func TestListEventsEmptyIsArray(t *testing.T) {
	svc := &stubEventService{
		listFn: func(context.Context, int, int) ([]domain.Event, error) { return nil, nil },
	}
	rec := httptest.NewRecorder()
	eventRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListEventsPagination(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &stubEventService{
		listFn: func(_ context.Context, limit, offset int) ([]domain.Event, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	rec := httptest.NewRecorder()
	eventRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?limit=5&offset=10", nil))

	if gotLimit != 5 || gotOffset != 10 {
		t.Errorf("pagination = (%d, %d), want (5, 10)", gotLimit, gotOffset)
	}

	// Out-of-range values fall back to the defaults.
	rec = httptest.NewRecorder()
	eventRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events?limit=9999&offset=-3", nil))
	if gotLimit != 20 || gotOffset != 0 {
		t.Errorf("pagination = (%d, %d), want defaults (20, 0)", gotLimit, gotOffset)
	}
}

func TestGetEventStatusMapping(t *testing.T) {
	svc := &stubEventService{
		getFn: func(_ context.Context, id int64) (*domain.Event, error) {
			if id != 3 {
				return nil, domain.ErrEventNotFound
			}
			return &domain.Event{ID: 3, Title: "Meetup", Date: time.Now()}, nil
		},
	}
	router := eventRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/3", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("existing event status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/99", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing event status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/abc", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric id status = %d, want 400", rec.Code)
	}
}

func TestCreateEventUsesCallerID(t *testing.T) {
	var gotUserID int64
	svc := &stubEventService{
		createFn: func(_ context.Context, userID int64, req *domain.CreateEventRequest) (*domain.Event, error) {
			gotUserID = userID
			return &domain.Event{ID: 1, Title: req.Title, Date: req.Date, CreatedBy: userID}, nil
		},
	}

	rec := httptest.NewRecorder()
	eventRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPost, "/events",
		`{"title":"Meetup","date":"2025-07-01T18:00:00Z"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if gotUserID != 7 {
		t.Errorf("creator = %d, want the authenticated user 7", gotUserID)
	}
}

func TestCreateEventWithoutClaims(t *testing.T) {
	svc := &stubEventService{
		createFn: func(context.Context, int64, *domain.CreateEventRequest) (*domain.Event, error) {
			t.Fatal("service reached without claims")
			return nil, nil
		},
	}

	rec := httptest.NewRecorder()
	eventRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/events",
		strings.NewReader(`{"title":"Meetup","date":"2025-07-01T18:00:00Z"}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestUpdateEventForbiddenForNonOwner(t *testing.T) {
	svc := &stubEventService{
		updateFn: func(context.Context, int64, int64, domain.EventPatch) (*domain.Event, error) {
			return nil, domain.ErrNotOwner
		},
	}

	rec := httptest.NewRecorder()
	eventRouter(svc).ServeHTTP(rec, authedRequest(http.MethodPatch, "/events/3",
		`{"title":"Taken Over"}`))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestDeleteEventStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"missing event", domain.ErrEventNotFound, http.StatusNotFound},
		{"not owner", domain.ErrNotOwner, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubEventService{
				deleteFn: func(context.Context, int64, int64) error { return tt.err },
			}

			rec := httptest.NewRecorder()
			eventRouter(svc).ServeHTTP(rec, authedRequest(http.MethodDelete, "/events/3", ""))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRSVPEventRepeatIsIdempotent(t *testing.T) {
	calls := 0
	svc := &stubEventService{
		rsvpFn: func(_ context.Context, eventID, userID int64) (*domain.RSVP, error) {
			calls++
			if calls > 1 {
				return nil, domain.ErrAlreadyRSVPed
			}
			return &domain.RSVP{ID: 1, UserID: userID, EventID: eventID, CreatedAt: time.Now()}, nil
		},
	}
	router := eventRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/events/3/rsvp", ""))
	if rec.Code != http.StatusCreated {
		t.Fatalf("first rsvp status = %d, want 201", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest(http.MethodPost, "/events/3/rsvp", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat rsvp status = %d, want 200", rec.Code)
	}
}
