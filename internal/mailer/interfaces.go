package mailer

import "github.com/evently/evently/internal/domain"

// Service sends notification emails. Callers treat sends as fire-and-forget:
// a failed send is logged but never rolls back the state change that
// triggered it.
type Service interface {
	SendOTP(email, code string) error
	SendVerified(email, name string) error
	SendPasswordChanged(email, name string) error
	SendEventCreated(recipients []string, event *domain.Event) error
	SendEventUpdated(recipients []string, event *domain.Event, changes []string, updatedBy string) error
	SendEventCanceled(recipients []string, event *domain.Event, canceledBy string) error
	SendRSVPConfirmed(email string, event *domain.Event) error
}
