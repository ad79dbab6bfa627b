package mailer

import (
	"strings"

	"github.com/evently/evently/internal/domain"
	"github.com/evently/evently/pkg/logger"
)

// DevMailer logs emails instead of sending them.
type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendOTP(email, code string) error {
	logger.Info("[DEV MAIL] OTP email",
		"to", email,
		"code", code,
	)
	return nil
}

func (d *DevMailer) SendVerified(email, name string) error {
	logger.Info("[DEV MAIL] Verified email",
		"to", email,
		"name", name,
	)
	return nil
}

func (d *DevMailer) SendPasswordChanged(email, name string) error {
	logger.Info("[DEV MAIL] Password changed email",
		"to", email,
		"name", name,
	)
	return nil
}

func (d *DevMailer) SendEventCreated(recipients []string, event *domain.Event) error {
	logger.Info("[DEV MAIL] Event created email",
		"to", strings.Join(recipients, ","),
		"event_id", event.ID,
		"title", event.Title,
	)
	return nil
}

func (d *DevMailer) SendEventUpdated(recipients []string, event *domain.Event, changes []string, updatedBy string) error {
	logger.Info("[DEV MAIL] Event updated email",
		"to", strings.Join(recipients, ","),
		"event_id", event.ID,
		"changes", strings.Join(changes, ","),
		"updated_by", updatedBy,
	)
	return nil
}

func (d *DevMailer) SendEventCanceled(recipients []string, event *domain.Event, canceledBy string) error {
	logger.Info("[DEV MAIL] Event canceled email",
		"to", strings.Join(recipients, ","),
		"event_id", event.ID,
		"canceled_by", canceledBy,
	)
	return nil
}

func (d *DevMailer) SendRSVPConfirmed(email string, event *domain.Event) error {
	logger.Info("[DEV MAIL] RSVP confirmed email",
		"to", email,
		"event_id", event.ID,
		"title", event.Title,
	)
	return nil
}
