package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/evently/evently/internal/domain"
	"github.com/mailersend/mailersend-go"
)

// MailerSendClient sends through the MailerSend API.
type MailerSendClient struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSendClient {
	m := &MailerSendClient{
		enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}

	if m.enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}

	return m
}

func (m *MailerSendClient) SendOTP(email, code string) error {
	subject := "Your verification code"
	text := fmt.Sprintf("Your one-time verification code is: %s\n\nThe code expires in 20 minutes. Do not share it with anyone.", code)
	html := fmt.Sprintf(`
		<h2>Email Verification</h2>
		<p>Here is your one-time verification code:</p>
		<h3 style="font-size: 24px; letter-spacing: 2px;">%s</h3>
		<p>The code expires in 20 minutes. Do not share it with anyone.</p>
	`, code)

	return m.send([]string{email}, subject, text, html)
}

func (m *MailerSendClient) SendVerified(email, name string) error {
	subject := "Email verified successfully"
	text := fmt.Sprintf("Hello %s,\n\nYour email has been verified. You can now sign in.", name)
	html := fmt.Sprintf(`
		<h2>Hello, %s!</h2>
		<p>Your email has been verified. You can now sign in.</p>
	`, name)

	return m.send([]string{email}, subject, text, html)
}

func (m *MailerSendClient) SendPasswordChanged(email, name string) error {
	subject := "Your password was changed"
	text := fmt.Sprintf("Hello %s,\n\nYour password has been updated. If you did not do this, contact support immediately.", name)
	html := fmt.Sprintf(`
		<h2>Hello, %s!</h2>
		<p>Your password has been updated.</p>
		<p>If you did not do this, please contact support immediately.</p>
	`, name)

	return m.send([]string{email}, subject, text, html)
}

func (m *MailerSendClient) SendEventCreated(recipients []string, event *domain.Event) error {
	subject := fmt.Sprintf("New event: %s", event.Title)
	text := fmt.Sprintf("You're invited to a new event.\n\n%s", eventDetailsText(event))
	html := fmt.Sprintf(`
		<h2>You're invited!</h2>
		%s
		<p>RSVP now on the app.</p>
	`, eventDetailsHTML(event))

	return m.send(recipients, subject, text, html)
}

func (m *MailerSendClient) SendEventUpdated(recipients []string, event *domain.Event, changes []string, updatedBy string) error {
	subject := fmt.Sprintf("Event updated: %s", event.Title)
	text := fmt.Sprintf("The event %q was updated by %s.\nChanged: %s\n\n%s",
		event.Title, updatedBy, strings.Join(changes, ", "), eventDetailsText(event))
	html := fmt.Sprintf(`
		<h2>Event Update</h2>
		<p>The event <strong>%s</strong> was updated by <strong>%s</strong>.</p>
		<p>Changed fields: <strong>%s</strong></p>
		%s
	`, event.Title, updatedBy, strings.Join(changes, ", "), eventDetailsHTML(event))

	return m.send(recipients, subject, text, html)
}

func (m *MailerSendClient) SendEventCanceled(recipients []string, event *domain.Event, canceledBy string) error {
	subject := fmt.Sprintf("Event cancelled: %s", event.Title)
	text := fmt.Sprintf("The event %q scheduled for %s has been cancelled by %s.",
		event.Title, event.Date.Format(time.RFC1123), canceledBy)
	html := fmt.Sprintf(`
		<h2>Event Cancellation Notice</h2>
		<p>The event <strong>%s</strong> scheduled for <strong>%s</strong> has been cancelled by %s.</p>
		<p>We apologize for any inconvenience.</p>
	`, event.Title, event.Date.Format(time.RFC1123), canceledBy)

	return m.send(recipients, subject, text, html)
}

func (m *MailerSendClient) SendRSVPConfirmed(email string, event *domain.Event) error {
	subject := fmt.Sprintf("RSVP confirmed: %s", event.Title)
	text := fmt.Sprintf("Thanks for RSVPing!\n\n%s\n\nWe look forward to seeing you there.", eventDetailsText(event))
	html := fmt.Sprintf(`
		<h2>RSVP Confirmed</h2>
		<p>Thanks for RSVPing to <strong>%s</strong>!</p>
		%s
		<p>We look forward to seeing you there.</p>
	`, event.Title, eventDetailsHTML(event))

	return m.send([]string{email}, subject, text, html)
}

func (m *MailerSendClient) send(recipients []string, subject, text, html string) error {
	if !m.enabled {
		return fmt.Errorf("MailerSend not configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var toList []mailersend.Recipient
	for _, addr := range recipients {
		if addr = strings.TrimSpace(addr); addr != "" {
			toList = append(toList, mailersend.Recipient{Email: addr})
		}
	}
	if len(toList) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients(toList)
	msg.SetSubject(subject)

	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	_, err := m.client.Email.Send(ctx, msg)
	return err
}
