package mailer

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/evently/evently/internal/domain"
)

type SMTPMailer struct {
	Host   string
	Port   int
	From   string
	User   string
	Pass   string
	UseTLS bool
}

func NewSMTPMailer(host string, port int, from, user, pass string, useTLS bool) *SMTPMailer {
	return &SMTPMailer{
		Host:   strings.TrimSpace(host),
		Port:   port,
		From:   strings.TrimSpace(from),
		User:   strings.TrimSpace(user),
		Pass:   strings.TrimSpace(pass),
		UseTLS: useTLS,
	}
}

func (s *SMTPMailer) SendOTP(email, code string) error {
	subject := "Your verification code"
	text := fmt.Sprintf("Your one-time verification code is: %s\n\nThe code expires in 20 minutes. Do not share it with anyone.", code)
	html := fmt.Sprintf(`
		<h2>Email Verification</h2>
		<p>Here is your one-time verification code:</p>
		<h3 style="font-size: 24px; letter-spacing: 2px;">%s</h3>
		<p>The code expires in 20 minutes. Do not share it with anyone.</p>
	`, code)

	return s.send([]string{email}, subject, text, html)
}

func (s *SMTPMailer) SendVerified(email, name string) error {
	subject := "Email verified successfully"
	text := fmt.Sprintf("Hello %s,\n\nYour email has been verified. You can now sign in.", name)
	html := fmt.Sprintf(`
		<h2>Hello, %s!</h2>
		<p>Your email has been verified. You can now sign in.</p>
	`, name)

	return s.send([]string{email}, subject, text, html)
}

func (s *SMTPMailer) SendPasswordChanged(email, name string) error {
	subject := "Your password was changed"
	text := fmt.Sprintf("Hello %s,\n\nYour password has been updated. If you did not do this, contact support immediately.", name)
	html := fmt.Sprintf(`
		<h2>Hello, %s!</h2>
		<p>Your password has been updated.</p>
		<p>If you did not do this, please contact support immediately.</p>
	`, name)

	return s.send([]string{email}, subject, text, html)
}

func (s *SMTPMailer) SendEventCreated(recipients []string, event *domain.Event) error {
	subject := fmt.Sprintf("New event: %s", event.Title)
	text := fmt.Sprintf("You're invited to a new event.\n\n%s", eventDetailsText(event))
	html := fmt.Sprintf(`
		<h2>You're invited!</h2>
		%s
		<p>RSVP now on the app.</p>
	`, eventDetailsHTML(event))

	return s.send(recipients, subject, text, html)
}

func (s *SMTPMailer) SendEventUpdated(recipients []string, event *domain.Event, changes []string, updatedBy string) error {
	subject := fmt.Sprintf("Event updated: %s", event.Title)
	text := fmt.Sprintf("The event %q was updated by %s.\nChanged: %s\n\n%s",
		event.Title, updatedBy, strings.Join(changes, ", "), eventDetailsText(event))
	html := fmt.Sprintf(`
		<h2>Event Update</h2>
		<p>The event <strong>%s</strong> was updated by <strong>%s</strong>.</p>
		<p>Changed fields: <strong>%s</strong></p>
		%s
	`, event.Title, updatedBy, strings.Join(changes, ", "), eventDetailsHTML(event))

	return s.send(recipients, subject, text, html)
}

func (s *SMTPMailer) SendEventCanceled(recipients []string, event *domain.Event, canceledBy string) error {
	subject := fmt.Sprintf("Event cancelled: %s", event.Title)
	text := fmt.Sprintf("The event %q scheduled for %s has been cancelled by %s.",
		event.Title, event.Date.Format(time.RFC1123), canceledBy)
	html := fmt.Sprintf(`
		<h2>Event Cancellation Notice</h2>
		<p>The event <strong>%s</strong> scheduled for <strong>%s</strong> has been cancelled by %s.</p>
		<p>We apologize for any inconvenience.</p>
	`, event.Title, event.Date.Format(time.RFC1123), canceledBy)

	return s.send(recipients, subject, text, html)
}

func (s *SMTPMailer) SendRSVPConfirmed(email string, event *domain.Event) error {
	subject := fmt.Sprintf("RSVP confirmed: %s", event.Title)
	text := fmt.Sprintf("Thanks for RSVPing!\n\n%s\n\nWe look forward to seeing you there.", eventDetailsText(event))
	html := fmt.Sprintf(`
		<h2>RSVP Confirmed</h2>
		<p>Thanks for RSVPing to <strong>%s</strong>!</p>
		%s
		<p>We look forward to seeing you there.</p>
	`, event.Title, eventDetailsHTML(event))

	return s.send([]string{email}, subject, text, html)
}

func eventDetailsText(event *domain.Event) string {
	return fmt.Sprintf("Title: %s\nDescription: %s\nLocation: %s\nDate: %s",
		event.Title, orNA(event.Description), orNA(event.Location), event.Date.Format(time.RFC1123))
}

func eventDetailsHTML(event *domain.Event) string {
	return fmt.Sprintf(`
		<ul>
			<li><strong>Title:</strong> %s</li>
			<li><strong>Description:</strong> %s</li>
			<li><strong>Location:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
		</ul>
	`, event.Title, orNA(event.Description), orNA(event.Location), event.Date.Format(time.RFC1123))
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func (s *SMTPMailer) send(recipients []string, subject, text, html string) error {
	var to []string
	for _, addr := range recipients {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients")
	}

	var buf bytes.Buffer
	boundary := "mixed-boundary"

	fmt.Fprintf(&buf, "From: %s\r\n", s.From)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", boundary)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", text)

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	fmt.Fprintf(&buf, "Content-Type: text/html; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&buf, "%s\r\n\r\n", html)

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)

	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)

	// Mailpit or development SMTP (no auth, no TLS)
	if !s.UseTLS && s.User == "" {
		return smtp.SendMail(addr, nil, s.From, to, buf.Bytes())
	}

	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}

	// Try plain SMTP first (with STARTTLS if supported)
	if err := smtp.SendMail(addr, auth, s.From, to, buf.Bytes()); err == nil {
		return nil
	}

	// Fallback to implicit TLS (port 465)
	if s.UseTLS {
		tlsCfg := &tls.Config{ServerName: s.Host}
		conn, err := tls.Dial("tcp", addr, tlsCfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		c, err := smtp.NewClient(conn, s.Host)
		if err != nil {
			return err
		}
		defer c.Quit()

		if s.User != "" {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}

		if err := c.Mail(s.From); err != nil {
			return err
		}
		for _, rcpt := range to {
			if err := c.Rcpt(rcpt); err != nil {
				return err
			}
		}

		w, err := c.Data()
		if err != nil {
			return err
		}

		if _, err := w.Write(buf.Bytes()); err != nil {
			return err
		}

		return w.Close()
	}

	return fmt.Errorf("smtp send failed")
}
