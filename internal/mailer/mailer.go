// Package mailer renders and delivers outbound email over SMTP.
package mailer

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"github.com/davidokumbo/cyberdocs/internal/queue"
)

// SMTP sends mail through a single authenticated SMTP account.
type SMTP struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// Send delivers one rendered message.  Plain AUTH is skipped when no
// username is configured (local relays in development).
func (m *SMTP) Send(msg queue.EmailMessage) error {
	var auth smtp.Auth
	if m.Username != "" {
		auth = smtp.PlainAuth("", m.Username, m.Password, m.Host)
	}
	addr := m.Host + ":" + m.Port
	return smtp.SendMail(addr, auth, m.From, []string{headerValue(msg.To)}, m.render(msg))
}

// render assembles the raw message.  Every value placed on a header line
// passes through headerValue first; subject and addresses can carry
// visitor-supplied text, and a stray CR/LF there would let a sender smuggle
// extra headers into the message.
func (m *SMTP) render(msg queue.EmailMessage) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: CyberDocs <%s>\r\n", headerValue(m.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(msg.To))
	if rt := headerValue(msg.ReplyTo); rt != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", rt)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// headerValue strips line breaks so a value can never terminate its header.
func headerValue(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// BuildPasswordReset renders the reset email around the one-time link.
func BuildPasswordReset(to, resetURL string) queue.EmailMessage {
	body := fmt.Sprintf(`<h2>Password Reset Request</h2>
<p>We received a request to reset the password for your CyberDocs account.
Click the link below to choose a new password:</p>
<p><a href="%s">Reset your password</a></p>
<p>This link expires in 1 hour. If you did not request a reset, you can
safely ignore this email.</p>`, html.EscapeString(resetURL))
	return queue.EmailMessage{
		Kind:    queue.KindPasswordReset,
		To:      to,
		Subject: "Password Reset Request - CyberDocs",
		HTML:    body,
	}
}

// BuildContactForm renders a contact-form submission for the support inbox.
// All visitor-supplied values are escaped before being embedded.
func BuildContactForm(supportAddr, name, email, subject, message string) queue.EmailMessage {
	body := fmt.Sprintf(`<h3>New message from the website contact form</h3>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Subject:</strong> %s</p>
<p><strong>Message:</strong></p>
<p>%s</p>`,
		html.EscapeString(name),
		html.EscapeString(email),
		html.EscapeString(subject),
		strings.ReplaceAll(html.EscapeString(message), "\n", "<br>"))
	return queue.EmailMessage{
		Kind:    queue.KindContactForm,
		To:      supportAddr,
		ReplyTo: email,
		Subject: "Contact Form: " + subject,
		HTML:    body,
	}
}
