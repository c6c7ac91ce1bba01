// Package queue defines the outbound email queue shared by publishers and
// the background consumer.
package queue

import "time"

// EmailQueueName is the durable queue carrying outbound mail.
const EmailQueueName = "email.outbound"

// Kinds of outbound mail, for logging and metrics downstream.
const (
	KindPasswordReset = "password_reset"
	KindContactForm   = "contact_form"
)

// EmailMessage is a fully rendered outbound email.  Request handlers enqueue
// these instead of talking SMTP themselves, so a slow or flaky mail server
// never stalls an HTTP response.
type EmailMessage struct {
	Kind       string    `json:"kind"`
	To         string    `json:"to"`
	ReplyTo    string    `json:"reply_to,omitempty"`
	Subject    string    `json:"subject"`
	HTML       string    `json:"html"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
