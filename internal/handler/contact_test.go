package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/davidokumbo/cyberdocs/internal/queue"
)

func TestContactSendEnqueuesEmail(t *testing.T) {
	mail := &memMail{}
	h := NewContactHandler("support@cyberdocs.local", mail)

	rec := postJSON(t, h.Send, "/api/contact/send",
		`{"name":"Jane","email":"jane@example.com","subject":"Pricing","message":"Hello\nthere"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	msg, ok := mail.last()
	if !ok {
		t.Fatal("nothing enqueued")
	}
	if msg.Kind != queue.KindContactForm {
		t.Errorf("kind = %q", msg.Kind)
	}
	if msg.To != "support@cyberdocs.local" {
		t.Errorf("to = %q", msg.To)
	}
	if msg.ReplyTo != "jane@example.com" {
		t.Errorf("reply-to = %q", msg.ReplyTo)
	}
	if !strings.Contains(msg.HTML, "Jane") || !strings.Contains(msg.HTML, "Hello<br>there") {
		t.Errorf("html = %s", msg.HTML)
	}
}

func TestContactSendValidates(t *testing.T) {
	h := NewContactHandler("support@cyberdocs.local", &memMail{})
	for _, body := range []string{
		`{"email":"a@b.co","subject":"s","message":"m"}`,
		`{"name":"n","email":"not-email","subject":"s","message":"m"}`,
		`{"name":"n","email":"a@b.co","message":"m"}`,
		`{"name":"n","email":"a@b.co","subject":"s"}`,
	} {
		if rec := postJSON(t, h.Send, "/api/contact/send", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestContactSendQueueFailure(t *testing.T) {
	mail := &memMail{fail: errors.New("broker down")}
	h := NewContactHandler("support@cyberdocs.local", mail)
	rec := postJSON(t, h.Send, "/api/contact/send",
		`{"name":"n","email":"a@b.co","subject":"s","message":"m"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
