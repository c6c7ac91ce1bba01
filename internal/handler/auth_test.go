package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/davidokumbo/cyberdocs/internal/config"
	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/utils"
)

func testConfig() config.Config {
	return config.Config{
		Env:          "test",
		JWTSecret:    "handler-test-secret",
		TokenTTLDays: 7,
		BcryptCost:   4,
		FrontendURL:  "http://localhost:5173",
	}
}

func newAuthFixture() (*AuthHandler, *memUsers, *memTokens, *memMail) {
	users := newMemUsers()
	tokens := newMemTokens()
	mail := &memMail{}
	return NewAuthHandler(testConfig(), users, tokens, mail), users, tokens, mail
}

func postJSON(t *testing.T, handler echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return m
}

func TestRegisterThenLogin(t *testing.T) {
	h, _, _, _ := newAuthFixture()

	rec := postJSON(t, h.Register, "/api/users/register",
		`{"email":"New@Example.com","phone":"123456","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	tok, _ := body["token"].(string)
	if tok == "" {
		t.Fatal("register response missing token")
	}
	id, err := utils.ParseBearerToken(testConfig().JWTSecret, tok)
	if err != nil {
		t.Fatalf("registered token invalid: %v", err)
	}
	if id.Email != "new@example.com" {
		t.Errorf("token email = %q, want lower-cased", id.Email)
	}
	if id.Role != model.RoleUser {
		t.Errorf("token role = %q", id.Role)
	}

	rec = postJSON(t, h.Login, "/api/users/login",
		`{"email":"new@example.com","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	loginBody := decode(t, rec)
	loginTok, _ := loginBody["token"].(string)
	loginID, err := utils.ParseBearerToken(testConfig().JWTSecret, loginTok)
	if err != nil {
		t.Fatalf("login token invalid: %v", err)
	}
	if loginID.UserID != id.UserID {
		t.Errorf("login subject %d != register subject %d", loginID.UserID, id.UserID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _, _ := newAuthFixture()
	body := `{"email":"dup@example.com","password":"secret1"}`
	if rec := postJSON(t, h.Register, "/api/users/register", body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	rec := postJSON(t, h.Register, "/api/users/register", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want 409", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _, _ := newAuthFixture()
	for _, body := range []string{
		`{"email":"not-an-email","password":"secret1"}`,
		`{"email":"a@b.co","password":"short"}`,
		`{"password":"secret1"}`,
	} {
		if rec := postJSON(t, h.Register, "/api/users/register", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestLoginRejectsUniformly(t *testing.T) {
	h, _, _, _ := newAuthFixture()
	postJSON(t, h.Register, "/api/users/register", `{"email":"u@example.com","password":"secret1"}`)

	unknown := postJSON(t, h.Login, "/api/users/login", `{"email":"none@example.com","password":"secret1"}`)
	wrongPass := postJSON(t, h.Login, "/api/users/login", `{"email":"u@example.com","password":"wrong!"}`)

	if unknown.Code != http.StatusUnauthorized || wrongPass.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d/%d, want 401 for both", unknown.Code, wrongPass.Code)
	}
	// Unknown email and wrong password must be indistinguishable.
	if unknown.Body.String() != wrongPass.Body.String() {
		t.Errorf("bodies differ: %s vs %s", unknown.Body.String(), wrongPass.Body.String())
	}
}

func TestRequestResetUnknownEmail(t *testing.T) {
	h, _, _, _ := newAuthFixture()
	rec := postJSON(t, h.RequestPasswordReset, "/api/users/request-reset", `{"email":"ghost@example.com"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	h, _, _, mail := newAuthFixture()
	postJSON(t, h.Register, "/api/users/register", `{"email":"r@example.com","password":"oldpass"}`)

	rec := postJSON(t, h.RequestPasswordReset, "/api/users/request-reset", `{"email":"r@example.com"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("request-reset status = %d, body %s", rec.Code, rec.Body.String())
	}
	msg, ok := mail.last()
	if !ok {
		t.Fatal("no reset email enqueued")
	}
	if msg.To != "r@example.com" {
		t.Errorf("email to = %q", msg.To)
	}
	// The test config is not development mode, so the raw token must not
	// leak into the response.
	if _, leaked := decode(t, rec)["token"]; leaked {
		t.Error("raw token leaked outside development mode")
	}

	// Pull the raw token out of the mailed link.
	i := strings.Index(msg.HTML, "token=")
	if i < 0 {
		t.Fatalf("reset link missing from email: %s", msg.HTML)
	}
	raw := msg.HTML[i+len("token="):]
	if j := strings.IndexAny(raw, `"'<& `); j >= 0 {
		raw = raw[:j]
	}

	rec = postJSON(t, h.ResetPassword, "/api/users/reset-password",
		`{"token":"`+raw+`","new_password":"newpass1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset-password status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Old password dead, new password live.
	if rec := postJSON(t, h.Login, "/api/users/login", `{"email":"r@example.com","password":"oldpass"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("old password still accepted: %d", rec.Code)
	}
	if rec := postJSON(t, h.Login, "/api/users/login", `{"email":"r@example.com","password":"newpass1"}`); rec.Code != http.StatusOK {
		t.Errorf("new password rejected: %d", rec.Code)
	}

	// The token was consumed; replaying it must fail.
	rec = postJSON(t, h.ResetPassword, "/api/users/reset-password",
		`{"token":"`+raw+`","new_password":"another1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replayed token status = %d, want 400", rec.Code)
	}
}

func TestReissueInvalidatesPriorToken(t *testing.T) {
	h, _, _, mail := newAuthFixture()
	postJSON(t, h.Register, "/api/users/register", `{"email":"two@example.com","password":"secret1"}`)

	extract := func() string {
		t.Helper()
		msg, ok := mail.last()
		if !ok {
			t.Fatal("no email enqueued")
		}
		i := strings.Index(msg.HTML, "token=")
		if i < 0 {
			t.Fatalf("no token in email: %s", msg.HTML)
		}
		raw := msg.HTML[i+len("token="):]
		if j := strings.IndexAny(raw, `"'<& `); j >= 0 {
			raw = raw[:j]
		}
		return raw
	}

	postJSON(t, h.RequestPasswordReset, "/api/users/request-reset", `{"email":"two@example.com"}`)
	first := extract()
	postJSON(t, h.RequestPasswordReset, "/api/users/request-reset", `{"email":"two@example.com"}`)
	second := extract()

	if first == second {
		t.Fatal("reissue returned the same token")
	}
	if rec := postJSON(t, h.ResetPassword, "/api/users/reset-password",
		`{"token":"`+first+`","new_password":"newpass1"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("stale token status = %d, want 400", rec.Code)
	}
	if rec := postJSON(t, h.ResetPassword, "/api/users/reset-password",
		`{"token":"`+second+`","new_password":"newpass1"}`); rec.Code != http.StatusOK {
		t.Errorf("fresh token status = %d, want 200", rec.Code)
	}
}

func TestDevModeReturnsRawToken(t *testing.T) {
	users := newMemUsers()
	cfg := testConfig()
	cfg.Env = "development"
	h := NewAuthHandler(cfg, users, newMemTokens(), &memMail{})

	postJSON(t, h.Register, "/api/users/register", `{"email":"dev@example.com","password":"secret1"}`)
	rec := postJSON(t, h.RequestPasswordReset, "/api/users/request-reset", `{"email":"dev@example.com"}`)
	body := decode(t, rec)
	raw, _ := body["token"].(string)
	if len(raw) != 64 {
		t.Fatalf("dev response token = %q, want 64 hex chars", raw)
	}
	if url, _ := body["reset_url"].(string); !strings.Contains(url, "token="+raw) {
		t.Errorf("reset_url = %q does not carry the token", url)
	}
}
