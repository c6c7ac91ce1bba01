package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
)

// Notifier receives user-facing session events.  A CLI can print them, a
// desktop shell can toast them; a nil Notifier drops them.
type Notifier func(kind, message string)

const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// state is the durable part of a session.
type state struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// Session layers authenticated state on top of Client.  All methods are
// safe for concurrent use.
type Session struct {
	mu      sync.Mutex
	api     *Client
	file    string
	notify  Notifier
	st      state
	loading bool
}

// NewSession builds a session that persists its token to stateFile.
func NewSession(api *Client, stateFile string, notify Notifier) *Session {
	return &Session{api: api, file: stateFile, notify: notify}
}

func (s *Session) emit(kind, message string) {
	if s.notify != nil {
		s.notify(kind, message)
	}
}

// Loading reports whether a session call is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// busy flips the loading flag for the duration of a call.
func (s *Session) busy() func() {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}
}

// Load restores a persisted token and revalidates it against the profile
// endpoint.  A rejected token clears the stored state rather than erroring;
// transport failures keep the token so a flaky network does not log the
// user out.
func (s *Session) Load(ctx context.Context) error {
	defer s.busy()()

	bs, err := os.ReadFile(s.file)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	var st state
	if err := json.Unmarshal(bs, &st); err != nil || st.Token == "" {
		return s.clear()
	}

	var resp struct {
		User User `json:"user"`
	}
	err = s.api.do(ctx, http.MethodGet, "/api/users/profile", st.Token, nil, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return s.clear()
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.st = state{Token: st.Token, User: &resp.User}
	s.mu.Unlock()
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone,omitempty"`
}

type authResp struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    User   `json:"user"`
}

// Login exchanges credentials for a bearer token and persists it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	defer s.busy()()

	var resp authResp
	err := s.api.do(ctx, http.MethodPost, "/api/users/login", "", credentials{Email: email, Password: password}, &resp)
	if err != nil {
		s.emit(NoticeError, "login failed: "+err.Error())
		return err
	}
	if err := s.set(resp.Token, &resp.User); err != nil {
		return err
	}
	s.emit(NoticeSuccess, "logged in as "+resp.User.Email)
	return nil
}

// Register creates an account and starts a session with the returned token.
func (s *Session) Register(ctx context.Context, email, phone, password string) error {
	defer s.busy()()

	var resp authResp
	err := s.api.do(ctx, http.MethodPost, "/api/users/register", "", credentials{Email: email, Password: password, Phone: phone}, &resp)
	if err != nil {
		s.emit(NoticeError, "registration failed: "+err.Error())
		return err
	}
	if err := s.set(resp.Token, &resp.User); err != nil {
		return err
	}
	s.emit(NoticeSuccess, "account created")
	return nil
}

// Logout drops the local session.  The token is stateless on the server, so
// there is nothing to revoke remotely.
func (s *Session) Logout() error {
	if err := s.clear(); err != nil {
		return err
	}
	s.emit(NoticeInfo, "logged out")
	return nil
}

// RequestPasswordReset asks the server to mail a reset link.
func (s *Session) RequestPasswordReset(ctx context.Context, email string) error {
	defer s.busy()()

	err := s.api.do(ctx, http.MethodPost, "/api/users/request-reset", "", map[string]string{"email": email}, nil)
	if err != nil {
		s.emit(NoticeError, "reset request failed: "+err.Error())
		return err
	}
	s.emit(NoticeSuccess, "reset instructions sent to "+email)
	return nil
}

// ResetPassword consumes a reset token from the mailed link.
func (s *Session) ResetPassword(ctx context.Context, token, newPassword string) error {
	defer s.busy()()

	body := map[string]string{"token": token, "new_password": newPassword}
	err := s.api.do(ctx, http.MethodPost, "/api/users/reset-password", "", body, nil)
	if err != nil {
		s.emit(NoticeError, "password reset failed: "+err.Error())
		return err
	}
	s.emit(NoticeSuccess, "password updated, please log in")
	return nil
}

// FetchProfile refreshes the cached user from the server.
func (s *Session) FetchProfile(ctx context.Context) (User, error) {
	s.mu.Lock()
	token := s.st.Token
	s.mu.Unlock()
	if token == "" {
		return User{}, &APIError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}

	var resp struct {
		User User `json:"user"`
	}
	err := s.api.do(ctx, http.MethodGet, "/api/users/profile", token, nil, &resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		_ = s.clear()
		return User{}, err
	}
	if err != nil {
		return User{}, err
	}

	s.mu.Lock()
	s.st.User = &resp.User
	s.mu.Unlock()
	return resp.User, nil
}

// Token returns the current bearer token, empty when logged out.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Token
}

// User returns the cached user and whether one is present.
func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st.User == nil {
		return User{}, false
	}
	return *s.st.User, true
}

// IsAuthenticated reports whether a validated session is active.
func (s *Session) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.Token != "" && s.st.User != nil
}

// IsAdmin reports whether the session user carries the admin role.
func (s *Session) IsAdmin() bool {
	u, ok := s.User()
	return ok && u.Role == "admin"
}

func (s *Session) set(token string, u *User) error {
	s.mu.Lock()
	s.st = state{Token: token, User: u}
	st := s.st
	s.mu.Unlock()
	return s.persist(st)
}

func (s *Session) clear() error {
	s.mu.Lock()
	s.st = state{}
	s.mu.Unlock()
	err := os.Remove(s.file)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Session) persist(st state) error {
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return err
	}
	bs, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.file, bs, 0o600)
}
