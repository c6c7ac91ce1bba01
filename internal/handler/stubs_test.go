package handler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/queue"
	"github.com/davidokumbo/cyberdocs/internal/repository"
)

// In-memory stores backing handler tests.  They enforce the same sentinel
// errors the SQL repositories do so the handlers' errors.Is branches are
// exercised for real.

type memUsers struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.User
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, rows: map[uint64]model.User{}}
}

func (m *memUsers) Create(_ context.Context, email string, phone *string, passwordHash, role string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return model.User{}, repository.ErrEmailExists
		}
	}
	u := model.User{
		ID:           m.nextID,
		Email:        email,
		Phone:        phone,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now(),
	}
	m.rows[u.ID] = u
	m.nextID++
	return u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) List(_ context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.User, 0, len(m.rows))
	for _, u := range m.rows {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memUsers) Update(_ context.Context, id uint64, upd repository.UserUpdate) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	if upd.Email != nil {
		for otherID, other := range m.rows {
			if otherID != id && other.Email == *upd.Email {
				return model.User{}, repository.ErrEmailExists
			}
		}
		u.Email = *upd.Email
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	m.rows[id] = u
	return u, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uint64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.rows[id] = u
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memTokens struct {
	mu   sync.Mutex
	rows map[uint64]struct {
		hash string
		exp  time.Time
	}
}

func newMemTokens() *memTokens {
	return &memTokens{rows: map[uint64]struct {
		hash string
		exp  time.Time
	}{}}
}

func (m *memTokens) Replace(_ context.Context, userID uint64, tokenHash string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[userID] = struct {
		hash string
		exp  time.Time
	}{tokenHash, exp}
	return nil
}

func (m *memTokens) FindValid(_ context.Context, tokenHash string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, row := range m.rows {
		if row.hash == tokenHash && row.exp.After(time.Now()) {
			return userID, nil
		}
	}
	return 0, repository.ErrTokenInvalid
}

func (m *memTokens) DeleteForUser(_ context.Context, userID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, userID)
	return nil
}

type memDocuments struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Document
}

func newMemDocuments() *memDocuments {
	return &memDocuments{nextID: 1, rows: map[uint64]model.Document{}}
}

func (m *memDocuments) List(_ context.Context, f repository.DocumentFilter) ([]model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Document, 0, len(m.rows))
	for _, d := range m.rows {
		if f.Category != "" && f.Category != "all" && d.Category != f.Category {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memDocuments) GetByID(_ context.Context, id uint64) (model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.rows[id]
	if !ok {
		return model.Document{}, repository.ErrNotFound
	}
	return d, nil
}

func (m *memDocuments) Create(_ context.Context, d model.Document) (model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.rows[d.ID] = d
	m.nextID++
	return d, nil
}

func (m *memDocuments) Update(_ context.Context, d model.Document) (model.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[d.ID]; !ok {
		return model.Document{}, repository.ErrNotFound
	}
	d.UpdatedAt = time.Now()
	m.rows[d.ID] = d
	return d, nil
}

func (m *memDocuments) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

// memMail records published messages; Fail switches it to rejecting.
type memMail struct {
	mu   sync.Mutex
	sent []queue.EmailMessage
	fail error
}

func (m *memMail) Publish(_ context.Context, msg queue.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *memMail) last() (queue.EmailMessage, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return queue.EmailMessage{}, false
	}
	return m.sent[len(m.sent)-1], true
}

type memServices struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]model.Service
}

func newMemServices() *memServices {
	return &memServices{nextID: 1, rows: map[uint64]model.Service{}}
}

func (m *memServices) List(_ context.Context) ([]model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Service, 0, len(m.rows))
	for _, s := range m.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memServices) GetByID(_ context.Context, id uint64) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return model.Service{}, repository.ErrNotFound
	}
	return s, nil
}

func (m *memServices) Create(_ context.Context, s model.Service) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = m.nextID
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	m.rows[s.ID] = s
	m.nextID++
	return s, nil
}

func (m *memServices) Update(_ context.Context, s model.Service) (model.Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[s.ID]; !ok {
		return model.Service{}, repository.ErrNotFound
	}
	s.UpdatedAt = time.Now()
	m.rows[s.ID] = s
	return s, nil
}

func (m *memServices) Delete(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}
