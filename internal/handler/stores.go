package handler

import (
	"context"
	"time"

	"github.com/davidokumbo/cyberdocs/internal/model"
	"github.com/davidokumbo/cyberdocs/internal/queue"
	"github.com/davidokumbo/cyberdocs/internal/repository"
)

// Handlers depend on narrow store interfaces rather than concrete
// repositories so tests can exercise the full request path against in-memory
// stubs.  The repository types satisfy these one for one.

type UserStore interface {
	Create(ctx context.Context, email string, phone *string, passwordHash, role string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uint64, upd repository.UserUpdate) (model.User, error)
	UpdatePassword(ctx context.Context, id uint64, passwordHash string) error
	Delete(ctx context.Context, id uint64) error
}

type ResetTokenStore interface {
	Replace(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindValid(ctx context.Context, tokenHash string) (uint64, error)
	DeleteForUser(ctx context.Context, userID uint64) error
}

type ServiceStore interface {
	List(ctx context.Context) ([]model.Service, error)
	GetByID(ctx context.Context, id uint64) (model.Service, error)
	Create(ctx context.Context, s model.Service) (model.Service, error)
	Update(ctx context.Context, s model.Service) (model.Service, error)
	Delete(ctx context.Context, id uint64) error
}

type DocumentStore interface {
	List(ctx context.Context, f repository.DocumentFilter) ([]model.Document, error)
	GetByID(ctx context.Context, id uint64) (model.Document, error)
	Create(ctx context.Context, d model.Document) (model.Document, error)
	Update(ctx context.Context, d model.Document) (model.Document, error)
	Delete(ctx context.Context, id uint64) error
}

// MailDispatcher hands rendered email off for asynchronous delivery.
type MailDispatcher interface {
	Publish(ctx context.Context, msg queue.EmailMessage) error
}
