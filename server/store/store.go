package store

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pastoralsj/registro/server/models"
)

// Closed error taxonomy every backend maps its raw failures into.
// Callers branch with errors.Is; nothing else leaks out of a Store.
var (
	ErrNotFound            = errors.New("record not found")
	ErrUnauthorized        = errors.New("store rejected the access credentials")
	ErrSchemaMismatch      = errors.New("store schema does not match the registry")
	ErrTransport           = errors.New("store unreachable")
	ErrConstraintViolation = errors.New("store constraint violated")
)

// Filter selects records for Find/GetOne. Set fields are ANDed. Login
// is compared in its normalized form; BornOn matches the UTC day.
type Filter struct {
	ID     *uint
	Login  *string
	BornOn *models.Date
}

// Store is the record gateway: thin typed persistence with no business
// validation and no retries. Each method returns a payload or one of
// the classified errors above.
type Store interface {
	ListAll(ctx context.Context, orderBy string) ([]models.Member, error)
	Find(ctx context.Context, filter Filter) ([]models.Member, error)
	Insert(ctx context.Context, member *models.Member) error
	Upsert(ctx context.Context, member *models.Member) error
	Delete(ctx context.Context, id uint) error
}

// GetOne returns the single record matching the filter, or ErrNotFound.
func GetOne(ctx context.Context, s Store, filter Filter) (*models.Member, error) {
	matches, err := s.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, ErrNotFound
	}

	return &matches[0], nil
}
