package university

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUniversityNotFound is returned when a university record is not found.
var ErrUniversityNotFound = errors.New("university not found")

// Repository provides operations on the universities table.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*University, error)
	GetByShortName(ctx context.Context, shortName string) (*University, error)
	List(ctx context.Context) ([]University, error)
	ListSummaries(ctx context.Context) ([]Summary, error)
	Upsert(ctx context.Context, u *University) error
}
