package student

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidProfile is returned when a profile update leaves a name empty.
var ErrInvalidProfile = errors.New("first and last name are required")

// Service provides profile operations on students.
type Service struct {
	repo Repository
}

// NewService creates a new student Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get retrieves a student by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Student, error) {
	return s.repo.GetByID(ctx, id)
}

// UpdateProfile normalizes and stores the editable profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*Student, error) {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return nil, ErrInvalidProfile
	}
	p.Handles = p.Handles.Normalize()

	updated, err := s.repo.UpdateProfile(ctx, id, p)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return updated, nil
}
