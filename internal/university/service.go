package university

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Overview is the data behind the home page.
type Overview struct {
	Universities []Summary
	Own          *Summary
	TeamCount    int
	StudentCount int
}

// Service provides read operations on universities for the public pages.
type Service struct {
	repo Repository
}

// NewService creates a new university Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetByShortName resolves a university by its short name.
func (s *Service) GetByShortName(ctx context.Context, shortName string) (*University, error) {
	return s.repo.GetByShortName(ctx, shortName)
}

// GetByID resolves a university by id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*University, error) {
	return s.repo.GetByID(ctx, id)
}

// Overview lists every university in home page order together with the
// overall team and student totals. own is the session user's university, if any.
func (s *Service) Overview(ctx context.Context, own *uuid.UUID) (*Overview, error) {
	summaries, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing university summaries: %w", err)
	}

	ranked := Rank(summaries, own)

	ov := &Overview{Universities: ranked}
	for i := range ranked {
		ov.TeamCount += ranked[i].Teams
		ov.StudentCount += ranked[i].Students
		if own != nil && ranked[i].ID == *own {
			ov.Own = &ranked[i]
		}
	}
	return ov, nil
}

// Rank orders universities by team count desc, student count desc and short
// name, then moves the "other" university to the front and finally the
// caller's own university before everything else.
func Rank(summaries []Summary, own *uuid.UUID) []Summary {
	ranked := make([]Summary, len(summaries))
	copy(ranked, summaries)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Teams != b.Teams {
			return a.Teams > b.Teams
		}
		if a.Students != b.Students {
			return a.Students > b.Students
		}
		return a.ShortName < b.ShortName
	})

	ranked = moveToFront(ranked, func(s *Summary) bool { return s.ShortName == OtherShortName })
	if own != nil {
		ranked = moveToFront(ranked, func(s *Summary) bool { return s.ID == *own })
	}
	return ranked
}

func moveToFront(list []Summary, match func(*Summary) bool) []Summary {
	for i := range list {
		if match(&list[i]) {
			picked := list[i]
			copy(list[1:i+1], list[:i])
			list[0] = picked
			break
		}
	}
	return list
}
