package university

import (
	"context"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"
)

// SeedEntry is one university in a seed file.
type SeedEntry struct {
	ShortName        string `json:"shortName"`
	Name             string `json:"name"`
	Domain           string `json:"domain"`
	JudgeSubdivision string `json:"judgeSubdivision,omitempty"`
	Active           *bool  `json:"active,omitempty"`
}

// SeedFile is the document format accepted by LoadSeed.
type SeedFile struct {
	Universities []SeedEntry `json:"universities"`
}

// LoadSeed parses a YAML seed file into universities. Entries default to active.
func LoadSeed(r io.Reader) ([]University, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var file SeedFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	seen := make(map[string]bool, len(file.Universities))
	unis := make([]University, 0, len(file.Universities))
	for i, e := range file.Universities {
		short := strings.TrimSpace(e.ShortName)
		if short == "" {
			return nil, fmt.Errorf("entry %d: shortName is required", i)
		}
		if len(short) > 30 {
			return nil, fmt.Errorf("entry %d: shortName must be at most 30 characters", i)
		}
		if seen[short] {
			return nil, fmt.Errorf("entry %d: duplicate shortName %q", i, short)
		}
		seen[short] = true

		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("entry %d (%s): name is required", i, short)
		}
		if strings.TrimSpace(e.Domain) == "" {
			return nil, fmt.Errorf("entry %d (%s): domain is required", i, short)
		}

		u := University{
			ShortName: short,
			Name:      strings.TrimSpace(e.Name),
			Domain:    strings.TrimSpace(e.Domain),
			Active:    true,
		}
		if e.JudgeSubdivision != "" {
			sub := e.JudgeSubdivision
			u.JudgeSubdivision = &sub
		}
		if e.Active != nil {
			u.Active = *e.Active
		}
		unis = append(unis, u)
	}
	return unis, nil
}

// Seed upserts every university in the list and returns how many were written.
func Seed(ctx context.Context, repo Repository, unis []University) (int, error) {
	for i := range unis {
		if err := repo.Upsert(ctx, &unis[i]); err != nil {
			return i, err
		}
	}
	return len(unis), nil
}
