package university_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itacpc/teams/internal/university"
)

const seedYAML = `
universities:
  - shortName: mit
    name: Massachusetts Institute of Technology
    domain: mit.edu
  - shortName: unipi
    name: Università di Pisa
    domain: unipi.it,sns.it
    judgeSubdivision: Tuscany
  - shortName: other
    name: Other
    domain: "*"
    active: false
`

func TestLoadSeed_Success(t *testing.T) {
	unis, err := university.LoadSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)
	require.Len(t, unis, 3)

	assert.Equal(t, "mit", unis[0].ShortName)
	assert.Equal(t, "mit.edu", unis[0].Domain)
	assert.True(t, unis[0].Active)
	assert.Nil(t, unis[0].JudgeSubdivision)

	require.NotNil(t, unis[1].JudgeSubdivision)
	assert.Equal(t, "Tuscany", *unis[1].JudgeSubdivision)

	assert.Equal(t, "*", unis[2].Domain)
	assert.False(t, unis[2].Active)
}

func TestLoadSeed_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing short name", "universities:\n  - name: X\n    domain: x.it\n"},
		{"missing domain", "universities:\n  - shortName: x\n    name: X\n"},
		{"duplicate short name", "universities:\n  - {shortName: x, name: X, domain: x.it}\n  - {shortName: x, name: Y, domain: y.it}\n"},
		{"unknown field", "universities:\n  - {shortName: x, name: X, domain: x.it, color: red}\n"},
		{"not yaml", "universities: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := university.LoadSeed(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestSeed_UpsertsAll(t *testing.T) {
	unis, err := university.LoadSeed(strings.NewReader(seedYAML))
	require.NoError(t, err)

	repo := &mockRepo{}
	n, err := university.Seed(context.Background(), repo, unis)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"mit", "unipi", "other"}, repo.upserted)
}
