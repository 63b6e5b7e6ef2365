package university_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itacpc/teams/internal/university"
)

func TestAllowsEmail(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		email  string
		want   bool
	}{
		{"exact domain", "mit.edu", "a@mit.edu", true},
		{"subdomain", "mit.edu", "a@csail.mit.edu", true},
		{"other domain", "mit.edu", "a@other.com", false},
		{"suffix without separator", "mit.edu", "a@notmit.edu", false},
		{"case insensitive", "mit.edu", "A@MIT.EDU", true},
		{"second domain of list", "unipi.it, sns.it", "a@sns.it", true},
		{"none of list", "unipi.it,sns.it", "a@unifi.it", false},
		{"wildcard", "*", "anyone@anywhere.org", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &university.University{ShortName: "x", Domain: tt.domain}
			assert.Equal(t, tt.want, u.AllowsEmail(tt.email))
		})
	}
}

func TestDomains(t *testing.T) {
	u := &university.University{Domain: " unipi.it , SNS.it,"}
	assert.Equal(t, []string{"unipi.it", "sns.it"}, u.Domains())

	wildcard := &university.University{Domain: "*"}
	assert.Nil(t, wildcard.Domains())
}
