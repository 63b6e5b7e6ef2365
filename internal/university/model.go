package university

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OtherShortName identifies the catch-all university listed before all others.
const OtherShortName = "other"

// AnyDomain is the domain value accepting every email address.
const AnyDomain = "*"

// University represents a row in the universities table.
type University struct {
	ID               uuid.UUID
	ShortName        string
	Name             string
	Domain           string // comma-separated allow-list, or "*"
	JudgeSubdivision *string
	Active           bool
	CreatedAt        time.Time
}

// Summary is a university with its non-empty team count and verified student count.
type Summary struct {
	University
	Teams    int
	Students int
}

// Domains returns the email domains accepted for self-registration,
// or nil when any address is accepted.
func (u *University) Domains() []string {
	if strings.TrimSpace(u.Domain) == AnyDomain {
		return nil
	}

	var domains []string
	for _, d := range strings.Split(u.Domain, ",") {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return domains
}

// AllowsEmail reports whether email belongs to the university allow-list:
// the address must end in "@domain" or ".domain" for one of the domains.
func (u *University) AllowsEmail(email string) bool {
	if strings.TrimSpace(u.Domain) == AnyDomain {
		return true
	}

	email = strings.ToLower(strings.TrimSpace(email))
	for _, d := range u.Domains() {
		if strings.HasSuffix(email, "@"+d) || strings.HasSuffix(email, "."+d) {
			return true
		}
	}
	return false
}
