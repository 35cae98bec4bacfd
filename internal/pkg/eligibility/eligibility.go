// Package eligibility decides whether an email address belongs to the
// trusted organization.
package eligibility

import "strings"

// Classifier matches email domains against a fixed organizational allow-list.
type Classifier struct {
	domains []string
}

// New returns a Classifier for the given allow-list.
func New(domains []string) *Classifier {
	return &Classifier{domains: domains}
}

// IsEligible reports whether email's domain is on the allow-list. Strings
// that are not syntactically an email address are simply ineligible, never an
// error. Matching is exact and case-sensitive on the configured list; a
// mixed-case configured domain will not match its lowercase form.
func (c *Classifier) IsEligible(email string) bool {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t") {
		return false
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") {
		return false
	}
	for _, d := range c.domains {
		if domain == d {
			return true
		}
	}
	return false
}
