package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsEligible_AllowedDomains(t *testing.T) {
	c := New([]string{"a8c.com", "automattic.com", "matticspace.com"})

	assert.True(t, c.IsEligible("alice@a8c.com"))
	assert.True(t, c.IsEligible("bob@automattic.com"))
	assert.True(t, c.IsEligible("carol@matticspace.com"))
}

func TestIsEligible_OtherDomain(t *testing.T) {
	c := New([]string{"a8c.com"})

	assert.False(t, c.IsEligible("alice@example.com"))
	assert.False(t, c.IsEligible("alice@a8c.com.evil.com"))
	assert.False(t, c.IsEligible("alice@sub.a8c.com"))
}

func TestIsEligible_CaseSensitive(t *testing.T) {
	// The list is matched exactly. An upper-cased domain in the address does
	// not match a lower-cased entry, and the other way around.
	c := New([]string{"a8c.com", "Matticspace.com"})

	assert.False(t, c.IsEligible("alice@A8C.COM"))
	assert.False(t, c.IsEligible("alice@matticspace.com"))
	assert.True(t, c.IsEligible("alice@Matticspace.com"))
}

func TestIsEligible_MalformedAddresses(t *testing.T) {
	c := New([]string{"a8c.com"})

	assert.False(t, c.IsEligible(""))
	assert.False(t, c.IsEligible("no-at-sign"))
	assert.False(t, c.IsEligible("@a8c.com"))
	assert.False(t, c.IsEligible("alice@"))
	assert.False(t, c.IsEligible("alice@a8c"))
	assert.False(t, c.IsEligible("ali ce@a8c.com"))
}

func TestIsEligible_MultipleAtSigns(t *testing.T) {
	// Everything after the last @ is the domain.
	c := New([]string{"a8c.com"})

	assert.True(t, c.IsEligible(`"weird@local"@a8c.com`))
	assert.False(t, c.IsEligible("alice@a8c.com@example.com"))
}

func TestIsEligible_EmptyAllowList(t *testing.T) {
	c := New(nil)
	assert.False(t, c.IsEligible("alice@a8c.com"))
}
