package scraper

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDomainPolicy_Evaluate(t *testing.T) {
	t.Parallel()

	policy := NewDomainPolicy(
		[]string{"partner.example", ".trusted.io", "pixabay.com"},
		DefaultDeniedDomains,
	)

	tests := []struct {
		host string
		want DomainVerdict
	}{
		{"pixabay.com", VerdictDeny},
		{"cdn.pixabay.com", VerdictDeny},
		{"PIXABAY.COM.", VerdictDeny},
		{"amazon.com", VerdictDeny},
		{"www.amazon.com", VerdictCheckRobots},
		{"notpixabay.com", VerdictCheckRobots},
		{"partner.example", VerdictAllow},
		{"www.partner.example", VerdictCheckRobots},
		{"trusted.io", VerdictAllow},
		{"api.trusted.io", VerdictAllow},
		{"example.com", VerdictCheckRobots},
		{"", VerdictCheckRobots},
	}
	for _, tc := range tests {
		require.Equal(t, tc.want, policy.Evaluate(tc.host), tc.host)
	}
}

func TestDomainPolicy_EmptyMatchesNothing(t *testing.T) {
	t.Parallel()

	policy := NewDomainPolicy(nil, []string{" ", "*."})
	require.Nil(t, policy.allow)
	require.Nil(t, policy.deny)
	require.Equal(t, VerdictCheckRobots, policy.Evaluate("anything.com"))
}

func TestDomainMatcher_DedupesSuffixes(t *testing.T) {
	t.Parallel()

	m := newDomainMatcher([]string{"*.example.com", ".example.com", "*.EXAMPLE.com"})
	require.Len(t, m.suffixes, 1)
	require.True(t, m.matches("a.b.example.com"))
}
