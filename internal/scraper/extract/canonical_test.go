package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonicalizeURL(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{
			raw:      "https://site.example/jobs/view/software-engineer-acme-3891204?trk=abc",
			expected: "https://site.example/jobs/view/3891204/",
		},
		{
			raw:      "https://www.linkedin.com/jobs/view/senior-go-developer-at-initech-4011223344?refId=x&trackingId=y",
			expected: "https://www.linkedin.com/jobs/view/4011223344/",
		},
		{
			raw:      "https://uk.linkedin.com/jobs/view/data-analyst-77?position=1",
			expected: "https://uk.linkedin.com/jobs/view/77/",
		},
	}

	for _, test := range testCases {
		require.Equal(t, test.expected, CanonicalizeURL(test.raw), test.raw)
	}
}

func TestCanonicalizeURLPassthrough(t *testing.T) {
	unchanged := []string{
		"",
		"https://site.example/jobs/view/3891204/",
		"https://site.example/jobs/view/software-engineer-3891204",
		"https://site.example/company/acme?trk=abc",
		"not a url at all",
	}
	for _, raw := range unchanged {
		require.Equal(t, raw, CanonicalizeURL(raw))
	}
}

func TestCanonicalizeURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://site.example/jobs/view/software-engineer-acme-3891204?trk=abc",
		"https://site.example/jobs/view/a-b-c-1?x",
		"/jobs/view/relative-posting-42?trk=1",
		"https://site.example/jobs/view/3891204/",
	}
	for _, raw := range inputs {
		once := CanonicalizeURL(raw)
		require.Equal(t, once, CanonicalizeURL(once), raw)
	}
}

func TestResolveURL(t *testing.T) {
	require.Equal(t, "https://site.example/jobs/view/x-1?a=b", ResolveURL("https://site.example", "/jobs/view/x-1?a=b"))
	require.Equal(t, "https://other.example/p", ResolveURL("https://site.example", "https://other.example/p"))
	require.Equal(t, "", ResolveURL("https://site.example", "  "))
	require.Equal(t, "/p", ResolveURL("", "/p"))
}
