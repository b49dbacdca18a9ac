package domainkey

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "url with port and mixed case www",
			input:    "https://WWW.Example.com:8080",
			expected: "example.com_8080",
		},
		{
			name:     "url path is dropped",
			input:    "https://www.example.com/some/path",
			expected: "example.com",
		},
		{
			name:     "plain http url",
			input:    "http://example.com",
			expected: "example.com",
		},
		{
			name:     "bare domain",
			input:    "Example.COM",
			expected: "example.com",
		},
		{
			name:     "bare domain with www",
			input:    "www.Example.com",
			expected: "example.com",
		},
		{
			name:     "bare host with port",
			input:    "example.com:443",
			expected: "example.com_443",
		},
		{
			name:     "bare domain with embedded path",
			input:    "example.com/extra",
			expected: "example.com_extra",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Normalize(tc.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"https://WWW.Example.com:8080",
		"http://www.foo.org/a/b",
		"Bar.NET",
		"host:1234",
	}

	for _, input := range inputs {
		once := Normalize(input)
		require.Equal(t, once, Normalize(once), "input: %s", input)
	}
}
