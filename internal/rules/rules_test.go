package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
)

func TestNew_InvalidPattern(t *testing.T) {
	_, err := New(nil, "([")
	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodePatternInvalid, sweeperr.CodeOf(err))
}

func TestMatch_Unconfigured_MatchesEverything(t *testing.T) {
	// Given: no extensions and no pattern
	m, err := New(nil, "")
	require.NoError(t, err)

	// Then: everything matches
	assert.True(t, m.MatchesAll())
	assert.True(t, m.Match("/tmp/anything.bin"))
	assert.True(t, m.Match("noextension"))
	assert.True(t, m.Match(""))
}

func TestMatch_ExtensionsOnly(t *testing.T) {
	m, err := New([]string{".txt", "PDF"}, "")
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"/watch/report.txt", true},
		{"/watch/report.TXT", true},
		{"/watch/scan.pdf", true},
		{"/watch/scan.Pdf", true},
		{"/watch/photo.jpg", false},
		{"/watch/noext", false},
		{"/watch/archive.txt.gz", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestMatch_PatternAppliesToStemOnly(t *testing.T) {
	// Given: the 17-digits-plus-check-digit pattern
	m, err := New([]string{".txt", ".pdf"}, `^\d{17}[\dXx]$`)
	require.NoError(t, err)

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"18-char numeric stem txt", "/watch/123456789012345678.txt", true},
		{"stem ending in X", "/watch/12345678901234567X.pdf", true},
		{"stem ending in x", "/watch/12345678901234567x.txt", true},
		{"pattern mismatch", "/watch/abc.txt", false},
		{"extension not allowed", "/watch/123456789012345678.jpg", false},
		{"stem too short", "/watch/1234.txt", false},
		{"stem too long", "/watch/1234567890123456789.txt", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestMatch_PatternIsAnchored(t *testing.T) {
	// Given: a pattern without explicit anchors
	m, err := New(nil, `\d{3}`)
	require.NoError(t, err)

	// Then: partial stem matches are rejected
	assert.True(t, m.Match("123.txt"))
	assert.False(t, m.Match("a123b.txt"))
	assert.False(t, m.Match("1234.txt"))
}

func TestMatch_PatternWithoutExtensions(t *testing.T) {
	m, err := New(nil, `^invoice-\d+$`)
	require.NoError(t, err)

	assert.True(t, m.Match("/in/invoice-42.pdf"))
	assert.True(t, m.Match("/in/invoice-1.anything"))
	assert.False(t, m.Match("/in/receipt-42.pdf"))
}

func TestMatch_CachedDecisionsStayStable(t *testing.T) {
	m, err := New([]string{".txt"}, "")
	require.NoError(t, err)

	// Repeated queries for the same base name return the same result
	for i := 0; i < 3; i++ {
		assert.True(t, m.Match("/a/b/keep.txt"))
		assert.False(t, m.Match("/a/b/skip.jpg"))
	}
}

func TestExtensions_Normalized(t *testing.T) {
	m, err := New([]string{"TXT", " .Pdf "}, "")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{".txt", ".pdf"}, m.Extensions())
}

func TestPattern_ReturnsAnchoredSource(t *testing.T) {
	m, err := New(nil, `\d+`)
	require.NoError(t, err)
	assert.Equal(t, `^\d+$`, m.Pattern())

	empty, err := New(nil, "")
	require.NoError(t, err)
	assert.Equal(t, "", empty.Pattern())
}
