package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseAuthors_CommaDelimited verifies comma-separated authors
func TestParseAuthors_CommaDelimited(t *testing.T) {
	authors := ParseAuthors("John Doe, Jane Smith, Bob Jones")

	require.Len(t, authors, 3)
	assert.Equal(t, []string{"John Doe", "Jane Smith", "Bob Jones"}, authors)
}

// TestParseAuthors_AndDelimited verifies " and " separated authors
func TestParseAuthors_AndDelimited(t *testing.T) {
	authors := ParseAuthors("John Doe and Jane Smith")

	assert.Equal(t, []string{"John Doe", "Jane Smith"}, authors)
}

// TestParseAuthors_SingleAndEmpty verifies single author and empty input
func TestParseAuthors_SingleAndEmpty(t *testing.T) {
	assert.Equal(t, []string{"John Doe"}, ParseAuthors("  John Doe "))
	assert.Empty(t, ParseAuthors("   "))
}

// TestParseAuthors_Dedup verifies repeated bylines collapse
func TestParseAuthors_Dedup(t *testing.T) {
	assert.Equal(t, []string{"Jane Doe"}, ParseAuthors("Jane Doe, jane doe"))
}
