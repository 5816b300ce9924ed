package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandKnownSubject(t *testing.T) {
	table := DefaultSynonymTable()

	assert.Equal(t, []string{"Mathematics", "Maths", "Math"}, table.Expand("Mathematics"))
	assert.Equal(t, []string{"mathematics", "Maths", "Math", "Mathematics"}, table.Expand("mathematics"))
	assert.Equal(t, []string{"Physics", "Physic"}, table.Expand("Physics"))
}

func TestExpandCaseInsensitiveLookup(t *testing.T) {
	table := DefaultSynonymTable()

	assert.Equal(t, []string{"MATHS", "Mathematics", "Math", "Maths"}, table.Expand("MATHS"))
}

func TestExpandUnknownSubject(t *testing.T) {
	table := DefaultSynonymTable()

	assert.Equal(t, []string{"Astronomy"}, table.Expand("Astronomy"))
}

func TestExpandMultiWordSubject(t *testing.T) {
	table := DefaultSynonymTable()

	assert.Equal(t, []string{"Euclid Geometry", "Maths", "Mathematics", "Math"}, table.Expand("Euclid Geometry"))
}

func TestExpandEmptySubject(t *testing.T) {
	table := DefaultSynonymTable()

	assert.Nil(t, table.Expand(""))
	assert.Nil(t, table.Expand("   "))
}

func TestExpandTrimsWhitespace(t *testing.T) {
	table := DefaultSynonymTable()

	assert.Equal(t, []string{"Biology", "Bio"}, table.Expand("  Biology  "))
}
