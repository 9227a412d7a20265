package section

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_AliasVariants(t *testing.T) {
	c := Default()

	// Case, spacing and punctuation variants of the same alias must all land
	// on the same canonical ID.
	variants := []string{
		"II-CSE_A",
		"ii cse a",
		"II CSE A",
		" II-CSE.A ",
		"ii-cse.a",
		"ii cse.a",
		"II.CSE.A",
		"II - CSE A",
	}
	for _, v := range variants {
		assert.Equal(t, ID("II-CSE_A"), c.Resolve(v), "variant %q", v)
	}
}

func TestResolve_DataScienceAliases(t *testing.T) {
	c := Default()

	for _, v := range []string{"CSE_DS", "cse.ds", "II-CSE_DS", "ii cse ds", "II-CSD"} {
		assert.Equal(t, ID("II-CSD"), c.Resolve(v), "variant %q", v)
	}
}

func TestResolve_TypoAlias(t *testing.T) {
	c := Default()

	// "lll-CSD" is a registered historical alias, not fuzzy matching.
	assert.Equal(t, ID("III-CSD"), c.Resolve("lll-CSD"))
}

func TestResolve_UnknownPassthrough(t *testing.T) {
	c := Default()

	// Unlisted labels come back unchanged; no fuzzy matching.
	assert.Equal(t, ID("IV-ECE"), c.Resolve("IV-ECE"))
	assert.Equal(t, ID("II-CSEE_A"), c.Resolve("II-CSEE_A"))
}

func TestResolve_Roundtrip(t *testing.T) {
	c := Default()

	for _, id := range c.IDs() {
		assert.Equal(t, id, c.Resolve(string(id)))
	}
}

func TestFilenames_FirstIsSaveName(t *testing.T) {
	c := Default()

	for _, id := range c.IDs() {
		files := c.Filenames(id)
		assert.NotEmpty(t, files)
		assert.Equal(t, files[0], c.SaveFilename(id))
	}
	assert.Equal(t, "II-CSD.csv", c.SaveFilename("II-CSD"))
}

func TestFilenames_UnknownSectionProbe(t *testing.T) {
	c := Default()

	assert.Equal(t, []string{"IV-ECE.csv"}, c.Filenames("IV-ECE"))
	assert.False(t, c.Known("IV-ECE"))
}

func TestFilenames_CopyIsolated(t *testing.T) {
	c := Default()

	files := c.Filenames("III-CSE")
	files[0] = "mutated.csv"
	assert.Equal(t, "III-CSE.csv", c.SaveFilename("III-CSE"))
}
