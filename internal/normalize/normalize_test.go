package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	plain := Normalizer{}
	ascii := Normalizer{Transliterate: true}

	cases := []struct {
		name string
		n    Normalizer
		in   string
		want string
	}{
		{"trim_and_collapse", plain, "  Les \t fractions\n\n simples ", "Les fractions simples"},
		{"bom_and_nul", plain, "\uFEFFFrac\x00tions", "Fractions"},
		{"invalid_utf8_dropped", plain, "Fra\xffctions", "Fractions"},
		{"control_chars_removed", plain, "Chap\x07itre\x1b 1", "Chapitre 1"},
		{"keeps_accents_without_transliteration", plain, "6ème", "6ème"},
		{"transliterates_fixed_set", ascii, "Mathématiques à l'école", "Mathematiques a l'ecole"},
		{"decomposed_accents_are_composed_first", ascii, "élève", "eleve"},
		{"uppercase_outside_fixed_set", ascii, "École", "École"},
		{"empty", ascii, "", ""},
		{"only_spaces", plain, "   ", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.n.Normalize(tc.in))
		})
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := Normalizer{Transliterate: true}
	in := " \uFEFFGéométrie  plane "
	assert.Equal(t, n.Normalize(in), n.Normalize(in))
	assert.Equal(t, n.Normalize(in), n.Normalize(n.Normalize(in)))
}

func TestIsUsable(t *testing.T) {
	for _, v := range []string{"", " ", "-", "null", "NULL"} {
		assert.False(t, IsUsable(v), "%q", v)
	}
	for _, v := range []string{"Fractions", "6ème", "--", "nul"} {
		assert.True(t, IsUsable(v), "%q", v)
	}
}
