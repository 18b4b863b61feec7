package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanOCRText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "collapses whitespace",
			input:    "Menu   Planning\n\n  Valider",
			expected: "Menu Planning Valider",
		},
		{
			name:     "strips decorative characters keeps punctuation",
			input:    "Valider*#@ la demande, merci !",
			expected: "Valider la demande, merci !",
		},
		{
			name:     "removes ellipsis",
			input:    "Chargement…",
			expected: "Chargement",
		},
		{
			name:     "removes filler words case insensitive",
			input:    "photo du menu",
			expected: " du menu",
		},
		{
			name:     "removes non ascii",
			input:    "Congés",
			expected: "Congs",
		},
		{
			name:     "empty input",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanOCRText(tt.input))
		})
	}
}

func TestTruncateCaption(t *testing.T) {
	assert.Equal(t, "Bouton de validation.", TruncateCaption("Bouton de validation. Il permet de"))
	assert.Equal(t, "Capture du planning,", TruncateCaption("Capture du planning, avec les"))
	assert.Equal(t, "texte sans ponctuation", TruncateCaption("texte sans ponctuation"))
	assert.Equal(t, "", TruncateCaption(""))
}

func TestStripBoilerplate(t *testing.T) {
	content := "OCTIME - Module web Employé Planning mensuel"
	assert.Equal(t, "Planning mensuel", stripBoilerplate(content, defaultBoilerplate))

	assert.Equal(t, "inchangé", stripBoilerplate("inchangé", defaultBoilerplate))
}
