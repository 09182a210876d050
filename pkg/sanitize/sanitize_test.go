package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"passthrough", "Repair", "Repair"},
		{"trims", "  Repair  ", "Repair"},
		{"keeps allowed symbols", "A/B - C & D (E), F.", "A/B - C & D (E), F."},
		{"strips disallowed", "Repair<script>", "Repair script"},
		{"collapses whitespace", "a   b \t c", "a b c"},
		{"strips quotes", `"quoted"; DROP TABLE`, "quoted DROP TABLE"},
		{"arabic preserved", "صيانة عامة", "صيانة عامة"},
		{"empty stays empty", "", ""},
		{"all disallowed becomes empty", "@#$%^", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, String(tc.in))
		})
	}
}

func TestEmailOnlyTrims(t *testing.T) {
	assert.Equal(t, "jo+test@example.com", Email("  jo+test@example.com "))
}

func TestMapRecursion(t *testing.T) {
	in := map[string]any{
		"typeName":     " Repair* ",
		"contactEmail": " jo@example.com ",
		"count":        3,
		"nested": map[string]any{
			"note": "line1\nline2!",
		},
		"tags": []any{" a*", "b "},
	}

	out := Map(in)

	assert.Equal(t, "Repair", out["typeName"])
	assert.Equal(t, "jo@example.com", out["contactEmail"])
	assert.Equal(t, 3, out["count"])
	nested := out["nested"].(map[string]any)
	assert.Equal(t, "line1 line2", nested["note"])
	assert.Equal(t, []any{"a", "b"}, out["tags"])
}

func TestMapNil(t *testing.T) {
	assert.Nil(t, Map(nil))
}
