package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"patient presentations related to the breasts", "breasts"},
		{"patient presentations related to community health and wellness", "community health and wellness"},
		{"professionalism in the practice of osteopathic medicine", "professionalism"},
		{"practice-based learning and improvement in osteopathic medical practice", "practice-based learning and improvement"},
		{"hematologic and lymphatic systems", "hematologic and lymphatic system"},
		{"renal system", "renal system"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, preprocess(tt.in), tt.in)
	}
}

func TestSimplify(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "nervous system mental health", simplify("nervous system and mental health"))
	assert.Equal(t, "breasts", simplify("breasts"))

	// OCR confusables fold on both sides of a comparison.
	assert.Equal(t, "skil", simplify("ski|"))
	assert.Equal(t, "modem", simplify("modern"))
}
