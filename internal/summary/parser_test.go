package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
		wantBody  string
	}{
		{
			name:      "well formed",
			raw:       "Mild Anemia\n\nHemoglobin is slightly low...",
			wantTitle: "Mild Anemia",
			wantBody:  "Hemoglobin is slightly low...",
		},
		{
			name:      "empty input",
			raw:       "",
			wantTitle: FallbackTitle,
			wantBody:  "",
		},
		{
			name:      "whitespace only",
			raw:       "  \n\t\n  ",
			wantTitle: FallbackTitle,
			wantBody:  "",
		},
		{
			name:      "no blank line between title and body",
			raw:       "Stable Kidneys\nCreatinine within range\nNo action needed",
			wantTitle: "Stable Kidneys",
			wantBody:  "Creatinine within range\nNo action needed",
		},
		{
			name:      "leading blank lines before title",
			raw:       "\n\n  Elevated Glucose  \n\nSugar levels are high.",
			wantTitle: "Elevated Glucose",
			wantBody:  "Sugar levels are high.",
		},
		{
			name:      "title only",
			raw:       "Normal Results\n\n\n",
			wantTitle: "Normal Results",
			wantBody:  "",
		},
		{
			name:      "body keeps interior blank lines",
			raw:       "Heart Checkup\n\nFirst point\n\nSecond point",
			wantTitle: "Heart Checkup",
			wantBody:  "First point\n\nSecond point",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := Parse(tt.raw)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
