package contenttype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare type", "application/json", "application/json"},
		{"charset parameter stripped", "application/json; charset=utf-8", "application/json"},
		{"uppercase lowered", "Application/JSON", "application/json"},
		{"form with charset", "application/x-www-form-urlencoded; charset=UTF-8", FormURLEncoded},
		{"empty defaults to text/plain", "", DefaultType},
		{"malformed still stripped", "text/html;;bad", "text/html"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestIsForm(t *testing.T) {
	assert.True(t, IsForm(Normalize("application/x-www-form-urlencoded; charset=UTF-8")))
	assert.False(t, IsForm("application/json"))
}
