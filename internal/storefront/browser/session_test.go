package browser

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchURL(t *testing.T) {
	checkout := regexp.MustCompile(`/checkout`)

	tests := []struct {
		name string
		urls []string
		want int
	}{
		{"first match wins", []string{"https://www.menzzo.fr/", "https://www.menzzo.fr/checkout/#shipping", "https://www.menzzo.fr/checkout/cart"}, 1},
		{"unreadable tabs are skipped", []string{"", "https://www.menzzo.de/checkout"}, 1},
		{"no match", []string{"https://pay.klarna.com/eu/hpp"}, -1},
		{"empty", nil, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matchURL(tt.urls, checkout))
		})
	}
}
