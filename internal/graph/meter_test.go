package graph

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeter_Render(t *testing.T) {
	tests := []struct {
		name  string
		width int
		value int
		want  string
	}{
		{"full", 20, 100, strings.Repeat("■", 20) + "R"},
		{"half", 10, 50, "■■■■■I■■■■■R"},
		{"empty", 10, 0, "I■■■■■■■■■■R"},
		{"negative clamps", 10, -5, "I■■■■■■■■■■R"},
		{"over clamps", 4, 150, "■■■■R"},
		{"rounded steps", 3, 67, "■■I■R"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMeter(tt.width, nil, "I", "R", false)
			assert.Equal(t, tt.want, m.Render(tt.value))
		})
	}
}

func TestMeter_Gradient(t *testing.T) {
	m := NewMeter(4, testGradient(), "", "", false)
	assert.Equal(t, "<25>■<50>■<75>■<100>■", m.Render(100))

	inv := NewMeter(4, testGradient(), "", "", true)
	assert.Equal(t, "<75>■<50>■<25>■<0>■", inv.Render(100))
}

func TestMeter_Cache(t *testing.T) {
	m := NewMeter(5, nil, "", "", false)
	first := m.Render(40)
	assert.True(t, m.cached[40])
	assert.Equal(t, first, m.Render(40))
	assert.False(t, m.cached[41])
}
