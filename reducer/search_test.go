package reducer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepper(t *testing.T) {
	tests := []struct {
		name    string
		ceiling float64
		step    float64
		levels  []float64
	}{
		{"single step to ceiling", 0.7, 0.7, []float64{0.7}},
		{"step overshoots ceiling", 0.7, 0.25, []float64{0.25, 0.5, 0.7}},
		{"ceiling reached exactly", 0.8, 0.1, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8}},
		{"capped at one", 1, 0.4, []float64{0.4, 0.8, 1}},
		{"zero ceiling", 0, 0.5, []float64{0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := stepper{ceiling: tt.ceiling, step: tt.step}
			var levels []float64
			for n := 1; n <= 20; n++ {
				level := s.level(n)
				levels = append(levels, level)
				if s.exhausted(level) {
					break
				}
			}
			assert.InDeltaSlice(t, tt.levels, levels, 1e-9)
			assert.Equal(t, tt.ceiling, levels[len(levels)-1])
		})
	}
}
