package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanCPUName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intel(R) Core(TM) i7-8700K CPU @ 3.70GHz", "i7-8700K"},
		{"AMD Ryzen 7 5800X 8-Core Processor", "Ryzen 7 5800X"},
		{"Intel(R) Xeon(R) CPU E5-2680 v4 @ 2.40GHz", "E5-2680"},
		{"Intel(R) Core(TM)2 Duo CPU     E8400  @ 3.00GHz", "Core2 Duo E8400"},
		{"Apple M1", "Apple M1"},
		{"AMD EPYC 7763 64-Core Processor", "AMD EPYC 7763 64-Core Processor"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanCPUName(tt.in))
		})
	}
}
