package dto

import "testing"

func TestPercent(t *testing.T) {
	tests := []struct {
		bps  uint32
		want string
	}{
		{0, "0.00"},
		{5000, "50.00"},
		{7349, "73.49"},
		{1, "0.01"},
		{10000, "100.00"},
	}
	for _, tt := range tests {
		if got := Percent(tt.bps); got != tt.want {
			t.Errorf("Percent(%d) = %q, want %q", tt.bps, got, tt.want)
		}
	}
}
