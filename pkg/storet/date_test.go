package storet

import "testing"

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"19750612", "1975-06-12"},
		{"1975-06-12", "1975-06-12"},
		{"06/12/1975", "1975-06-12"},
		{"6/1/1975", "1975-06-01"},
		{"1975/06/12", "1975-06-12"},
		{"1975/6/1", "1975-06-01"},
		// Unrecognised or impossible shapes pass through.
		{"", ""},
		{"19751301", "19751301"},
		{"1975-02-30", "1975-02-30"},
		{"12-JUN-75", "12-JUN-75"},
		{"750612", "750612"},
		{"06/12/75", "06/12/75"},
		{"unknown", "unknown"},
	}
	for _, tt := range tests {
		if got := NormalizeDate(tt.in); got != tt.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
