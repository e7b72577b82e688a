package keyword

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"paru", "paru", 0},
		{"", "paru", 4},
		{"paru", "", 4},
		{"paru", "baru", 1},
		{"karsinma", "karsinoma", 1},
		{"hipertensi", "hipertensy", 1},
		{"kitten", "sitting", 3},
		{"pasién", "pasien", 1},
	}
	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := LevenshteinDistance(tt.b, tt.a); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d (symmetry)", tt.b, tt.a, got, tt.want)
		}
	}
}
