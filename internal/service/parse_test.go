package service

import "testing"

func TestScoreFromLabel(t *testing.T) {
	tests := []struct {
		label string
		want  int
	}{
		{"", 0},
		{"Some (2)", 2},
		{"High Alignment (3)", 3},
		{"Very High Alignment (4)", 4},
		{"4", 4},
		{"2.0", 2},
		{"High", 4},
		{"Low", 1},
		{"Moderate", 3},
		{"  major  ", 4},
		{"None", 0},
		{"gibberish", 0},
	}
	for _, tt := range tests {
		if got := ScoreFromLabel(tt.label); got != tt.want {
			t.Errorf("ScoreFromLabel(%q) = %d, want %d", tt.label, got, tt.want)
		}
	}
}

func TestQuartileRank(t *testing.T) {
	tests := []struct {
		quartile string
		want     int
	}{
		{"", 4},
		{"1", 1},
		{"3", 3},
		{"7", 4},
		{"Quartile 2", 2},
		{"quartile 4", 4},
		{"Quartile 9", 4},
		{"Most Aligned", 1},
		{"More Aligned", 2},
		{"Less Aligned", 3},
		{"Least Aligned", 4},
		{"whatever", 4},
	}
	for _, tt := range tests {
		if got := QuartileRank(tt.quartile); got != tt.want {
			t.Errorf("QuartileRank(%q) = %d, want %d", tt.quartile, got, tt.want)
		}
	}
}
