package service

import "testing"

func TestClassifyBitGrid(t *testing.T) {
	// category - 1 encodes reliance + mandate*2 + cost*4 + impact*8.
	high := intPtr(3)
	low := intPtr(2)

	tests := []struct {
		name     string
		quartile string
		cost     float64
		median   float64
		mandate  *int
		reliance *int
		want     int
	}{
		{"all low", "Quartile 4", 100, 500, low, low, 1},
		{"reliance only", "Quartile 4", 100, 500, low, high, 2},
		{"mandate only", "Quartile 4", 100, 500, high, low, 3},
		{"mandate and reliance", "Quartile 4", 100, 500, high, high, 4},
		{"cost only", "Quartile 4", 900, 500, low, low, 5},
		{"cost and reliance", "Quartile 4", 900, 500, low, high, 6},
		{"cost and mandate", "Quartile 4", 900, 500, high, low, 7},
		{"cost mandate reliance", "Quartile 4", 900, 500, high, high, 8},
		{"impact only", "Quartile 2", 100, 500, low, low, 9},
		{"impact and reliance", "Quartile 1", 100, 500, low, high, 10},
		{"impact and mandate", "Quartile 2", 100, 500, high, low, 11},
		{"all but cost", "Quartile 1", 100, 500, high, high, 12},
		{"impact and cost", "Quartile 2", 900, 500, low, low, 13},
		{"all but mandate", "Quartile 1", 900, 500, low, high, 14},
		{"all but reliance", "Quartile 2", 900, 500, high, low, 15},
		{"all high", "Quartile 1", 900, 500, high, high, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.quartile, tt.cost, tt.median, tt.mandate, tt.reliance)
			if got != tt.want {
				t.Errorf("Classify = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassifyNilAttributesAreLow(t *testing.T) {
	if got := Classify("Most Aligned", 900, 500, nil, nil); got != 13 {
		t.Errorf("Classify with nil attrs = %d, want 13", got)
	}
}

func TestClassifyCostAtMedianIsLow(t *testing.T) {
	if got := Classify("Quartile 4", 500, 500, nil, nil); got != 1 {
		t.Errorf("Classify at median = %d, want 1", got)
	}
}

func TestCategoriesTableComplete(t *testing.T) {
	for i := 1; i <= 16; i++ {
		c, ok := Categories[i]
		if !ok {
			t.Fatalf("missing category %d", i)
		}
		if c.Name == "" || c.PreferredRecommendation == "" || c.StrategicGuidance == "" {
			t.Errorf("category %d has empty fields", i)
		}
		if len(c.PrimaryInsights) == 0 {
			t.Errorf("category %d has no primary insights", i)
		}
	}
}

func TestMedianCost(t *testing.T) {
	tests := []struct {
		name  string
		costs []float64
		want  float64
	}{
		{"empty", nil, 0},
		{"all zero", []float64{0, 0}, 0},
		{"odd", []float64{300, 100, 200}, 200},
		{"even", []float64{100, 200, 300, 400}, 250},
		{"zeros excluded", []float64{0, 100, 0, 300}, 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := medianCost(tt.costs); got != tt.want {
				t.Errorf("medianCost = %v, want %v", got, tt.want)
			}
		})
	}
}
