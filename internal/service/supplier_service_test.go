package service

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		quality, delivery, service int
		want                       string
	}{
		{5, 5, 5, "5"},
		{1, 1, 1, "1"},
		{4, 3, 2, "3.3"},  // 2.0 + 0.9 + 0.4
		{5, 1, 1, "3"},    // 2.5 + 0.3 + 0.2
		{2, 4, 5, "3.2"},  // 1.0 + 1.2 + 1.0
		{3, 2, 1, "2.3"},  // 1.5 + 0.6 + 0.2
	}
	for _, tt := range tests {
		got := WeightedScore(tt.quality, tt.delivery, tt.service)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("WeightedScore(%d,%d,%d) = %s, want %s", tt.quality, tt.delivery, tt.service, got, tt.want)
		}
	}
}

func TestComplianceFor(t *testing.T) {
	if complianceFor(decimal.RequireFromString("3.0")) != "Compliant" {
		t.Errorf("score at threshold should be Compliant")
	}
	if complianceFor(decimal.RequireFromString("2.99")) != "NonCompliant" {
		t.Errorf("score below threshold should be NonCompliant")
	}
}
