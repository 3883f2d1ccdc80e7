package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLadderEvaluate_GTE(t *testing.T) {
	ladder := Ladder{
		Direction: LadderGTE,
		Steps: []LadderStep{
			{Bound: decimal.NewFromInt(740), Points: 25, Label: "excellent"},
			{Bound: decimal.NewFromInt(680), Points: 20, Label: "good"},
			{Bound: decimal.NewFromInt(620), Points: 15, Label: "fair"},
		},
		FallbackPoints: 5,
		FallbackLabel:  "subprime",
	}

	cases := []struct {
		value  int64
		points int
		label  string
	}{
		{800, 25, "excellent"},
		{740, 25, "excellent"}, // boundary matches its step
		{739, 20, "good"},
		{680, 20, "good"},
		{620, 15, "fair"},
		{619, 5, "subprime"},
	}
	for _, tc := range cases {
		points, label := ladder.Evaluate(decimal.NewFromInt(tc.value))
		if points != tc.points || label != tc.label {
			t.Fatalf("Evaluate(%d) expected (%d, %s), got (%d, %s)", tc.value, tc.points, tc.label, points, label)
		}
	}
}

func TestLadderEvaluate_LTE(t *testing.T) {
	ladder := Ladder{
		Direction: LadderLTE,
		Steps: []LadderStep{
			{Bound: decimal.NewFromFloat(0.28), Points: 25, Label: "excellent"},
			{Bound: decimal.NewFromFloat(0.36), Points: 20, Label: "good"},
			{Bound: decimal.NewFromFloat(0.43), Points: 15, Label: "acceptable"},
		},
		FallbackPoints: 5,
		FallbackLabel:  "high_risk",
	}

	cases := []struct {
		value  float64
		points int
		label  string
	}{
		{0.10, 25, "excellent"},
		{0.28, 25, "excellent"}, // boundary stays in the lower-risk band
		{0.29, 20, "good"},
		{0.36, 20, "good"},
		{0.43, 15, "acceptable"},
		{0.44, 5, "high_risk"},
	}
	for _, tc := range cases {
		points, label := ladder.Evaluate(decimal.NewFromFloat(tc.value))
		if points != tc.points || label != tc.label {
			t.Fatalf("Evaluate(%v) expected (%d, %s), got (%d, %s)", tc.value, tc.points, tc.label, points, label)
		}
	}
}

func TestLadderEvaluate_EmptyLadderFallsBack(t *testing.T) {
	ladder := Ladder{Direction: LadderGTE, FallbackPoints: 7, FallbackLabel: "none"}
	points, label := ladder.Evaluate(decimal.NewFromInt(999))
	if points != 7 || label != "none" {
		t.Fatalf("Evaluate on empty ladder expected (7, none), got (%d, %s)", points, label)
	}
}
