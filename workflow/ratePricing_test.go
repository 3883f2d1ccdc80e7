package workflow

import (
	"context"
	"testing"

	"github.com/lendfocus/mortgage_backend/models"
)

func TestAdjustmentFromPoints(t *testing.T) {
	cases := []struct {
		points   int
		expected string
	}{
		{0, "0"},
		{125, "0.125"},
		{375, "0.375"},
		{2000, "2"},
	}
	for _, tc := range cases {
		if got := adjustmentFromPoints(tc.points); got.String() != tc.expected {
			t.Fatalf("adjustmentFromPoints(%d) expected %s, got %s", tc.points, tc.expected, got)
		}
	}
}

func TestQuoteRate_BaseRateSelection(t *testing.T) {
	ctx := context.Background()

	rate := QuoteRate(ctx, &models.Application{LoanTermMonths: 360}, nil, nil, nil)
	if rate.String() != "7.125" {
		t.Fatalf("QuoteRate 30y base expected 7.125, got %s", rate)
	}

	rate = QuoteRate(ctx, &models.Application{LoanTermMonths: 180}, nil, nil, nil)
	if rate.String() != "6.625" {
		t.Fatalf("QuoteRate 15y base expected 6.625, got %s", rate)
	}

	jumbo := &models.LoanProgram{ProgramType: models.ProgramTypeJumbo}
	rate = QuoteRate(ctx, &models.Application{LoanTermMonths: 180}, nil, nil, jumbo)
	if rate.String() != "7.25" {
		t.Fatalf("QuoteRate jumbo base expected 7.25 regardless of term, got %s", rate)
	}
}

func TestQuoteRate_CreditAdjustments(t *testing.T) {
	ctx := context.Background()
	app := &models.Application{LoanTermMonths: 360}

	cases := []struct {
		credit   int
		expected string
	}{
		{780, "7.125"}, // top tier, no adjustment
		{760, "7.125"},
		{740, "7.25"},
		{680, "7.625"},
		{600, "8.625"},
		{580, "8.875"},
		{570, "9.125"}, // below every tier, worst-case adjustment
	}
	for _, tc := range cases {
		borrower := &models.Person{CreditScore: intPtr(tc.credit)}
		if got := QuoteRate(ctx, app, borrower, nil, nil); got.String() != tc.expected {
			t.Fatalf("QuoteRate(credit=%d) expected %s, got %s", tc.credit, tc.expected, got)
		}
	}
}

func TestQuoteRate_LTVAdjustments(t *testing.T) {
	ctx := context.Background()
	app := &models.Application{LoanTermMonths: 360}

	cases := []struct {
		ltv      float64
		expected string
	}{
		{0.70, "7.125"},
		{0.80, "7.375"},
		{0.97, "8.125"},
		{0.98, "8.375"}, // past the last tier
	}
	for _, tc := range cases {
		metrics := &models.ComputedMetrics{LoanToValue: decPtr(tc.ltv)}
		if got := QuoteRate(ctx, app, nil, metrics, nil); got.String() != tc.expected {
			t.Fatalf("QuoteRate(ltv=%v) expected %s, got %s", tc.ltv, tc.expected, got)
		}
	}
}

func TestQuoteRate_ProgramAndPurposeAdjustments(t *testing.T) {
	ctx := context.Background()

	program := func(pt models.ProgramType) *models.LoanProgram {
		return &models.LoanProgram{ProgramType: pt}
	}

	cases := []struct {
		programType models.ProgramType
		purpose     models.LoanPurpose
		expected    string
	}{
		{models.ProgramTypeFHA, models.LoanPurposePurchase, "7.375"},
		{models.ProgramTypeVA, models.LoanPurposePurchase, "7"},
		{models.ProgramTypeUSDA, models.LoanPurposePurchase, "7.25"},
		{models.ProgramTypeConventional, models.LoanPurposeCashOut, "7.5"},
		{models.ProgramTypeFHA, models.LoanPurposeCashOut, "7.75"},
	}
	for _, tc := range cases {
		app := &models.Application{LoanTermMonths: 360, LoanPurpose: tc.purpose}
		if got := QuoteRate(ctx, app, nil, nil, program(tc.programType)); got.String() != tc.expected {
			t.Fatalf("QuoteRate(%s, %s) expected %s, got %s", tc.programType, tc.purpose, tc.expected, got)
		}
	}
}

func TestQuoteRate_CombinedAdjustments(t *testing.T) {
	// 7.125 base + 0.50 credit(680) + 0.25 ltv(0.80) + 0.25 FHA + 0.375 cash-out
	app := &models.Application{LoanTermMonths: 360, LoanPurpose: models.LoanPurposeCashOut}
	borrower := &models.Person{CreditScore: intPtr(680)}
	metrics := &models.ComputedMetrics{LoanToValue: decPtr(0.80)}
	program := &models.LoanProgram{ProgramType: models.ProgramTypeFHA}

	rate := QuoteRate(context.Background(), app, borrower, metrics, program)
	if rate.String() != "8.5" {
		t.Fatalf("QuoteRate combined expected 8.5, got %s", rate)
	}
}
