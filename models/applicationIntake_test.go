package models

import "testing"

func validIntakeInput() *NewApplicationInput {
	return &NewApplicationInput{
		Borrower: IntakeBorrower{
			Ssn:            "123-45-6789",
			FirstName:      "Ana",
			LastName:       "Reyes",
			Email:          "ana@example.com",
			CurrentAddress: "123 Main St",
			State:          "CA",
			ZipCode:        "94110",
		},
		LoanPurpose:       "purchase",
		LoanAmount:        400000,
		DownPaymentAmount: 80000,
	}
}

func TestNewApplicationInputValidate_Accepts(t *testing.T) {
	if err := validIntakeInput().validate(); err != nil {
		t.Fatalf("validate expected success, got %v", err)
	}
}

func TestNewApplicationInputValidate_Rejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*NewApplicationInput)
	}{
		{"missing ssn", func(in *NewApplicationInput) { in.Borrower.Ssn = "" }},
		{"unformatted ssn", func(in *NewApplicationInput) { in.Borrower.Ssn = "123456789" }},
		{"missing first name", func(in *NewApplicationInput) { in.Borrower.FirstName = "" }},
		{"bad email", func(in *NewApplicationInput) { in.Borrower.Email = "not-an-email" }},
		{"long state code", func(in *NewApplicationInput) { in.Borrower.State = "CAL" }},
		{"bad zip", func(in *NewApplicationInput) { in.Borrower.ZipCode = "941" }},
		{"credit score out of range", func(in *NewApplicationInput) { in.Borrower.CreditScore = intRef(900) }},
		{"unknown loan purpose", func(in *NewApplicationInput) { in.LoanPurpose = "bridge" }},
		{"loan below floor", func(in *NewApplicationInput) { in.LoanAmount = 10000 }},
		{"loan above ceiling", func(in *NewApplicationInput) { in.LoanAmount = 6000000 }},
		{"odd term", func(in *NewApplicationInput) { in.LoanTermMonths = 240 }},
		{"negative income", func(in *NewApplicationInput) { v := -1.0; in.MonthlyIncome = &v }},
		{"property with bad zip", func(in *NewApplicationInput) {
			in.Property = &IntakeProperty{Address: "1 Elm", State: "CA", ZipCode: "9", PropertyType: "condo"}
		}},
	}
	for _, tc := range cases {
		input := validIntakeInput()
		tc.mutate(input)
		if err := input.validate(); err == nil {
			t.Fatalf("validate(%s) expected error, got nil", tc.name)
		}
	}
}

func intRef(v int) *int {
	return &v
}
