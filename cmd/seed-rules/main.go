// seed-rules loads the rule registry with the baseline decision tables:
// scoring ladders, SLA budgets, QM limits, state rules, and rate tables.
// Existing published rules are left alone; rerunning is safe.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-rules
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedRule struct {
	RuleId           string
	RuleType         models.RuleType
	ApplicabilityKey string
	Category         string
	UpperBound       *float64
	Points           *int
	Label            string
	RateValue        *float64
	LimitValue       *float64
	Description      string
}

func fp(f float64) *float64 { return &f }
func ip(i int) *int         { return &i }

func baselineRules() []seedRule {
	return []seedRule{
		// credit score ladder (higher is better)
		{RuleId: "credit_band_740", RuleType: models.RuleTypeCreditBand, UpperBound: fp(740), Points: ip(25), Label: "excellent"},
		{RuleId: "credit_band_680", RuleType: models.RuleTypeCreditBand, UpperBound: fp(680), Points: ip(20), Label: "good"},
		{RuleId: "credit_band_620", RuleType: models.RuleTypeCreditBand, UpperBound: fp(620), Points: ip(15), Label: "fair"},
		{RuleId: "credit_band_580", RuleType: models.RuleTypeCreditBand, UpperBound: fp(580), Points: ip(10), Label: "poor"},

		// dti ladder (lower is better)
		{RuleId: "dti_band_28", RuleType: models.RuleTypeDTIBand, UpperBound: fp(0.28), Points: ip(25), Label: "excellent"},
		{RuleId: "dti_band_36", RuleType: models.RuleTypeDTIBand, UpperBound: fp(0.36), Points: ip(20), Label: "acceptable"},
		{RuleId: "dti_band_43", RuleType: models.RuleTypeDTIBand, UpperBound: fp(0.43), Points: ip(15), Label: "elevated"},

		// down payment ladder
		{RuleId: "down_payment_band_20", RuleType: models.RuleTypeDownPaymentBand, UpperBound: fp(0.20), Points: ip(20), Label: "strong"},
		{RuleId: "down_payment_band_10", RuleType: models.RuleTypeDownPaymentBand, UpperBound: fp(0.10), Points: ip(15), Label: "moderate"},
		{RuleId: "down_payment_band_5", RuleType: models.RuleTypeDownPaymentBand, UpperBound: fp(0.05), Points: ip(10), Label: "minimal"},

		// stability ladders
		{RuleId: "address_years_band_2", RuleType: models.RuleTypeAddressYearsBand, UpperBound: fp(2), Points: ip(15), Label: "stable"},
		{RuleId: "address_years_band_1", RuleType: models.RuleTypeAddressYearsBand, UpperBound: fp(1), Points: ip(10), Label: "recent"},
		{RuleId: "median_income_band_75000", RuleType: models.RuleTypeMedianIncomeBand, UpperBound: fp(75000), Points: ip(15), Label: "high"},
		{RuleId: "median_income_band_50000", RuleType: models.RuleTypeMedianIncomeBand, UpperBound: fp(50000), Points: ip(12), Label: "medium"},
		{RuleId: "median_income_band_35000", RuleType: models.RuleTypeMedianIncomeBand, UpperBound: fp(35000), Points: ip(8), Label: "low"},

		// SLA budgets (days per status)
		{RuleId: "sla_received", RuleType: models.RuleTypeSLABudget, ApplicabilityKey: "received", LimitValue: fp(3)},
		{RuleId: "sla_in_review", RuleType: models.RuleTypeSLABudget, ApplicabilityKey: "in_review", LimitValue: fp(7)},
		{RuleId: "sla_incomplete", RuleType: models.RuleTypeSLABudget, ApplicabilityKey: "incomplete", LimitValue: fp(14)},

		// qualified mortgage limits
		{RuleId: "qm_dti_limit", RuleType: models.RuleTypeQMLimit, ApplicabilityKey: "dti_limit", LimitValue: fp(0.43), Description: "QM back-end DTI ceiling"},
		{RuleId: "qm_conforming_ceiling", RuleType: models.RuleTypeQMLimit, ApplicabilityKey: "conforming_ceiling", LimitValue: fp(766550), Description: "Conforming loan ceiling"},

		// state rules: usury caps plus pass-through licensing/disclosure rows
		{RuleId: "usury_CA", RuleType: models.RuleTypeStateUsury, ApplicabilityKey: "CA", RateValue: fp(10.0), Category: "StateUsury"},
		{RuleId: "usury_NY", RuleType: models.RuleTypeStateUsury, ApplicabilityKey: "NY", RateValue: fp(16.0), Category: "StateUsury"},
		{RuleId: "usury_TX", RuleType: models.RuleTypeStateUsury, ApplicabilityKey: "TX", RateValue: fp(18.0), Category: "StateUsury"},
		{RuleId: "licensing_CA", RuleType: models.RuleTypeStateLicensing, ApplicabilityKey: "CA", Category: "StateLicensing"},
		{RuleId: "licensing_NY", RuleType: models.RuleTypeStateLicensing, ApplicabilityKey: "NY", Category: "StateLicensing"},
		{RuleId: "licensing_TX", RuleType: models.RuleTypeStateLicensing, ApplicabilityKey: "TX", Category: "StateLicensing"},
		{RuleId: "disclosure_CA", RuleType: models.RuleTypeStateDisclosure, ApplicabilityKey: "CA", Category: "StateDisclosures"},
		{RuleId: "disclosure_NY", RuleType: models.RuleTypeStateDisclosure, ApplicabilityKey: "NY", Category: "StateDisclosures"},
		{RuleId: "disclosure_TX", RuleType: models.RuleTypeStateDisclosure, ApplicabilityKey: "TX", Category: "StateDisclosures"},

		// base rate table
		{RuleId: "base_rate_30y", RuleType: models.RuleTypeBaseRate, ApplicabilityKey: "term_360", RateValue: fp(7.125)},
		{RuleId: "base_rate_15y", RuleType: models.RuleTypeBaseRate, ApplicabilityKey: "term_180", RateValue: fp(6.625)},
		{RuleId: "base_rate_jumbo", RuleType: models.RuleTypeBaseRate, ApplicabilityKey: "jumbo", RateValue: fp(7.25)},

		// credit-score rate adjustments, stored as thousandths of a point
		{RuleId: "rate_adj_credit_760", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(760), Points: ip(0)},
		{RuleId: "rate_adj_credit_740", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(740), Points: ip(125)},
		{RuleId: "rate_adj_credit_720", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(720), Points: ip(250)},
		{RuleId: "rate_adj_credit_700", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(700), Points: ip(375)},
		{RuleId: "rate_adj_credit_680", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(680), Points: ip(500)},
		{RuleId: "rate_adj_credit_660", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(660), Points: ip(750)},
		{RuleId: "rate_adj_credit_640", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(640), Points: ip(1000)},
		{RuleId: "rate_adj_credit_620", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(620), Points: ip(1250)},
		{RuleId: "rate_adj_credit_600", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(600), Points: ip(1500)},
		{RuleId: "rate_adj_credit_580", RuleType: models.RuleTypeRateAdjustment, UpperBound: fp(580), Points: ip(1750)},
	}
}

func main() {
	publish := flag.Bool("publish", true, "Publish seeded rules (published rules become immutable)")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var created, skipped int
	for _, seed := range baselineRules() {
		rule := toRule(seed)
		err := db.Transaction(func(tx *gorm.DB) error {
			var existing models.BusinessRule
			err := tx.Where("rule_id = ?", rule.RuleId).First(&existing).Error
			if err == nil {
				skipped++
				return nil
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}
			if err := tx.Create(rule).Error; err != nil {
				return err
			}
			created++
			if *publish {
				return rule.Publish(tx)
			}
			return nil
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed %s failed: %v\n", rule.RuleId, err)
			os.Exit(1)
		}
	}

	fmt.Printf("seed-rules done: %d created, %d already present\n", created, skipped)
}

func toRule(seed seedRule) *models.BusinessRule {
	rule := &models.BusinessRule{
		RuleId:           seed.RuleId,
		RuleType:         seed.RuleType,
		ApplicabilityKey: seed.ApplicabilityKey,
		RuleVersion:      "v1",
		Category:         seed.Category,
		Points:           seed.Points,
		Label:            seed.Label,
		Description:      seed.Description,
	}
	if seed.UpperBound != nil {
		d := decimal.NewFromFloat(*seed.UpperBound)
		rule.UpperBound = &d
	}
	if seed.RateValue != nil {
		d := decimal.NewFromFloat(*seed.RateValue)
		rule.RateValue = &d
	}
	if seed.LimitValue != nil {
		d := decimal.NewFromFloat(*seed.LimitValue)
		rule.LimitValue = &d
	}
	return rule
}
