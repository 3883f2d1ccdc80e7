package workflow

import (
	"context"

	"github.com/lendfocus/mortgage_backend/models"
	"github.com/shopspring/decimal"
)

// Published default band tables. The registry overrides these when seeded;
// a fresh install and the unit tests run on the defaults.

func step(bound float64, points int, label string) models.LadderStep {
	return models.LadderStep{Bound: decimal.NewFromFloat(bound), Points: points, Label: label}
}

var defaultCreditLadder = models.Ladder{
	Direction: models.LadderGTE,
	Steps: []models.LadderStep{
		step(740, 25, "excellent"),
		step(680, 20, "good"),
		step(620, 15, "fair"),
		step(580, 10, "poor"),
	},
	FallbackPoints: 5,
	FallbackLabel:  "subprime",
}

var defaultDTILadder = models.Ladder{
	Direction: models.LadderLTE,
	Steps: []models.LadderStep{
		step(0.28, 25, string(models.DTICategoryExcellent)),
		step(0.36, 20, string(models.DTICategoryGood)),
		step(0.43, 15, string(models.DTICategoryAcceptable)),
	},
	FallbackPoints: 5,
	FallbackLabel:  string(models.DTICategoryHighRisk),
}

var defaultLTVLadder = models.Ladder{
	Direction: models.LadderLTE,
	Steps: []models.LadderStep{
		step(0.80, 0, string(models.DTICategoryExcellent)),
		step(0.90, 0, string(models.DTICategoryGood)),
		step(0.95, 0, string(models.DTICategoryAcceptable)),
	},
	FallbackLabel: string(models.DTICategoryHighRisk),
}

var defaultDownPaymentLadder = models.Ladder{
	Direction: models.LadderGTE,
	Steps: []models.LadderStep{
		step(0.20, 20, "strong"),
		step(0.10, 15, "standard"),
		step(0.05, 10, "minimal"),
	},
	FallbackPoints: 5,
	FallbackLabel:  "low",
}

var defaultAddressYearsLadder = models.Ladder{
	Direction: models.LadderGTE,
	Steps: []models.LadderStep{
		step(2, 15, "stable"),
		step(1, 10, "recent"),
	},
	FallbackPoints: 5,
	FallbackLabel:  "new",
}

var defaultMedianIncomeLadder = models.Ladder{
	Direction: models.LadderGTE,
	Steps: []models.LadderStep{
		step(75000, 15, "high"),
		step(50000, 12, "middle"),
		step(35000, 8, "moderate"),
	},
	FallbackPoints: 5,
	FallbackLabel:  "low",
}

// loadLadder resolves a band table from the registry, falling back to the
// published default when the registry has no rows for the rule type.
func loadLadder(ctx context.Context, ruleType models.RuleType, fallback models.Ladder) models.Ladder {
	ladder, err := models.GetLadder(ctx, ruleType, fallback.Direction)
	if err != nil || ladder == nil || len(ladder.Steps) == 0 {
		return fallback
	}
	return *ladder
}
