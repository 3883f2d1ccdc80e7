package models

import (
	"context"
	"sort"

	"github.com/lendfocus/mortgage_backend/config"
	"github.com/lendfocus/mortgage_backend/utils"
	"github.com/shopspring/decimal"
)

// LadderDirection says how a band table is read: GTE ladders match the
// first step whose bound the value meets or exceeds (credit score style),
// LTE ladders match the first step the value fits under (DTI style).
type LadderDirection string

const (
	LadderGTE LadderDirection = "gte"
	LadderLTE LadderDirection = "lte"
)

type LadderStep struct {
	Bound  decimal.Decimal `json:"bound"`
	Points int             `json:"points"`
	Label  string          `json:"label"`
}

// Ladder is an ordered threshold table; Fallback is the no-match band.
type Ladder struct {
	Direction      LadderDirection `json:"direction"`
	Steps          []LadderStep    `json:"steps"`
	FallbackPoints int             `json:"fallback_points"`
	FallbackLabel  string          `json:"fallback_label"`
}

// Evaluate returns the first matching band. Boundary values match their
// step, so a DTI of exactly 0.28 lands in the lower-risk band.
func (l Ladder) Evaluate(value decimal.Decimal) (int, string) {
	for _, step := range l.Steps {
		switch l.Direction {
		case LadderGTE:
			if value.GreaterThanOrEqual(step.Bound) {
				return step.Points, step.Label
			}
		case LadderLTE:
			if value.LessThanOrEqual(step.Bound) {
				return step.Points, step.Label
			}
		}
	}
	return l.FallbackPoints, l.FallbackLabel
}

/* registry reads, redis in front of db */

// GetRule resolves one published rule by type + applicability key.
// (may return RecordNotFound)
func GetRule(ctx context.Context, ruleType RuleType, applicabilityKey string) (*BusinessRule, error) {
	cacheKey := string(ruleType) + ":" + applicabilityKey
	rules, err := cachedRules(ctx, cacheKey, func() ([]*BusinessRule, error) {
		db := config.GetDB()
		if db == nil {
			return nil, nil
		}
		var rows []*BusinessRule
		err := db.WithContext(ctx).
			Where("rule_type = ? AND applicability_key = ? AND is_published = true", ruleType, applicabilityKey).
			Order("rule_version DESC").Limit(1).Find(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return rules[0], nil
}

// GetStateRules collects every published rule applicable to a property state.
func GetStateRules(ctx context.Context, state string) ([]*BusinessRule, error) {
	return cachedRules(ctx, "state:"+state, func() ([]*BusinessRule, error) {
		db := config.GetDB()
		if db == nil {
			return nil, nil
		}
		var rows []*BusinessRule
		err := db.WithContext(ctx).
			Where("applicability_key = ? AND is_published = true", state).
			Where("rule_type IN ?", []RuleType{RuleTypeStateUsury, RuleTypeStateLicensing, RuleTypeStateDisclosure}).
			Find(&rows).Error
		return rows, err
	})
}

// GetLadder assembles a band table from the registry rows for a rule type.
// Callers fall back to their published defaults on RecordNotFound so unit
// tests and fresh installs work without a seeded registry.
func GetLadder(ctx context.Context, ruleType RuleType, direction LadderDirection) (*Ladder, error) {
	rules, err := cachedRules(ctx, "ladder:"+string(ruleType), func() ([]*BusinessRule, error) {
		db := config.GetDB()
		if db == nil {
			return nil, nil
		}
		var rows []*BusinessRule
		err := db.WithContext(ctx).
			Where("rule_type = ? AND is_published = true AND upper_bound IS NOT NULL", ruleType).
			Find(&rows).Error
		return rows, err
	})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, utils.ErrorRecordNotFound
	}

	ladder := Ladder{Direction: direction}
	for _, rule := range rules {
		step := LadderStep{Bound: *rule.UpperBound, Label: rule.Label}
		if rule.Points != nil {
			step.Points = *rule.Points
		}
		ladder.Steps = append(ladder.Steps, step)
	}
	sort.Slice(ladder.Steps, func(i, j int) bool {
		if direction == LadderGTE {
			return ladder.Steps[i].Bound.GreaterThan(ladder.Steps[j].Bound)
		}
		return ladder.Steps[i].Bound.LessThan(ladder.Steps[j].Bound)
	})
	// the unbounded catch-all band, when seeded, rides as the fallback
	fallback, err := GetRule(ctx, ruleType, "fallback")
	if err == nil {
		if fallback.Points != nil {
			ladder.FallbackPoints = *fallback.Points
		}
		ladder.FallbackLabel = fallback.Label
	}
	return &ladder, nil
}

// cachedRules serves registry reads from redis; published rules never
// change, so a flat TTL cache is safe.
func cachedRules(ctx context.Context, cacheKey string, fetch func() ([]*BusinessRule, error)) ([]*BusinessRule, error) {
	key := "BusinessRuleSet:" + cacheKey
	var rules []*BusinessRule
	exists, err := config.GetRedisObject(key, &rules)
	if err != nil {
		return nil, err
	}
	if !exists {
		rules, err = fetch()
		if err != nil {
			return nil, err
		}
		if err := config.SetRedisObject(key, &rules, utils.GetCacheLifespan()); err != nil {
			return nil, err
		}
	}
	return rules, nil
}
