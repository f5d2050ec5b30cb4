package compliance

import (
	"fmt"
	"sort"
	"time"

	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

// Evaluate runs the given rules against a snapshot and returns the findings.
// It is pure: no storage access, no mutation of the snapshot. Rule dispatch
// is by type; inactive rules must be filtered out by the caller.
func Evaluate(snap portfolio.Snapshot, rules []domain.ComplianceRule, classifier domain.SectorClassifier) CheckResult {
	result := CheckResult{
		PortfolioID: snap.Portfolio.ID,
		Passed:      true,
		CheckedAt:   time.Now().UTC(),
	}

	for _, rule := range rules {
		finding, breached := evaluateRule(snap, rule, classifier)
		if !breached {
			continue
		}

		if finding.Blocking() {
			result.Violations = append(result.Violations, finding)
			result.Passed = false
		} else {
			result.Warnings = append(result.Warnings, finding)
		}
	}

	return result
}

func evaluateRule(snap portfolio.Snapshot, rule domain.ComplianceRule, classifier domain.SectorClassifier) (Finding, bool) {
	switch rule.Type {
	case domain.RulePositionLimit:
		return checkPositionLimit(snap, rule)
	case domain.RuleConcentration:
		return checkConcentration(snap, rule)
	case domain.RuleSectorLimit:
		return checkSectorLimit(snap, rule, classifier)
	default:
		// Custom rules carry no built-in semantics.
		return Finding{}, false
	}
}

// checkPositionLimit flags the first position, in ticker order, whose weight
// exceeds the limit.
func checkPositionLimit(snap portfolio.Snapshot, rule domain.ComplianceRule) (Finding, bool) {
	limit := rule.Threshold(ParamMaxPositionWeight, defaultMaxPositionWeight)

	for _, ticker := range sortedKeys(snap.Weights) {
		weight := snap.Weights[ticker]
		if weight <= limit {
			continue
		}
		return newFinding(rule, ticker, weight, limit,
			fmt.Sprintf("position %s weight %.2f%% exceeds limit %.2f%%", ticker, weight*100, limit*100)), true
	}

	return Finding{}, false
}

// checkConcentration flags the first issuer whose aggregate exposure exceeds
// the limit. Tickers stand in for issuers.
func checkConcentration(snap portfolio.Snapshot, rule domain.ComplianceRule) (Finding, bool) {
	limit := rule.Threshold(ParamMaxIssuerConcentration, defaultMaxIssuerConcentration)

	for _, ticker := range sortedKeys(snap.Weights) {
		exposure := snap.Weights[ticker]
		if exposure <= limit {
			continue
		}
		return newFinding(rule, ticker, exposure, limit,
			fmt.Sprintf("issuer %s concentration %.2f%% exceeds limit %.2f%%", ticker, exposure*100, limit*100)), true
	}

	return Finding{}, false
}

// checkSectorLimit flags the first sector whose aggregate exposure exceeds
// the limit.
func checkSectorLimit(snap portfolio.Snapshot, rule domain.ComplianceRule, classifier domain.SectorClassifier) (Finding, bool) {
	limit := rule.Threshold(ParamMaxSectorExposure, defaultMaxSectorExposure)

	sectors := make(map[string]float64)
	for ticker, weight := range snap.Weights {
		sectors[classifier.Sector(ticker)] += weight
	}

	for _, sector := range sortedKeys(sectors) {
		exposure := sectors[sector]
		if exposure <= limit {
			continue
		}
		return newFinding(rule, sector, exposure, limit,
			fmt.Sprintf("sector %s exposure %.2f%% exceeds limit %.2f%%", sector, exposure*100, limit*100)), true
	}

	return Finding{}, false
}

func newFinding(rule domain.ComplianceRule, subject string, observed, threshold float64, description string) Finding {
	return Finding{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		RuleType:    rule.Type,
		Severity:    rule.Severity,
		Subject:     subject,
		Observed:    observed,
		Threshold:   threshold,
		Description: description,
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
