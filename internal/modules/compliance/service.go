package compliance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

// Service runs compliance checks. Live checks record every finding as a
// persisted violation; pre-trade checks evaluate a simulated position set and
// persist nothing.
type Service struct {
	portfolios *portfolio.Service
	rules      *RuleRepository
	violations *ViolationRepository
	classifier domain.SectorClassifier
	log        zerolog.Logger
}

// NewService creates a new compliance service
func NewService(
	portfolios *portfolio.Service,
	rules *RuleRepository,
	violations *ViolationRepository,
	classifier domain.SectorClassifier,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		rules:      rules,
		violations: violations,
		classifier: classifier,
		log:        log.With().Str("component", "compliance").Logger(),
	}
}

// Check evaluates the active rules against the live portfolio and records
// every finding. Pass ruleIDs to restrict the evaluation to a subset.
func (s *Service) Check(ctx context.Context, portfolioID, ownerID int64, ruleIDs []int64) (CheckResult, error) {
	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return CheckResult{}, err
	}

	rules, err := s.loadRules(ruleIDs)
	if err != nil {
		return CheckResult{}, err
	}

	result := Evaluate(snap, rules, s.classifier)

	if err := s.record(result); err != nil {
		return result, err
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Bool("passed", result.Passed).
		Int("violations", len(result.Violations)).
		Int("warnings", len(result.Warnings)).
		Msg("Ran compliance check")

	return result, nil
}

// PreTrade evaluates the active rules against the portfolio as it would look
// after the hypothetical order. Nothing is persisted and the live position
// set is never touched.
func (s *Service) PreTrade(ctx context.Context, portfolioID, ownerID int64, order Order) (CheckResult, error) {
	if order.Ticker == "" {
		return CheckResult{}, fmt.Errorf("order ticker is required")
	}
	if order.Side != domain.SideBuy && order.Side != domain.SideSell {
		return CheckResult{}, fmt.Errorf("unknown order side: %s", order.Side)
	}

	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return CheckResult{}, err
	}

	rules, err := s.loadRules(nil)
	if err != nil {
		return CheckResult{}, err
	}

	simulated := simulateOrder(snap, order)
	result := Evaluate(simulated, rules, s.classifier)

	s.log.Debug().
		Int64("portfolio_id", portfolioID).
		Str("ticker", order.Ticker).
		Str("side", string(order.Side)).
		Bool("passed", result.Passed).
		Msg("Ran pre-trade compliance check")

	return result, nil
}

// OpenViolations lists the unresolved violations on record for a portfolio.
func (s *Service) OpenViolations(ctx context.Context, portfolioID, ownerID int64) ([]domain.ComplianceViolation, error) {
	if _, err := s.portfolios.Snapshot(portfolioID, ownerID); err != nil {
		return nil, err
	}
	return s.violations.ListOpen(portfolioID)
}

// ResolveViolation marks one recorded violation as handled after verifying
// the caller owns the portfolio it belongs to.
func (s *Service) ResolveViolation(ctx context.Context, portfolioID, ownerID int64, violationID string) error {
	if violationID == "" {
		return fmt.Errorf("violation id is required")
	}
	if _, err := s.portfolios.Snapshot(portfolioID, ownerID); err != nil {
		return err
	}

	if err := s.violations.Resolve(violationID, portfolioID); err != nil {
		return err
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("violation_id", violationID).
		Msg("Resolved compliance violation")

	return nil
}

func (s *Service) loadRules(ruleIDs []int64) ([]domain.ComplianceRule, error) {
	rules, err := s.rules.ListActive()
	if err != nil {
		return nil, err
	}
	if len(ruleIDs) == 0 {
		return rules, nil
	}

	wanted := make(map[int64]bool, len(ruleIDs))
	for _, id := range ruleIDs {
		wanted[id] = true
	}

	filtered := rules[:0]
	for _, rule := range rules {
		if wanted[rule.ID] {
			filtered = append(filtered, rule)
		}
	}

	return filtered, nil
}

// record persists every finding, blocking and advisory alike.
func (s *Service) record(result CheckResult) error {
	for _, finding := range append(append([]Finding{}, result.Violations...), result.Warnings...) {
		violation := domain.ComplianceViolation{
			ID:          uuid.New().String(),
			PortfolioID: result.PortfolioID,
			RuleID:      finding.RuleID,
			OccurredAt:  result.CheckedAt,
			Severity:    finding.Severity,
			Description: finding.Description,
		}
		if err := s.violations.Save(violation); err != nil {
			return err
		}
	}
	return nil
}
