package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/codelens-platform/quality-server-go/pkg/apperrors"
	"github.com/codelens-platform/quality-server-go/pkg/monitoring"
	"github.com/codelens-platform/quality-server-go/v1/models"
	"gorm.io/gorm"
)

// RuleService handles rule-related operations
type RuleService struct {
	db      *gorm.DB
	indexer RuleIndexer
}

// NewRuleService creates a new rule service
func NewRuleService(db *gorm.DB, indexer RuleIndexer) *RuleService {
	return &RuleService{db: db, indexer: indexer}
}

// GetAllRules returns all rules, optionally filtered by language
func (s *RuleService) GetAllRules(ctx context.Context, language *string) ([]models.Rule, error) {
	start := time.Now()
	query := s.db.WithContext(ctx).Order("repo_key, rule_key")
	if language != nil && *language != "" {
		query = query.Where("language_key = ?", *language)
	}

	var rules []models.Rule
	if err := query.Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	monitoring.RecordDBLatency(ctx, "postgres", "rules.select_all", time.Since(start))
	return rules, nil
}

// GetRule retrieves a rule by ID
func (s *RuleService) GetRule(ctx context.Context, ruleID string) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.WithContext(ctx).First(&rule, "rule_id = ?", ruleID).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("rule '%s'", ruleID))
	}
	return &rule, nil
}

// UpdateRule updates the remediation override fields of a rule and asks
// the indexer to reindex it. A present field with a value sets the
// override; a present empty string clears it; an absent field is ignored.
func (s *RuleService) UpdateRule(ctx context.Context, ruleID string, req *models.UpdateRuleRequest) (*models.Rule, error) {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}

	applyOverride(&rule.RemediationFunction, req.RemediationFunction)
	applyOverride(&rule.RemediationGapMultiplier, req.RemediationGapMultiplier)
	applyOverride(&rule.RemediationBaseEffort, req.RemediationBaseEffort)

	start := time.Now()
	if err := s.db.WithContext(ctx).Save(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to update rule: %w", err)
	}
	monitoring.RecordDBLatency(ctx, "postgres", "rules.update", time.Since(start))

	if err := s.indexer.IndexKeys(ctx, []string{rule.RuleID}); err != nil {
		// The rule row is already updated; reindex failure is logged, not fatal.
		slog.Error("Failed to request rule reindex", "ruleId", rule.RuleID, "error", err)
	}

	slog.Info("Updated rule remediation overrides", "ruleId", rule.RuleID)
	return rule, nil
}

// applyOverride applies the tri-state update semantics of UpdateRuleRequest
func applyOverride(field **string, value *string) {
	if value == nil {
		return
	}
	if *value == "" {
		*field = nil
		return
	}
	*field = value
}
