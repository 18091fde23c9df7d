package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codelens-platform/quality-server-go/pkg/monitoring"
	"github.com/codelens-platform/quality-server-go/v1/models"
	"gorm.io/gorm"
)

// DebtCleanupTask clears the overridden remediation data of rules when the
// commercial debt plugin is not installed. It runs exactly once per
// installation, gated by a persisted startup-task marker.
type DebtCleanupTask struct {
	db      *gorm.DB
	indexer RuleIndexer
	now     func() time.Time
}

// NewDebtCleanupTask creates the one-shot debt cleanup task
func NewDebtCleanupTask(db *gorm.DB, indexer RuleIndexer) *DebtCleanupTask {
	return &DebtCleanupTask{db: db, indexer: indexer, now: time.Now}
}

// Key returns the persisted marker key of the task
func (t *DebtCleanupTask) Key() string {
	return models.DebtCleanupTaskKey
}

// Run executes the task once. The clearing and the marker write share one
// transaction; the reindex request is sent after commit.
func (t *DebtCleanupTask) Run(ctx context.Context) error {
	executed, err := t.hasAlreadyBeenExecuted(ctx)
	if err != nil {
		return fmt.Errorf("failed to check startup task marker: %w", err)
	}
	if executed {
		slog.Debug("Debt cleanup already executed, skipping", "task", t.Key())
		return nil
	}

	cleared := 0
	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		installed, err := t.isDebtPluginInstalled(tx)
		if err != nil {
			return err
		}
		if !installed {
			cleared, err = t.clearDebt(tx)
			if err != nil {
				return err
			}
		}
		return t.markAsExecuted(tx)
	})
	if err != nil {
		return fmt.Errorf("debt cleanup failed: %w", err)
	}

	if cleared > 0 {
		slog.Warn("The debt model has been cleaned to remove any redundant data left over from previous migrations.",
			"clearedRules", cleared)
		slog.Warn("=> As a result, the technical debt of existing issues in your projects may change slightly when those projects are reanalyzed.")
		monitoring.RecordBusinessEvent(ctx, "rules.debt_cleared", true)
	}

	if err := t.indexer.IndexAll(ctx); err != nil {
		// Rules are committed; the index catches up on the next full sync.
		slog.Error("Failed to request rule reindex after debt cleanup", "error", err)
	}
	return nil
}

// clearDebt clears the override fields of every overridden rule and
// returns how many rules were touched
func (t *DebtCleanupTask) clearDebt(tx *gorm.DB) (int, error) {
	start := t.now()
	var rules []models.Rule
	if err := tx.Find(&rules).Error; err != nil {
		return 0, fmt.Errorf("failed to load rules: %w", err)
	}

	cleared := 0
	for i := range rules {
		rule := &rules[i]
		if !rule.HasOverriddenDebt() {
			continue
		}
		updates := map[string]interface{}{
			"remediation_function":       nil,
			"remediation_gap_multiplier": nil,
			"remediation_base_effort":    nil,
			"updated_at":                 t.now(),
		}
		if err := tx.Model(rule).Updates(updates).Error; err != nil {
			return 0, fmt.Errorf("failed to clear debt of rule %s: %w", rule.RuleID, err)
		}
		cleared++
	}

	monitoring.RecordDBLatency(context.Background(), "postgres", "rules.debt_cleanup", time.Since(start))
	return cleared, nil
}

// isDebtPluginInstalled checks the license property written by the
// commercial debt plugin
func (t *DebtCleanupTask) isDebtPluginInstalled(tx *gorm.DB) (bool, error) {
	var property models.Property
	err := tx.First(&property, "prop_key = ?", models.DebtPluginLicenseProperty).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read property %s: %w", models.DebtPluginLicenseProperty, err)
	}
	return true, nil
}

// hasAlreadyBeenExecuted checks for the persisted one-shot marker
func (t *DebtCleanupTask) hasAlreadyBeenExecuted(ctx context.Context) (bool, error) {
	var count int64
	err := t.db.WithContext(ctx).Model(&models.StartupTask{}).
		Where("task_key = ? AND task_type = ?", t.Key(), models.OneShotTaskType).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// markAsExecuted writes the one-shot marker
func (t *DebtCleanupTask) markAsExecuted(tx *gorm.DB) error {
	marker := models.StartupTask{
		TaskKey:  t.Key(),
		TaskType: models.OneShotTaskType,
	}
	if err := tx.Create(&marker).Error; err != nil {
		return fmt.Errorf("failed to mark startup task as executed: %w", err)
	}
	return nil
}

// OneShotTask is a startup task gated by a persisted marker
type OneShotTask interface {
	Key() string
	Run(ctx context.Context) error
}

// RunStartupTasks runs each task in order and stops at the first failure.
// Startup tasks run before the HTTP server starts serving.
func RunStartupTasks(ctx context.Context, tasks ...OneShotTask) error {
	for _, task := range tasks {
		slog.Info("Running startup task", "task", task.Key())
		if err := task.Run(ctx); err != nil {
			return fmt.Errorf("startup task %s: %w", task.Key(), err)
		}
	}
	return nil
}
