package services

import (
	"context"
	"testing"

	"github.com/codelens-platform/quality-server-go/v1/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockRuleIndexer is a mock implementation of RuleIndexer
type MockRuleIndexer struct {
	mock.Mock
}

func (m *MockRuleIndexer) IndexAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRuleIndexer) IndexKeys(ctx context.Context, ruleIDs []string) error {
	args := m.Called(ctx, ruleIDs)
	return args.Error(0)
}

func strPtr(s string) *string {
	return &s
}

func seedRule(t *testing.T, db *gorm.DB, language string, overridden bool) models.Rule {
	t.Helper()
	rule := models.Rule{
		RuleID:      "rule_" + uuid.New().String(),
		RepoKey:     language,
		RuleKey:     "S" + uuid.New().String()[:8],
		Name:        "Test rule",
		LanguageKey: language,
		Severity:    models.SeverityMajor,
		Status:      models.RuleStatusReady,

		DefRemediationFunction:   strPtr("LINEAR"),
		DefRemediationBaseEffort: strPtr("5min"),
	}
	if overridden {
		rule.RemediationFunction = strPtr("CONSTANT_ISSUE")
		rule.RemediationGapMultiplier = strPtr("2h")
		rule.RemediationBaseEffort = strPtr("10min")
	}
	require.NoError(t, db.Create(&rule).Error)
	return rule
}

func countMarkers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.StartupTask{}).
		Where("task_key = ? AND task_type = ?", models.DebtCleanupTaskKey, models.OneShotTaskType).
		Count(&count).Error)
	return count
}

func TestDebtCleanupTask_ClearsOverriddenRules(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	indexer := new(MockRuleIndexer)
	indexer.On("IndexAll", mock.Anything).Return(nil)

	overridden := seedRule(t, db, "go", true)
	untouched := seedRule(t, db, "java", false)

	task := NewDebtCleanupTask(db, indexer)
	require.NoError(t, task.Run(context.Background()))

	var cleared models.Rule
	require.NoError(t, db.First(&cleared, "rule_id = ?", overridden.RuleID).Error)
	assert.Nil(t, cleared.RemediationFunction)
	assert.Nil(t, cleared.RemediationGapMultiplier)
	assert.Nil(t, cleared.RemediationBaseEffort)
	// Shipped defaults stay
	assert.NotNil(t, cleared.DefRemediationFunction)

	var kept models.Rule
	require.NoError(t, db.First(&kept, "rule_id = ?", untouched.RuleID).Error)
	assert.Nil(t, kept.RemediationFunction)
	assert.NotNil(t, kept.DefRemediationFunction)

	assert.Equal(t, int64(1), countMarkers(t, db))
	indexer.AssertCalled(t, "IndexAll", mock.Anything)
}

func TestDebtCleanupTask_SkipsWhenAlreadyExecuted(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	indexer := new(MockRuleIndexer)

	require.NoError(t, db.Create(&models.StartupTask{
		TaskKey:  models.DebtCleanupTaskKey,
		TaskType: models.OneShotTaskType,
	}).Error)
	rule := seedRule(t, db, "go", true)

	task := NewDebtCleanupTask(db, indexer)
	require.NoError(t, task.Run(context.Background()))

	// Overrides survive and no reindex is requested
	var reloaded models.Rule
	require.NoError(t, db.First(&reloaded, "rule_id = ?", rule.RuleID).Error)
	assert.NotNil(t, reloaded.RemediationFunction)
	indexer.AssertNotCalled(t, "IndexAll", mock.Anything)
	assert.Equal(t, int64(1), countMarkers(t, db))
}

func TestDebtCleanupTask_KeepsOverridesWhenPluginInstalled(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	indexer := new(MockRuleIndexer)
	indexer.On("IndexAll", mock.Anything).Return(nil)

	require.NoError(t, db.Create(&models.Property{
		PropKey:   models.DebtPluginLicenseProperty,
		TextValue: "licensed",
	}).Error)
	rule := seedRule(t, db, "go", true)

	task := NewDebtCleanupTask(db, indexer)
	require.NoError(t, task.Run(context.Background()))

	var reloaded models.Rule
	require.NoError(t, db.First(&reloaded, "rule_id = ?", rule.RuleID).Error)
	assert.NotNil(t, reloaded.RemediationFunction)

	// The marker is still written so the task never runs again
	assert.Equal(t, int64(1), countMarkers(t, db))
	indexer.AssertCalled(t, "IndexAll", mock.Anything)
}

func TestDebtCleanupTask_SecondRunIsNoop(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	indexer := new(MockRuleIndexer)
	indexer.On("IndexAll", mock.Anything).Return(nil)

	seedRule(t, db, "go", true)
	task := NewDebtCleanupTask(db, indexer)
	require.NoError(t, task.Run(context.Background()))
	require.NoError(t, task.Run(context.Background()))

	assert.Equal(t, int64(1), countMarkers(t, db))
	indexer.AssertNumberOfCalls(t, "IndexAll", 1)
}

func TestRunStartupTasks_StopsAtFirstFailure(t *testing.T) {
	db := SetupSQLiteTestDB(t)
	indexer := new(MockRuleIndexer)
	indexer.On("IndexAll", mock.Anything).Return(nil)

	// Close the underlying pool so the marker check fails
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	task := NewDebtCleanupTask(db, indexer)
	err = RunStartupTasks(context.Background(), task)
	require.Error(t, err)
	assert.Contains(t, err.Error(), models.DebtCleanupTaskKey)
}
