package models

// StartupTaskType marks the class of persisted startup-task markers
type StartupTaskType string

const (
	// OneShotTaskType marks tasks that must run exactly once per installation
	OneShotTaskType StartupTaskType = "ONE_SHOT_TASK"
)

// DebtCleanupTaskKey is the marker key of the rule debt-clearing task
const DebtCleanupTaskKey = "ClearRulesOverloadedDebt"

// DebtPluginLicenseProperty is the global property set by the commercial
// debt plugin. When it is absent, overridden remediation data on rules is
// considered stale and gets cleared by the one-shot cleanup task.
const DebtPluginLicenseProperty = "debt.plugin.licenseHash.secured"

// RuleStatus represents the lifecycle status of a rule
type RuleStatus string

const (
	RuleStatusReady      RuleStatus = "READY"
	RuleStatusDeprecated RuleStatus = "DEPRECATED"
	RuleStatusRemoved    RuleStatus = "REMOVED"
)

// Severity levels for rules
type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityMinor    Severity = "MINOR"
	SeverityMajor    Severity = "MAJOR"
	SeverityCritical Severity = "CRITICAL"
	SeverityBlocker  Severity = "BLOCKER"
)

// Field length constraints
const (
	MaxNameLength = 255
	MaxKeyLength  = 400
)
