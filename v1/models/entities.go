package models

// Organization represents the organizations table
type Organization struct {
	OrgID  string `gorm:"primarykey;column:org_id" json:"orgId"`
	OrgKey string `gorm:"column:org_key;uniqueIndex;not null" json:"orgKey"`
	Name   string `gorm:"column:name;not null" json:"name"`
	BaseModel
}

// TableName sets the table name for GORM
func (Organization) TableName() string {
	return "organizations"
}

// QualityProfile represents the quality_profiles table.
// At most one profile per (org, language) carries the is_default flag.
type QualityProfile struct {
	ProfileID   string `gorm:"primarykey;column:profile_id" json:"profileId"`
	OrgID       string `gorm:"column:org_id;not null;uniqueIndex:idx_profile_org_lang_name" json:"orgId"`
	LanguageKey string `gorm:"column:language_key;not null;uniqueIndex:idx_profile_org_lang_name" json:"languageKey"`
	Name        string `gorm:"column:name;not null;uniqueIndex:idx_profile_org_lang_name" json:"name"`
	IsDefault   bool   `gorm:"column:is_default;not null;default:false" json:"isDefault"`
	BaseModel

	// Relationships
	Organization Organization `gorm:"foreignKey:OrgID;references:OrgID" json:"-"`
}

// TableName sets the table name for GORM
func (QualityProfile) TableName() string {
	return "quality_profiles"
}

// Project represents the projects table. A project with a non-nil
// RootProjectID is a module of that root project; profile associations
// always hang off the root.
type Project struct {
	ProjectID     string  `gorm:"primarykey;column:project_id" json:"projectId"`
	ProjectKey    string  `gorm:"column:project_key;uniqueIndex;not null" json:"projectKey"`
	Name          string  `gorm:"column:name;not null" json:"name"`
	OrgID         string  `gorm:"column:org_id;not null" json:"orgId"`
	RootProjectID *string `gorm:"column:root_project_id" json:"rootProjectId,omitempty"`
	BaseModel
}

// TableName sets the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// ProjectProfile associates a project with a quality profile for one language
type ProjectProfile struct {
	ID          uint   `gorm:"primarykey;column:id" json:"-"`
	ProjectID   string `gorm:"column:project_id;not null;uniqueIndex:idx_project_language" json:"projectId"`
	LanguageKey string `gorm:"column:language_key;not null;uniqueIndex:idx_project_language" json:"languageKey"`
	ProfileID   string `gorm:"column:profile_id;not null" json:"profileId"`
	BaseModel

	// Relationships
	Project Project        `gorm:"foreignKey:ProjectID;references:ProjectID" json:"-"`
	Profile QualityProfile `gorm:"foreignKey:ProfileID;references:ProfileID" json:"-"`
}

// TableName sets the table name for GORM
func (ProjectProfile) TableName() string {
	return "project_profiles"
}

// Rule represents the rules table. The Def* fields are the remediation
// values shipped with the rule definition; the nullable override fields
// are set when an operator customized the debt model.
type Rule struct {
	RuleID      string     `gorm:"primarykey;column:rule_id" json:"ruleId"`
	RepoKey     string     `gorm:"column:repo_key;not null;uniqueIndex:idx_rule_repo_key" json:"repoKey"`
	RuleKey     string     `gorm:"column:rule_key;not null;uniqueIndex:idx_rule_repo_key" json:"ruleKey"`
	Name        string     `gorm:"column:name;not null" json:"name"`
	LanguageKey string     `gorm:"column:language_key;not null" json:"languageKey"`
	Severity    Severity   `gorm:"column:severity;not null" json:"severity"`
	Status      RuleStatus `gorm:"column:status;not null;default:'READY'" json:"status"`

	DefRemediationFunction      *string `gorm:"column:def_remediation_function" json:"defRemediationFunction,omitempty"`
	DefRemediationGapMultiplier *string `gorm:"column:def_remediation_gap_multiplier" json:"defRemediationGapMultiplier,omitempty"`
	DefRemediationBaseEffort    *string `gorm:"column:def_remediation_base_effort" json:"defRemediationBaseEffort,omitempty"`

	RemediationFunction      *string `gorm:"column:remediation_function" json:"remediationFunction,omitempty"`
	RemediationGapMultiplier *string `gorm:"column:remediation_gap_multiplier" json:"remediationGapMultiplier,omitempty"`
	RemediationBaseEffort    *string `gorm:"column:remediation_base_effort" json:"remediationBaseEffort,omitempty"`

	BaseModel
}

// TableName sets the table name for GORM
func (Rule) TableName() string {
	return "rules"
}

// HasOverriddenDebt reports whether any remediation override field is set
func (r *Rule) HasOverriddenDebt() bool {
	return r.RemediationFunction != nil || r.RemediationGapMultiplier != nil || r.RemediationBaseEffort != nil
}

// Property represents the global properties table
type Property struct {
	PropKey   string `gorm:"primarykey;column:prop_key" json:"propKey"`
	TextValue string `gorm:"column:text_value" json:"textValue"`
	BaseModel
}

// TableName sets the table name for GORM
func (Property) TableName() string {
	return "properties"
}

// StartupTask records that a named startup task has already been executed
type StartupTask struct {
	ID       uint            `gorm:"primarykey;column:id" json:"-"`
	TaskKey  string          `gorm:"column:task_key;not null;uniqueIndex:idx_task_key_type" json:"taskKey"`
	TaskType StartupTaskType `gorm:"column:task_type;not null;uniqueIndex:idx_task_key_type" json:"taskType"`
	BaseModel
}

// TableName sets the table name for GORM
func (StartupTask) TableName() string {
	return "startup_tasks"
}
