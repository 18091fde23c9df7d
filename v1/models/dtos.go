package models

// Request/Response DTOs for V1 API endpoints

// SearchProfilesRequest carries the query parameters of the profile search endpoint
type SearchProfilesRequest struct {
	OrganizationKey string
	Defaults        bool
	ProfileName     *string
	ProjectKey      *string
	Language        *string
}

// HasProjectKey reports whether the request carries a project key
func (r *SearchProfilesRequest) HasProjectKey() bool {
	return r.ProjectKey != nil && *r.ProjectKey != ""
}

// ProfileResponse is the API shape of a quality profile
type ProfileResponse struct {
	ProfileID    string `json:"profileId"`
	Organization string `json:"organization"`
	Name         string `json:"name"`
	LanguageKey  string `json:"languageKey"`
	LanguageName string `json:"languageName"`
	IsDefault    bool   `json:"isDefault"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// SearchProfilesResponse wraps the resolved profiles
type SearchProfilesResponse struct {
	Profiles []ProfileResponse `json:"profiles"`
	Count    int               `json:"count"`
}

// CreateProfileRequest creates a quality profile
type CreateProfileRequest struct {
	OrganizationKey string `json:"organization" validate:"required"`
	Name            string `json:"name" validate:"required"`
	LanguageKey     string `json:"languageKey" validate:"required"`
}

// AssociateProfileRequest associates a profile with a project
type AssociateProfileRequest struct {
	ProfileID string `json:"profileId" validate:"required"`
}

// RuleResponse is the API shape of a rule
type RuleResponse struct {
	RuleID      string `json:"ruleId"`
	RepoKey     string `json:"repoKey"`
	RuleKey     string `json:"ruleKey"`
	Name        string `json:"name"`
	LanguageKey string `json:"languageKey"`
	Severity    string `json:"severity"`
	Status      string `json:"status"`

	DefRemediationFunction      *string `json:"defRemediationFunction,omitempty"`
	DefRemediationGapMultiplier *string `json:"defRemediationGapMultiplier,omitempty"`
	DefRemediationBaseEffort    *string `json:"defRemediationBaseEffort,omitempty"`
	RemediationFunction         *string `json:"remediationFunction,omitempty"`
	RemediationGapMultiplier    *string `json:"remediationGapMultiplier,omitempty"`
	RemediationBaseEffort       *string `json:"remediationBaseEffort,omitempty"`

	UpdatedAt string `json:"updatedAt"`
}

// UpdateRuleRequest updates the remediation override fields of a rule.
// A present field with a value sets the override; a present field with
// an empty string clears it; an absent field leaves it untouched.
type UpdateRuleRequest struct {
	RemediationFunction      *string `json:"remediationFunction,omitempty"`
	RemediationGapMultiplier *string `json:"remediationGapMultiplier,omitempty"`
	RemediationBaseEffort    *string `json:"remediationBaseEffort,omitempty"`
}
