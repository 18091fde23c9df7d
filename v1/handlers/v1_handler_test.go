package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/codelens-platform/quality-server-go/v1/models"
	"github.com/codelens-platform/quality-server-go/v1/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestHandler(t *testing.T) (*gorm.DB, http.Handler) {
	db := services.SetupSQLiteTestDB(t)
	handler := NewV1Handler(db, services.NoopRuleIndexer{})
	mux := http.NewServeMux()
	handler.SetupV1Routes(mux, nil)
	return db, mux
}

func seedOrganization(t *testing.T, db *gorm.DB, orgKey string) models.Organization {
	t.Helper()
	org := models.Organization{
		OrgID:  "org_" + uuid.New().String(),
		OrgKey: orgKey,
		Name:   orgKey,
	}
	require.NoError(t, db.Create(&org).Error)
	return org
}

func seedProfile(t *testing.T, db *gorm.DB, org models.Organization, name, language string, isDefault bool) models.QualityProfile {
	t.Helper()
	profile := models.QualityProfile{
		ProfileID:   "qp_" + uuid.New().String(),
		OrgID:       org.OrgID,
		Name:        name,
		LanguageKey: language,
		IsDefault:   isDefault,
	}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func seedRule(t *testing.T, db *gorm.DB, language string) models.Rule {
	t.Helper()
	fn := "CONSTANT_ISSUE"
	rule := models.Rule{
		RuleID:              "rule_" + uuid.New().String(),
		RepoKey:             language,
		RuleKey:             "S" + uuid.New().String()[:8],
		Name:                "Test rule",
		LanguageKey:         language,
		Severity:            models.SeverityMajor,
		Status:              models.RuleStatusReady,
		RemediationFunction: &fn,
	}
	require.NoError(t, db.Create(&rule).Error)
	return rule
}

func TestSearchProfiles_RequiresOrganization(t *testing.T) {
	_, mux := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qualityprofiles/search", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchProfiles_Defaults(t *testing.T) {
	db, mux := setupTestHandler(t)
	org := seedOrganization(t, db, "acme")
	for _, lang := range services.NewLanguageRegistry().Keys() {
		seedProfile(t, db, org, "Company Way", lang, true)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qualityprofiles/search?organization=acme&defaults=true", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.SearchProfilesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(services.NewLanguageRegistry().Keys()), resp.Count)
	for _, profile := range resp.Profiles {
		assert.Equal(t, "acme", profile.Organization)
		assert.True(t, profile.IsDefault)
	}
}

func TestSearchProfiles_UnresolvedLanguagesReturns404(t *testing.T) {
	db, mux := setupTestHandler(t)
	seedOrganization(t, db, "acme")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qualityprofiles/search?organization=acme&defaults=true", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no quality profile can be found on language(s)")
}

func TestSearchProfiles_UnknownLanguageParam(t *testing.T) {
	db, mux := setupTestHandler(t)
	seedOrganization(t, db, "acme")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qualityprofiles/search?organization=acme&language=cobol", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProfile(t *testing.T) {
	db, mux := setupTestHandler(t)
	seedOrganization(t, db, "acme")

	body, _ := json.Marshal(models.CreateProfileRequest{
		OrganizationKey: "acme",
		Name:            "Strict",
		LanguageKey:     "go",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/qualityprofiles", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp models.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Strict", resp.Name)
	assert.Equal(t, "Go", resp.LanguageName)
}

func TestCreateProfile_InvalidJSON(t *testing.T) {
	_, mux := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qualityprofiles", bytes.NewBufferString("invalid json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetDefaultProfile(t *testing.T) {
	db, mux := setupTestHandler(t)
	org := seedOrganization(t, db, "acme")
	profile := seedProfile(t, db, org, "Strict", "go", false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/qualityprofiles/"+profile.ProfileID+"/set-default", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.IsDefault)
}

func TestGetProfile_NotFound(t *testing.T) {
	_, mux := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/qualityprofiles/qp_ghost", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAllRules_FiltersByLanguage(t *testing.T) {
	db, mux := setupTestHandler(t)
	seedRule(t, db, "go")
	seedRule(t, db, "java")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rules?language=go", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Items []models.RuleResponse `json:"items"`
		Count int                   `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "go", resp.Items[0].LanguageKey)
}

func TestUpdateRule(t *testing.T) {
	db, mux := setupTestHandler(t)
	rule := seedRule(t, db, "go")

	body, _ := json.Marshal(map[string]string{
		"remediationFunction": "",
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/rules/"+rule.RuleID, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.RuleResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.RemediationFunction)

	var reloaded models.Rule
	require.NoError(t, db.First(&reloaded, "rule_id = ?", rule.RuleID).Error)
	assert.Nil(t, reloaded.RemediationFunction)
}

func TestRules_MethodNotAllowed(t *testing.T) {
	_, mux := setupTestHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/rules", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
