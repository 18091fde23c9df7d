package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/codelens-platform/quality-server-go/pkg/apperrors"
	"github.com/codelens-platform/quality-server-go/shared/utils"
	"github.com/codelens-platform/quality-server-go/v1/models"
	"github.com/codelens-platform/quality-server-go/v1/services"
	"gorm.io/gorm"
)

// V1Handler handles all V1 API routes
type V1Handler struct {
	profileService  *services.ProfileService
	profileResolver *services.ProfileResolver
	ruleService     *services.RuleService
	languages       *services.LanguageRegistry
}

// NewV1Handler creates a new V1 handler
func NewV1Handler(db *gorm.DB, indexer services.RuleIndexer) *V1Handler {
	languages := services.NewLanguageRegistry()
	profileService := services.NewProfileService(db, languages)
	return &V1Handler{
		profileService:  profileService,
		profileResolver: services.NewProfileResolver(profileService, languages),
		ruleService:     services.NewRuleService(db, indexer),
		languages:       languages,
	}
}

// SetupV1Routes configures all V1 API routes. Mutating routes go through
// the supplied auth middleware.
func (h *V1Handler) SetupV1Routes(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	mux.Handle("/api/v1/qualityprofiles", utils.PanicRecoveryMiddleware(auth(http.HandlerFunc(h.handleProfilesCollection))))
	mux.Handle("/api/v1/qualityprofiles/", utils.PanicRecoveryMiddleware(h.withAuthForMutations(auth, http.HandlerFunc(h.handleProfiles))))
	mux.Handle("/api/v1/rules", utils.PanicRecoveryMiddleware(http.HandlerFunc(h.handleRulesCollection)))
	mux.Handle("/api/v1/rules/", utils.PanicRecoveryMiddleware(h.withAuthForMutations(auth, http.HandlerFunc(h.handleRules))))
	mux.Handle("/api/v1/projects/", utils.PanicRecoveryMiddleware(auth(http.HandlerFunc(h.handleProjects))))
}

// withAuthForMutations applies auth to everything except GET requests
func (h *V1Handler) withAuthForMutations(auth func(http.Handler) http.Handler, next http.Handler) http.Handler {
	protected := auth(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}
		protected.ServeHTTP(w, r)
	})
}

// handleProfilesCollection handles POST /api/v1/qualityprofiles
func (h *V1Handler) handleProfilesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.createProfile(w, r)
}

// handleProfiles handles /api/v1/qualityprofiles/... subroutes
func (h *V1Handler) handleProfiles(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/qualityprofiles/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) < 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Profile ID is required")
		return
	}

	// Handle search endpoint: GET /api/v1/qualityprofiles/search
	if len(parts) == 1 && parts[0] == "search" {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.searchProfiles(w, r)
		return
	}

	profileID := parts[0]

	// Handle base profile endpoint: GET /api/v1/qualityprofiles/:profileId
	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.getProfile(w, r, profileID)
		return
	}

	// Handle default flag: POST /api/v1/qualityprofiles/:profileId/set-default
	if len(parts) == 2 && parts[1] == "set-default" {
		if r.Method != http.MethodPost {
			utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.setDefaultProfile(w, r, profileID)
		return
	}

	utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
}

// handleRulesCollection handles GET /api/v1/rules
func (h *V1Handler) handleRulesCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.getAllRules(w, r)
}

// handleRules handles /api/v1/rules/:ruleId
func (h *V1Handler) handleRules(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/rules/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) != 1 || parts[0] == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Rule ID is required")
		return
	}

	ruleID := parts[0]
	switch r.Method {
	case http.MethodGet:
		h.getRule(w, r, ruleID)
	case http.MethodPut:
		h.updateRule(w, r, ruleID)
	default:
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleProjects handles POST /api/v1/projects/:projectKey/profiles
func (h *V1Handler) handleProjects(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/projects/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) != 2 || parts[0] == "" || parts[1] != "profiles" {
		utils.RespondWithError(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if r.Method != http.MethodPost {
		utils.RespondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h.associateProfile(w, r, parts[0])
}

// searchProfiles resolves profiles through the fallback chain
func (h *V1Handler) searchProfiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	orgKey := query.Get("organization")
	if orgKey == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Organization key is required")
		return
	}

	req := &models.SearchProfilesRequest{
		OrganizationKey: orgKey,
		Defaults:        query.Get("defaults") == "true",
	}
	if name := query.Get("profileName"); name != "" {
		req.ProfileName = &name
	}
	if projectKey := query.Get("projectKey"); projectKey != "" {
		req.ProjectKey = &projectKey
	}
	if language := query.Get("language"); language != "" {
		if !h.languages.Has(language) {
			utils.RespondWithError(w, http.StatusBadRequest, "Unknown language: "+language)
			return
		}
		req.Language = &language
	}

	profiles, org, err := h.profileResolver.FindProfiles(req)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	responses := make([]models.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, h.toProfileResponse(&profiles[i], org.OrgKey))
	}
	utils.RespondWithJSON(w, http.StatusOK, models.SearchProfilesResponse{
		Profiles: responses,
		Count:    len(responses),
	})
}

// createProfile handles POST /api/v1/qualityprofiles
func (h *V1Handler) createProfile(w http.ResponseWriter, r *http.Request) {
	var req models.CreateProfileRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	profile, err := h.profileService.CreateProfile(&req)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, h.toProfileResponse(profile, req.OrganizationKey))
}

// getProfile handles GET /api/v1/qualityprofiles/:profileId
func (h *V1Handler) getProfile(w http.ResponseWriter, r *http.Request, profileID string) {
	profile, err := h.profileService.GetProfile(profileID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	org, err := h.profileService.GetOrganizationByID(profile.OrgID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.toProfileResponse(profile, org.OrgKey))
}

// setDefaultProfile handles POST /api/v1/qualityprofiles/:profileId/set-default
func (h *V1Handler) setDefaultProfile(w http.ResponseWriter, r *http.Request, profileID string) {
	profile, err := h.profileService.SetDefault(profileID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	org, err := h.profileService.GetOrganizationByID(profile.OrgID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, h.toProfileResponse(profile, org.OrgKey))
}

// associateProfile handles POST /api/v1/projects/:projectKey/profiles
func (h *V1Handler) associateProfile(w http.ResponseWriter, r *http.Request, projectKey string) {
	var req models.AssociateProfileRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if req.ProfileID == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Profile ID is required")
		return
	}

	association, err := h.profileService.AssociateProjectProfile(projectKey, req.ProfileID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, association)
}

// getAllRules handles GET /api/v1/rules
func (h *V1Handler) getAllRules(w http.ResponseWriter, r *http.Request) {
	var language *string
	if lang := r.URL.Query().Get("language"); lang != "" {
		language = &lang
	}

	rules, err := h.ruleService.GetAllRules(r.Context(), language)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}

	responses := make([]models.RuleResponse, 0, len(rules))
	for i := range rules {
		responses = append(responses, toRuleResponse(&rules[i]))
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.CreateCollectionResponse(responses, len(responses)))
}

// getRule handles GET /api/v1/rules/:ruleId
func (h *V1Handler) getRule(w http.ResponseWriter, r *http.Request, ruleID string) {
	rule, err := h.ruleService.GetRule(r.Context(), ruleID)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toRuleResponse(rule))
}

// updateRule handles PUT /api/v1/rules/:ruleId
func (h *V1Handler) updateRule(w http.ResponseWriter, r *http.Request, ruleID string) {
	var req models.UpdateRuleRequest
	if err := utils.ParseJSONRequest(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	rule, err := h.ruleService.UpdateRule(r.Context(), ruleID, &req)
	if err != nil {
		h.respondWithServiceError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, toRuleResponse(rule))
}

// respondWithServiceError maps service errors onto HTTP responses
func (h *V1Handler) respondWithServiceError(w http.ResponseWriter, err error) {
	if apiErr := apperrors.GetAPIError(err); apiErr != nil {
		utils.RespondWithError(w, apiErr.HTTPStatus, apiErr.Message)
		return
	}
	slog.Error("Unhandled service error", "error", err)
	utils.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
}

// toProfileResponse converts a profile entity to its API shape
func (h *V1Handler) toProfileResponse(profile *models.QualityProfile, orgKey string) models.ProfileResponse {
	languageName := profile.LanguageKey
	if lang, ok := h.languages.Get(profile.LanguageKey); ok {
		languageName = lang.Name
	}
	return models.ProfileResponse{
		ProfileID:    profile.ProfileID,
		Organization: orgKey,
		Name:         profile.Name,
		LanguageKey:  profile.LanguageKey,
		LanguageName: languageName,
		IsDefault:    profile.IsDefault,
		CreatedAt:    profile.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    profile.UpdatedAt.Format(time.RFC3339),
	}
}

// toRuleResponse converts a rule entity to its API shape
func toRuleResponse(rule *models.Rule) models.RuleResponse {
	return models.RuleResponse{
		RuleID:                      rule.RuleID,
		RepoKey:                     rule.RepoKey,
		RuleKey:                     rule.RuleKey,
		Name:                        rule.Name,
		LanguageKey:                 rule.LanguageKey,
		Severity:                    string(rule.Severity),
		Status:                      string(rule.Status),
		DefRemediationFunction:      rule.DefRemediationFunction,
		DefRemediationGapMultiplier: rule.DefRemediationGapMultiplier,
		DefRemediationBaseEffort:    rule.DefRemediationBaseEffort,
		RemediationFunction:         rule.RemediationFunction,
		RemediationGapMultiplier:    rule.RemediationGapMultiplier,
		RemediationBaseEffort:       rule.RemediationBaseEffort,
		UpdatedAt:                   rule.UpdatedAt.Format(time.RFC3339),
	}
}
