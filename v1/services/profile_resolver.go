package services

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/codelens-platform/quality-server-go/pkg/apperrors"
	"github.com/codelens-platform/quality-server-go/v1/models"
)

// ProfileResolver resolves the set of quality profiles a search request
// asks for. Resolution is a per-language fallback chain: explicit profile
// name, then project association, then the per-language default. A
// language with no profile after every stage fails the whole request.
type ProfileResolver struct {
	profiles  *ProfileService
	languages *LanguageRegistry
}

// NewProfileResolver creates a new profile resolver
func NewProfileResolver(profiles *ProfileService, languages *LanguageRegistry) *ProfileResolver {
	return &ProfileResolver{profiles: profiles, languages: languages}
}

// FindProfiles resolves profiles for a search request. Results are sorted
// by (language, name).
func (r *ProfileResolver) FindProfiles(req *models.SearchProfilesRequest) ([]models.QualityProfile, *models.Organization, error) {
	org, err := r.profiles.GetOrganizationByKey(req.OrganizationKey)
	if err != nil {
		return nil, nil, err
	}

	var profiles []models.QualityProfile
	switch {
	case req.Defaults:
		profiles, err = r.findDefaultProfiles(org, req)
	case req.HasProjectKey():
		profiles, err = r.findProjectProfiles(org, req)
	default:
		profiles, err = r.findAllProfiles(org, req)
	}
	if err != nil {
		return nil, nil, err
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].LanguageKey != profiles[j].LanguageKey {
			return profiles[i].LanguageKey < profiles[j].LanguageKey
		}
		return profiles[i].Name < profiles[j].Name
	})
	return profiles, org, nil
}

// findDefaultProfiles resolves one profile per registered language: by
// profile name when given, then by the per-language default.
func (r *ProfileResolver) findDefaultProfiles(org *models.Organization, req *models.SearchProfilesRequest) ([]models.QualityProfile, error) {
	resolved := make(map[string]models.QualityProfile, len(r.languages.Keys()))

	missing, err := r.lookupByProfileName(org, resolved, r.languages.Keys(), req.ProfileName)
	if err != nil {
		return nil, err
	}
	unresolved, err := r.lookupDefaults(org, resolved, missing)
	if err != nil {
		return nil, err
	}

	if len(unresolved) > 0 {
		return nil, unresolvedLanguagesError(unresolved, nil)
	}
	return collectProfiles(resolved), nil
}

// findProjectProfiles resolves one profile per registered language: by
// profile name, then by project association, then by default.
func (r *ProfileResolver) findProjectProfiles(org *models.Organization, req *models.SearchProfilesRequest) ([]models.QualityProfile, error) {
	resolved := make(map[string]models.QualityProfile, len(r.languages.Keys()))

	missing, err := r.lookupByProfileName(org, resolved, r.languages.Keys(), req.ProfileName)
	if err != nil {
		return nil, err
	}
	stillMissing, err := r.lookupByProjectKey(org, resolved, missing, *req.ProjectKey)
	if err != nil {
		return nil, err
	}
	unresolved, err := r.lookupDefaults(org, resolved, stillMissing)
	if err != nil {
		return nil, err
	}

	if len(unresolved) > 0 {
		return nil, unresolvedLanguagesError(unresolved, req.ProjectKey)
	}
	return collectProfiles(resolved), nil
}

// findAllProfiles lists the org's profiles, restricted to registered
// languages, or to one language when the request names it.
func (r *ProfileResolver) findAllProfiles(org *models.Organization, req *models.SearchProfilesRequest) ([]models.QualityProfile, error) {
	if req.Language != nil && *req.Language != "" {
		return r.profiles.ProfilesByLanguage(org, *req.Language)
	}

	all, err := r.profiles.AllProfiles(org)
	if err != nil {
		return nil, err
	}
	profiles := make([]models.QualityProfile, 0, len(all))
	for _, profile := range all {
		if r.languages.Has(profile.LanguageKey) {
			profiles = append(profiles, profile)
		}
	}
	return profiles, nil
}

// lookupByProfileName fills resolved with name matches and returns the
// language keys still missing. Without a profile name the stage is a no-op.
func (r *ProfileResolver) lookupByProfileName(org *models.Organization, resolved map[string]models.QualityProfile, languageKeys []string, profileName *string) ([]string, error) {
	if len(languageKeys) == 0 || profileName == nil || *profileName == "" {
		return languageKeys, nil
	}

	profiles, err := r.profiles.GetByNameAndLanguages(org, *profileName, languageKeys)
	if err != nil {
		return nil, err
	}
	addProfiles(resolved, profiles)
	return difference(languageKeys, resolved), nil
}

// lookupByProjectKey fills resolved with project associations and returns
// the language keys still missing. The key may name a module; it resolves
// to the root project first.
func (r *ProfileResolver) lookupByProjectKey(org *models.Organization, resolved map[string]models.QualityProfile, languageKeys []string, projectKey string) ([]string, error) {
	if len(languageKeys) == 0 || projectKey == "" {
		return languageKeys, nil
	}

	project, err := r.profiles.GetRootProject(projectKey)
	if err != nil {
		return nil, err
	}
	profiles, err := r.profiles.GetByProjectAndLanguages(org, project.ProjectID, languageKeys)
	if err != nil {
		return nil, err
	}
	addProfiles(resolved, profiles)
	return difference(languageKeys, resolved), nil
}

// lookupDefaults fills resolved with per-language defaults and returns the
// language keys still missing.
func (r *ProfileResolver) lookupDefaults(org *models.Organization, resolved map[string]models.QualityProfile, languageKeys []string) ([]string, error) {
	if len(languageKeys) == 0 {
		return languageKeys, nil
	}

	profiles, err := r.profiles.GetDefaults(org, languageKeys)
	if err != nil {
		return nil, err
	}
	addProfiles(resolved, profiles)
	return difference(languageKeys, resolved), nil
}

func addProfiles(resolved map[string]models.QualityProfile, profiles []models.QualityProfile) {
	for _, profile := range profiles {
		resolved[profile.LanguageKey] = profile
	}
}

func collectProfiles(resolved map[string]models.QualityProfile) []models.QualityProfile {
	profiles := make([]models.QualityProfile, 0, len(resolved))
	for _, profile := range resolved {
		profiles = append(profiles, profile)
	}
	return profiles
}

func difference(languageKeys []string, resolved map[string]models.QualityProfile) []string {
	var missing []string
	for _, key := range languageKeys {
		if _, ok := resolved[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func unresolvedLanguagesError(languageKeys []string, projectKey *string) *apperrors.APIError {
	sort.Strings(languageKeys)
	message := fmt.Sprintf("no quality profile can be found on language(s) '%s'", strings.Join(languageKeys, ", "))
	if projectKey != nil {
		message = fmt.Sprintf("%s for project '%s'", message, *projectKey)
	}
	return &apperrors.APIError{
		Type:       apperrors.ErrorTypeNotFound,
		Code:       "PROFILE_NOT_RESOLVED",
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}
