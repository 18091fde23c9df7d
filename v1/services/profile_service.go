package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/codelens-platform/quality-server-go/pkg/apperrors"
	"github.com/codelens-platform/quality-server-go/v1/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProfileService handles quality-profile persistence and lookups
type ProfileService struct {
	db        *gorm.DB
	languages *LanguageRegistry
}

// NewProfileService creates a new profile service
func NewProfileService(db *gorm.DB, languages *LanguageRegistry) *ProfileService {
	return &ProfileService{db: db, languages: languages}
}

// GetOrganizationByKey retrieves an organization by its key
func (s *ProfileService) GetOrganizationByKey(orgKey string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, "org_key = ?", orgKey).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("organization '%s'", orgKey))
	}
	return &org, nil
}

// GetOrganizationByID retrieves an organization by its ID
func (s *ProfileService) GetOrganizationByID(orgID string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, "org_id = ?", orgID).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("organization '%s'", orgID))
	}
	return &org, nil
}

// GetProfile retrieves a profile by ID
func (s *ProfileService) GetProfile(profileID string) (*models.QualityProfile, error) {
	var profile models.QualityProfile
	if err := s.db.First(&profile, "profile_id = ?", profileID).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("quality profile '%s'", profileID))
	}
	return &profile, nil
}

// GetByNameAndLanguages returns the org's profiles with the given name,
// restricted to the given language keys
func (s *ProfileService) GetByNameAndLanguages(org *models.Organization, name string, languageKeys []string) ([]models.QualityProfile, error) {
	if len(languageKeys) == 0 {
		return nil, nil
	}
	var profiles []models.QualityProfile
	err := s.db.
		Where("org_id = ? AND name = ? AND language_key IN ?", org.OrgID, name, languageKeys).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles by name: %w", err)
	}
	return profiles, nil
}

// GetByProjectAndLanguages returns the profiles associated with a project,
// restricted to the given language keys. The project key must already be
// resolved to a root project.
func (s *ProfileService) GetByProjectAndLanguages(org *models.Organization, projectID string, languageKeys []string) ([]models.QualityProfile, error) {
	if len(languageKeys) == 0 {
		return nil, nil
	}
	var profiles []models.QualityProfile
	err := s.db.
		Joins("JOIN project_profiles ON project_profiles.profile_id = quality_profiles.profile_id").
		Where("project_profiles.project_id = ? AND quality_profiles.org_id = ? AND quality_profiles.language_key IN ?",
			projectID, org.OrgID, languageKeys).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles by project: %w", err)
	}
	return profiles, nil
}

// GetDefaults returns the org's default profiles for the given language keys
func (s *ProfileService) GetDefaults(org *models.Organization, languageKeys []string) ([]models.QualityProfile, error) {
	if len(languageKeys) == 0 {
		return nil, nil
	}
	var profiles []models.QualityProfile
	err := s.db.
		Where("org_id = ? AND is_default = ? AND language_key IN ?", org.OrgID, true, languageKeys).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load default profiles: %w", err)
	}
	return profiles, nil
}

// AllProfiles returns every profile of the org
func (s *ProfileService) AllProfiles(org *models.Organization) ([]models.QualityProfile, error) {
	var profiles []models.QualityProfile
	if err := s.db.Where("org_id = ?", org.OrgID).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	return profiles, nil
}

// ProfilesByLanguage returns the org's profiles for one language
func (s *ProfileService) ProfilesByLanguage(org *models.Organization, languageKey string) ([]models.QualityProfile, error) {
	var profiles []models.QualityProfile
	err := s.db.
		Where("org_id = ? AND language_key = ?", org.OrgID, languageKey).
		Find(&profiles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles for language %s: %w", languageKey, err)
	}
	return profiles, nil
}

// CreateProfile creates a quality profile
func (s *ProfileService) CreateProfile(req *models.CreateProfileRequest) (*models.QualityProfile, error) {
	if req.Name == "" || len(req.Name) > models.MaxNameLength {
		return nil, apperrors.ValidationError("profile name is required and must be at most 255 characters")
	}
	if req.OrganizationKey == "" || len(req.OrganizationKey) > models.MaxKeyLength {
		return nil, apperrors.ValidationError("organization key is required and must be at most 400 characters")
	}
	if !s.languages.Has(req.LanguageKey) {
		return nil, apperrors.ValidationError(fmt.Sprintf("unknown language '%s'", req.LanguageKey))
	}

	org, err := s.GetOrganizationByKey(req.OrganizationKey)
	if err != nil {
		return nil, err
	}

	profile := models.QualityProfile{
		ProfileID:   "qp_" + uuid.New().String(),
		OrgID:       org.OrgID,
		Name:        req.Name,
		LanguageKey: req.LanguageKey,
	}

	if err := s.db.Create(&profile).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("quality profile '%s'", req.Name))
	}

	slog.Info("Created quality profile", "profileId", profile.ProfileID, "language", profile.LanguageKey, "org", org.OrgKey)
	return &profile, nil
}

// SetDefault makes a profile the default of its (org, language), clearing
// the previous default in the same transaction
func (s *ProfileService) SetDefault(profileID string) (*models.QualityProfile, error) {
	var profile models.QualityProfile
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&profile, "profile_id = ?", profileID).Error; err != nil {
			return apperrors.FromGormError(err, fmt.Sprintf("quality profile '%s'", profileID))
		}

		err := tx.Model(&models.QualityProfile{}).
			Where("org_id = ? AND language_key = ? AND is_default = ?", profile.OrgID, profile.LanguageKey, true).
			Update("is_default", false).Error
		if err != nil {
			return fmt.Errorf("failed to clear previous default: %w", err)
		}

		profile.IsDefault = true
		if err := tx.Save(&profile).Error; err != nil {
			return fmt.Errorf("failed to set default profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Set default quality profile", "profileId", profile.ProfileID, "language", profile.LanguageKey)
	return &profile, nil
}

// GetRootProject resolves a project key to its root project. Module
// projects point at their root through root_project_id.
func (s *ProfileService) GetRootProject(projectKey string) (*models.Project, error) {
	var project models.Project
	if err := s.db.First(&project, "project_key = ?", projectKey).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("project '%s'", projectKey))
	}
	if project.RootProjectID == nil {
		return &project, nil
	}

	var root models.Project
	if err := s.db.First(&root, "project_id = ?", *project.RootProjectID).Error; err != nil {
		return nil, apperrors.FromGormError(err, fmt.Sprintf("root project of '%s'", projectKey))
	}
	return &root, nil
}

// AssociateProjectProfile associates a profile with a project for the
// profile's language, replacing any existing association for that language
func (s *ProfileService) AssociateProjectProfile(projectKey, profileID string) (*models.ProjectProfile, error) {
	if projectKey == "" || len(projectKey) > models.MaxKeyLength {
		return nil, apperrors.ValidationError("project key is required and must be at most 400 characters")
	}
	project, err := s.GetRootProject(projectKey)
	if err != nil {
		return nil, err
	}
	profile, err := s.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	if project.OrgID != profile.OrgID {
		return nil, apperrors.ValidationError("project and profile belong to different organizations")
	}

	var association models.ProjectProfile
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.First(&association, "project_id = ? AND language_key = ?", project.ProjectID, profile.LanguageKey).Error
		switch {
		case err == nil:
			association.ProfileID = profile.ProfileID
			return tx.Save(&association).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			association = models.ProjectProfile{
				ProjectID:   project.ProjectID,
				LanguageKey: profile.LanguageKey,
				ProfileID:   profile.ProfileID,
			}
			return tx.Create(&association).Error
		default:
			return err
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to associate profile with project: %w", err)
	}

	slog.Info("Associated quality profile with project",
		"projectKey", project.ProjectKey, "profileId", profile.ProfileID, "language", profile.LanguageKey)
	return &association, nil
}
