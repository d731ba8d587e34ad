package postgres

import (
	"context"

	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/repository"
	"drivehub/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// profileRepository implements the domain.ProfileRepository interface using GORM.
type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository is the constructor for profileRepository.
func NewProfileRepository(db *gorm.DB) repository.ProfileRepository {
	return &profileRepository{db: db}
}

// FindByID retrieves a profile by its own id.
func (repo *profileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.InstructorProfile, error) {
	var profileM model.InstructorProfileModel
	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}

		return nil, errors.Wrap(err, "failed to find instructor profile by id")
	}

	return profileM.ToDomain(), nil
}

// FindByAccountID retrieves the profile owned by an account.
func (repo *profileRepository) FindByAccountID(ctx context.Context, accountID uuid.UUID) (*entity.InstructorProfile, error) {
	var profileM model.InstructorProfileModel
	if err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}

		return nil, errors.Wrap(err, "failed to find instructor profile by account id")
	}

	return profileM.ToDomain(), nil
}

// Create persists a new profile entity to the database.
func (repo *profileRepository) Create(ctx context.Context, profile *entity.InstructorProfile) error {
	profileM := model.InstructorProfileFromDomain(profile)

	if err := repo.db.WithContext(ctx).Create(profileM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("account already has an instructor profile")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "account does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create instructor profile")
	}

	profile.ID = profileM.ID
	profile.CreatedAt = profileM.CreatedAt
	profile.UpdatedAt = profileM.UpdatedAt

	return nil
}

// Update modifies an existing profile entity in the database.
func (repo *profileRepository) Update(ctx context.Context, profile *entity.InstructorProfile) error {
	profileM := model.InstructorProfileFromDomain(profile)
	profileM.CreatedAt = profile.CreatedAt

	if err := repo.db.WithContext(ctx).Save(profileM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to update instructor profile")
	}

	profile.UpdatedAt = profileM.UpdatedAt

	return nil
}
