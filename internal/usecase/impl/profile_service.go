package impl

import (
	"context"
	"log/slog"

	deliverycontext "drivehub/internal/delivery/context"
	"drivehub/internal/domain/entity"
	domainerrors "drivehub/internal/domain/errors"
	"drivehub/internal/domain/repository"
	"drivehub/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// profileService implements the ProfileUsecase interface.
type profileService struct {
	profileRepo repository.ProfileRepository
	logger      *slog.Logger
}

// ProfileServiceParams holds dependencies for profileService, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	ProfileRepo repository.ProfileRepository
	Logger      *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	return &profileService{
		profileRepo: params.ProfileRepo,
		logger:      params.Logger,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetProfile retrieves an instructor profile by its id.
func (srv *profileService) GetProfile(ctx context.Context, profileID uuid.UUID) (*entity.InstructorProfile, error) {
	profile, err := srv.profileRepo.FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, domainerrors.ErrNotFound.WrapMessage("instructor profile not found")
		}

		return nil, errors.Wrap(err, "failed to find instructor profile")
	}

	return profile, nil
}

// GetProfileByAccount retrieves the profile owned by an account.
func (srv *profileService) GetProfileByAccount(ctx context.Context, accountID uuid.UUID) (*entity.InstructorProfile, error) {
	profile, err := srv.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, domainerrors.ErrNotFound.WrapMessage("instructor profile not found")
		}

		return nil, errors.Wrap(err, "failed to find instructor profile by account")
	}

	return profile, nil
}

// UpdateProfile applies a partial update to the caller's own profile.
func (srv *profileService) UpdateProfile(ctx context.Context, accountID uuid.UUID, input *usecase.UpdateProfileInput) (*entity.InstructorProfile, error) {
	profile, err := srv.profileRepo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, domainerrors.ErrNotFound.WrapMessage("instructor profile not found")
		}

		return nil, errors.Wrap(err, "failed to find instructor profile by account")
	}

	if input.YearsExperience != nil {
		if *input.YearsExperience < 0 {
			return nil, domainerrors.ErrValidationFailed.WrapMessage("years of experience cannot be negative")
		}
		profile.YearsExperience = *input.YearsExperience
	}
	if input.HourlyRate != nil {
		if *input.HourlyRate < 0 {
			return nil, domainerrors.ErrValidationFailed.WrapMessage("hourly rate cannot be negative")
		}
		profile.HourlyRate = *input.HourlyRate
	}
	if input.Bio != nil {
		profile.Bio = *input.Bio
	}

	if err := srv.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Instructor profile updated", slog.Any("accountID", accountID))

	return profile, nil
}
