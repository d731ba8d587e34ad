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

// oauthRepository implements the domain.OAuthRepository interface using GORM.
type oauthRepository struct {
	db *gorm.DB
}

// NewOAuthRepository is the constructor for oauthRepository.
func NewOAuthRepository(db *gorm.DB) repository.OAuthRepository {
	return &oauthRepository{db: db}
}

// FindByProviderUserID retrieves a connection by its provider and provider-assigned subject id.
func (repo *oauthRepository) FindByProviderUserID(ctx context.Context, provider entity.ProviderType, providerUserID string) (*entity.OAuthConnection, error) {
	var connM model.OAuthConnectionModel
	if err := repo.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider.String(), providerUserID).
		First(&connM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrConnectionNotFound
		}

		return nil, errors.Wrap(err, "failed to find oauth connection by provider user id")
	}

	return connM.ToDomain(), nil
}

// ListByAccountID returns all connections owned by an account.
func (repo *oauthRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entity.OAuthConnection, error) {
	var connMs []*model.OAuthConnectionModel
	if err := repo.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("created_at ASC").
		Find(&connMs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list oauth connections by account id")
	}

	conns := make([]*entity.OAuthConnection, 0, len(connMs))
	for _, connM := range connMs {
		conns = append(conns, connM.ToDomain())
	}

	return conns, nil
}

// Create persists a new connection entity to the database.
func (repo *oauthRepository) Create(ctx context.Context, conn *entity.OAuthConnection) error {
	connM := model.OAuthConnectionFromDomain(conn)

	if err := repo.db.WithContext(ctx).Create(connM).Error; err != nil {
		// A duplicate (provider, provider_user_id) means another request already
		// bound this external identity. Callers retry resolution on ErrConflict.
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WrapMessage("external identity already linked")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.NewDatabaseExecuteError(err, "account does not exist")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create oauth connection")
	}

	conn.ID = connM.ID
	conn.CreatedAt = connM.CreatedAt
	conn.UpdatedAt = connM.UpdatedAt

	return nil
}

// UpdateTokens overwrites the stored provider token pair unconditionally.
// Empty values overwrite to NULL: the provider is authoritative for token state.
func (repo *oauthRepository) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.OAuthConnectionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_token":  model.NullableToken(accessToken),
			"refresh_token": model.NullableToken(refreshToken),
		})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update oauth connection tokens")
	}
	if result.RowsAffected == 0 {
		return repository.ErrConnectionNotFound
	}

	return nil
}
