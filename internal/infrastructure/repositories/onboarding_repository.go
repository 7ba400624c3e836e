package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// OnboardingRepository persists per-user onboarding state
type OnboardingRepository struct {
	db *sqlx.DB
}

// NewOnboardingRepository creates a new onboarding state repository
func NewOnboardingRepository(db *sqlx.DB) *OnboardingRepository {
	return &OnboardingRepository{db: db}
}

// GetState returns a user's onboarding state, or "" when none is recorded
func (r *OnboardingRepository) GetState(ctx context.Context, userID uuid.UUID) (entities.OnboardingState, error) {
	var state string
	err := r.db.GetContext(ctx, &state, `SELECT state FROM onboarding_states WHERE user_id = $1`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get onboarding state: %w", err)
	}
	return entities.OnboardingState(state), nil
}

// SaveState upserts a user's onboarding state
func (r *OnboardingRepository) SaveState(ctx context.Context, userID uuid.UUID, state entities.OnboardingState) error {
	query := `
		INSERT INTO onboarding_states (user_id, state, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET state = EXCLUDED.state, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, userID, string(state)); err != nil {
		return fmt.Errorf("failed to save onboarding state: %w", err)
	}
	return nil
}
