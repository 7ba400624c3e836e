package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lifedash/privacy_service/internal/domain/entities"
)

// ProfileRepository handles database operations for user profiles
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new user profile repository
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, username, first_name, last_name, email, bio, location,
	birth_date, experience_points, level, created_at, updated_at`

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *entities.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, username, first_name, last_name, email, bio,
			location, birth_date, experience_points, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.Username, profile.FirstName, profile.LastName,
		profile.Email, profile.Bio, profile.Location, profile.BirthDate,
		profile.ExperiencePoints, profile.Level, profile.CreatedAt, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetByID returns a profile by user id, or nil when not found
func (r *ProfileRepository) GetByID(ctx context.Context, userID uuid.UUID) (*entities.UserProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_profiles WHERE user_id = $1`, profileColumns)

	var profile entities.UserProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

// Save updates an existing profile
func (r *ProfileRepository) Save(ctx context.Context, profile *entities.UserProfile) error {
	query := `
		UPDATE user_profiles
		SET username = $2, first_name = $3, last_name = $4, email = $5, bio = $6,
		    location = $7, birth_date = $8, experience_points = $9, level = $10, updated_at = $11
		WHERE user_id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.Username, profile.FirstName, profile.LastName,
		profile.Email, profile.Bio, profile.Location, profile.BirthDate,
		profile.ExperiencePoints, profile.Level, profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check save result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile for user %s not found", profile.UserID)
	}
	return nil
}
