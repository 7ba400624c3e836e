package entities

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxExperiencePoints caps accumulated experience to avoid overflow
const MaxExperiencePoints int64 = math.MaxInt32

// ExperiencePerLevel is the XP required per level
const ExperiencePerLevel int64 = 1000

// UserProfile holds a user's profile data and experience progression
type UserProfile struct {
	UserID    uuid.UUID  `json:"user_id" db:"user_id"`
	Username  string     `json:"username" db:"username"`
	FirstName string     `json:"first_name" db:"first_name"`
	LastName  string     `json:"last_name" db:"last_name"`
	Email     string     `json:"email" db:"email"`
	Bio       string     `json:"bio" db:"bio"`
	Location  string     `json:"location" db:"location"`
	BirthDate *time.Time `json:"birth_date,omitempty" db:"birth_date"`

	ExperiencePoints int64 `json:"experience_points" db:"experience_points"`
	Level            int   `json:"level" db:"level"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewUserProfile creates a profile at level 1 with no experience
func NewUserProfile(userID uuid.UUID, username string) (*UserProfile, error) {
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	now := time.Now().UTC()
	return &UserProfile{
		UserID:    userID,
		Username:  username,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// AddExperience adds positive experience points, capped at 2^31-1, and
// recomputes the level (1000 XP per level, minimum level 1). Returns the
// new level and whether a level-up occurred. Adding any positive amount
// never decreases the level.
func (p *UserProfile) AddExperience(points int64) (int, bool, error) {
	if points <= 0 {
		return p.Level, false, fmt.Errorf("experience points must be a positive integer")
	}

	oldLevel := p.Level

	if p.ExperiencePoints > MaxExperiencePoints-points {
		p.ExperiencePoints = MaxExperiencePoints
	} else {
		p.ExperiencePoints += points
	}

	p.Level = calculateLevel(p.ExperiencePoints)
	p.UpdatedAt = time.Now().UTC()

	return p.Level, p.Level > oldLevel, nil
}

func calculateLevel(experience int64) int {
	level := int(experience/ExperiencePerLevel) + 1
	if level < 1 {
		return 1
	}
	return level
}

// UpdateProfile applies updates from an allow-listed set of fields. An
// unknown field name fails the whole update before anything is applied.
func (p *UserProfile) UpdateProfile(fields map[string]any) error {
	for name := range fields {
		switch name {
		case "first_name", "last_name", "email", "bio", "location", "birth_date":
		default:
			return fmt.Errorf("field %q is not allowed to be updated", name)
		}
	}

	for name, value := range fields {
		switch name {
		case "first_name":
			str, err := asString(name, value)
			if err != nil {
				return err
			}
			p.FirstName = str
		case "last_name":
			str, err := asString(name, value)
			if err != nil {
				return err
			}
			p.LastName = str
		case "email":
			str, err := asString(name, value)
			if err != nil {
				return err
			}
			p.Email = str
		case "bio":
			str, err := asString(name, value)
			if err != nil {
				return err
			}
			p.Bio = str
		case "location":
			str, err := asString(name, value)
			if err != nil {
				return err
			}
			p.Location = str
		case "birth_date":
			switch v := value.(type) {
			case *time.Time:
				p.BirthDate = v
			case time.Time:
				p.BirthDate = &v
			case nil:
				p.BirthDate = nil
			default:
				return fmt.Errorf("field birth_date requires a time value, got %T", value)
			}
		}
	}

	p.UpdatedAt = time.Now().UTC()
	return nil
}

func asString(name string, value any) (string, error) {
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("field %s requires a string value, got %T", name, value)
	}
	return str, nil
}

// FullName returns the trimmed concatenation of first and last name
func (p *UserProfile) FullName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ExperienceToNextLevel returns the XP still needed to reach the next
// level, floored at zero.
func (p *UserProfile) ExperienceToNextLevel() int64 {
	threshold := int64(p.Level) * ExperiencePerLevel
	if p.ExperiencePoints >= threshold {
		return 0
	}
	return threshold - p.ExperiencePoints
}

// LevelProgressPercentage returns progress within the current level's XP
// range, capped at 100.
func (p *UserProfile) LevelProgressPercentage() float64 {
	currentThreshold := int64(p.Level-1) * ExperiencePerLevel
	levelExperience := p.ExperiencePoints - currentThreshold

	progress := float64(levelExperience) / float64(ExperiencePerLevel) * 100
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}
