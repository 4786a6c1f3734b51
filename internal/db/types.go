package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/growly/resume-bot/internal/types"
)

// User is a chat user who has interacted with the bot.
type User struct {
	UserID       int64     `json:"user_id"`
	Username     *string   `json:"username,omitempty"`
	FirstName    *string   `json:"first_name,omitempty"`
	IsPremium    bool      `json:"is_premium"`
	CVCount      int       `json:"cv_count"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

// Analysis is one stored resume analysis.
type Analysis struct {
	ID           uuid.UUID     `json:"id"`
	UserID       int64         `json:"user_id"`
	Username     *string       `json:"username,omitempty"`
	FileID       string        `json:"file_id"`
	AnalyzedData string        `json:"analyzed_data"`
	Model        string        `json:"model"`
	Rating       *types.Rating `json:"rating,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	RatedAt      *time.Time    `json:"rated_at,omitempty"`
}

// AnalysisCreateInput holds the fields needed to store an analysis
type AnalysisCreateInput struct {
	UserID       int64
	Username     string
	FileID       string
	AnalyzedData string
	Model        string
	JobPositions []string
}

// AnalysisMatch is an analysis found by job position lookup.
type AnalysisMatch struct {
	ID           uuid.UUID `json:"id"`
	AnalyzedData string    `json:"analyzed_data"`
	MatchCount   int       `json:"match_count"`
	CreatedAt    time.Time `json:"created_at"`
}
