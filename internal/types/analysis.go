// Package types provides type definitions for structured data used throughout the resume bot.
//
//nolint:revive // types is a standard Go package name pattern
package types

// MIMETypePDF is the media type declared for every document sent upstream.
const MIMETypePDF = "application/pdf"

// AnalysisRequest is a single uploaded document awaiting analysis.
// It lives only for the duration of one upstream call.
type AnalysisRequest struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
	FileID   string `json:"file_id,omitempty"`
	UserID   int64  `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	ChatID   int64  `json:"chat_id,omitempty"`
}

// AnalysisResult is the immutable outcome of one successful analysis.
type AnalysisResult struct {
	RawText       string   `json:"raw_text"`
	FormattedText string   `json:"formatted_text"`
	JobPositions  []string `json:"job_positions"`
	Model         string   `json:"model"`
}
