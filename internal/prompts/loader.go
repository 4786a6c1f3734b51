// Package prompts holds the analysis prompt and the bot's localized replies.
// Both are JSON files embedded at compile time.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

const (
	analysisFile = "analysis.json"
	messagesFile = "messages.json"

	// JobPositionsLabel is the section header the model is told to put
	// before the related job titles.
	JobPositionsLabel = "موقعیت‌های شغلی مرتبط:"
)

// Message keys in messages.json.
const (
	MsgWelcome         = "welcome"
	MsgHelp            = "help"
	MsgSendPDF         = "send-pdf"
	MsgJoinChannel     = "join-channel"
	MsgJoinButton      = "join-button"
	MsgProcessing      = "processing"
	MsgUnsupportedType = "unsupported-type"
	MsgTooLarge        = "too-large"
	MsgRateLimited     = "rate-limited"
	MsgAnalysisEmpty   = "analysis-empty"
	MsgAnalysisError   = "analysis-error"
	MsgRateRequest     = "rate-request"
	MsgRateThanks      = "rate-thanks"
	MsgRateInvalid     = "rate-invalid"
)

var (
	cache   = make(map[string]map[string]string)
	cacheMu sync.RWMutex
)

// Get retrieves an entry by filename and key.
func Get(filename, key string) (string, error) {
	entries, err := loadFile(filename)
	if err != nil {
		return "", err
	}

	value, exists := entries[key]
	if !exists {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}

	return value, nil
}

// MustGet is Get for entries required at startup; it panics on a missing entry.
func MustGet(filename, key string) string {
	value, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return value
}

// Format replaces {{.Key}} placeholders with values from data.
func Format(template string, data map[string]string) string {
	if len(data) == 0 {
		return template
	}
	pairs := make([]string, 0, len(data)*2)
	for key, value := range data {
		pairs = append(pairs, "{{."+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// ResumeAnalysis returns the instructional prompt sent alongside every document.
func ResumeAnalysis() string {
	return Format(MustGet(analysisFile, "resume-analysis"), map[string]string{
		"JobPositionsLabel": JobPositionsLabel,
	})
}

// Message returns a localized bot reply with placeholders filled in.
func Message(key string, data map[string]string) string {
	return Format(MustGet(messagesFile, key), data)
}

func loadFile(filename string) (map[string]string, error) {
	cacheMu.RLock()
	if entries, exists := cache[filename]; exists {
		cacheMu.RUnlock()
		return entries, nil
	}
	cacheMu.RUnlock()

	data, err := promptFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	cacheMu.Lock()
	cache[filename] = entries
	cacheMu.Unlock()

	return entries, nil
}

// ClearCache drops parsed files so the next lookup re-reads them.
func ClearCache() {
	cacheMu.Lock()
	cache = make(map[string]map[string]string)
	cacheMu.Unlock()
}
