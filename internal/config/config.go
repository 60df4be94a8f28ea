package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// RecencyWindowDays is the lookback window for interaction freshness.
	// A candidate whose last interaction is this many days old (or older)
	// scores zero. Also bounds the meeting/calendar/mail searches.
	RecencyWindowDays int `json:"recency_window_days"`

	// LookaheadDays extends the calendar search into the future, so an
	// upcoming meeting counts as a sighting.
	LookaheadDays int `json:"lookahead_days"`

	// AutoResolveGap is the minimum recency-score lead the top candidate
	// needs over the runner-up to resolve without asking the caller.
	AutoResolveGap int `json:"auto_resolve_gap"`

	// SourceTimeoutSecs bounds each source adapter and enrichment lookup.
	// A source that exceeds it is reported as no_results rather than
	// stalling the whole resolve call.
	SourceTimeoutSecs int `json:"source_timeout_secs"`

	// CRMBaseURL is the base URL used to build deep links for contacts
	// and meetings. Empty disables link generation.
	CRMBaseURL string `json:"crm_base_url,omitempty"`

	// MailAPIBase is the base URL of the mail provider REST API.
	// Empty disables the email source entirely.
	MailAPIBase string `json:"mail_api_base,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited). Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "person", "contact". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		RecencyWindowDays: 30,
		LookaheadDays:     7,
		AutoResolveGap:    20,
		SourceTimeoutSecs: 10,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.rolodex.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.RecencyWindowDays = pickInt(base.RecencyWindowDays, overlay.RecencyWindowDays)
	result.LookaheadDays = pickInt(base.LookaheadDays, overlay.LookaheadDays)
	result.AutoResolveGap = pickInt(base.AutoResolveGap, overlay.AutoResolveGap)
	result.SourceTimeoutSecs = pickInt(base.SourceTimeoutSecs, overlay.SourceTimeoutSecs)
	result.DBMaxOpenConns = pickInt(base.DBMaxOpenConns, overlay.DBMaxOpenConns)
	result.DBMaxIdleConns = pickInt(base.DBMaxIdleConns, overlay.DBMaxIdleConns)

	result.CRMBaseURL = pickString(base.CRMBaseURL, overlay.CRMBaseURL)
	result.MailAPIBase = pickString(base.MailAPIBase, overlay.MailAPIBase)

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// pickInt returns overlay if non-zero, else base.
func pickInt(base, overlay int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// pickString returns overlay if non-empty, else base.
func pickString(base, overlay string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
