package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir      string `toml:"data_dir"`
	LogDir       string `toml:"log_dir"`
	DocumentsDir string `toml:"documents_dir"`
}

// Lifecycle contains the legal deadline thresholds that drive stage
// transitions and action derivation. All day values are calendar days.
type Lifecycle struct {
	NoticeAfterDays         int    `toml:"notice_after_days"`
	NoticeEscalateDays      int    `toml:"notice_escalate_days"`
	NoticeResponseDays      int    `toml:"notice_response_days"`
	AuctionPickupWindowDays int    `toml:"auction_pickup_window_days"`
	ScrapPickupWindowDays   int    `toml:"scrap_pickup_window_days"`
	ScrapHoldDays           int    `toml:"scrap_hold_days"`
	AdLeadDays              int    `toml:"ad_lead_days"`
	DocumentLeadDays        int    `toml:"document_lead_days"`
	AuctionWeekday          string `toml:"auction_weekday"`
	PublicationWeekday      string `toml:"publication_weekday"`
	DefaultDispositionRoute string `toml:"default_disposition_route"`
}

// Workflow contains scheduler timing configuration. All values are seconds.
type Workflow struct {
	TickInterval              int `toml:"tick_interval"`
	WorkflowCheckInterval     int `toml:"workflow_check_interval"`
	StatusRefreshInterval     int `toml:"status_refresh_interval"`
	NotificationCheckInterval int `toml:"notification_check_interval"`
}

// Notifications contains outbound notification settings.
type Notifications struct {
	PushEndpoint      string   `toml:"push_endpoint"`
	RequestTimeout    int      `toml:"request_timeout"`
	OperatorList      []string `toml:"operator_list"`
	OwnerNoticeSender string   `toml:"owner_notice_sender"`
	RetentionDays     int      `toml:"retention_days"`
	DrainBatchSize    int      `toml:"drain_batch_size"`
}

// Documents contains compliance form generation settings.
type Documents struct {
	Enabled bool   `toml:"enabled"`
	Agency  string `toml:"agency"`
}

// Hearings maps jurisdictions to their hearing slot pattern.
type Hearings struct {
	DefaultWeekday string            `toml:"default_weekday"`
	DefaultHour    int               `toml:"default_hour"`
	Weekdays       map[string]string `toml:"weekdays"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for towlot.
//
// Sections by subsystem:
//   - Paths: data, log, and generated-document directories
//   - Lifecycle: legal deadline thresholds and auction calendar rules
//   - Workflow: scheduler tick and per-task intervals
//   - Notifications: push endpoint, recipients, outbox retention
//   - Documents: compliance form generation
//   - Hearings: jurisdiction hearing-slot patterns
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Lifecycle     Lifecycle     `toml:"lifecycle"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Documents     Documents     `toml:"documents"`
	Hearings      Hearings      `toml:"hearings"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path of the default config location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/towlot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("towlot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	for _, field := range []*string{&c.Paths.DataDir, &c.Paths.LogDir, &c.Paths.DocumentsDir} {
		expanded, err := expandPath(*field)
		if err != nil {
			return err
		}
		*field = expanded
	}
	c.Lifecycle.AuctionWeekday = strings.ToLower(strings.TrimSpace(c.Lifecycle.AuctionWeekday))
	c.Lifecycle.PublicationWeekday = strings.ToLower(strings.TrimSpace(c.Lifecycle.PublicationWeekday))
	c.Lifecycle.DefaultDispositionRoute = strings.ToLower(strings.TrimSpace(c.Lifecycle.DefaultDispositionRoute))
	c.Notifications.PushEndpoint = strings.TrimSpace(c.Notifications.PushEndpoint)
	return nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.DocumentsDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// TickInterval returns the scheduler tick as a duration.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Workflow.TickInterval) * time.Second
}

// WorkflowCheckInterval returns the automated-executor interval as a duration.
func (c *Config) WorkflowCheckInterval() time.Duration {
	return time.Duration(c.Workflow.WorkflowCheckInterval) * time.Second
}

// StatusRefreshInterval returns the status sweep interval as a duration.
func (c *Config) StatusRefreshInterval() time.Duration {
	return time.Duration(c.Workflow.StatusRefreshInterval) * time.Second
}

// NotificationCheckInterval returns the outbox drain interval as a duration.
func (c *Config) NotificationCheckInterval() time.Duration {
	return time.Duration(c.Workflow.NotificationCheckInterval) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
