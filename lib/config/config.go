// Copyright 2026 The Docket Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Docket.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Driver configures the job execution driver.
	Driver DriverConfig `yaml:"driver"`

	// Agent configures the coding agent subprocess.
	Agent AgentConfig `yaml:"agent"`

	// Store configures manifest persistence.
	Store StoreConfig `yaml:"store"`

	// Service configures the docket-service daemon.
	Service ServiceConfig `yaml:"service"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Driver  *DriverConfig  `yaml:"driver,omitempty"`
	Agent   *AgentConfig   `yaml:"agent,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Service *ServiceConfig `yaml:"service,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// State is the root directory for Docket runtime state. The job
	// store (jobs/, backups/), the queue file (queue.json), and the
	// history streams (history/) all live under it.
	State string `yaml:"state"`

	// Tasks is the directory containing task definition files
	// (*.jsonc) used by "docket job create --task".
	Tasks string `yaml:"tasks"`
}

// DriverConfig configures the job execution driver.
type DriverConfig struct {
	// PollInterval is how long RunToCompletion sleeps between
	// advances while a job is in a transient state.
	// Default: 2s
	PollInterval string `yaml:"poll_interval"`

	// PollTimeout bounds a single executor poll inside one advance.
	// Expiry reports "still in progress" rather than forcing a
	// transition.
	// Default: 30s
	PollTimeout string `yaml:"poll_timeout"`

	// InactivityTimeout is how stale a transient job's
	// last_transition_at must be before the recovery monitor forces
	// it back to a resting state.
	// Default: 30m
	InactivityTimeout string `yaml:"inactivity_timeout"`

	// RetryLimit is the number of executor retries allowed before a
	// job escalates to intervention_required.
	// Default: 3
	RetryLimit int `yaml:"retry_limit"`

	// MaxRunning caps how many jobs may be in a transient state at
	// once. 0 means unlimited.
	MaxRunning int `yaml:"max_running"`

	// StepCostEstimate is the projected cost of one executor step,
	// used for the pre-invocation threshold check.
	// Default: 1.0
	StepCostEstimate float64 `yaml:"step_cost_estimate"`
}

// AgentConfig configures the coding agent subprocess.
type AgentConfig struct {
	// Command is the agent CLI binary. Resolved against PATH when
	// not absolute.
	Command string `yaml:"command"`

	// Args are passed to the agent for work steps.
	Args []string `yaml:"args"`

	// ReviewArgs are passed to the agent for review steps. Empty
	// means Args is used for both.
	ReviewArgs []string `yaml:"review_args"`

	// GracePeriod is how long a SIGTERM'd agent process group gets
	// before SIGKILL.
	// Default: 10s
	GracePeriod string `yaml:"grace_period"`
}

// StoreConfig configures manifest persistence.
type StoreConfig struct {
	// BackupRetention is the number of pre-commit manifest snapshots
	// kept per job. 0 means the store default.
	BackupRetention int `yaml:"backup_retention"`
}

// ServiceConfig configures the docket-service daemon.
type ServiceConfig struct {
	// SocketPath is the Unix socket path for the daemon.
	// Default: <state>/service.sock
	SocketPath string `yaml:"socket_path"`

	// RecoveryInterval is how often the daemon scans for stuck
	// transient jobs.
	// Default: 1m
	RecoveryInterval string `yaml:"recovery_interval"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultState := filepath.Join(homeDir, ".local", "state", "docket")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			State: defaultState,
			Tasks: filepath.Join(defaultState, "tasks"),
		},
		Driver: DriverConfig{
			PollInterval:      "2s",
			PollTimeout:       "30s",
			InactivityTimeout: "30m",
			RetryLimit:        3,
			MaxRunning:        0,
			StepCostEstimate:  1.0,
		},
		Agent: AgentConfig{
			Command:     "",
			Args:        nil,
			ReviewArgs:  nil,
			GracePeriod: "10s",
		},
		Store: StoreConfig{
			BackupRetention: 10,
		},
		Service: ServiceConfig{
			SocketPath:       filepath.Join(defaultState, "service.sock"),
			RecoveryInterval: "1m",
		},
	}
}

// Load loads configuration from DOCKET_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if DOCKET_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("DOCKET_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("DOCKET_CONFIG environment variable not set; " +
			"set it to the path of your docket.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.State != "" {
			c.Paths.State = overrides.Paths.State
		}
		if overrides.Paths.Tasks != "" {
			c.Paths.Tasks = overrides.Paths.Tasks
		}
	}

	if overrides.Driver != nil {
		if overrides.Driver.PollInterval != "" {
			c.Driver.PollInterval = overrides.Driver.PollInterval
		}
		if overrides.Driver.PollTimeout != "" {
			c.Driver.PollTimeout = overrides.Driver.PollTimeout
		}
		if overrides.Driver.InactivityTimeout != "" {
			c.Driver.InactivityTimeout = overrides.Driver.InactivityTimeout
		}
		if overrides.Driver.RetryLimit != 0 {
			c.Driver.RetryLimit = overrides.Driver.RetryLimit
		}
		if overrides.Driver.MaxRunning != 0 {
			c.Driver.MaxRunning = overrides.Driver.MaxRunning
		}
		if overrides.Driver.StepCostEstimate != 0 {
			c.Driver.StepCostEstimate = overrides.Driver.StepCostEstimate
		}
	}

	if overrides.Agent != nil {
		if overrides.Agent.Command != "" {
			c.Agent.Command = overrides.Agent.Command
		}
		if overrides.Agent.Args != nil {
			c.Agent.Args = overrides.Agent.Args
		}
		if overrides.Agent.ReviewArgs != nil {
			c.Agent.ReviewArgs = overrides.Agent.ReviewArgs
		}
		if overrides.Agent.GracePeriod != "" {
			c.Agent.GracePeriod = overrides.Agent.GracePeriod
		}
	}

	if overrides.Store != nil {
		if overrides.Store.BackupRetention != 0 {
			c.Store.BackupRetention = overrides.Store.BackupRetention
		}
	}

	if overrides.Service != nil {
		if overrides.Service.SocketPath != "" {
			c.Service.SocketPath = overrides.Service.SocketPath
		}
		if overrides.Service.RecoveryInterval != "" {
			c.Service.RecoveryInterval = overrides.Service.RecoveryInterval
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"DOCKET_STATE": c.Paths.State,
		"HOME":         os.Getenv("HOME"),
	}

	c.Paths.State = expandVars(c.Paths.State, vars)
	vars["DOCKET_STATE"] = c.Paths.State // Update for dependent paths.

	c.Paths.Tasks = expandVars(c.Paths.Tasks, vars)
	c.Agent.Command = expandVars(c.Agent.Command, vars)
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.State == "" {
		errs = append(errs, fmt.Errorf("paths.state is required"))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, fmt.Errorf("service.socket_path is required"))
	}

	durations := []struct {
		name  string
		value string
	}{
		{"driver.poll_interval", c.Driver.PollInterval},
		{"driver.poll_timeout", c.Driver.PollTimeout},
		{"driver.inactivity_timeout", c.Driver.InactivityTimeout},
		{"agent.grace_period", c.Agent.GracePeriod},
		{"service.recovery_interval", c.Service.RecoveryInterval},
	}
	for _, d := range durations {
		if d.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", d.name))
			continue
		}
		if parsed, err := time.ParseDuration(d.value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.name, err))
		} else if parsed <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", d.name, d.value))
		}
	}

	if c.Driver.RetryLimit < 0 {
		errs = append(errs, fmt.Errorf("driver.retry_limit must not be negative"))
	}
	if c.Driver.MaxRunning < 0 {
		errs = append(errs, fmt.Errorf("driver.max_running must not be negative"))
	}
	if c.Driver.StepCostEstimate < 0 {
		errs = append(errs, fmt.Errorf("driver.step_cost_estimate must not be negative"))
	}
	if c.Store.BackupRetention < 0 {
		errs = append(errs, fmt.Errorf("store.backup_retention must not be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates all configured directories if they don't exist.
// Subsystems create their own subdirectories under paths.state.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.State,
		c.Paths.Tasks,
		filepath.Dir(c.Service.SocketPath),
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}

// QueuePath returns the path of the persisted queue file.
func (c *Config) QueuePath() string {
	return filepath.Join(c.Paths.State, "queue.json")
}

// HistoryDir returns the directory holding per-job history streams.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.Paths.State, "history")
}

// PollInterval returns the parsed driver poll interval. Durations are
// validated by Validate; an unparseable value here falls back to the
// package default.
func (c *Config) PollInterval() time.Duration {
	return durationOr(c.Driver.PollInterval, 2*time.Second)
}

// PollTimeout returns the parsed per-advance executor poll bound.
func (c *Config) PollTimeout() time.Duration {
	return durationOr(c.Driver.PollTimeout, 30*time.Second)
}

// InactivityTimeout returns the parsed recovery inactivity timeout.
func (c *Config) InactivityTimeout() time.Duration {
	return durationOr(c.Driver.InactivityTimeout, 30*time.Minute)
}

// AgentGracePeriod returns the parsed SIGTERM-to-SIGKILL grace period.
func (c *Config) AgentGracePeriod() time.Duration {
	return durationOr(c.Agent.GracePeriod, 10*time.Second)
}

// RecoveryInterval returns the parsed daemon recovery scan interval.
func (c *Config) RecoveryInterval() time.Duration {
	return durationOr(c.Service.RecoveryInterval, time.Minute)
}

func durationOr(value string, fallback time.Duration) time.Duration {
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

// ResolveAgentCommand returns the absolute path of the configured agent
// binary, consulting PATH for bare names.
func (c *Config) ResolveAgentCommand() (string, error) {
	if c.Agent.Command == "" {
		return "", fmt.Errorf("agent.command is not configured")
	}
	if filepath.IsAbs(c.Agent.Command) {
		if _, err := os.Stat(c.Agent.Command); err != nil {
			return "", fmt.Errorf("agent command %s: %w", c.Agent.Command, err)
		}
		return c.Agent.Command, nil
	}

	path, err := exec.LookPath(c.Agent.Command)
	if err != nil {
		return "", fmt.Errorf("agent command %s not found in PATH", c.Agent.Command)
	}
	return path, nil
}
