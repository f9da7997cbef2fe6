package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/scienceol/awake/internal/power"
)

const (
	homeDirName    = ".awake"
	configFileName = "config.yaml"
)

type Config struct {
	AssertionName string   `yaml:"assertion_name"`
	Assertions    []string `yaml:"assertions"`
	UserActivity  *bool    `yaml:"user_activity"`
	Reexec        *bool    `yaml:"reexec"`
	LogFile       string   `yaml:"log_file"`
	PIDFile       string   `yaml:"pid_file"`

	// Home is the resolved state directory, not read from the file.
	Home string `yaml:"-"`
}

// Overrides are values given on the command line.
type Overrides struct {
	ConfigFile string
	LogFile    string
	PIDFile    string
	NoReexec   bool
}

// Load resolves configuration from flags > env > config file.
func Load(o Overrides) (*Config, error) {
	home, err := homeDir()
	if err != nil {
		return nil, err
	}
	cfg := &Config{Home: home}

	// 1. Load config file as base
	cfgPath := o.ConfigFile
	if cfgPath == "" {
		cfgPath = filepath.Join(home, configFileName)
	}
	data, err := os.ReadFile(cfgPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", cfgPath, err)
		}
	case o.ConfigFile != "":
		// An explicitly named file must exist.
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 2. Environment variables override config file
	if v := os.Getenv("AWAKE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("AWAKE_PID_FILE"); v != "" {
		cfg.PIDFile = v
	}

	// 3. CLI flags override everything
	if o.LogFile != "" {
		cfg.LogFile = o.LogFile
	}
	if o.PIDFile != "" {
		cfg.PIDFile = o.PIDFile
	}
	if o.NoReexec {
		no := false
		cfg.Reexec = &no
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AssertionName == "" {
		c.AssertionName = "awake"
	}
	if c.Assertions == nil {
		for _, k := range power.DefaultKinds {
			c.Assertions = append(c.Assertions, string(k))
		}
	}
	if c.UserActivity == nil {
		yes := true
		c.UserActivity = &yes
	}
	if c.Reexec == nil {
		yes := true
		c.Reexec = &yes
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(c.Home, "logs", "awake.log")
	}
	if c.PIDFile == "" {
		c.PIDFile = filepath.Join(c.Home, "awake.pid")
	}
}

func (c *Config) validate() error {
	if _, err := c.Plan(); err != nil {
		return fmt.Errorf("invalid assertions: %w", err)
	}
	if len(c.Assertions) == 0 && !*c.UserActivity {
		return fmt.Errorf("no assertions configured (assertions is empty and user_activity is false)")
	}
	return nil
}

// Plan converts the configured assertion names.
func (c *Config) Plan() (power.Plan, error) {
	plan := power.Plan{UserActivity: c.UserActivity == nil || *c.UserActivity}
	for _, name := range c.Assertions {
		k, err := power.ParseKind(name)
		if err != nil {
			return power.Plan{}, err
		}
		plan.Kinds = append(plan.Kinds, k)
	}
	return plan, nil
}

// ReexecEnabled reports whether a relative duration is re-executed as an
// absolute datetime.
func (c *Config) ReexecEnabled() bool {
	return c.Reexec == nil || *c.Reexec
}

// homeDir returns AWAKE_HOME, or ~/.awake.
func homeDir() (string, error) {
	if v := os.Getenv("AWAKE_HOME"); v != "" {
		return filepath.Abs(v)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, homeDirName), nil
}
