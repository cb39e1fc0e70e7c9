package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/brettbedarf/memfs/internal/errors"
	"github.com/brettbedarf/memfs/internal/util"
	"gopkg.in/yaml.v3"
)

// CLI verbosity values accepted by [ConfigOverride.LogLvl]
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl     = util.InfoLevel
	DefaultScheme     = "memory"
	DefaultUser       = "root"
	DefaultGroup      = "test"
	DefaultPermission = 0o777
	DefaultWorkingDir = "/"
	DefaultFsName     = "memfs"
	DefaultName       = "memfs"
)

// Config contains runtime configuration values for a memfs process.
type Config struct {
	MountOptions
	LogLvl     util.LogLevel // Internal log level (Default info)
	Scheme     string        // Identity of the tree the CLI binds to (Default "memory")
	User       string        // Acting user for permission checks (Default "root")
	Groups     []string      // Groups of the acting user (Default ["test"])
	Permission uint32        // Permission applied to seeded nodes without explicit perms (Default 0777)
	WorkingDir string        // Working directory for relative paths (Default "/")
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is the CLI verbosity between 1 (error) and 5 (trace); clamped.
	LogLvl     *int      `yaml:"log_lvl,omitempty" json:"log_lvl,omitempty"`
	Scheme     *string   `yaml:"scheme,omitempty" json:"scheme,omitempty"`
	User       *string   `yaml:"user,omitempty" json:"user,omitempty"`
	Groups     *[]string `yaml:"groups,omitempty" json:"groups,omitempty"`
	Permission *string   `yaml:"permission,omitempty" json:"permission,omitempty"` // octal string i.e. "755"
	WorkingDir *string   `yaml:"working_dir,omitempty" json:"working_dir,omitempty"`
	Debug      *bool     `yaml:"debug,omitempty" json:"debug,omitempty"`
	FsName     *string   `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name       *string   `yaml:"name,omitempty" json:"name,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:     DefaultLogLvl,
		Scheme:     DefaultScheme,
		User:       DefaultUser,
		Groups:     []string{DefaultGroup},
		Permission: DefaultPermission,
		WorkingDir: DefaultWorkingDir,
	}
}

// NewConfig returns the defaults with override applied. A nil override yields
// the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
// An unparsable permission string is ignored.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.Scheme != nil {
		c.Scheme = *override.Scheme
	}
	if override.User != nil {
		c.User = *override.User
	}
	if override.Groups != nil {
		c.Groups = append([]string(nil), (*override.Groups)...)
	}
	if override.Permission != nil {
		if perm, err := ParsePermission(*override.Permission); err == nil {
			c.Permission = perm
		}
	}
	if override.WorkingDir != nil {
		c.WorkingDir = *override.WorkingDir
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
}

// VerboseToLogLevel converts CLI verbosity (1 error .. 5 trace) to a
// [util.LogLevel], clamping out of range values.
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = max(ErrorVerbose, min(TraceVerbose, verbose))
	lvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return lvls[verbose-1]
}

// ParsePermission parses an octal permission string such as "755" or "0o644".
func ParsePermission(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0o"), "0O")
	perm, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid permission %q", s)
	}
	if perm > 0o777 {
		return 0, errors.Errorf("permission %o out of range", perm)
	}
	return uint32(perm), nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal config file")
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal config file")
		}
	default:
		return nil, errors.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
// This is a convenience function that combines NewDefaultConfig, LoadConfigOverrideFile, and Merge.
func NewConfigFromFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	cfg.Merge(override)
	return cfg, nil
}
