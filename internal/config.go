package internal

import (
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is the runtime configuration of a VM.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Dispatch DispatchConfig `toml:"dispatch"`
	Heap     HeapConfig     `toml:"heap"`
	Thread   ThreadConfig   `toml:"thread"`
	Task     TaskConfig     `toml:"task"`
}

// LogConfig configures the VM's logger.
type LogConfig struct {
	// Level is a logrus level name.
	Level string `toml:"level"`
	// TimeFormat is a strftime pattern for log timestamps. Empty disables
	// timestamps.
	TimeFormat string `toml:"time-format"`
}

// DispatchConfig configures slot resolution.
type DispatchConfig struct {
	// CacheSize is the number of resolutions to remember. Zero disables the
	// cache.
	CacheSize int `toml:"cache-size"`
}

// HeapConfig configures the allocator.
type HeapConfig struct {
	// MaxObjectSize is the largest instance size Allocate accepts. Zero means
	// no limit.
	MaxObjectSize uint64 `toml:"max-object-size"`
	// PromoteOnThrow allows throwing unmanaged objects by promoting them to
	// the managed heap first. If false, throwing an unmanaged object is fatal.
	PromoteOnThrow bool `toml:"promote-on-throw"`
}

// ThreadConfig configures thread creation.
type ThreadConfig struct {
	// DefaultStackSize is used when a thread requests stack size 0.
	DefaultStackSize int `toml:"default-stack-size"`
}

// TaskConfig configures task creation.
type TaskConfig struct {
	// DefaultStackSize is used when a task requests stack size 0.
	DefaultStackSize int `toml:"default-stack-size"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Log:      LogConfig{Level: "info", TimeFormat: "%Y-%m-%d %H:%M:%S"},
		Dispatch: DispatchConfig{CacheSize: 512},
		Heap:     HeapConfig{PromoteOnThrow: true},
		Thread:   ThreadConfig{DefaultStackSize: 1 << 20},
		Task:     TaskConfig{DefaultStackSize: 256 << 10},
	}
}

// ConfigError is returned for configuration that cannot be used.
type ConfigError struct {
	// Path is the file the configuration came from, if any.
	Path string
	// Keys lists keys that are not configuration options.
	Keys []string
	// Err is the underlying error.
	Err error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("avium: bad configuration")
	if e.Path != "" {
		b.WriteString(" in ")
		b.WriteString(e.Path)
	}
	if len(e.Keys) > 0 {
		b.WriteString(": unknown keys ")
		b.WriteString(strings.Join(e.Keys, ", "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadConfig reads a TOML configuration file. Options the file does not set
// keep their default values.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, errors.WithStack(&ConfigError{Path: path, Err: err})
	}
	defer f.Close()
	cfg, err := ParseConfig(f)
	if err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			ce.Path = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// ParseConfig reads a TOML configuration.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.WithStack(&ConfigError{Err: err})
	}
	if u := md.Undecoded(); len(u) > 0 {
		keys := make([]string, len(u))
		for i, k := range u {
			keys[i] = k.String()
		}
		return Config{}, errors.WithStack(&ConfigError{Keys: keys})
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return errors.WithStack(&ConfigError{Err: err})
	}
	if c.Dispatch.CacheSize < 0 {
		return errors.WithStack(&ConfigError{Err: errors.Errorf("negative dispatch cache size %d", c.Dispatch.CacheSize)})
	}
	if err := checkStackSize(c.Thread.DefaultStackSize); err != nil {
		return errors.WithStack(&ConfigError{Err: errors.Wrap(err, "thread default-stack-size")})
	}
	if err := checkStackSize(c.Task.DefaultStackSize); err != nil {
		return errors.WithStack(&ConfigError{Err: errors.Wrap(err, "task default-stack-size")})
	}
	return nil
}
