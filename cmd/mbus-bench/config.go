package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/casualjim/mbus"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables that provide defaults.
const EnvPrefix = "MBUS_"

// Config describes one benchmark run.
type Config struct {
	Listeners  int  `yaml:"listeners"`
	Messages   int  `yaml:"messages"`
	Publishers int  `yaml:"publishers"`
	Workers    int  `yaml:"workers"`
	QueueSize  int  `yaml:"queue_size"`
	Async      bool `yaml:"async"`
	// FailEvery makes every n-th invocation of a listener fail. Zero disables failures.
	FailEvery int  `yaml:"fail_every"`
	JSON      bool `yaml:"json"`
}

func DefaultConfig() Config {
	return Config{
		Listeners:  10,
		Messages:   100_000,
		Publishers: 4,
		Workers:    mbus.DefaultWorkers,
		QueueSize:  mbus.DefaultQueueSize,
	}
}

var errInvalidConfig = errors.New("invalid benchmark configuration")

func (c Config) Validate() error {
	var problems []string
	if c.Listeners < 0 {
		problems = append(problems, "listeners must not be negative")
	}
	if c.Messages < 0 {
		problems = append(problems, "messages must not be negative")
	}
	if c.Publishers < 1 {
		problems = append(problems, "publishers must be positive")
	}
	if c.Workers < 1 {
		problems = append(problems, "workers must be positive")
	}
	if c.QueueSize < 0 {
		problems = append(problems, "queue size must not be negative")
	}
	if c.FailEvery < 0 {
		problems = append(problems, "fail every must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errInvalidConfig, strings.Join(problems, ", "))
	}
	return nil
}

// ApplyEnv overrides c with the MBUS_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	ints := map[string]*int{
		"LISTENERS":  &c.Listeners,
		"MESSAGES":   &c.Messages,
		"PUBLISHERS": &c.Publishers,
		"WORKERS":    &c.Workers,
		"QUEUE_SIZE": &c.QueueSize,
		"FAIL_EVERY": &c.FailEvery,
	}
	for name, dst := range ints {
		raw, ok := lookup(EnvPrefix + name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = v
	}

	bools := map[string]*bool{
		"ASYNC": &c.Async,
		"JSON":  &c.JSON,
	}
	for name, dst := range bools {
		raw, ok := lookup(EnvPrefix + name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = v
	}
	return nil
}

// LoadFile overrides c with the fields present in the YAML file at path.
// An empty path is a no-op.
func (c *Config) LoadFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist: %w", path, err)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}
