package courier

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// KindKey is the reserved configuration key naming the backend kind a
// driver entry is built with. When absent, the entry's own name is
// used as the kind.
const KindKey = "driver"

// DriverConfig is a named driver's option map. It is supplied by the
// hosting application at startup and treated as immutable after load.
type DriverConfig map[string]any

// String returns the string value for key.
func (c DriverConfig) String(key string) (string, bool) {
	v, ok := c[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer value for key. Numeric YAML scalars decode
// as several Go types depending on magnitude, so all of them are
// accepted here.
func (c DriverConfig) Int(key string) (int, bool) {
	switch v := c[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool returns the boolean value for key.
func (c DriverConfig) Bool(key string) (bool, bool) {
	v, ok := c[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Kind returns the backend kind named by the reserved "driver" key.
func (c DriverConfig) Kind() string {
	kind, _ := c.String(KindKey)
	return kind
}

// Require verifies that every key is present and, for strings,
// non-empty. Returns ErrMissingConfig naming the first absent key.
func (c DriverConfig) Require(keys ...string) error {
	for _, key := range keys {
		v, ok := c[key]
		if !ok || v == nil {
			return fmt.Errorf("%w: %q", ErrMissingConfig, key)
		}
		if s, isString := v.(string); isString && s == "" {
			return fmt.Errorf("%w: %q", ErrMissingConfig, key)
		}
	}
	return nil
}

// Config enumerates driver configurations and the default driver name.
//
// Example YAML:
//
//	default: mail
//	drivers:
//	  mail:
//	    driver: smtp
//	    host: smtp.example.com
//	    port: 587
//	  uploads:
//	    driver: s3
//	    bucket: my-bucket
//	    client_id: AKIA...
//	    secret: ...
type Config struct {
	Drivers map[string]DriverConfig `yaml:"drivers"`
	Default string                  `yaml:"default"`
}

// LoadConfig reads and parses a YAML configuration.
func LoadConfig(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return ParseConfig(data)
}

// LoadConfigFile reads and parses a YAML configuration file.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a YAML configuration document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks that the default driver is set and configured.
func (c Config) validate() error {
	if c.Default == "" {
		return fmt.Errorf("%w: default driver is not set", ErrInvalidConfig)
	}
	if _, ok := c.Drivers[c.Default]; !ok {
		return fmt.Errorf("%w: default driver %q is not configured", ErrInvalidConfig, c.Default)
	}
	return nil
}
