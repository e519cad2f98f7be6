package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses YAML config bytes, expands env vars, applies defaults, and validates.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.ExpandEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ExpandEnv expands ${VAR} references in the string-valued fields that
// commonly carry deployment-specific values (addresses, URLs, paths).
func (c *Config) ExpandEnv() error {
	fields := []struct {
		name  string
		value *string
	}{
		{"listen", &c.Listen},
		{"directory_url", &c.DirectoryURL},
		{"public_url", &c.PublicURL},
		{"audit_db", &c.AuditDB},
	}
	for _, f := range fields {
		expanded, err := ExpandEnvStrict(*f.value)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
		*f.value = expanded
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// ExpandEnvStrict expands ${VAR} references and errors if any referenced
// env var is unset. A half-expanded directory URL or listen address
// would point the server somewhere unintended, so missing vars fail
// loading instead of splicing in an empty string.
func ExpandEnvStrict(input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}
	var missing []string
	out := envRef.ReplaceAllStringFunc(input, func(ref string) string {
		name := ref[2 : len(ref)-1]
		val, ok := os.LookupEnv(name)
		if !ok {
			missing = append(missing, name)
			return ref
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing env var %s", strings.Join(missing, ", "))
	}
	return out, nil
}
