package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment overrides.
const envPrefix = "PATCHGUARD_"

// Config represents the patchguard configuration.
type Config struct {
	Format       string        `json:"format"`
	FailOn       string        `json:"failOn"`
	Categories   []string      `json:"categories"`
	Concurrency  int           `json:"concurrency"`
	ContextLines int           `json:"contextLines"`
	Include      []string      `json:"include"`
	Exclude      []string      `json:"exclude"`
	MaxDiffBytes int           `json:"maxDiffBytes"`
	RulesFile    string        `json:"rulesFile,omitempty"`
	Cache        CacheConfig   `json:"cache"`
	Privacy      PrivacyConfig `json:"privacy"`
	Log          LogConfig     `json:"log"`
	GitHub       GitHubConfig  `json:"github"`
}

// CacheConfig controls caching behavior.
type CacheConfig struct {
	Enabled    bool   `json:"enabled"`
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttlSeconds"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `json:"redactSecrets"`
	RedactPaths   []string `json:"redactPaths,omitempty"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// GitHubConfig controls the GitHub integration. The token is never stored
// here; it comes from GITHUB_TOKEN.
type GitHubConfig struct {
	APIURL         string `json:"apiURL"`
	InlineComments bool   `json:"inlineComments"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Format:       "text",
		FailOn:       "none",
		Categories:   []string{"security", "bug", "performance"},
		Concurrency:  4,
		ContextLines: 3,
		Include:      []string{"**/*"},
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**", "**/node_modules/**"},
		MaxDiffBytes: 500000,
		Cache: CacheConfig{
			Enabled:    true,
			TTLSeconds: 86400,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		GitHub: GitHubConfig{
			APIURL:         "https://api.github.com",
			InlineComments: true,
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for patchguard.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "patchguard"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "patchguard"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "patchguard"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "patchguard"), nil
	default:
		return filepath.Join(home, ".config", "patchguard"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads the config file on top of the defaults, ignoring the
// environment. Returns Default() if the file doesn't exist.
func LoadFile() (Config, error) {
	cfg := Default()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by layering: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags and uses the dotted keys accepted by
// SetField. Only flags the user actually set should be present.
func Load(overrides map[string]string) (Config, error) {
	k := koanf.New(".")

	defaults, err := toMap(Default())
	if err != nil {
		return Config{}, err
	}
	if err := k.Load(confmap.Provider(defaults, ""), nil); err != nil {
		return Config{}, fmt.Errorf("loading defaults: %w", err)
	}

	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        envPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	if len(overrides) > 0 {
		flat := make(map[string]any, len(overrides))
		for key, v := range overrides {
			if _, ok := keyKinds[key]; !ok {
				return Config{}, fmt.Errorf("unknown config key: %s", key)
			}
			flat[key] = coerce(key, v)
		}
		if err := k.Load(confmap.Provider(flat, "."), nil); err != nil {
			return Config{}, fmt.Errorf("loading overrides: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and numeric fields. Category names are checked
// where the analysis parses them.
func Validate(cfg Config) error {
	switch cfg.Format {
	case "text", "json", "markdown", "sarif":
	default:
		return fmt.Errorf("invalid format %q (want text, json, markdown or sarif)", cfg.Format)
	}
	switch cfg.FailOn {
	case "none", "low", "medium", "high", "critical":
	default:
		return fmt.Errorf("invalid failOn %q", cfg.FailOn)
	}
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.ContextLines < 0 {
		return fmt.Errorf("contextLines must not be negative, got %d", cfg.ContextLines)
	}
	if cfg.MaxDiffBytes < 0 {
		return fmt.Errorf("maxDiffBytes must not be negative, got %d", cfg.MaxDiffBytes)
	}
	return nil
}

type kind int

const (
	kindString kind = iota
	kindInt
	kindBool
	kindList
)

// keyKinds lists every settable key with its value type.
var keyKinds = map[string]kind{
	"format":                kindString,
	"failOn":                kindString,
	"categories":            kindList,
	"concurrency":           kindInt,
	"contextLines":          kindInt,
	"include":               kindList,
	"exclude":               kindList,
	"maxDiffBytes":          kindInt,
	"rulesFile":             kindString,
	"cache.enabled":         kindBool,
	"cache.dir":             kindString,
	"cache.ttlSeconds":      kindInt,
	"privacy.redactSecrets": kindBool,
	"privacy.redactPaths":   kindList,
	"log.level":             kindString,
	"log.format":            kindString,
	"github.apiURL":         kindString,
	"github.inlineComments": kindBool,
}

// envKeys maps environment names (without prefix) to config keys.
var envKeys = map[string]string{
	"FORMAT":                 "format",
	"FAIL_ON":                "failOn",
	"CATEGORIES":             "categories",
	"CONCURRENCY":            "concurrency",
	"CONTEXT_LINES":          "contextLines",
	"INCLUDE":                "include",
	"EXCLUDE":                "exclude",
	"MAX_DIFF_BYTES":         "maxDiffBytes",
	"RULES_FILE":             "rulesFile",
	"CACHE_ENABLED":          "cache.enabled",
	"CACHE_DIR":              "cache.dir",
	"CACHE_TTL_SECONDS":      "cache.ttlSeconds",
	"REDACT_SECRETS":         "privacy.redactSecrets",
	"REDACT_PATHS":           "privacy.redactPaths",
	"LOG_LEVEL":              "log.level",
	"LOG_FORMAT":             "log.format",
	"GITHUB_API_URL":         "github.apiURL",
	"GITHUB_INLINE_COMMENTS": "github.inlineComments",
}

// transformEnv maps PATCHGUARD_* variables to config keys. Unknown variables
// and empty values are skipped.
func transformEnv(key, value string) (string, any) {
	name := strings.TrimPrefix(key, envPrefix)
	k, ok := envKeys[name]
	if !ok || value == "" {
		return "", nil
	}
	return k, coerce(k, value)
}

// coerce splits list values. Scalars stay strings; the decoder converts them
// and rejects malformed numbers.
func coerce(key, value string) any {
	if keyKinds[key] != kindList {
		return value
	}
	return splitList(value)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling defaults: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshaling defaults: %w", err)
	}
	return m, nil
}

// Keys returns every settable key in sorted order.
func Keys() []string {
	out := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SetField sets a single config field by key name. Returns error if key is
// unknown or the value has the wrong type.
func SetField(cfg *Config, key, value string) error {
	kd, ok := keyKinds[key]
	if !ok {
		return fmt.Errorf("unknown config key: %s", key)
	}

	var (
		n   int
		b   bool
		err error
	)
	switch kd {
	case kindInt:
		n, err = strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
	case kindBool:
		b, err = strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s must be true or false: %w", key, err)
		}
	}

	switch key {
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "categories":
		cfg.Categories = splitList(value)
	case "concurrency":
		cfg.Concurrency = n
	case "contextLines":
		cfg.ContextLines = n
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "maxDiffBytes":
		cfg.MaxDiffBytes = n
	case "rulesFile":
		cfg.RulesFile = value
	case "cache.enabled":
		cfg.Cache.Enabled = b
	case "cache.dir":
		cfg.Cache.Dir = value
	case "cache.ttlSeconds":
		cfg.Cache.TTLSeconds = n
	case "privacy.redactSecrets":
		cfg.Privacy.RedactSecrets = b
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	case "log.level":
		cfg.Log.Level = value
	case "log.format":
		cfg.Log.Format = value
	case "github.apiURL":
		cfg.GitHub.APIURL = value
	case "github.inlineComments":
		cfg.GitHub.InlineComments = b
	}
	return Validate(*cfg)
}
