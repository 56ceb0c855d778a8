package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/composables/internal/errors"
)

// ConfigFileNames are the file names Load looks for, in order.
var ConfigFileNames = []string{"composables.yaml", "composables.yml", "composables.json"}

const (
	// DefaultBackend is the default storage backend.
	DefaultBackend = BackendMemory

	// DefaultBoltPath is the default bolt database, relative to the config.
	DefaultBoltPath = "composables.db"

	// DefaultHubAddr is the default hub listen address.
	DefaultHubAddr = "localhost:7300"

	// DefaultShutdownTimeout is the default graceful shutdown window.
	DefaultShutdownTimeout = "5s"
)

// Storage backends.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendS3     = "s3"
)

// Config represents composables.yaml.
type Config struct {
	// Storage selects the store backing local storage.
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Hub contains the sync hub settings.
	Hub HubConfig `json:"hub" yaml:"hub"`

	// Log contains logging settings.
	Log LogConfig `json:"log" yaml:"log"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// StorageConfig selects and configures the local storage backend. Session
// storage is always in memory.
type StorageConfig struct {
	// Backend is "memory", "bolt" or "s3".
	Backend string `json:"backend" yaml:"backend"`

	// Quota bounds the memory backend in bytes. 0 is the default quota,
	// -1 is unlimited.
	Quota int `json:"quota,omitempty" yaml:"quota,omitempty" validate:"gte=-1"`

	// Path is the bolt database file.
	Path string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Backend bolt"`

	// Bucket is the S3 bucket.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" validate:"required_if=Backend s3"`

	// Prefix is prepended to every S3 object key.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Region is the S3 region.
	Region string `json:"region,omitempty" yaml:"region,omitempty" validate:"required_if=Backend s3"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" validate:"omitempty,url"`
}

// HubConfig configures `composables serve` and hub clients.
type HubConfig struct {
	// Addr is the listen address of the hub.
	Addr string `json:"addr" yaml:"addr" validate:"required,hostname_port"`

	// URL is the websocket URL clients dial. Default: derived from Addr.
	URL string `json:"url,omitempty" yaml:"url,omitempty" validate:"omitempty,url"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "5s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty" validate:"duration"`

	// AllowedOrigins are accepted websocket origins in addition to the
	// hub's own host. "*" accepts any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// LogConfig configures the slog logger.
type LogConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `json:"level,omitempty" yaml:"level,omitempty" validate:"oneof=debug info warn error"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty" validate:"oneof=text json"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the first configuration file of ConfigFileNames found in dir.
func Load(dir string) (*Config, error) {
	path, ok := find(dir)
	if !ok {
		return nil, errors.New("E402").
			WithDetail("No composables.yaml or composables.json found in " + dir)
	}
	return LoadFile(path)
}

// LoadFile reads configuration from path. The format follows the
// extension: .json is JSON, anything else YAML.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E402").WithDetail(path).Wrap(err)
	}

	cfg := &Config{}
	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E401").
			WithDetail("Failed to parse " + filepath.Base(path)).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryCLI, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension
// names.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.New("E401").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E402").WithDetail(path).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}
	if c.Storage.Backend == BackendBolt && c.Storage.Path == "" {
		c.Storage.Path = DefaultBoltPath
	}

	if c.Hub.Addr == "" {
		c.Hub.Addr = DefaultHubAddr
	}
	if c.Hub.ShutdownTimeout == "" {
		c.Hub.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// BoltPath returns the bolt database path, resolved against Dir.
func (c *Config) BoltPath() string {
	path := c.Storage.Path
	if path == "" {
		path = DefaultBoltPath
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// HubURL returns the websocket URL of the hub.
func (c *Config) HubURL() string {
	if c.Hub.URL != "" {
		return c.Hub.URL
	}
	host, port, err := net.SplitHostPort(c.Hub.Addr)
	if err != nil {
		return "ws://" + c.Hub.Addr + "/ws"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "ws://" + net.JoinHostPort(host, port) + "/ws"
}

// HubHTTPURL returns the base URL of the hub's REST API.
func (c *Config) HubHTTPURL() string {
	u := strings.TrimSuffix(c.HubURL(), "/ws")
	switch {
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	}
	return u
}

// ShutdownTimeout returns Hub.ShutdownTimeout as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Hub.ShutdownTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return d
}

// SlogLevel returns the configured level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Logger builds a logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: l.SlogLevel()}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// find returns the first config file in dir.
func find(dir string) (string, bool) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}
	return "", false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, ok := find(dir)
	return ok
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E402").
				WithDetail("No composables.yaml found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent that has one. Without any config file it returns
// the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}

	return Load(root)
}
