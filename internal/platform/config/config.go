package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBaseURL     = "http://localhost:8000"
	DefaultRequestTimeout = 60 * time.Second
	DefaultSilenceTimeout = 2 * time.Second
)

type Config struct {
	APIBaseURL     string
	Token          string
	DataDir        string
	DBPath         string
	TokenPath      string
	RequestTimeout time.Duration
	SilenceTimeout time.Duration
	Recognizer     RecognizerConfig
	LogLevel       string
	LogPretty      bool
}

type RecognizerConfig struct {
	Binary   string
	Script   string
	Language string
}

// Options locates the optional config and dotenv files.
type Options struct {
	ConfigPath string
	EnvFile    string
}

type fileConfig struct {
	APIBaseURL     string `yaml:"api_base_url"`
	DataDir        string `yaml:"data_dir"`
	RequestTimeout string `yaml:"request_timeout"`
	SilenceTimeout string `yaml:"silence_timeout"`
	Recognizer     struct {
		Binary   string `yaml:"binary"`
		Script   string `yaml:"script"`
		Language string `yaml:"language"`
	} `yaml:"recognizer"`
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// New returns defaults rooted at dataDir.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	cfg := Config{
		APIBaseURL:     DefaultAPIBaseURL,
		RequestTimeout: DefaultRequestTimeout,
		SilenceTimeout: DefaultSilenceTimeout,
		Recognizer:     RecognizerConfig{Language: "en-US"},
		LogLevel:       "info",
	}
	cfg.setDataDir(dataDir)
	return cfg, nil
}

// Load layers the config file, the dotenv file and MURMUR_* variables over the defaults.
func Load(opts Options) (Config, error) {
	cfg, err := New(DefaultDataDir())
	if err != nil {
		return Config{}, err
	}
	if opts.ConfigPath != "" {
		if err := cfg.applyFile(opts.ConfigPath); err != nil {
			return Config{}, err
		}
	}
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "murmur")
	}
	return ".murmur"
}

func (c Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url must be an http(s) url: %q", c.APIBaseURL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}
	if c.SilenceTimeout <= 0 {
		return fmt.Errorf("silence timeout must be positive")
	}
	return nil
}

func (c *Config) setDataDir(dir string) {
	c.DataDir = dir
	c.DBPath = filepath.Join(dir, "murmur.db")
	c.TokenPath = filepath.Join(dir, "token")
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if fc.APIBaseURL != "" {
		c.APIBaseURL = strings.TrimRight(fc.APIBaseURL, "/")
	}
	if fc.DataDir != "" {
		c.setDataDir(fc.DataDir)
	}
	if fc.RequestTimeout != "" {
		d, err := time.ParseDuration(fc.RequestTimeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if fc.SilenceTimeout != "" {
		d, err := time.ParseDuration(fc.SilenceTimeout)
		if err != nil {
			return fmt.Errorf("parse silence_timeout: %w", err)
		}
		c.SilenceTimeout = d
	}
	if fc.Recognizer.Binary != "" {
		c.Recognizer.Binary = fc.Recognizer.Binary
	}
	if fc.Recognizer.Script != "" {
		c.Recognizer.Script = fc.Recognizer.Script
	}
	if fc.Recognizer.Language != "" {
		c.Recognizer.Language = fc.Recognizer.Language
	}
	if fc.Log.Level != "" {
		c.LogLevel = fc.Log.Level
	}
	c.LogPretty = c.LogPretty || fc.Log.Pretty
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("MURMUR_API_URL"); v != "" {
		c.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("MURMUR_TOKEN"); v != "" {
		c.Token = strings.TrimSpace(v)
	}
	if v := os.Getenv("MURMUR_DATA_DIR"); v != "" {
		c.setDataDir(v)
	}
	if v := os.Getenv("MURMUR_REQUEST_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MURMUR_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	if v := os.Getenv("MURMUR_SILENCE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse MURMUR_SILENCE_TIMEOUT: %w", err)
		}
		c.SilenceTimeout = d
	}
	if v := os.Getenv("MURMUR_RECOGNIZER"); v != "" {
		c.Recognizer.Binary = v
	}
	if v := os.Getenv("MURMUR_RECOGNIZER_SCRIPT"); v != "" {
		c.Recognizer.Script = v
	}
	if v := os.Getenv("MURMUR_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("MURMUR_LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse MURMUR_LOG_PRETTY: %w", err)
		}
		c.LogPretty = pretty
	}
	return nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}
