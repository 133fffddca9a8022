package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Host            string        `yaml:"host"`
	Port            uint          `yaml:"port"`
	DBUrl           string        `yaml:"db_url"`
	TokenTTL        time.Duration `yaml:"token_ttl"` // 0 means tokens never expire
	BcryptCost      int           `yaml:"bcrypt_cost"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Debug           bool          `yaml:"debug"`
}

func Default() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8000,
		DBUrl:           "qforms.sqlite",
		BcryptCost:      bcrypt.DefaultCost,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Flags holds command-line overrides. Only flags the user actually set are
// applied on top of file and environment settings.
type Flags struct {
	fs         *pflag.FlagSet
	configFile string
	envFile    string
	values     Config
}

func AddFlags(fs *pflag.FlagSet) *Flags {
	def := Default()
	f := &Flags{fs: fs}
	fs.StringVarP(&f.configFile, "config", "c", "", "path to YAML config file")
	fs.StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded into the environment if present")
	fs.StringVar(&f.values.Host, "host", def.Host, "listen host name")
	fs.UintVar(&f.values.Port, "port", def.Port, "listen port number")
	fs.StringVar(&f.values.DBUrl, "db-url", def.DBUrl, "path to SQLite3 DB file")
	fs.DurationVar(&f.values.TokenTTL, "token-ttl", def.TokenTTL, "token lifetime (0 = no expiry)")
	fs.BoolVar(&f.values.Debug, "debug", def.Debug, "log at DEBUG level")
	return f
}

// Load resolves the configuration: defaults, then the YAML file, then
// QF_* environment variables, then explicitly set flags.
func (f *Flags) Load() (cfg Config, err error) {
	cfg = Default()

	if f.envFile != "" {
		if _, statErr := os.Stat(f.envFile); statErr == nil {
			if err = godotenv.Load(f.envFile); err != nil {
				return cfg, fmt.Errorf("load env file: %w", err)
			}
		}
	}

	if f.configFile != "" {
		if err = cfg.loadFile(f.configFile); err != nil {
			return cfg, err
		}
	}

	if err = cfg.loadEnv(); err != nil {
		return cfg, err
	}

	if f.fs.Changed("host") {
		cfg.Host = f.values.Host
	}
	if f.fs.Changed("port") {
		cfg.Port = f.values.Port
	}
	if f.fs.Changed("db-url") {
		cfg.DBUrl = f.values.DBUrl
	}
	if f.fs.Changed("token-ttl") {
		cfg.TokenTTL = f.values.TokenTTL
	}
	if f.fs.Changed("debug") {
		cfg.Debug = f.values.Debug
	}

	err = cfg.Validate()
	return
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (cfg *Config) loadEnv() error {
	if v := os.Getenv("QF_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("QF_PORT"); v != "" {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return errors.New("invalid QF_PORT env variable")
		}
		cfg.Port = uint(port)
	}
	if v := os.Getenv("QF_DB_URL"); v != "" {
		cfg.DBUrl = v
	}
	if v := os.Getenv("QF_TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("invalid QF_TOKEN_TTL env variable")
		}
		cfg.TokenTTL = ttl
	}
	if v := os.Getenv("QF_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("invalid QF_DEBUG env variable")
		}
		cfg.Debug = debug
	}
	return nil
}

func (cfg Config) Validate() error {
	if cfg.Port == 0 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.DBUrl == "" {
		return errors.New("missing parameter db-url")
	}
	if cfg.TokenTTL < 0 {
		return errors.New("token-ttl must not be negative")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (cfg Config) Addr() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr()
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
