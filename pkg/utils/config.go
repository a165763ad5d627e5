package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds everything the binaries need. Values come from defaults, then
// an optional TOML file, then COMICSORT_* environment variables.
type Config struct {
	HTTPAddr string `toml:"http_addr"`
	// GRPCAddr serves the gRPC health service; empty turns it off.
	GRPCAddr string `toml:"grpc_addr"`

	CatalogURL string `toml:"catalog_url"`

	GraphBaseURL     string `toml:"graph_base_url"`
	RootFolderID     string `toml:"root_folder_id"`
	RootFolderName   string `toml:"root_folder_name"`
	DestinationLabel string `toml:"destination_label"`

	HTTPTimeoutSeconds int `toml:"http_timeout_seconds"`

	Auth AuthConfig `toml:"auth"`
}

type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	JWTIssuer   string `toml:"jwt_issuer"`
	JWTTTLHours int    `toml:"jwt_ttl_hours"`
	// bcrypt hash; empty disables the operator password check
	OperatorPasswordHash string `toml:"operator_password_hash"`
}

func (a AuthConfig) JWTDuration() time.Duration {
	if a.JWTTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(a.JWTTTLHours) * time.Hour
}

func (c Config) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func DefaultConfig() Config {
	return Config{
		HTTPAddr:           ":8080",
		GRPCAddr:           ":9090",
		CatalogURL:         "http://www.mikesamazingworld.com/mikes/features/comic/seriesissues.php",
		GraphBaseURL:       "https://graph.microsoft.com/v1.0",
		RootFolderName:     "Monthly Packages",
		DestinationLabel:   "root/Comics/Monthly Packages",
		HTTPTimeoutSeconds: 15,
		Auth: AuthConfig{
			// dev default (change for real use)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "comicsort",
			JWTTTLHours: 24,
		},
	}
}

// LoadConfig builds the effective configuration. When path is empty the
// COMICSORT_CONFIG variable is consulted; a missing file at that fallback
// location is not an error, a missing explicit path is.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("COMICSORT_CONFIG")
	}

	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := toml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.HTTPAddr, "COMICSORT_HTTP_ADDR")
	setString(&cfg.GRPCAddr, "COMICSORT_GRPC_ADDR")
	setString(&cfg.CatalogURL, "COMICSORT_CATALOG_URL")
	setString(&cfg.GraphBaseURL, "COMICSORT_GRAPH_BASE_URL")
	setString(&cfg.RootFolderID, "COMICSORT_ROOT_FOLDER_ID")
	setString(&cfg.RootFolderName, "COMICSORT_ROOT_FOLDER_NAME")
	setString(&cfg.DestinationLabel, "COMICSORT_DESTINATION_LABEL")
	setString(&cfg.Auth.JWTSecret, "COMICSORT_JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "COMICSORT_JWT_ISSUER")
	setString(&cfg.Auth.OperatorPasswordHash, "COMICSORT_OPERATOR_PASSWORD_HASH")

	if err := setInt(&cfg.Auth.JWTTTLHours, "COMICSORT_JWT_TTL_HOURS"); err != nil {
		return err
	}
	return setInt(&cfg.HTTPTimeoutSeconds, "COMICSORT_HTTP_TIMEOUT_SECONDS")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
