package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	sharedauth "github.com/JCUYLLE2/FindFilms/internal/shared/auth"
	"github.com/JCUYLLE2/FindFilms/internal/shared/envconfig"
)

// Config encapsulates the runtime configuration of the FindFilms backend.
type Config struct {
	Port           string        `validate:"required"`
	GCPProjectID   string
	DataStore      DataStore     `validate:"oneof=memory firestore"`
	RemoteTimeout  time.Duration `validate:"gt=0"`
	SessionIdleTTL time.Duration `validate:"gt=0"`
	AllowedOrigins []string
	Auth           AuthConfig
	Firebase       FirebaseConfig
	Firestore      FirestoreConfig
	Catalog        CatalogConfig
}

// DataStore enumerates supported persistence backends.
type DataStore string

const (
	// DataStoreMemory keeps accounts, profiles and favorites in-memory (useful for local development/testing).
	DataStoreMemory DataStore = "memory"
	// DataStoreFirestore stores profiles and favorites in Google Cloud Firestore.
	DataStoreFirestore DataStore = "firestore"
)

// AuthConfig stores bearer-token verification setup.
type AuthConfig struct {
	Mode    sharedauth.Mode
	JWKSURL string
}

// FirebaseConfig holds the web API key used for email/password sign-in.
type FirebaseConfig struct {
	APIKey          string
	CredentialsFile string
}

// FirestoreConfig tailors Firestore client behavior.
type FirestoreConfig struct {
	EmulatorHost string
}

// CatalogConfig configures the TMDB client.
type CatalogConfig struct {
	APIKey    string `validate:"required"`
	BaseURL   string `validate:"omitempty,url"`
	Language  string
	RateLimit float64 `validate:"gte=0"`
}

// fileConfig is the optional TOML file holding static identifiers.
type fileConfig struct {
	Firebase struct {
		APIKey    string `toml:"api_key"`
		ProjectID string `toml:"project_id"`
	} `toml:"firebase"`
	Catalog struct {
		APIKey string `toml:"api_key"`
	} `toml:"catalog"`
}

// Load reads the optional config file then environment variables, which take precedence.
func Load() (Config, error) {
	var file fileConfig
	if path := envconfig.Get("FINDFILMS_CONFIG", ""); path != "" {
		loaded, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		file = loaded
	}

	cfg := Config{
		Port:           envconfig.Get("PORT", "8080"),
		GCPProjectID:   envconfig.Get("GCP_PROJECT_ID", file.Firebase.ProjectID),
		DataStore:      DataStore(strings.ToLower(envconfig.Get("DATASTORE", string(DataStoreMemory)))),
		RemoteTimeout:  envconfig.Duration("REMOTE_TIMEOUT", 10*time.Second),
		SessionIdleTTL: envconfig.Duration("SESSION_IDLE_TTL", 30*time.Minute),
		AllowedOrigins: splitList(envconfig.Get("CORS_ALLOWED_ORIGINS", "")),
		Auth: AuthConfig{
			Mode:    sharedauth.Mode(strings.ToLower(envconfig.Get("AUTH_MODE", string(sharedauth.ModeNoop)))),
			JWKSURL: envconfig.Get("AUTH_JWKS_URL", sharedauth.DefaultJWKSURL),
		},
		Firebase: FirebaseConfig{
			APIKey:          envconfig.Get("FIREBASE_API_KEY", file.Firebase.APIKey),
			CredentialsFile: envconfig.Get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		},
		Firestore: FirestoreConfig{
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Catalog: CatalogConfig{
			APIKey:    envconfig.Get("TMDB_API_KEY", file.Catalog.APIKey),
			BaseURL:   envconfig.Get("TMDB_BASE_URL", ""),
			Language:  envconfig.Get("TMDB_LANGUAGE", "en-US"),
			RateLimit: envconfig.Float("TMDB_RATE_LIMIT", 20),
		},
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	var file fileConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("read config file: %w", err)
	}
	if _, err := toml.Decode(string(raw), &file); err != nil {
		return fileConfig{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

func validate(cfg Config) error {
	if err := envconfig.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.DataStore {
	case DataStoreMemory:
		// no-op
	case DataStoreFirestore:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("gcp project id required when datastore=firestore")
		}
		if cfg.Firebase.APIKey == "" {
			return fmt.Errorf("FIREBASE_API_KEY is required when datastore=firestore")
		}
	}

	switch cfg.Auth.Mode {
	case sharedauth.ModeFirebase, sharedauth.ModeJWKS:
		if cfg.GCPProjectID == "" {
			return fmt.Errorf("GCP_PROJECT_ID is required when AUTH_MODE=%s", cfg.Auth.Mode)
		}
	case sharedauth.ModeNoop:
		// no-op
	default:
		return fmt.Errorf("unsupported auth mode: %s", cfg.Auth.Mode)
	}

	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
