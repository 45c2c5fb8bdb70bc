package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"google.golang.org/api/option"

	"github.com/JCUYLLE2/FindFilms/internal/config"
	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/httpapi"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/metrics"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
	"github.com/JCUYLLE2/FindFilms/internal/profile"
	"github.com/JCUYLLE2/FindFilms/internal/session"
	sharedauth "github.com/JCUYLLE2/FindFilms/internal/shared/auth"
	"github.com/JCUYLLE2/FindFilms/internal/shared/logging"
	sharedserver "github.com/JCUYLLE2/FindFilms/internal/shared/server"
)

const serviceName = "findfilms"

type stores struct {
	favorites favorites.Repository
	profiles  profile.Repository
	identity  identity.Provider
}

func main() {
	logger := logging.NewLogger(serviceName)
	if err := run(logger); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	st, cleanup, err := newStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("datastore init error: %w", err)
	}
	defer cleanup()

	verifier, err := sharedauth.NewVerifier(ctx, sharedauth.Config{
		Mode:            cfg.Auth.Mode,
		ProjectID:       cfg.GCPProjectID,
		JWKSURL:         cfg.Auth.JWKSURL,
		CredentialsFile: cfg.Firebase.CredentialsFile,
	})
	if err != nil {
		return fmt.Errorf("auth verifier error: %w", err)
	}

	catalog := movie.NewClient(movie.Config{
		BaseURL:   cfg.Catalog.BaseURL,
		APIKey:    cfg.Catalog.APIKey,
		Language:  cfg.Catalog.Language,
		Timeout:   cfg.RemoteTimeout,
		RateLimit: cfg.Catalog.RateLimit,
	}, nil, recorder, logger)

	registry := session.NewRegistry(st.favorites, logger,
		session.WithRemoteTimeout(cfg.RemoteTimeout),
		session.WithMetrics(recorder),
	)
	defer registry.CloseAll()
	go registry.RunSweeper(ctx, time.Minute, cfg.SessionIdleTTL)

	router := sharedserver.NewRouter(serviceName, sharedserver.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        metrics.Handler(reg),
	}, func(r chi.Router) {
		httpapi.RegisterRoutes(r, httpapi.Deps{
			Catalog:   catalog,
			Identity:  st.identity,
			Profiles:  profile.NewService(st.profiles, logger, cfg.RemoteTimeout),
			Favorites: st.favorites,
			Sessions:  registry,
			Verifier:  verifier,
			Logger:    logger,
		})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if err := sharedserver.Run(ctx, srv, logger); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newStores(ctx context.Context, cfg config.Config) (stores, func(), error) {
	switch cfg.DataStore {
	case config.DataStoreFirestore:
		if cfg.Firestore.EmulatorHost != "" {
			if err := os.Setenv("FIRESTORE_EMULATOR_HOST", cfg.Firestore.EmulatorHost); err != nil {
				return stores{}, nil, fmt.Errorf("set FIRESTORE_EMULATOR_HOST: %w", err)
			}
		}

		var opts []option.ClientOption
		if cfg.Firebase.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
		}
		client, err := firestore.NewClient(ctx, cfg.GCPProjectID, opts...)
		if err != nil {
			return stores{}, nil, fmt.Errorf("firestore client: %w", err)
		}

		st := stores{
			favorites: favorites.NewFirestoreRepository(client),
			profiles:  profile.NewFirestoreRepository(client),
			identity:  identity.NewFirebaseProvider(cfg.Firebase.APIKey, "", cfg.RemoteTimeout),
		}
		cleanup := func() {
			_ = client.Close()
		}
		return st, cleanup, nil
	default:
		st := stores{
			favorites: favorites.NewMemoryRepository(),
			profiles:  profile.NewMemoryRepository(),
			identity:  identity.NewMemoryProvider(),
		}
		return st, func() {}, nil
	}
}
