package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/JCUYLLE2/FindFilms/internal/config"
)

func TestRun_ReturnsConfigErrorInsteadOfExiting(t *testing.T) {
	t.Setenv("FINDFILMS_CONFIG", "")
	t.Setenv("TMDB_API_KEY", "")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := run(logger); err == nil {
		t.Fatalf("expected config error when the catalog key is missing")
	}
}

func TestNewStores_MemoryHasCleanup(t *testing.T) {
	st, cleanup, err := newStores(context.Background(), config.Config{DataStore: config.DataStoreMemory})
	if err != nil {
		t.Fatalf("newStores returned error: %v", err)
	}
	if st.favorites == nil || st.profiles == nil || st.identity == nil {
		t.Fatalf("expected all memory stores, got %+v", st)
	}
	if cleanup == nil {
		t.Fatalf("expected a cleanup func")
	}
	cleanup()
}
