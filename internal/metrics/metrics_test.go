package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCollector_ExposesRecordedValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCatalogRequest("popular", OutcomeOK, 20*time.Millisecond)
	c.RecordFavoritesReload(OutcomeDiscarded)
	c.RecordFavoriteToggle(OutcomeFailed)
	c.RecordSessionTransition("signed_in")
	c.SetActiveSessions(3)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		`findfilms_catalog_requests_total{endpoint="popular",outcome="ok"} 1`,
		`findfilms_favorites_reloads_total{outcome="discarded"} 1`,
		`findfilms_favorite_toggles_total{outcome="failed"} 1`,
		`findfilms_session_transitions_total{state="signed_in"} 1`,
		`findfilms_active_sessions 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected scrape output to contain %q\n%s", want, body)
		}
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordCatalogRequest("search", OutcomeError, time.Second)
	r.SetActiveSessions(0)
}
