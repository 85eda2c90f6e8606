package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/dmv-monitor/internal/domain"
	"github.com/example/dmv-monitor/internal/store"
)

type fakeRunner struct {
	result    domain.CheckResult
	locations []domain.Location
	notify    bool
	calls     int
}

func (r *fakeRunner) Run(ctx context.Context, locations []domain.Location, notify bool) domain.CheckResult {
	r.calls++
	r.locations = locations
	r.notify = notify
	return r.result
}

var serverLocations = []domain.Location{
	{Name: "Edison", ID: 52},
	{Name: "Rahway", ID: 60},
}

func newTestServer(runner Runner, st store.Store, cronSecret, apiKey string) *Server {
	if st == nil {
		st = store.NewMemory()
	}
	return NewServer(runner, st, serverLocations, cronSecret, apiKey, zap.NewNop())
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakeRunner{}, nil, "", "")
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCronCheckRequiresConfiguredSecret(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true}}
	s := newTestServer(runner, nil, "", "")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/check", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, runner.calls)
}

func TestCronCheckRejectsWrongSecret(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true}}
	s := newTestServer(runner, nil, "s3cret", "")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/check", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, runner.calls)
}

func TestCronCheckRunsWithNotification(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true, LocationsChecked: 2}}
	s := newTestServer(runner, nil, "s3cret", "")

	req := httptest.NewRequest(http.MethodPost, "/api/cron/check", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, runner.calls)
	assert.True(t, runner.notify)
	assert.Len(t, runner.locations, 2)
}

func TestCronCheckFailedRunIs500(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: false, Error: "check run panicked"}}
	s := newTestServer(runner, nil, "s3cret", "")

	req := httptest.NewRequest(http.MethodGet, "/api/cron/check", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec := doRequest(s, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestManualCheckDoesNotNotify(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true}}
	s := newTestServer(runner, nil, "", "")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/check", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, runner.notify)
	assert.Len(t, runner.locations, 2)

	var result domain.CheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Duration)
}

func TestManualCheckLocationFilter(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true}}
	s := newTestServer(runner, nil, "", "")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/check?location=60", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, runner.locations, 1)
	assert.Equal(t, "Rahway", runner.locations[0].Name)
}

func TestManualCheckRejectsBadLocation(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true}}
	s := newTestServer(runner, nil, "", "")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/check?location=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, httptest.NewRequest(http.MethodGet, "/api/check?location=999", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, runner.calls)
}

func TestManualCheckAPIKey(t *testing.T) {
	runner := &fakeRunner{result: domain.CheckResult{Success: true}}
	s := newTestServer(runner, nil, "", "k3y")

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/check", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/check", nil)
	req.Header.Set("X-Api-Key", "k3y")
	rec = doRequest(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusEmptyIs404(t *testing.T) {
	s := newTestServer(&fakeRunner{}, nil, "", "")
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusReturnsLatestCheck(t *testing.T) {
	st := store.NewMemory()
	latest := domain.CheckResult{
		Success:          true,
		Timestamp:        time.Date(2026, time.June, 16, 9, 0, 0, 0, time.UTC),
		LocationsChecked: 2,
	}
	require.NoError(t, st.Set(context.Background(), "latest-check", latest, time.Hour))

	s := newTestServer(&fakeRunner{}, st, "", "")
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.CheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.LocationsChecked)
	assert.True(t, got.Success)
}

func TestHistoryReturnsEntries(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	for i := 0; i < 3; i++ {
		require.NoError(t, st.PushToList(ctx, "check-history", domain.HistoryEntry{
			AppointmentsFound: i,
			LocationsChecked:  2,
		}))
	}

	s := newTestServer(&fakeRunner{}, st, "", "")
	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []domain.HistoryEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 3)
}
