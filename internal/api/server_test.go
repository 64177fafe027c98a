package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roach88/attune/internal/domain"
	"github.com/roach88/attune/internal/engine"
	"github.com/roach88/attune/internal/store"
	"github.com/roach88/attune/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "attune.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewFixedClock(testNow)
	eng := engine.New(st,
		engine.WithClock(clock),
		engine.WithIDGenerator(testutil.NewSequenceGenerator("out")))
	t.Cleanup(func() { eng.Close() })

	s, err := NewServer(eng, zap.NewNop(), &Config{Addr: "127.0.0.1:0", Clock: clock})
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func withProfile(t *testing.T, s *Server) {
	t.Helper()
	rec := do(t, s, http.MethodPut, "/v1/profiles/p1", map[string]any{
		"name":       "Ada",
		"birth_date": "1990-06-15",
		"birth_place": map[string]any{
			"name": "New York", "latitude": 40.7128, "longitude": -74.006,
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestNewServer(t *testing.T) {
	t.Run("returns error when engine is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "engine cannot be nil")
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		st, err := store.Open(filepath.Join(t.TempDir(), "attune.db"))
		require.NoError(t, err)
		defer st.Close()
		_, err = NewServer(engine.New(st), nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		st, err := store.Open(filepath.Join(t.TempDir(), "attune.db"))
		require.NoError(t, err)
		defer st.Close()
		s, err := NewServer(engine.New(st), zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, ":8080", s.config.Addr)
		assert.Equal(t, 10*time.Second, s.config.ShutdownTimeout)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)

	rec = do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `attune_http_requests_total{method="GET",route="/healthz",status="200"}`)
}

func TestModels(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v1/models", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string][]string](t, rec)
	assert.Equal(t, "personal_day", body["models"][0])
	assert.Len(t, body["models"], 8)
}

func TestProfiles(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodGet, "/v1/profiles/p1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[domain.BirthProfile](t, rec)
	assert.Equal(t, "Ada", p.Name)
	require.NotNil(t, p.BirthPlace)
	assert.Equal(t, "New York", p.BirthPlace.Name)

	rec = do(t, s, http.MethodGet, "/v1/profiles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.BirthProfile](t, rec)["profiles"], 1)

	rec = do(t, s, http.MethodGet, "/v1/profiles/nobody", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestSaveProfile_Invalid(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPut, "/v1/profiles/p1", `{"name":"Ada","birth_date":"15/06/1990"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPut, "/v1/profiles/p1", map[string]any{"name": "Ada", "birth_date": "1850-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "VALIDATION", env.Error.Code)
	assert.Equal(t, "birth_date", env.Error.Field)
}

func TestReading(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodGet, "/v1/profiles/p1/readings/2024-06-21?condition=sunny&temperature_c=22&scheduled_events=2", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	r := decode[domain.DailyEnergyReading](t, rec)
	assert.Equal(t, "2024-06-21", r.Date.String())
	assert.False(t, r.Incomplete, "every model can run with location and environment")
	assert.Len(t, r.Models, 8)
	assert.Empty(t, r.Skipped)

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/readings/2024-06-21", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	r = decode[domain.DailyEnergyReading](t, rec)
	assert.Equal(t, []domain.ModelID{"environment"}, r.Skipped)
}

func TestReading_BadRequests(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	tests := []struct {
		name  string
		path  string
		field string
	}{
		{"bad date", "/v1/profiles/p1/readings/2024-13-01", "date"},
		{"unsupported date", "/v1/profiles/p1/readings/1899-12-31", "date"},
		{"condition without temperature", "/v1/profiles/p1/readings/2024-03-01?condition=rain", "condition"},
		{"non-numeric temperature", "/v1/profiles/p1/readings/2024-03-01?condition=rain&temperature_c=warm", "temperature_c"},
		{"negative events", "/v1/profiles/p1/readings/2024-03-01?scheduled_events=-1", "scheduled_events"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.path, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[ErrorEnvelope](t, rec).Error.Field)
		})
	}

	rec := do(t, s, http.MethodGet, "/v1/profiles/nobody/readings/2024-03-01", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrend(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodGet, "/v1/profiles/p1/trend", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decode[map[string]any](t, rec)
	assert.EqualValues(t, 7, summary["window"])
	assert.EqualValues(t, 7, summary["days"])

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/trend?window=30&as_of=2024-02-29", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 30, decode[map[string]any](t, rec)["days"])

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/trend?window=14", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "window", decode[ErrorEnvelope](t, rec).Error.Field)

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/trend?window=week", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForecast(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodGet, "/v1/profiles/p1/forecast?from=2024-03-11&days=3", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	f := decode[engine.Forecast](t, rec)
	assert.Equal(t, 3, f.Days)
	require.Len(t, f.Readings, 3)
	assert.Equal(t, "2024-03-13", f.Readings[2].Date.String())

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/forecast", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f = decode[engine.Forecast](t, rec)
	assert.Equal(t, engine.DefaultForecastDays, f.Days)
	assert.Equal(t, "2024-03-10", f.From.String(), "from defaults to today")

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/forecast?days=90", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOutcomes(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodPost, "/v1/profiles/p1/outcomes", map[string]any{
		"date":                       "2024-03-01",
		"activity_type":              "deep_work",
		"composite_score_at_logging": 74,
		"result":                     "success",
		"followed_advice":            true,
		"signals":                    map[string]float64{"sleep_hours": 8},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	out := decode[domain.OutcomeRecord](t, rec)
	assert.Equal(t, "out-1", out.ID)
	assert.Equal(t, "p1", out.ProfileID)

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/outcomes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]domain.OutcomeRecord](t, rec)["outcomes"], 1)

	rec = do(t, s, http.MethodDelete, "/v1/profiles/p1/outcomes/out-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/v1/profiles/p1/outcomes/out-1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOutcomes_Invalid(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodPost, "/v1/profiles/p1/outcomes", map[string]any{
		"date":                       "2024-03-01",
		"activity_type":              "deep_work",
		"composite_score_at_logging": 140,
		"result":                     "success",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "composite_score_at_logging", decode[ErrorEnvelope](t, rec).Error.Field)

	rec = do(t, s, http.MethodPost, "/v1/profiles/p1/outcomes", `{"date":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPersonalization(t *testing.T) {
	s := newTestServer(t)
	withProfile(t, s)

	rec := do(t, s, http.MethodGet, "/v1/profiles/p1/personalization", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[PersonalizationResponse](t, rec).Insufficient)

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/personalization?strict=true", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(engine.KindInsufficientData), decode[ErrorEnvelope](t, rec).Error.Code)

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/personalization?strict=maybe", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "strict", decode[ErrorEnvelope](t, rec).Error.Field)

	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-03"} {
		rec = do(t, s, http.MethodPost, "/v1/profiles/p1/outcomes", map[string]any{
			"date": d, "activity_type": "run", "composite_score_at_logging": 75, "result": "success",
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodPost, "/v1/profiles/p1/personalization/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[PersonalizationResponse](t, rec)
	assert.True(t, resp.Refreshed)
	assert.False(t, resp.Insufficient)
	assert.Equal(t, 3, resp.TotalOutcomesConsidered)

	rec = do(t, s, http.MethodPost, "/v1/profiles/p1/personalization/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[PersonalizationResponse](t, rec).Refreshed, "fresh within the interval")

	rec = do(t, s, http.MethodPost, "/v1/profiles/p1/personalization/recompute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[PersonalizationResponse](t, rec).Refreshed)

	rec = do(t, s, http.MethodGet, "/v1/profiles/p1/personalization?strict=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, decode[PersonalizationResponse](t, rec).TotalOutcomesConsidered)
}

func TestUnmatchedRoute(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/v2/nothing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(engine.KindValidation))
	assert.Equal(t, http.StatusNotFound, statusFor(engine.KindNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(engine.KindInsufficientData))
	assert.Equal(t, http.StatusInternalServerError, statusFor(engine.KindInternal))
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	s := newTestServer(t)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	s.respondError(c, errors.New("sqlite: database is locked"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "internal error", env.Error.Message)
	assert.Equal(t, "INTERNAL", env.Error.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "sqlite"))
}
