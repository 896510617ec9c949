package web

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/catalog"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/engine"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/storage"
)

type stubDialogue struct{ line string }

func (s stubDialogue) GenerateDialogue(ctx context.Context, req *interfaces.DialogueRequest) (string, error) {
	return s.line, nil
}

type stubPortraits struct{ err error }

func (s stubPortraits) GeneratePortraitSet(ctx context.Context, req *interfaces.PortraitRequest) (interfaces.PortraitSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return interfaces.PortraitSet{
		models.ExpressionNeutral:  []byte("neutral"),
		models.ExpressionPout:     []byte("pout"),
		models.ExpressionSmile:    []byte("neutral"),
		models.ExpressionBigSmile: []byte("big_smile"),
	}, nil
}

type stubStats struct {
	stats map[models.PersonalityType]storage.EndingStats
	err   error
}

func (s stubStats) EndingStats(ctx context.Context) (map[models.PersonalityType]storage.EndingStats, error) {
	return s.stats, s.err
}

func (s stubStats) Ping(ctx context.Context) error { return s.err }

type testServer struct {
	*httptest.Server
	hub *PlayHub
}

func newTestServer(t *testing.T, portraits interfaces.PortraitGenerator, stats EndingStatsSource) *testServer {
	t.Helper()
	cat, err := catalog.LoadDefault()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewPlayHub(zap.NewNop())
	go hub.Run(ctx)

	deps := Deps{
		Catalog: cat,
		NewController: func() *engine.Controller {
			return engine.NewController(cat, stubDialogue{line: "좋아, 나도 그래!"}, portraits, rand.New(rand.NewSource(1)))
		},
		Hub:    hub,
		Logger: zap.NewNop(),
	}
	if stats != nil {
		deps.Stats = stats
	}

	srv := httptest.NewServer(NewRouter(NewHandlers(ctx, deps)))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{Server: srv, hub: hub}
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, stubPortraits{}, nil)

	var body map[string]interface{}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["redis"])
}

func TestListTypes(t *testing.T) {
	srv := newTestServer(t, stubPortraits{}, nil)

	var body struct {
		Types []TypeSummary `json:"types"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/catalog/types", &body))
	require.Len(t, body.Types, 16)
	assert.Equal(t, "INTJ", body.Types[0].Code)
	assert.NotEmpty(t, body.Types[0].Name)
}

func TestGetType(t *testing.T) {
	srv := newTestServer(t, stubPortraits{}, nil)

	var body struct {
		Code    string              `json:"code"`
		Profile models.TraitProfile `json:"profile"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/catalog/types/infp", &body))
	assert.Equal(t, "INFP", body.Code)
	assert.NotEmpty(t, body.Profile.SpeechStyle)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/v1/catalog/types/ABCD", nil))
}

func TestRandomType(t *testing.T) {
	srv := newTestServer(t, stubPortraits{}, nil)

	var body map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/catalog/types/random", &body))
	assert.True(t, models.PersonalityType(body["code"]).Valid())
}

func TestAppearanceOptions(t *testing.T) {
	srv := newTestServer(t, stubPortraits{}, nil)

	var body models.AppearanceOptions
	assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/catalog/appearance", &body))
	assert.Equal(t, models.GenderOptions, body.Gender)
}

func TestEndingStats(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, stubPortraits{}, nil)
		assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/api/v1/stats/endings", nil))
	})

	t.Run("enabled", func(t *testing.T) {
		srv := newTestServer(t, stubPortraits{}, stubStats{stats: map[models.PersonalityType]storage.EndingStats{
			"INFP": {Success: 3, Failure: 1},
		}})

		var body struct {
			Endings map[string]storage.EndingStats `json:"endings"`
		}
		assert.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/stats/endings", &body))
		assert.Equal(t, storage.EndingStats{Success: 3, Failure: 1}, body.Endings["INFP"])
	})

	t.Run("store down", func(t *testing.T) {
		srv := newTestServer(t, stubPortraits{}, stubStats{err: errors.New("connection refused")})
		assert.Equal(t, http.StatusServiceUnavailable, getJSON(t, srv.URL+"/api/v1/stats/endings", nil))

		var health map[string]interface{}
		getJSON(t, srv.URL+"/health", &health)
		assert.Equal(t, "unavailable", health["redis"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, stubPortraits{}, nil)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
