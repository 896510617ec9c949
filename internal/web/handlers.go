package web

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/catalog"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/engine"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/generators"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/storage"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // the play page may be served from anywhere
	},
}

// ControllerFactory creates the controller of a new play connection
type ControllerFactory func() *engine.Controller

// EndingStatsSource serves the aggregate ending counters
type EndingStatsSource interface {
	EndingStats(ctx context.Context) (map[models.PersonalityType]storage.EndingStats, error)
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP handlers. Stats, Queue and Cache may be nil.
type Deps struct {
	Catalog       *catalog.Catalog
	NewController ControllerFactory
	Hub           *PlayHub
	Stats         EndingStatsSource
	Queue         *generators.ImageQueue
	Cache         *generators.ImageCache
	Logger        *zap.Logger
}

type Handlers struct {
	deps   Deps
	logger *zap.Logger

	// base is cancelled on shutdown and parents every play loop
	base context.Context

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewHandlers(base context.Context, deps Deps) *Handlers {
	return &Handlers{
		deps:   deps,
		logger: deps.Logger.Named("http"),
		base:   base,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":            "ok",
		"service":           "mbti-matchplay",
		"play_connections":  h.deps.Hub.GetClientCount(),
		"total_connections": h.deps.Hub.TotalConnections(),
		"questions":         h.deps.Catalog.QuestionCount(),
	}

	redisStatus := "disabled"
	if h.deps.Stats != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		redisStatus = "ok"
		if err := h.deps.Stats.Ping(ctx); err != nil {
			redisStatus = "unavailable"
		}
	}
	resp["redis"] = redisStatus

	writeJSON(w, http.StatusOK, resp)
}

// TypeSummary is one entry of the personality type list
type TypeSummary struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ListTypes returns the 16 codes in selection order
func (h *Handlers) ListTypes(w http.ResponseWriter, r *http.Request) {
	types := make([]TypeSummary, 0, len(models.AllPersonalityTypes))
	for _, p := range models.AllPersonalityTypes {
		types = append(types, TypeSummary{Code: p.String(), Name: h.deps.Catalog.Trait(p).Name})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"types": types})
}

// GetType returns the trait profile preview of one code
func (h *Handlers) GetType(w http.ResponseWriter, r *http.Request) {
	p, err := models.ParsePersonalityType(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":    p.String(),
		"profile": h.deps.Catalog.Trait(p),
	})
}

// RandomType picks a code for the setup form
func (h *Handlers) RandomType(w http.ResponseWriter, r *http.Request) {
	h.rngMu.Lock()
	p := models.AllPersonalityTypes[h.rng.Intn(len(models.AllPersonalityTypes))]
	h.rngMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"code": p.String()})
}

// AppearanceOptions returns the setup form enumerations
func (h *Handlers) AppearanceOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.GetAppearanceOptions())
}

// EndingStats returns the aggregate success/failure counts per type
func (h *Handlers) EndingStats(w http.ResponseWriter, r *http.Request) {
	if h.deps.Stats == nil {
		writeError(w, http.StatusServiceUnavailable, "ending statistics are disabled")
		return
	}

	stats, err := h.deps.Stats.EndingStats(r.Context())
	if err != nil {
		h.logger.Error("failed to read ending stats", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "ending statistics unavailable")
		return
	}

	byCode := make(map[string]storage.EndingStats, len(stats))
	for p, s := range stats {
		byCode[p.String()] = s
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"endings": byCode})
}

// RendererStats reports the portrait render queue and cache counters
func (h *Handlers) RendererStats(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	if h.deps.Queue != nil {
		resp["queue"] = h.deps.Queue.GetStats()
	}
	if h.deps.Cache != nil {
		resp["cache"] = h.deps.Cache.GetStats()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Play upgrades to a WebSocket and runs one game on it until the socket closes
func (h *Handlers) Play(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(uuid.NewString(), conn, h.deps.Hub)

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()

	logger := h.deps.Logger.With(zap.String("client_id", client.ID))
	session := &playSession{
		ctx:        ctx,
		controller: h.deps.NewController(),
		logger:     logger,
	}

	h.deps.Hub.Register(client)
	client.Send <- session.encode(ServerFrame{Type: "view", View: session.controller.View()})

	client.readPump(session.handle)
}
