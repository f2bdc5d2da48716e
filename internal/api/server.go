// Package api provides the HTTP API for observing the campfire world.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/campfire/internal/agents"
	"github.com/talgya/campfire/internal/engine"
	"github.com/talgya/campfire/internal/social"
)

// Snapshotter saves the full world state on demand.
type Snapshotter interface {
	SaveWorldState(sim *engine.Simulation) error
}

// ConversationArchive serves ended conversations that have aged out of the
// in-memory history.
type ConversationArchive interface {
	RecentConversations(ctx context.Context, limit int) ([]social.Conversation, error)
}

// EventArchive serves saved events that have aged out of the in-memory log.
type EventArchive interface {
	RecentEvents(ctx context.Context, limit int) ([]engine.Event, error)
}

// archiveCeiling caps ?limit= when an archive can serve past the in-memory
// history.
const archiveCeiling = 5000

// Server serves the world state over HTTP.
type Server struct {
	Sim      *engine.Simulation
	Eng      *engine.Engine
	DB       Snapshotter // May be nil when no database is configured
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	// Optional archives; nil serves the in-memory history only.
	Conversations ConversationArchive
	Events        EventArchive

	httpServer *http.Server
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	// List endpoints copy whole histories; keep scrapers polite.
	listLimiter := NewRateLimiter(120, time.Minute)

	mux := http.NewServeMux()

	// Public endpoints (GET, read-only).
	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/dialogues", s.handleDialogues)
	mux.HandleFunc("/api/v1/conversations", RateLimitMiddleware(listLimiter, s.handleConversations))
	mux.HandleFunc("/api/v1/characters", s.handleCharacters)
	mux.HandleFunc("/api/v1/memories", s.handleMemories)
	mux.HandleFunc("/api/v1/acquaintances", s.handleAcquaintances)
	mux.HandleFunc("/api/v1/events", RateLimitMiddleware(listLimiter, s.handleEvents))

	// Admin endpoints (POST, require bearer token).
	mux.HandleFunc("/api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("/api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	return mux
}

// Start begins serving the HTTP API in a goroutine.
func (s *Server) Start() {
	addr := fmt.Sprintf(":%d", s.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "")

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// checkBearerToken returns true if the request has a valid admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler to require bearer token auth on POST requests.
// GET requests pass through (for endpoints that support both GET and POST).
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if s.AdminKey == "" {
				http.Error(w, "admin endpoints disabled (no CAMPFIRE_ADMIN_KEY set)", http.StatusForbidden)
				return
			}

			if !s.checkBearerToken(r) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.Sim.CurrentStats()
	talk := s.Sim.Social.Stats()
	tick := s.Sim.CurrentTick()

	status := map[string]any{
		"name":             "Campfire",
		"tick":             tick,
		"tick_display":     humanize.Comma(int64(tick)),
		"sim_time":         engine.SimTime(s.Sim.Elapsed()),
		"population":       stats.TotalPopulation,
		"alive":            stats.Alive,
		"deaths":           stats.Deaths,
		"conversations":    talk.TotalConversations,
		"active_dialogues": talk.ActiveDialogues,
	}
	if s.Eng != nil {
		status["speed"] = s.Eng.Speed()
		status["running"] = s.Eng.Running()
	}
	writeJSON(w, status)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"world":  s.Sim.CurrentStats(),
		"social": s.Sim.Social.Stats(),
	})
}

func (s *Server) handleDialogues(w http.ResponseWriter, r *http.Request) {
	active := s.Sim.Social.ActiveDialogues()
	if active == nil {
		active = []social.Conversation{}
	}
	writeJSON(w, active)
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	ceiling := social.DefaultParams().HistoryLimit
	if s.Conversations != nil {
		ceiling = archiveCeiling
	}
	limit := queryLimit(r, 20, ceiling)

	// Optional participant filter.
	name := r.URL.Query().Get("character")
	matches := func(c social.Conversation) bool {
		return name == "" || c.Participants[0] == name || c.Participants[1] == name
	}

	recent := s.Sim.Social.RecentConversations(-1)
	seen := make(map[string]bool, len(recent))
	out := make([]social.Conversation, 0, limit)
	for _, c := range recent {
		seen[c.ID] = true
		if len(out) < limit && matches(c) {
			out = append(out, c)
		}
	}

	if len(out) < limit && s.Conversations != nil {
		archived, err := s.Conversations.RecentConversations(r.Context(), min(len(recent)+limit, archiveCeiling))
		if err != nil {
			slog.Warn("conversation archive read failed", "error", err)
		}
		for _, c := range archived {
			if len(out) == limit {
				break
			}
			if seen[c.ID] || !matches(c) {
				continue
			}
			seen[c.ID] = true
			out = append(out, c)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleCharacters(w http.ResponseWriter, r *http.Request) {
	chars := s.Sim.Snapshot()
	if r.URL.Query().Get("alive") == "true" {
		alive := chars[:0]
		for _, c := range chars {
			if c.Alive {
				alive = append(alive, c)
			}
		}
		chars = alive
	}
	writeJSON(w, chars)
}

// findCharacter looks a character up by name in a fresh snapshot.
func (s *Server) findCharacter(name string) (agents.Character, bool) {
	for _, c := range s.Sim.Snapshot() {
		if c.Name == name {
			return c, true
		}
	}
	return agents.Character{}, false
}

// handleMemories serves one character's memory stream, newest first or
// (with ?order=important) most important first.
func (s *Server) handleMemories(w http.ResponseWriter, r *http.Request) {
	c, ok := s.findCharacter(r.URL.Query().Get("character"))
	if !ok {
		http.Error(w, "character not found", http.StatusNotFound)
		return
	}
	limit := queryLimit(r, 10, agents.MaxMemories)

	var memories []agents.Memory
	switch r.URL.Query().Get("order") {
	case "", "recent":
		memories = agents.RecentMemories(&c, limit)
	case "important":
		memories = agents.ImportantMemories(&c, limit)
	default:
		http.Error(w, "order must be recent or important", http.StatusBadRequest)
		return
	}
	if memories == nil {
		memories = []agents.Memory{}
	}
	writeJSON(w, memories)
}

type acquaintance struct {
	Name       string    `json:"name"`
	LastTalked time.Time `json:"last_talked"`
}

// handleAcquaintances lists who a character has talked with, most recent
// conversation first.
func (s *Server) handleAcquaintances(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("character")
	if name == "" {
		http.Error(w, "character is required", http.StatusBadRequest)
		return
	}

	known := s.Sim.Social.Acquaintances(name)
	out := make([]acquaintance, 0, len(known))
	for other, at := range known {
		out = append(out, acquaintance{Name: other, LastTalked: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastTalked.Equal(out[j].LastTalked) {
			return out[i].LastTalked.After(out[j].LastTalked)
		}
		return out[i].Name < out[j].Name
	})
	writeJSON(w, out)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ceiling := 500
	if s.Events != nil {
		ceiling = archiveCeiling
	}
	limit := queryLimit(r, 50, ceiling)
	events := s.Sim.RecentEvents(-1)

	// Optional category filter.
	category := r.URL.Query().Get("category")
	out := make([]engine.Event, 0, limit)
	for _, e := range events {
		if len(out) == limit {
			break
		}
		if category != "" && e.Category != category {
			continue
		}
		out = append(out, e)
	}

	// Saved events overlap the in-memory log; only older ticks are new here.
	if len(out) < limit && s.Events != nil {
		archived, err := s.Events.RecentEvents(r.Context(), min(len(events)+limit, archiveCeiling))
		if err != nil {
			slog.Warn("event archive read failed", "error", err)
		}
		for _, e := range archived {
			if len(out) == limit {
				break
			}
			if len(events) > 0 && e.Tick >= events[len(events)-1].Tick {
				continue
			}
			if category != "" && e.Category != category {
				continue
			}
			out = append(out, e)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "engine not available", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.DB == nil {
		http.Error(w, "database not available", http.StatusServiceUnavailable)
		return
	}

	if err := s.DB.SaveWorldState(s.Sim); err != nil {
		slog.Error("snapshot save failed", "error", err)
		http.Error(w, "snapshot failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"tick":    s.Sim.CurrentTick(),
		"message": "snapshot saved",
	})
}

// queryLimit reads ?limit=, falling back to def when absent or out of
// (0, ceiling].
func queryLimit(r *http.Request, def, ceiling int) int {
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= ceiling {
			return n
		}
	}
	return def
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}
