package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/auctionroom/go/internal/auction"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/models"
	"github.com/mcdev12/auctionroom/go/internal/report"
	"github.com/mcdev12/auctionroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

// Archiver stores a finished room's report somewhere durable.
type Archiver interface {
	Archive(ctx context.Context, rep report.Report) (string, error)
}

// SetupRequest is the body of POST /api/room/setup. Templates and Lines are
// combined, templates first.
type SetupRequest struct {
	Mode         models.RoomMode           `json:"mode"`
	InitialCoins int                       `json:"initialCoins"`
	Templates    []models.SentenceTemplate `json:"templates"`
	Lines        string                    `json:"lines"`
}

// StateHandler serves the host's admin API: room state, lifecycle actions
// and the report export.
type StateHandler struct {
	host     *room.Host
	archiver Archiver
	clock    clockwork.Clock
}

// NewStateHandler creates a new state handler. archiver may be nil.
func NewStateHandler(host *room.Host, archiver Archiver, clock clockwork.Clock) *StateHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &StateHandler{
		host:     host,
		archiver: archiver,
		clock:    clock,
	}
}

// HandleGetState handles GET /api/room/state
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := h.host.Snapshot(r.Context())
	if err != nil {
		writeError(w, "get state", err)
		return
	}
	writeJSON(w, snapshot)
}

// HandleSetup handles POST /api/room/setup. A text/csv body is read as a
// catalog with mode and initialCoins taken from the query string.
func (h *StateHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SetupRequest
	var templates []models.SentenceTemplate
	if strings.HasPrefix(r.Header.Get("Content-Type"), "text/csv") {
		req.Mode = models.RoomMode(r.URL.Query().Get("mode"))
		if raw := r.URL.Query().Get("initialCoins"); raw != "" {
			coins, err := strconv.Atoi(raw)
			if err != nil {
				http.Error(w, "invalid initialCoins", http.StatusBadRequest)
				return
			}
			req.InitialCoins = coins
		}
		if req.Mode == "" {
			req.Mode = models.RoomModeConceptMatch
		}
		parsed, err := catalog.ReadCSV(r.Body, req.Mode)
		if err != nil {
			http.Error(w, "invalid catalog csv", http.StatusBadRequest)
			return
		}
		templates = parsed
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Mode == "" {
			req.Mode = models.RoomModeConceptMatch
		}
		templates = append(catalog.Normalize(req.Templates, req.Mode), catalog.ParseLines(req.Lines, req.Mode)...)
	}

	if err := h.host.FinalizeSetup(r.Context(), templates, req.Mode, req.InitialCoins); err != nil {
		writeError(w, "finalize setup", err)
		return
	}
	h.respondWithState(w, r)
}

// HandleStart handles POST /api/room/start
func (h *StateHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "start game", h.host.StartGame)
}

// HandleCloseAuction handles POST /api/room/close
func (h *StateHandler) HandleCloseAuction(w http.ResponseWriter, r *http.Request) {
	h.action(w, r, "close auction", h.host.CloseAuction)
}

// HandleFinish handles POST /api/room/finish. The report is archived when an
// archiver is configured; archive failures are logged and do not undo the
// finish.
func (h *StateHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := h.host.Finish(r.Context()); err != nil {
		writeError(w, "finish", err)
		return
	}
	snapshot, err := h.host.Snapshot(r.Context())
	if err != nil {
		writeError(w, "get state", err)
		return
	}
	if h.archiver != nil {
		if _, err := h.archiver.Archive(r.Context(), report.Build(snapshot, h.clock.Now())); err != nil {
			log.Error().Err(err).Str("room_code", snapshot.Code).Msg("failed to archive report")
		}
	}
	writeJSON(w, snapshot)
}

// HandleReport handles GET /api/room/report.csv
func (h *StateHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snapshot, err := h.host.Snapshot(r.Context())
	if err != nil {
		writeError(w, "get state", err)
		return
	}
	rep := report.Build(snapshot, h.clock.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(snapshot.Code)+`"`)
	if rep.Provisional {
		w.Header().Set("X-Report-Provisional", "true")
	}
	if err := report.WriteCSV(w, rep); err != nil {
		log.Error().Err(err).Msg("failed to write report")
	}
}

// RegisterStateRoutes registers state-related HTTP routes
func (h *StateHandler) RegisterStateRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/room/state", h.HandleGetState)
	mux.HandleFunc("/api/room/setup", h.HandleSetup)
	mux.HandleFunc("/api/room/start", h.HandleStart)
	mux.HandleFunc("/api/room/close", h.HandleCloseAuction)
	mux.HandleFunc("/api/room/finish", h.HandleFinish)
	mux.HandleFunc("/api/room/report.csv", h.HandleReport)
}

func (h *StateHandler) action(w http.ResponseWriter, r *http.Request, name string, fn func(context.Context) error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := fn(r.Context()); err != nil {
		writeError(w, name, err)
		return
	}
	h.respondWithState(w, r)
}

func (h *StateHandler) respondWithState(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.host.Snapshot(r.Context())
	if err != nil {
		writeError(w, "get state", err)
		return
	}
	writeJSON(w, snapshot)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps host errors to HTTP status codes.
func writeError(w http.ResponseWriter, action string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auction.ErrInvalidTransition),
		errors.Is(err, auction.ErrNoStudents):
		status = http.StatusConflict
	case errors.Is(err, auction.ErrNoTemplates),
		errors.Is(err, auction.ErrInvalidMode),
		errors.Is(err, auction.ErrInvalidCoins):
		status = http.StatusBadRequest
	case errors.Is(err, room.ErrHostStopped):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("action", action).Msg("admin request failed")
	}
	http.Error(w, err.Error(), status)
}
