package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ivrstand/itemindex/application/service"
	"github.com/ivrstand/itemindex/infrastructure/api/middleware"
)

// Router wires the item search endpoints. The paths and body shapes are
// wire-compatible with the original kiosk clients.
type Router struct {
	retrieval *service.Retrieval
	syncer    *service.Syncer
	logger    *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(retrieval *service.Retrieval, syncer *service.Syncer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		retrieval: retrieval,
		syncer:    syncer,
		logger:    logger,
	}
}

// Mount registers all routes on the given router.
func (rt *Router) Mount(router chi.Router) {
	router.Post("/get_emb", rt.GetEmbedding)
	router.Post("/add_title", rt.AddTitle)
	router.Post("/delete_title", rt.DeleteTitle)
	router.Post("/sync_database", rt.SyncDatabase)
	router.Get("/healthz", rt.Health)
}

type retrieveRequest struct {
	Request string `json:"request"`
}

// GetEmbedding handles POST /get_emb: embeds the query and returns the
// ranked record ids.
func (rt *Router) GetEmbedding(w http.ResponseWriter, r *http.Request) {
	var body retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), rt.logger)
		return
	}

	ids, err := rt.retrieval.Retrieve(r.Context(), body.Request)
	if err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}
	if ids == nil {
		ids = []int64{}
	}

	middleware.WriteJSON(w, http.StatusOK, ids)
}

type addTitleRequest struct {
	Text string `json:"text"`
	ID   int64  `json:"id"`
}

// AddTitle handles POST /add_title: embeds one text and upserts one point.
func (rt *Router) AddTitle(w http.ResponseWriter, r *http.Request) {
	var body addTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), rt.logger)
		return
	}

	if err := rt.retrieval.Add(r.Context(), body.Text, body.ID); err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, middleware.MessageResponse{Message: "Document added successfully"})
}

type deleteTitleRequest struct {
	Text string `json:"text"`
}

// DeleteTitle handles POST /delete_title: removes every point whose payload
// text equals the given text.
func (rt *Router) DeleteTitle(w http.ResponseWriter, r *http.Request) {
	var body deleteTitleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		middleware.WriteError(w, r, fmt.Errorf("%w: %v", service.ErrInvalidInput, err), rt.logger)
		return
	}

	if err := rt.retrieval.DeleteByText(r.Context(), body.Text); err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, middleware.MessageResponse{Message: "Document deleted successfully"})
}

// SyncDatabase handles POST /sync_database: runs one full resync, refusing
// with 429 when another resync is in flight.
func (rt *Router) SyncDatabase(w http.ResponseWriter, r *http.Request) {
	if _, err := rt.syncer.FullResync(r.Context()); err != nil {
		middleware.WriteError(w, r, err, rt.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, middleware.MessageResponse{Message: "Data synced successfully"})
}

// Health handles GET /healthz.
func (rt *Router) Health(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
