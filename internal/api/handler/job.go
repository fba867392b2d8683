package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	mw "github.com/sergiomvj/faceblog-provisioner/internal/api/middleware"
	"github.com/sergiomvj/faceblog-provisioner/internal/api/request"
	"github.com/sergiomvj/faceblog-provisioner/internal/api/response"
	"github.com/sergiomvj/faceblog-provisioner/internal/jobstore"
	"github.com/sergiomvj/faceblog-provisioner/internal/pipeline"
)

// watchInterval is how often the watch endpoint polls the store between
// pushed snapshots.
const watchInterval = time.Second

// JobCanceler aborts a running provisioning job.
// *pipeline.Orchestrator implements it.
type JobCanceler interface {
	Cancel(ctx context.Context, id string) error
}

// Job exposes provisioning job status, cancellation, and the watch stream.
type Job struct {
	store jobstore.Store
	orc   JobCanceler
	db    *pgxpool.Pool
}

func NewJob(store jobstore.Store, orc JobCanceler, db *pgxpool.Pool) *Job {
	return &Job{store: store, orc: orc, db: db}
}

// Get godoc
//
//	@Summary		Get a provisioning job
//	@Tags			Jobs
//	@Security		ApiKeyAuth
//	@Param			id path string true "Job ID"
//	@Success		200 {object} model.ProvisioningJob
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/jobs/{id} [get]
func (h *Job) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			response.WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusOK, job)
}

// List godoc
//
//	@Summary		List provisioning jobs
//	@Tags			Jobs
//	@Security		ApiKeyAuth
//	@Param			state query string false "Filter by job state"
//	@Param			subdomain query string false "Filter by subdomain"
//	@Param			limit query int false "Page size" default(50)
//	@Param			cursor query string false "Pagination cursor"
//	@Success		200 {object} response.PaginatedResponse{items=[]model.ProvisioningJob}
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/jobs [get]
func (h *Job) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	jobs, hasMore, err := h.store.List(r.Context(), jobstore.ListFilter{
		State:     r.URL.Query().Get("state"),
		Subdomain: r.URL.Query().Get("subdomain"),
		Cursor:    pg.Cursor,
		Limit:     pg.Limit,
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var nextCursor string
	if hasMore && len(jobs) > 0 {
		nextCursor = jobs[len(jobs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, jobs, nextCursor, hasMore)
}

// Cancel godoc
//
//	@Summary		Cancel a provisioning job
//	@Description	Aborts the in-flight step. Side effects of completed steps stay in place.
//	@Tags			Jobs
//	@Security		ApiKeyAuth
//	@Param			id path string true "Job ID"
//	@Success		202 {object} map[string]string
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Router			/jobs/{id}/cancel [post]
func (h *Job) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.orc.Cancel(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, jobstore.ErrNotFound):
			response.WriteError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, pipeline.ErrJobTerminal):
			response.WriteError(w, http.StatusConflict, err.Error())
		default:
			response.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	response.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "canceling"})
}

// Watch godoc
//
//	@Summary		Watch a provisioning job over WebSocket
//	@Description	Pushes job snapshots as JSON text frames until the job is terminal. Auth via ?token= because browsers cannot set headers on WebSocket upgrades.
//	@Tags			Jobs
//	@Param			id path string true "Job ID"
//	@Param			token query string true "API key"
//	@Success		101
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		401 {object} response.ErrorResponse
//	@Failure		404 {object} response.ErrorResponse
//	@Router			/jobs/{id}/watch [get]
func (h *Job) Watch(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		response.WriteError(w, http.StatusUnauthorized, "missing token")
		return
	}
	if err := mw.ValidateKey(r.Context(), h.db, token); err != nil {
		response.WriteError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	if _, err := h.store.Get(r.Context(), id); err != nil {
		response.WriteError(w, http.StatusNotFound, "job not found")
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Origin differs from Host when proxied through a dashboard.
	})
	if err != nil {
		log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.CloseNow()

	// The stream is write-only; CloseRead keeps control frames flowing and
	// cancels the context when the client goes away.
	ctx := ws.CloseRead(r.Context())

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	var lastUpdate time.Time
	for {
		job, err := h.store.Get(ctx, id)
		if err != nil {
			ws.Close(websocket.StatusInternalError, "job lookup failed")
			return
		}

		if job.UpdatedAt.After(lastUpdate) {
			data, err := json.Marshal(job)
			if err != nil {
				ws.Close(websocket.StatusInternalError, "encode job")
				return
			}
			if err := ws.Write(ctx, websocket.MessageText, data); err != nil {
				return
			}
			lastUpdate = job.UpdatedAt
		}

		if job.Terminal() {
			ws.Close(websocket.StatusNormalClosure, "")
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
