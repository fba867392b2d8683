package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sergiomvj/faceblog-provisioner/internal/api/request"
	"github.com/sergiomvj/faceblog-provisioner/internal/api/response"
	"github.com/sergiomvj/faceblog-provisioner/internal/model"
	"github.com/sergiomvj/faceblog-provisioner/internal/pipeline"
)

// JobStarter launches a provisioning pipeline for a request.
// *pipeline.Orchestrator implements it.
type JobStarter interface {
	StartJob(ctx context.Context, req pipeline.Request) (*model.ProvisioningJob, error)
}

// SubdomainChecker answers the synchronous availability check done before a
// job is created. *core.TenantService implements it.
type SubdomainChecker interface {
	SubdomainAvailable(ctx context.Context, subdomain string) (bool, error)
}

// Provision accepts provisioning requests and hands them to the orchestrator.
type Provision struct {
	orc             JobStarter
	tenants         SubdomainChecker
	defaultTemplate string
}

func NewProvision(orc JobStarter, tenants SubdomainChecker, defaultTemplate string) *Provision {
	return &Provision{orc: orc, tenants: tenants, defaultTemplate: defaultTemplate}
}

// Create godoc
//
//	@Summary		Provision a new blog
//	@Description	Validates the request, registers a provisioning job, and returns immediately. Poll the job endpoint for progress.
//	@Tags			Provisioning
//	@Security		ApiKeyAuth
//	@Param			body body request.Provision true "Provisioning request"
//	@Success		202 {object} handler.ProvisionAccepted
//	@Failure		400 {object} response.ErrorResponse
//	@Failure		409 {object} response.ErrorResponse
//	@Failure		500 {object} response.ErrorResponse
//	@Router			/provision [post]
func (h *Provision) Create(w http.ResponseWriter, r *http.Request) {
	var req request.Provision
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if request.ReservedSubdomain(req.Subdomain) {
		response.WriteError(w, http.StatusBadRequest, fmt.Sprintf("subdomain %q is reserved", req.Subdomain))
		return
	}

	available, err := h.tenants.SubdomainAvailable(r.Context(), req.Subdomain)
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !available {
		response.WriteError(w, http.StatusConflict, fmt.Sprintf("subdomain %q is already taken", req.Subdomain))
		return
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = h.defaultTemplate
	}

	job, err := h.orc.StartJob(r.Context(), pipeline.Request{
		BlogName:     req.BlogName,
		Subdomain:    req.Subdomain,
		CustomDomain: req.CustomDomain,
		OwnerEmail:   req.OwnerEmail,
		OwnerName:    req.OwnerName,
		Theme:        req.Theme,
		PrimaryColor: req.PrimaryColor,
		Niche:        req.Niche,
		Description:  req.Description,
		TemplateID:   templateID,
		CallbackURL:  req.CallbackURL,
	})
	if err != nil {
		response.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response.WriteJSON(w, http.StatusAccepted, ProvisionAccepted{
		JobID:         job.ID,
		Status:        job.State,
		EstimatedTime: job.EstimatedSeconds,
	})
}

// ProvisionAccepted is the 202 body returned for an accepted request.
type ProvisionAccepted struct {
	JobID         string `json:"job_id"`
	Status        string `json:"status"`
	EstimatedTime int    `json:"estimated_time"`
}
