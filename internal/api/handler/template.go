package handler

import (
	"net/http"

	"github.com/sergiomvj/faceblog-provisioner/internal/api/response"
	"github.com/sergiomvj/faceblog-provisioner/internal/templates"
)

// Template lists the blog templates available for provisioning.
type Template struct {
	registry *templates.Registry
}

func NewTemplate(registry *templates.Registry) *Template {
	return &Template{registry: registry}
}

// List godoc
//
//	@Summary		List available templates
//	@Tags			Templates
//	@Security		ApiKeyAuth
//	@Success		200 {object} map[string][]model.Template
//	@Router			/templates [get]
func (h *Template) List(w http.ResponseWriter, r *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]any{
		"templates": h.registry.List(),
	})
}
