package transport

import (
	"net/http"

	"github.com/pitabwire/msaada/model"
)

// Navigation handles GET /api/navigation. It returns the navigation items
// the acting role may reach, the resolved capability set, and the landing
// route to use when a deep link is denied.
func (h *Handler) Navigation(w http.ResponseWriter, r *http.Request) {
	rctx := model.MustRequestContext(r.Context())

	caps := CapabilitiesFrom(r.Context())
	if caps.IsZero() {
		caps = h.eval.For(string(rctx.Role))
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"items":        h.policy.Navigation(rctx.Role),
		"role":         rctx.Role,
		"capabilities": caps,
		"redirect":     h.policy.RedirectTargetOnDenial(),
	})
}
