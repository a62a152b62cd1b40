package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pitabwire/msaada/internal/capability"
)

// ListRoles handles GET /api/roles.
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles := h.catalog.All()
	WriteJSON(w, http.StatusOK, map[string]any{"data": roles, "count": len(roles)})
}

// GetRole handles GET /api/roles/{key}. Resolution is total: unknown keys
// fold to the base user role rather than 404, matching how role claims are
// treated everywhere else.
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	info := h.catalog.Resolve(key)
	WriteJSON(w, http.StatusOK, map[string]any{
		"role":               info,
		"capabilities":       h.eval.For(key),
		"override_authority": capability.HasOverrideAuthority(h.eval.Canonical(key)),
	})
}
