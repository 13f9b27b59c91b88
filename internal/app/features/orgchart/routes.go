// internal/app/features/orgchart/routes.go
package orgchart

import (
	"github.com/dalemusser/organigram/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the org chart API under the base path
// (typically "/api/org-chart" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Reads are public.
	r.Get("/", instrument("list", h.ServeList))
	r.Get("/tree", instrument("tree", h.ServeTree))
	r.Get("/{id}/parent-options", instrument("parent_options", h.ServeParentOptions))

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", instrument("create", h.HandleCreate))
		pr.Patch("/", instrument("update", h.HandleUpdate))
		pr.Delete("/", instrument("delete", h.HandleDelete))
	})

	return r
}
