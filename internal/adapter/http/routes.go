package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/civicbudget/pbb-api/internal/middleware"
)

// MountRoutes registers all REST routes on the router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		// Public reads.
		r.Get("/datasets", h.ListDatasets)
		r.Get("/dataset/{id}/features", h.DatasetFeatures)
		r.Get("/programs", h.ListPrograms)
		r.Get("/programs/{programID}", h.GetProgram)
		r.Get("/programs/{programID}/line-items", h.ProgramLineItems)
		r.Get("/tables/line-items", h.LineItemTable)

		// Public analytics.
		r.Route("/charts", func(r chi.Router) {
			r.Get("/spending-by-priority", h.SpendingByPriority)
			r.Get("/bubbles/results", h.ResultBubbles)
			r.Get("/bubbles/attributes", h.AttributeBubbles)
			r.Get("/bubbles/costing", h.CostingBubbles)
			r.Get("/program-categories", h.ProgramCategories)
			r.Get("/taxpayer-dividend", h.TaxpayerDividend)
		})
		r.Get("/sankey-flow", h.SankeyFlow)
		r.Get("/sankey-search", h.SankeySearch)
		r.Get("/program-search", h.ProgramSearch)

		// Admin-gated routes.
		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminSecret(h.cfg.Admin.Secret))

			r.Route("/admin", func(r chi.Router) {
				r.Post("/upload-multi", h.UploadMulti)
				r.Post("/upload", h.UploadLegacy)
				r.Put("/dataset/{id}", h.UpdateDataset)
				r.Delete("/dataset/{id}", h.DeleteDataset)
			})

			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", h.ListOrganizations)
				r.Post("/", h.CreateOrganization)
				r.Get("/{id}", h.GetOrganization)
				r.Put("/{id}", h.UpdateOrganization)
				r.Delete("/{id}", h.DeleteOrganization)
			})
		})
	})
}
