package http

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the hub API on r.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/handover", h.GetHandover)

		r.Route("/departments/{dept}", func(r chi.Router) {
			r.Get("/checklist", h.GetChecklist)
			r.Put("/checklist/{item}", h.SetChecklistItem)
			r.Get("/status", h.GetDepartmentStatus)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.ListAlerts)
			r.Post("/", h.RaiseAlert)
			r.Get("/recent", h.RecentAlerts)
			r.Post("/critical", h.RaiseCriticalAlert)
			r.Get("/{id}", h.GetAlert)
			r.Post("/{id}/resolve", h.ResolveAlert)
		})

		r.Get("/revenue", h.GetRevenue)
		r.Post("/revenue", h.RecordRevenue)

		r.Get("/bookings/{ref}/upgrade", h.QuoteUpgrade)
		r.Post("/bookings/{ref}/upgrade", h.ConfirmUpgrade)

		r.Route("/reviews", func(r chi.Router) {
			r.Post("/sync", h.SyncReview)
			r.Get("/current", h.GetCurrentReview)
			r.Get("/draft", h.GetReviewDraft)
		})

		r.Get("/reports/export", h.ExportReport)
	})
}
