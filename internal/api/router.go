package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/chrisd/bautagebuch/internal/calendar"
	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/index"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(store *diary.Store, idx index.DiaryIndex, cursor *calendar.Cursor, saver *diary.Autosaver, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(store, idx, cursor, saver)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document: snapshot, explicit save, export/import, form sections.
	r.Get("/document", h.GetDocument)
	r.Post("/document/save", h.SaveDocument)
	r.Get("/document/export", h.ExportDocument)
	r.Post("/document/import", h.ImportDocument)
	r.Put("/document/sections/{section}", h.ReplaceSection)

	// Daily entries CRUD.
	r.Get("/entries", h.ListEntries)
	r.Post("/entries", h.CreateEntry)
	r.Put("/entries/{id}", h.UpdateEntry)
	r.Delete("/entries/{id}", h.DeleteEntry)

	// Milestones CRUD + status transitions.
	r.Get("/milestones", h.ListMilestones)
	r.Post("/milestones", h.CreateMilestone)
	r.Put("/milestones/{id}", h.UpdateMilestone)
	r.Delete("/milestones/{id}", h.DeleteMilestone)
	r.Put("/milestones/{id}/status", h.SetMilestoneStatus)

	// Calendar projection and navigation.
	r.Get("/calendar", h.GetCalendar)
	r.Get("/calendar/{year}/{month}", h.GetCalendarMonth)
	r.Post("/calendar/shift", h.ShiftCalendar)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
