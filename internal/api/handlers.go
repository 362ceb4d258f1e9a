package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/chrisd/bautagebuch/internal/apperr"
	"github.com/chrisd/bautagebuch/internal/calendar"
	"github.com/chrisd/bautagebuch/internal/diary"
	"github.com/chrisd/bautagebuch/internal/index"
	"github.com/chrisd/bautagebuch/internal/models"
)

const maxBodyBytes = 10 << 20 // 10 MB

// Handler holds API route handlers.
type Handler struct {
	store  *diary.Store
	idx    index.DiaryIndex
	cursor *calendar.Cursor
	saver  *diary.Autosaver
}

// NewHandler creates a new Handler. saver may be nil when autosave is not
// running (tests); section edits are then persisted on the next explicit
// or interval save.
func NewHandler(store *diary.Store, idx index.DiaryIndex, cursor *calendar.Cursor, saver *diary.Autosaver) *Handler {
	return &Handler{store: store, idx: idx, cursor: cursor, saver: saver}
}

// --- Document ---

// GetDocument handles GET /document.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// SaveDocument handles POST /document/save.
func (h *Handler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Save(); err != nil {
		slog.Error("save failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportDocument handles GET /document/export: the pretty-printed document
// as a dated file download.
func (h *Handler) ExportDocument(w http.ResponseWriter, r *http.Request) {
	name, data, err := h.store.Export()
	if err != nil {
		slog.Error("export failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ImportDocument handles POST /document/import. The body is the raw JSON
// export; a parse failure leaves the current document untouched.
func (h *Handler) ImportDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if err := h.store.Import(data); err != nil {
		switch {
		case errors.Is(err, apperr.ErrImportParse):
			writeJSON(w, http.StatusBadRequest, errorBody("import file is not valid JSON"))
		default:
			slog.Error("import failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, h.store.Snapshot())
}

// ReplaceSection handles PUT /document/sections/{section}. The body is the
// full field map of the form; persistence rides the debounced autosave.
func (h *Handler) ReplaceSection(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	section := normalizeSection(chi.URLParam(r, "section"))

	var fields models.Section
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := h.store.ReplaceSection(section, fields); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("unknown section"))
		return
	}
	if h.saver != nil {
		h.saver.Touch()
	}
	w.WriteHeader(http.StatusNoContent)
}

// normalizeSection maps the URL spelling onto the document's JSON keys.
func normalizeSection(s string) string {
	switch s {
	case "pre-construction":
		return diary.SectionPre
	case "post-construction":
		return diary.SectionPost
	}
	return s
}

// --- Daily entries ---

// ListEntries handles GET /entries.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": h.store.ListDailyEntries(),
	})
}

// CreateEntry handles POST /entries. The new entry defaults to today's
// date with all other fields empty.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.store.CreateDailyEntry()
	if err != nil {
		slog.Error("create entry failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// UpdateEntry handles PUT /entries/{id}.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	var upd diary.DailyEntryUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	entry, err := h.store.UpdateDailyEntry(id, upd)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update entry failed", slog.Int("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		}
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /entries/{id}. Deleting an unknown id is a
// no-op; confirmation is the UI's responsibility.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid entry id"))
		return
	}
	if err := h.store.DeleteDailyEntry(id); err != nil {
		slog.Error("delete entry failed", slog.Int("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Milestones ---

type createMilestoneRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Date        string `json:"date"`
	Duration    string `json:"duration"`
}

// Validate rejects what the legacy app silently accepted: milestones need
// at least a title and a calendar date.
func (req createMilestoneRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required),
		validation.Field(&req.Date, validation.Required, validation.Date("2006-01-02")),
	)
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (req setStatusRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Status, validation.Required),
	)
}

// ListMilestones handles GET /milestones.
func (h *Handler) ListMilestones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"milestones": h.store.ListMilestones(),
	})
}

// CreateMilestone handles POST /milestones.
func (h *Handler) CreateMilestone(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req createMilestoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	m, err := h.store.CreateMilestone(diary.CreateMilestoneInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Date:        req.Date,
		Duration:    req.Duration,
	})
	if err != nil {
		slog.Error("create milestone failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// UpdateMilestone handles PUT /milestones/{id}: a field-level merge, so
// fields absent from the body survive untouched.
func (h *Handler) UpdateMilestone(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := chi.URLParam(r, "id")
	var upd diary.MilestoneUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	m, err := h.store.UpdateMilestone(id, upd)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("update milestone failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// DeleteMilestone handles DELETE /milestones/{id}. Unknown ids are a no-op.
func (h *Handler) DeleteMilestone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.store.DeleteMilestone(id); err != nil {
		slog.Error("delete milestone failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetMilestoneStatus handles PUT /milestones/{id}/status. Completing a
// milestone forces its progress to 100.
func (h *Handler) SetMilestoneStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := chi.URLParam(r, "id")
	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	m, err := h.store.SetMilestoneStatus(id, req.Status)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		} else {
			slog.Error("set status failed", slog.String("id", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("saving failed, changes kept in memory"))
		}
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// --- Calendar ---

// GetCalendar handles GET /calendar: the grid for the cursor month.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	year, month := h.cursor.Current()
	writeJSON(w, http.StatusOK, calendar.MonthGrid(year, month, h.store.ListMilestones()))
}

// GetCalendarMonth handles GET /calendar/{year}/{month} with month 1..12.
func (h *Handler) GetCalendarMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid year"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, errorBody("month must be 1..12"))
		return
	}
	writeJSON(w, http.StatusOK, calendar.MonthGrid(year, time.Month(month), h.store.ListMilestones()))
}

// ShiftCalendar handles POST /calendar/shift: moves the viewed month by
// delta and returns the new grid.
func (h *Handler) ShiftCalendar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<10)
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	year, month := h.cursor.Shift(req.Delta)
	writeJSON(w, http.StatusOK, calendar.MonthGrid(year, month, h.store.ListMilestones()))
}

// --- Search ---

// Search handles GET /search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.idx.Search(q, limit)
	if err != nil {
		slog.Error("search failed", slog.String("query", q), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if results == nil {
		results = []index.SearchResult{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
	})
}
