package http

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"driverlog/internal/core"
	"driverlog/internal/log"
	"driverlog/internal/photostore"
	"driverlog/internal/storage"
)

// maxUploadBytes bounds the whole multipart body: up to three photos plus
// form fields.
const maxUploadBytes = 3*photostore.MaxPhotoBytes + 1<<20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	records, err := s.records(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List records error", "error", err, "url", r.URL.Path)
		// The page still renders; partials retry on their own.
	}

	data := struct {
		Today  string
		Months []string
	}{
		Today:  time.Now().Format("2006-01-02"),
		Months: core.DistinctMonths(records),
	}

	if s.templates == nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Templates not loaded</div>`))
		return
	}
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution error", "error", err, "template", "index.html")
	}
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			slog.ErrorContext(r.Context(), "Parse multipart form error", "error", err, "method", r.Method, "url", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
			return
		}
	} else if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	date, err := core.ParseDate(r.Form.Get("date"))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Invalid date</div>`))
		return
	}

	id := newRecordID()

	photoKeys, err := s.savePhotos(r, id)
	if err != nil {
		writeRecordError(w, err)
		return
	}

	mode := core.Mode(strings.ToUpper(sanitizeInput(r.Form.Get("mode"))))
	var rec core.WorkRecord
	switch mode {
	case core.ModeDailyRate:
		routeIDs := []string{sanitizeInput(r.Form.Get("route_id_1"))}
		if second := sanitizeInput(r.Form.Get("route_id_2")); second != "" {
			routeIDs = append(routeIDs, second)
		}
		rec, err = core.NewDailyRateRecord(id, date, routeIDs,
			core.ParseCount(r.Form.Get("parcels")), photoKeys, time.Now())
	case core.ModeStandard:
		rec, err = core.NewStandardRecord(id, date, sanitizeInput(r.Form.Get("route_id")),
			core.ParseCount(r.Form.Get("parcels")), core.ParseCount(r.Form.Get("collections")),
			photoKeys, time.Now())
	default:
		s.discardPhotos(r, photoKeys)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Unknown record mode</div>`))
		return
	}
	if err != nil {
		s.discardPhotos(r, photoKeys)
		writeRecordError(w, err)
		return
	}

	ref, err := s.writer.Append(r.Context(), rec)
	if err != nil {
		s.discardPhotos(r, photoKeys)
		s.structLog.LogError(r.Context(), "Failed to save record", err, log.ComponentRecord, log.OpAppend,
			log.NewFields().WithRecord(id, date.ISO(), string(rec.Mode()), rec.Meta().Total.Cents))
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error saving record</div>`))
		return
	}

	s.invalidateRecords()

	s.structLog.LogRecordCreated(r.Context(), id, date.ISO(), string(rec.Mode()), rec.Meta().Total.Cents)
	slog.DebugContext(r.Context(), "Record persisted",
		"record_id", id,
		"photo_count", len(photoKeys),
		"storage_ref", ref)

	successMsg := fmt.Sprintf("Day logged: %s on %s, %s",
		template.HTMLEscapeString(string(rec.Mode())),
		template.HTMLEscapeString(date.ISO()),
		template.HTMLEscapeString(formatReais(rec.Meta().Total.Cents)))

	w.Header().Set("HX-Trigger", fmt.Sprintf(`{
		"form:reset": {},
		"show-notification": {"type": "success", "message": "%s", "duration": 3000},
		"record:created": {}
	}`, template.JSEscapeString(successMsg)))

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

// savePhotos persists every uploaded photo and returns their storage keys.
func (s *Server) savePhotos(r *http.Request, recordID string) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["photos"]
	if len(headers) == 0 {
		return nil, nil
	}
	if len(headers) > core.MaxPhotosPerRecord {
		return nil, core.ErrTooManyPhotos
	}
	if s.photos == nil {
		return nil, errors.New("photo storage not configured")
	}

	var keys []string
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.discardPhotos(r, keys)
			return nil, fmt.Errorf("open uploaded photo: %w", err)
		}
		key, err := s.photos.Save(r.Context(), recordID, fh.Header.Get("Content-Type"), f)
		_ = f.Close()
		if err != nil {
			s.discardPhotos(r, keys)
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// discardPhotos removes photos saved for a record that was never persisted.
func (s *Server) discardPhotos(r *http.Request, keys []string) {
	if s.photos == nil {
		return
	}
	for _, key := range keys {
		if err := s.photos.Delete(r.Context(), key); err != nil {
			slog.WarnContext(r.Context(), "Failed to remove orphaned photo", "photo_key", key, "error", err)
		}
	}
}

// writeRecordError maps domain validation failures to a 422 snippet.
func writeRecordError(w http.ResponseWriter, err error) {
	msg := "Invalid data"
	switch {
	case errors.Is(err, core.ErrInvalidDate):
		msg = "Invalid date"
	case errors.Is(err, core.ErrMissingRouteID):
		msg = "Route ID is required"
	case errors.Is(err, core.ErrMissingSecondRouteID):
		msg = "Second route ID is required"
	case errors.Is(err, core.ErrRouteIDCount):
		msg = "Daily rate records take one or two route IDs"
	case errors.Is(err, core.ErrTooManyPhotos):
		msg = "At most 3 photos per record"
	case errors.Is(err, photostore.ErrTooLarge):
		msg = "Photo exceeds the 5MB size limit"
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(err.Error()) + `</div>`))
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	_, _ = w.Write([]byte(`<div class="error">` + msg + `</div>`))
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		w.Header().Set("Allow", "DELETE, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Invalid request format</div>`))
		return
	}

	recordID := sanitizeInput(r.Form.Get("id"))
	if recordID == "" {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Missing record ID</div>`))
		return
	}

	if s.deleter == nil {
		slog.ErrorContext(r.Context(), "Record deleter not configured")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Delete service unavailable</div>`))
		return
	}

	if err := s.deleter.Delete(r.Context(), recordID); err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<div class="error">Record not found</div>`))
			return
		}
		s.structLog.LogError(r.Context(), "Failed to delete record", err, log.ComponentRecord, log.OpDelete,
			log.LogFields{log.FieldRecordID: recordID})
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error deleting record</div>`))
		return
	}

	s.invalidateRecords()

	slog.InfoContext(r.Context(), "Record deleted successfully",
		"record_id", recordID,
		"component", "record_handler",
		"operation", "delete")

	w.Header().Set("HX-Trigger", `{
		"record:deleted": {},
		"show-notification": {"type": "success", "message": "Record deleted", "duration": 2000}
	}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(""))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	records, err := s.records(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed listing records", "error", err, "operation", "export")
		http.Error(w, "Error exporting records", http.StatusInternalServerError)
		return
	}

	// The export mirrors the history view: newest dates first.
	var ordered []core.WorkRecord
	for _, group := range core.FilterAndGroup(records, core.FilterAll, core.MonthAll) {
		ordered = append(ordered, group.Records...)
	}

	filename := "driver_log_" + time.Now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = io.WriteString(w, core.ToDelimitedText(ordered))

	slog.InfoContext(r.Context(), "Export generated",
		"record_count", len(ordered),
		"filename", filename,
		"operation", "export")
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if s.photos == nil {
		http.Error(w, "Photo storage unavailable", http.StatusServiceUnavailable)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/photos/")
	if key == "" {
		http.NotFound(w, r)
		return
	}

	reader, mimeType, err := s.photos.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, photostore.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		slog.ErrorContext(r.Context(), "Failed to read photo", "photo_key", key, "error", err)
		http.Error(w, "Error reading photo", http.StatusInternalServerError)
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = io.Copy(w, reader)
}
