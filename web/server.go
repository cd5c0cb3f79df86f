// Package web serves the JSON API used by the dashboard. It is meant for a single local
// user and has no auth layer.
package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"timeboard/importer"
	"timeboard/internal/logging"
	"timeboard/internal/timeutil"
	"timeboard/manual"
	"timeboard/provider"
	"timeboard/storage"
	"timeboard/tempo"
	"timeboard/toggl"
	"timeboard/worklog"
)

const maxUploadBytes = 32 << 20

type Options struct {
	// Location defines calendar days for summaries and date filters; nil means UTC.
	Location *time.Location
	Importer importer.Options
	Logger   *slog.Logger
	Now      func() time.Time
}

type Server struct {
	store    *storage.SQLiteStore
	registry *provider.Registry
	manual   *manual.Service
	options  Options
	logger   *slog.Logger
	mux      *http.ServeMux
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type syncRequest struct {
	CustomStart string `json:"customStart"`
	CustomEnd   string `json:"customEnd"`
}

type syncOutcome struct {
	Provider string               `json:"provider"`
	Result   *provider.SyncResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}

type entryRequest struct {
	Source      string    `json:"source"`
	ExternalID  *string   `json:"externalId"`
	Date        time.Time `json:"date"`
	Duration    float64   `json:"duration"`
	Project     *string   `json:"project"`
	Description *string   `json:"description"`
}

type importResponse struct {
	FilesProcessed int      `json:"filesProcessed"`
	RowsRead       int      `json:"rowsRead"`
	RowsMapped     int      `json:"rowsMapped"`
	RowsSkipped    int      `json:"rowsSkipped"`
	RowsPersisted  int      `json:"rowsPersisted"`
	Errors         []string `json:"errors"`
}

type providerStatus struct {
	Name       string     `json:"name"`
	Configured bool       `json:"configured"`
	Reachable  *bool      `json:"reachable,omitempty"`
	Count      int        `json:"count"`
	LastSync   *time.Time `json:"lastSync"`
	CachePath  string     `json:"cachePath,omitempty"`
}

func NewServer(store *storage.SQLiteStore, registry *provider.Registry, options Options) http.Handler {
	if options.Location == nil {
		options.Location = time.UTC
	}
	if options.Now == nil {
		options.Now = time.Now
	}
	if options.Importer.Location == nil {
		options.Importer.Location = options.Location
	}
	logger := options.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	server := &Server{
		store:    store,
		registry: registry,
		manual:   manual.NewService(store),
		options:  options,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /sync", server.handleSyncAll)
	mux.HandleFunc("POST /sync/{provider}", server.handleSync)
	mux.HandleFunc("GET /entries", server.handleEntriesList)
	mux.HandleFunc("POST /entries", server.handleEntryCreate)
	mux.HandleFunc("PUT /entries/{id}", server.handleEntryUpdate)
	mux.HandleFunc("DELETE /entries/{id}", server.handleEntryDelete)
	mux.HandleFunc("GET /entries/summary/today", server.handleSummaryToday)
	mux.HandleFunc("GET /entries/summary/week", server.handleSummaryWeek)
	mux.HandleFunc("GET /stats", server.handleStats)
	mux.HandleFunc("GET /providers/status", server.handleProvidersStatus)
	mux.HandleFunc("POST /import", server.handleImport)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	p, ok := s.registry.Get(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown provider %q", name))
		return
	}

	options, err := syncOptionsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := p.Sync(r.Context(), options)
	if err != nil {
		status := syncErrorStatus(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("sync failed", "provider", p.Name(), "error", err)
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSyncAll(w http.ResponseWriter, r *http.Request) {
	options, err := syncOptionsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcomes := s.registry.SyncAll(r.Context(), options)
	out := make([]syncOutcome, 0, len(outcomes))
	for _, outcome := range outcomes {
		item := syncOutcome{Provider: outcome.Name}
		if outcome.Err != nil {
			s.logger.Warn("sync failed", "provider", outcome.Name, "error", outcome.Err)
			item.Error = outcome.Err.Error()
		} else {
			result := outcome.Result
			item.Result = &result
		}
		out = append(out, item)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleEntriesList(w http.ResponseWriter, r *http.Request) {
	filter, err := s.filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := s.store.ListEntries(filter)
	if err != nil {
		s.internalError(w, "list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleEntryCreate(w http.ResponseWriter, r *http.Request) {
	var body manual.Input
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.manual.Create(body)
	if err != nil {
		var validationErr *manual.ValidationError
		switch {
		case errors.As(err, &validationErr):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: validationErr.Fields})
		case errors.Is(err, storage.ErrDuplicateEntry):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.internalError(w, "create manual entry", err)
		}
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleEntryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := parsePositiveInt64(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	var body entryRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, fields := buildEntryFromRequest(body)
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "validation failed", Fields: fields})
		return
	}
	entry.ID = id

	updated, err := s.store.UpdateEntry(entry)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrEntryNotFound):
			writeError(w, http.StatusNotFound, "entry not found")
		case errors.Is(err, storage.ErrDuplicateEntry):
			writeError(w, http.StatusConflict, err.Error())
		default:
			s.internalError(w, "update entry", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleEntryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := parsePositiveInt64(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	deleted, err := s.store.DeleteEntry(id)
	if err != nil {
		s.internalError(w, "delete entry", err)
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSummaryToday(w http.ResponseWriter, r *http.Request) {
	from, to := timeutil.DayRange(s.today())
	s.writeRangeSummary(w, from, to)
}

func (s *Server) handleSummaryWeek(w http.ResponseWriter, r *http.Request) {
	from, to := timeutil.WeekRange(s.today())
	s.writeRangeSummary(w, from, to)
}

func (s *Server) writeRangeSummary(w http.ResponseWriter, from, to time.Time) {
	summary, err := buildRangeSummary(s.store, from, to, s.options.Location)
	if err != nil {
		s.internalError(w, "build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := buildStats(s.store, s.today(), s.options.Location)
	if err != nil {
		s.internalError(w, "build stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleProvidersStatus(w http.ResponseWriter, r *http.Request) {
	validate := isTruthy(r.URL.Query().Get("validate"))

	providers := s.registry.All()
	out := make([]providerStatus, 0, len(providers))
	for _, p := range providers {
		status := providerStatus{Name: p.Name(), Configured: p.Configured(), CachePath: p.CachePath()}

		count, err := s.store.CountEntries(storage.Filter{Source: p.Source()})
		if err != nil {
			s.internalError(w, "count provider entries", err)
			return
		}
		status.Count = count

		lastSync, found, err := s.store.LastCreatedAt(p.Source())
		if err != nil {
			s.internalError(w, "read last sync", err)
			return
		}
		if found {
			status.LastSync = &lastSync
		}

		if validate {
			reachable := p.Validate(r.Context())
			status.Reachable = &reachable
		}
		out = append(out, status)
	}

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	adapter, err := importer.AdapterByName(strings.TrimSpace(r.FormValue("adapter")), s.options.Importer)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%v (valid: %s)", err, strings.Join(importer.SupportedAdapterNames(), ", ")))
		return
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("read upload: %v", err))
		return
	}

	result, err := importer.RunUpload(header.Filename, raw, strings.TrimSpace(r.FormValue("format")), adapter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	persisted, err := s.store.UpsertEntries(result.Entries)
	if err != nil {
		s.internalError(w, "store imported entries", err)
		return
	}

	errorsOut := result.Errors
	if errorsOut == nil {
		errorsOut = []string{}
	}
	writeJSON(w, http.StatusOK, importResponse{
		FilesProcessed: result.FilesProcessed,
		RowsRead:       result.RowsRead,
		RowsMapped:     result.RowsMapped,
		RowsSkipped:    result.RowsSkipped,
		RowsPersisted:  persisted,
		Errors:         errorsOut,
	})
}

func (s *Server) today() time.Time {
	return s.options.Now().In(s.options.Location)
}

// filterFromQuery reads from/to as inclusive calendar days in the server location.
func (s *Server) filterFromQuery(query url.Values) (storage.Filter, error) {
	var filter storage.Filter

	if raw := strings.TrimSpace(query.Get("source")); raw != "" {
		source, err := worklog.ParseSource(raw)
		if err != nil {
			return filter, err
		}
		filter.Source = source
	}
	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		day, err := time.ParseInLocation(timeutil.DateLayout, raw, s.options.Location)
		if err != nil {
			return filter, fmt.Errorf("invalid from date %q (expected YYYY-MM-DD)", raw)
		}
		filter.From = day
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		day, err := time.ParseInLocation(timeutil.DateLayout, raw, s.options.Location)
		if err != nil {
			return filter, fmt.Errorf("invalid to date %q (expected YYYY-MM-DD)", raw)
		}
		filter.To = day.AddDate(0, 0, 1)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return filter, fmt.Errorf("from must not be after to")
	}
	return filter, nil
}

func (s *Server) internalError(w http.ResponseWriter, action string, err error) {
	s.logger.Error(action+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("%s: %v", action, err))
}

func syncOptionsFromRequest(r *http.Request) (provider.SyncOptions, error) {
	options := provider.SyncOptions{ForceRefresh: isTruthy(r.URL.Query().Get("refresh"))}

	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return options, fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return options, nil
	}

	var body syncRequest
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		return options, fmt.Errorf("decode sync request: %w", err)
	}
	options.CustomStart = strings.TrimSpace(body.CustomStart)
	options.CustomEnd = strings.TrimSpace(body.CustomEnd)
	return options, nil
}

func syncErrorStatus(err error) int {
	var (
		togglErr *toggl.APIError
		tempoErr *tempo.APIError
		urlErr   *url.Error
	)
	switch {
	case errors.Is(err, provider.ErrInvalidRange), errors.Is(err, provider.ErrMissingCredential):
		return http.StatusBadRequest
	case errors.As(err, &togglErr), errors.As(err, &tempoErr), errors.As(err, &urlErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func buildEntryFromRequest(body entryRequest) (worklog.Entry, map[string]string) {
	fields := make(map[string]string)

	source, err := worklog.ParseSource(body.Source)
	if err != nil {
		fields["source"] = err.Error()
	}
	if body.Date.IsZero() {
		fields["date"] = "is required"
	}
	if body.Duration < 0 {
		fields["duration"] = "must be >= 0"
	}
	if len(fields) > 0 {
		return worklog.Entry{}, fields
	}

	return worklog.Entry{
		Source:      source,
		ExternalID:  worklog.StringPtr(worklog.Deref(body.ExternalID)),
		Date:        body.Date.UTC(),
		Duration:    body.Duration,
		Project:     worklog.StringPtr(worklog.Deref(body.Project)),
		Description: worklog.StringPtr(worklog.Deref(body.Description)),
	}, nil
}

func parsePositiveInt64(value string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("value must be > 0")
	}
	return parsed, nil
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
