package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/chat"
	"github.com/hyperjump/aether/internal/export"
	"github.com/hyperjump/aether/internal/keyword"
	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/views"
)

const (
	maxJSONBody   = 1 << 20
	maxImportBody = 20 << 20
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPatients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	patients := s.deps.Records.Filter(q.Get("q"), q.Get("doctor"))
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"total":    len(patients),
	})
}

func (s *Server) handleSearchPatients(w http.ResponseWriter, r *http.Request) {
	if s.deps.Index == nil {
		s.respondError(w, http.StatusNotImplemented, "search index not enabled")
		return
	}
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := 20
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	fuzzy, _ := strconv.ParseBool(q.Get("fuzzy"))

	s.logger.Debug("patient search request", zap.String("query", query), zap.Bool("fuzzy", fuzzy))
	results, err := s.deps.Index.Search(r.Context(), query, limit, &keyword.SearchOptions{Fuzzy: fuzzy})
	if err != nil {
		s.logger.Error("patient search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	type hit struct {
		Patient models.Patient `json:"patient"`
		Score   float64        `json:"score"`
	}
	hits := make([]hit, 0, len(results))
	for _, res := range results {
		p, err := s.deps.Records.Get(res.ID)
		if err != nil {
			// Index refresh lags a concurrent delete.
			continue
		}
		hits = append(hits, hit{Patient: p, Score: res.Score})
	}
	resp := map[string]interface{}{"query": query, "results": hits, "total": len(hits)}
	if len(hits) == 0 {
		if sug, ok := s.deps.Index.Suggest(query, 2); ok {
			resp["suggestion"] = sug
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreatePatient(w http.ResponseWriter, r *http.Request) {
	var input models.NewPatient
	if !s.decode(w, r, &input) {
		return
	}
	s.logger.Debug("create patient request", zap.String("name", input.Name))
	p, err := s.deps.Records.Insert(r.Context(), input)
	s.respondWith(w, http.StatusCreated, "patient", p, err)
}

func (s *Server) handleGetPatient(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Records.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	var patch models.PatientPatch
	if !s.decode(w, r, &patch) {
		return
	}
	if patch.Empty() {
		s.respondError(w, http.StatusBadRequest, "no fields to update")
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("update patient request", zap.String("id", id))
	p, err := s.deps.Records.Upsert(r.Context(), id, patch)
	s.respondWith(w, http.StatusOK, "patient", p, err)
}

func (s *Server) handleDeletePatient(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete patient request", zap.String("id", id))
	err := s.deps.Records.Delete(r.Context(), id)
	s.respondWith(w, http.StatusOK, "status", "deleted", err)
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	s.logger.Debug("set status request", zap.String("id", id), zap.String("status", string(req.Status)))
	p, err := s.deps.Records.SetStatus(r.Context(), id, req.Status)
	s.respondWith(w, http.StatusOK, "patient", p, err)
}

func (s *Server) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.deps.Records.Get(id); err != nil {
		s.respondFailure(w, err)
		return
	}
	thumb, err := records.Thumbnail(r.Body)
	if err != nil {
		if errors.Is(err, records.ErrPictureTooLarge) {
			s.respondError(w, http.StatusRequestEntityTooLarge, "Ukuran gambar terlalu besar. Maksimal 5MB dan 40 megapiksel.")
			return
		}
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.deps.Records.Upsert(r.Context(), id, models.PatientPatch{ProfilePicture: &thumb})
	s.respondWith(w, http.StatusOK, "patient", p, err)
}

func (s *Server) handleImportPatients(w http.ResponseWriter, r *http.Request) {
	patients, err := export.ReadPatients(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Info("importing patients", zap.Int("count", len(patients)))
	err = s.deps.Records.ReplaceAll(r.Context(), patients)
	s.respondWith(w, http.StatusOK, "imported", len(patients), err)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	st, err := s.deps.Records.Draft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, st)
}

type draftRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.deps.Records.UpdateDraft(r.Context(), id, req.Text)
	s.respondDraft(w, r, id, err)
}

func (s *Server) handleDraftTimestamp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, err := s.deps.Records.AppendTimestamp(r.Context(), id)
	s.respondDraft(w, r, id, err)
}

func (s *Server) handleRevertDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.deps.Records.RevertDraft(r.Context(), id)
	s.respondDraft(w, r, id, err)
}

func (s *Server) handleCommitDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("commit draft request", zap.String("id", id))
	st, err := s.deps.Records.CommitDraft(r.Context(), id)
	warning, err := splitWarning(err)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, withWarning(map[string]interface{}{"draft": st}, warning))
}

// handleCloseDraft closes the editor without committing. The response tells
// the client whether unsaved text was left behind in the draft.
func (s *Server) handleCloseDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dirty, err := s.deps.Records.IsDirty(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if err := s.deps.Records.DiscardDraft(r.Context(), id); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "closed": true, "dirty": dirty})
}

// respondDraft answers a draft mutation with the resulting editor state.
func (s *Server) respondDraft(w http.ResponseWriter, r *http.Request, id string, err error) {
	warning, err := splitWarning(err)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	st, err := s.deps.Records.Draft(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, withWarning(map[string]interface{}{"draft": st}, warning))
}

// decode reads a JSON request body into v, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondWith answers a mutation: a persistence warning still yields status
// with the data, any other error is mapped by respondFailure.
func (s *Server) respondWith(w http.ResponseWriter, status int, field string, data interface{}, err error) {
	warning, err := splitWarning(err)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, status, withWarning(map[string]interface{}{field: data}, warning))
}

// splitWarning separates a rejected write, which is only a warning, from a real failure.
func splitWarning(err error) (string, error) {
	if err == nil {
		return "", nil
	}
	if pe, ok := records.AsPersistError(err); ok {
		return pe.Warning(), nil
	}
	return "", err
}

func withWarning(body map[string]interface{}, warning string) map[string]interface{} {
	if warning != "" {
		body["warning"] = warning
	}
	return body
}

func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"error": ve.Error(), "fields": ve.Fields})
	case errors.Is(err, records.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, records.ErrDuplicateID), errors.Is(err, chat.ErrBusy), errors.Is(err, views.ErrBusy):
		s.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrEmptyMessage):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
