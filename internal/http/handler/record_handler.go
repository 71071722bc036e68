package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelwatch/internal/http/middleware"
	"travelwatch/internal/http/response"
	"travelwatch/internal/observability"
	"travelwatch/internal/repository"
	"travelwatch/internal/service"
)

type RecordHandler struct {
	recordSvc service.RecordServiceInterface
}

func NewRecordHandler(recordSvc service.RecordServiceInterface) *RecordHandler {
	return &RecordHandler{recordSvc: recordSvc}
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeRecordInput(w, r)
	if !ok {
		observability.RecordRecordsOperation(r.Context(), "create", "failure")
		return
	}
	rec, err := h.recordSvc.Save(r.Context(), in)
	if err != nil {
		observability.RecordRecordsOperation(r.Context(), "create", "failure")
		writeRecordError(w, r, err)
		return
	}
	h.audit(r, "records.create", rec.ID)
	observability.RecordRecordsOperation(r.Context(), "create", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Saved", "id": rec.ID})
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.recordSvc.List(r.Context())
	if err != nil {
		observability.RecordRecordsOperation(r.Context(), "list", "failure")
		writeRecordError(w, r, err)
		return
	}
	observability.RecordRecordsOperation(r.Context(), "list", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"results": recs})
}

func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, ok := decodeRecordInput(w, r)
	if !ok {
		observability.RecordRecordsOperation(r.Context(), "update", "failure")
		return
	}
	rec, err := h.recordSvc.Update(r.Context(), id, in)
	if err != nil {
		observability.RecordRecordsOperation(r.Context(), "update", "failure")
		writeRecordError(w, r, err)
		return
	}
	h.audit(r, "records.update", id)
	observability.RecordRecordsOperation(r.Context(), "update", "success")
	response.JSON(w, r, http.StatusOK, map[string]any{"message": "Updated", "record": rec})
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.recordSvc.Delete(r.Context(), id); err != nil {
		observability.RecordRecordsOperation(r.Context(), "delete", "failure")
		writeRecordError(w, r, err)
		return
	}
	h.audit(r, "records.delete", id)
	observability.RecordRecordsOperation(r.Context(), "delete", "success")
	response.JSON(w, r, http.StatusOK, map[string]string{"message": "Deleted"})
}

func (h *RecordHandler) audit(r *http.Request, event, recordID string) {
	attrs := []any{"record_id", recordID}
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		attrs = append(attrs, "subject", claims.Subject)
	}
	observability.Audit(r, event, attrs...)
}

func decodeRecordInput(w http.ResponseWriter, r *http.Request) (*service.RecordInput, bool) {
	var in service.RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_INPUT", "invalid record body", nil)
		return nil, false
	}
	return &in, true
}

func writeRecordError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
	case errors.Is(err, context.DeadlineExceeded):
		response.Error(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", "store unavailable, retry later", nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
