package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"travelwatch/internal/http/response"
	"travelwatch/internal/service"
)

// ExternalHandler proxies the two external data providers for the
// frontend, which holds the service key but no provider credentials.
type ExternalHandler struct {
	upstream service.UpstreamClientInterface
}

func NewExternalHandler(upstream service.UpstreamClientInterface) *ExternalHandler {
	return &ExternalHandler{upstream: upstream}
}

func (h *ExternalHandler) Covid(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	snapshot, err := h.upstream.CovidSnapshot(r.Context(), country)
	if err != nil {
		writeUpstreamError(w, r, err, "COVID API failed")
		return
	}
	response.JSON(w, r, http.StatusOK, snapshot)
}

func (h *ExternalHandler) Travel(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	advisory, err := h.upstream.TravelAdvisory(r.Context(), country)
	if err != nil {
		writeUpstreamError(w, r, err, "Travel advisory API failed")
		return
	}
	response.JSON(w, r, http.StatusOK, advisory)
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if errors.Is(err, service.ErrUpstreamTimeout) {
		response.Error(w, r, http.StatusServiceUnavailable, "UNAVAILABLE", message, nil)
		return
	}
	response.Error(w, r, http.StatusBadGateway, "UPSTREAM_FAILED", message, nil)
}
