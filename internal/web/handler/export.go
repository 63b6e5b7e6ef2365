package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/itacpc/teams/internal/export"
	"github.com/itacpc/teams/internal/web/middleware"
	"github.com/itacpc/teams/internal/web/response"
	"github.com/itacpc/teams/internal/web/session"
	"github.com/itacpc/teams/internal/web/view"
)

// Exporter produces the judging-system datasets.
type Exporter interface {
	Write(ctx context.Context, w io.Writer, dataset string) error
	IssueCredentials(ctx context.Context) (int, error)
}

// ExportHandler serves the superuser data export.
type ExportHandler struct {
	*Pages
	exporter Exporter
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(pages *Pages, exporter Exporter) *ExportHandler {
	return &ExportHandler{Pages: pages, exporter: exporter}
}

// Index handles GET /data-export.
func (h *ExportHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageDataExport, &view.Page{
		Title: "Data export",
		Data:  &view.ExportPage{Datasets: export.Datasets},
	})
}

// Dataset handles GET /data-export/{dataset}.
func (h *ExportHandler) Dataset(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	if !slices.Contains(export.Datasets, dataset) {
		response.Err(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Unknown dataset %q", dataset),
			middleware.GetRequestID(r.Context()))
		return
	}

	var buf bytes.Buffer
	if err := h.exporter.Write(r.Context(), &buf, dataset); err != nil {
		h.serverError(w, r, "failed to export dataset", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType(dataset))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dataset))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// IssueCredentials handles POST /data-export/credentials.
func (h *ExportHandler) IssueCredentials(w http.ResponseWriter, r *http.Request) {
	n, err := h.exporter.IssueCredentials(r.Context())
	if err != nil {
		h.serverError(w, r, "failed to issue credentials", err)
		return
	}
	h.redirect(w, r, "/data-export", session.LevelInfo, fmt.Sprintf(msgCredentialsIssued, n))
}
