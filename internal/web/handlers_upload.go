package web

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pushkind/dantes/internal/catalog"
	"github.com/pushkind/dantes/internal/logging"
	"github.com/pushkind/dantes/internal/repository"
	"github.com/pushkind/dantes/internal/web/middleware"
)

// uploadForm is one parsed multipart upload request.
type uploadForm struct {
	payload []byte
	format  catalog.UploadFormat
	mode    catalog.UploadMode
}

// parseUploadForm extracts the file, mode and format from a multipart
// request. The format follows the file extension; a "format" field, if
// sent, must agree with it.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		return nil, fmt.Errorf("file too large or invalid form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("no file provided: %w", err)
	}
	defer file.Close()

	format, err := formatFromFilename(header.Filename)
	if err != nil {
		return nil, err
	}
	if declared := r.FormValue("format"); declared != "" {
		df, err := catalog.ParseUploadFormat(declared)
		if err != nil {
			return nil, err
		}
		if df != format {
			return nil, fmt.Errorf("declared format %q does not match file extension of %q", declared, header.Filename)
		}
	}

	mode, err := catalog.ParseUploadMode(r.FormValue("mode"))
	if err != nil {
		return nil, err
	}

	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	return &uploadForm{payload: payload, format: format, mode: mode}, nil
}

// formatFromFilename maps the file extension to an upload format.
func formatFromFilename(name string) (catalog.UploadFormat, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return catalog.FormatCsv, nil
	case ".xlsx":
		return catalog.FormatXlsx, nil
	}
	return 0, fmt.Errorf("unsupported file extension on %q: want .csv or .xlsx", name)
}

// handleProductUpload ingests a product file into one crawler's catalog.
func (s *Server) handleProductUpload(w http.ResponseWriter, r *http.Request) {
	crawler, err := s.requestCrawler(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	form, err := s.parseUploadForm(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	scope := catalog.Scope{Kind: catalog.SourceProduct, ID: crawler.ID}
	report, err := s.engine.Reconcile(r.Context(), form.payload, form.format, form.mode, catalog.SourceProduct, scope)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("product upload finished",
		"crawler_id", crawler.ID,
		"total", report.Total,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
	)
	writeJSON(w, http.StatusOK, report)
}

// handleBenchmarkUpload ingests a benchmark file into the hub's catalog.
func (s *Server) handleBenchmarkUpload(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())

	form, err := s.parseUploadForm(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	scope := catalog.Scope{Kind: catalog.BenchmarkRow, ID: id.HubID}
	report, err := s.engine.Reconcile(r.Context(), form.payload, form.format, form.mode, catalog.BenchmarkRow, scope)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("benchmark upload finished",
		"hub_id", id.HubID,
		"total", report.Total,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
	)
	writeJSON(w, http.StatusOK, report)
}

// requestCrawler resolves the route's crawler id within the caller's
// hub. Crawlers of other hubs resolve to ErrNotFound.
func (s *Server) requestCrawler(r *http.Request) (*repository.Crawler, error) {
	idParam := chi.URLParam(r, "crawlerID")
	crawlerID, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid crawler id %q: %w", idParam, err)
	}

	identity := middleware.IdentityFrom(r.Context())
	return s.store.GetCrawler(r.Context(), crawlerID, identity.HubID)
}
