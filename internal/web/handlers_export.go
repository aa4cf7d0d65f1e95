package web

import (
	"fmt"
	"net/http"

	"github.com/pushkind/dantes/internal/catalog"
	"github.com/pushkind/dantes/internal/web/middleware"
)

// exportFormat reads the optional ?format= query parameter, defaulting
// to CSV.
func exportFormat(r *http.Request) (catalog.UploadFormat, error) {
	raw := r.URL.Query().Get("format")
	if raw == "" {
		return catalog.FormatCsv, nil
	}
	return catalog.ParseUploadFormat(raw)
}

// handleProductExport streams the crawler's catalog as a download.
func (s *Server) handleProductExport(w http.ResponseWriter, r *http.Request) {
	crawler, err := s.requestCrawler(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	format, err := exportFormat(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	records, err := s.store.ListProducts(r.Context(), crawler.ID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	file, err := catalog.RenderExport("products", format, catalog.SourceProduct, records)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sendFile(w, file)
}

// handleBenchmarkExport streams the hub's benchmark rows as a download.
func (s *Server) handleBenchmarkExport(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())

	format, err := exportFormat(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	records, err := s.store.ListBenchmarks(r.Context(), id.HubID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	file, err := catalog.RenderExport("benchmarks", format, catalog.BenchmarkRow, records)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sendFile(w, file)
}

func sendFile(w http.ResponseWriter, file *catalog.ExportFile) {
	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.WriteHeader(http.StatusOK)
	w.Write(file.Bytes)
}
