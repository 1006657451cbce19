package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/ports"
	"github.com/kirillkom/docling-reports/internal/infrastructure/docprobe"
	"github.com/kirillkom/docling-reports/internal/infrastructure/export"
	"github.com/kirillkom/docling-reports/internal/observability/metrics"
)

const maxUploadBytes = 100 << 20

// TrafficPolicy bounds the conversion endpoints. Discovery and download
// endpoints are cheap and stay unguarded.
type TrafficPolicy struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	AdmissionWait  time.Duration
}

type Router struct {
	dispatcher ports.ReportDispatcher
	catalog    ports.ReportCatalog
	ocr        ports.MarkdownConverter
	runtime    ports.ConversionRuntime
	uploads    *UploadRegistry
	metrics    *metrics.HTTPServerMetrics
	service    string
	model      string
	traffic    TrafficPolicy
}

func NewRouter(
	dispatcher ports.ReportDispatcher,
	catalog ports.ReportCatalog,
	ocr ports.MarkdownConverter,
	runtime ports.ConversionRuntime,
	uploads *UploadRegistry,
	m *metrics.HTTPServerMetrics,
	service, model string,
	traffic TrafficPolicy,
) *Router {
	return &Router{
		dispatcher: dispatcher,
		catalog:    catalog,
		ocr:        ocr,
		runtime:    runtime,
		uploads:    uploads,
		metrics:    m,
		service:    service,
		model:      model,
		traffic:    traffic,
	}
}

// Handler assembles the route table and the middleware chain. Conversion
// endpoints additionally pass through rate limiting and backpressure.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", rt.handleHealthz)
	mux.HandleFunc("GET /info", rt.handleInfo)
	mux.HandleFunc("GET /v1/reports", rt.handleListReports)
	mux.Handle("POST /v1/convert", rt.guard(http.HandlerFunc(rt.handleConvert)))
	mux.Handle("POST /v1/convert/markdown", rt.guard(http.HandlerFunc(rt.handleConvertMarkdown)))
	mux.HandleFunc("GET /v1/original/{file_id}", rt.handleOriginal)
	mux.HandleFunc("POST /v1/export/xlsx", rt.handleExportXLSX)
	mux.Handle("GET /metrics", rt.metrics.Handler())

	var handler http.Handler = mux
	handler = rt.metrics.Middleware(rt.service, handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) guard(next http.Handler) http.Handler {
	next = backpressureMiddleware(next, rt.traffic.MaxInFlight, rt.traffic.AdmissionWait)
	next = rateLimitMiddleware(next, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	return next
}

func (rt *Router) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) handleInfo(w http.ResponseWriter, r *http.Request) {
	runtime := rt.runtime.Runtime(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"service": rt.service,
		"model":   rt.model,
		"reports": len(rt.catalog.ListReports()),
		"ocr":     runtime,
	})
}

func (rt *Router) handleListReports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"reports": rt.catalog.ListReports(),
	})
}

type reportView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

type originalFileView struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	ContentType  string `json:"content_type"`
	OriginalName string `json:"original_name"`
	Pages        int    `json:"pages"`
}

type convertResponse struct {
	Success      bool              `json:"success"`
	Filename     string            `json:"filename"`
	Markdown     string            `json:"markdown"`
	JSON         map[string]any    `json:"json"`
	Report       reportView        `json:"report"`
	OriginalFile *originalFileView `json:"original_file,omitempty"`
	Settings     map[string]any    `json:"settings,omitempty"`
}

// handleConvert runs the full document pipeline: store the upload, OCR it to
// markdown, then dispatch the markdown to a report converter.
func (rt *Router) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	reportID := strings.TrimSpace(r.FormValue("report_id"))
	device := strings.TrimSpace(r.FormValue("device"))
	if device != "" && device != "cuda" && device != "cpu" {
		writeError(w, http.StatusBadRequest, "device must be cuda or cpu")
		return
	}
	numThreads := 0
	if raw := strings.TrimSpace(r.FormValue("num_threads")); raw != "" {
		numThreads, err = strconv.Atoi(raw)
		if err != nil || numThreads < 1 {
			writeError(w, http.StatusBadRequest, "num_threads must be a positive integer")
			return
		}
	}

	fileID := uuid.NewString()
	entry, err := rt.uploads.Store(fileID, header.Filename, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	pages, err := docprobe.PageCount(entry.Path)
	if err != nil {
		pages = 0
	}

	ocrStart := time.Now()
	markdown, err := rt.ocr.ToMarkdown(r.Context(), domain.OCRRequest{
		InputPath:  entry.Path,
		Device:     device,
		NumThreads: numThreads,
	})
	if err != nil {
		rt.uploads.Discard(fileID)
		rt.metrics.RecordConversion(rt.service, reportID, conversionStatus(err), 0, 0)
		writeDomainError(w, r, err)
		return
	}
	rt.metrics.RecordOCR(rt.service, device, time.Since(ocrStart))

	start := time.Now()
	outcome, err := rt.dispatcher.Convert(r.Context(), markdown, reportID, header.Filename)
	if err != nil {
		rt.uploads.Discard(fileID)
		rt.metrics.RecordConversion(rt.service, reportID, conversionStatus(err), 0, 0)
		writeDomainError(w, r, err)
		return
	}
	rt.metrics.RecordConversion(rt.service, outcome.ReportID, "ok", outcome.Score, time.Since(start))

	writeJSON(w, http.StatusOK, convertResponse{
		Success:  true,
		Filename: header.Filename,
		Markdown: markdown,
		JSON:     outcome.Data,
		Report: reportView{
			ID:              outcome.ReportID,
			Name:            outcome.DisplayName,
			Score:           outcome.Score,
			MatchedKeywords: outcome.MatchedKeywords,
		},
		OriginalFile: &originalFileView{
			ID:           fileID,
			URL:          "/v1/original/" + fileID,
			ContentType:  entry.ContentType,
			OriginalName: entry.OriginalName,
			Pages:        pages,
		},
		Settings: map[string]any{
			"device":      device,
			"num_threads": numThreads,
		},
	})
}

type convertMarkdownRequest struct {
	Markdown string `json:"markdown"`
	ReportID string `json:"report_id"`
	Filename string `json:"filename"`
}

// handleConvertMarkdown dispatches already-extracted markdown, skipping the
// OCR stage entirely.
func (rt *Router) handleConvertMarkdown(w http.ResponseWriter, r *http.Request) {
	var req convertMarkdownRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	start := time.Now()
	outcome, err := rt.dispatcher.Convert(r.Context(), req.Markdown, req.ReportID, req.Filename)
	if err != nil {
		rt.metrics.RecordConversion(rt.service, req.ReportID, conversionStatus(err), 0, 0)
		writeDomainError(w, r, err)
		return
	}
	rt.metrics.RecordConversion(rt.service, outcome.ReportID, "ok", outcome.Score, time.Since(start))

	writeJSON(w, http.StatusOK, convertResponse{
		Success:  true,
		Filename: req.Filename,
		Markdown: req.Markdown,
		JSON:     outcome.Data,
		Report: reportView{
			ID:              outcome.ReportID,
			Name:            outcome.DisplayName,
			Score:           outcome.Score,
			MatchedKeywords: outcome.MatchedKeywords,
		},
	})
}

// handleOriginal serves a stored original document. PDFs render inline so
// browsers can preview them next to the conversion result.
func (rt *Router) handleOriginal(w http.ResponseWriter, r *http.Request) {
	fileID := r.PathValue("file_id")
	if _, err := uuid.Parse(fileID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	entry, ok := rt.uploads.Resolve(fileID)
	if !ok {
		writeError(w, http.StatusNotFound, "file not found or expired")
		return
	}

	disposition := "attachment"
	if docprobe.IsPDF(entry.Path) {
		disposition = "inline"
	}
	w.Header().Set("Content-Type", entry.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, entry.OriginalName))
	http.ServeFile(w, r, entry.Path)
}

// handleExportXLSX renders a previously returned conversion outcome as an
// XLSX workbook.
func (rt *Router) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	var outcome domain.Outcome
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUploadBytes)).Decode(&outcome); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if outcome.ReportID == "" || len(outcome.Data) == 0 {
		writeError(w, http.StatusBadRequest, "report_id and data are required")
		return
	}

	workbook, err := export.OutcomeXLSX(&outcome)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build workbook")
		return
	}

	filename := outcome.ReportID + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(workbook)))
	if _, err := w.Write(workbook); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		return
	}
}
