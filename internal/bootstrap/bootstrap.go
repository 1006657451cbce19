package bootstrap

import (
	"fmt"
	"time"

	httpadapter "github.com/kirillkom/docling-reports/internal/adapters/http"
	"github.com/kirillkom/docling-reports/internal/config"
	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/registry"
	"github.com/kirillkom/docling-reports/internal/core/usecase"
	"github.com/kirillkom/docling-reports/internal/infrastructure/converter"
	"github.com/kirillkom/docling-reports/internal/infrastructure/docling"
	"github.com/kirillkom/docling-reports/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/docling-reports/internal/infrastructure/resilience"
	"github.com/kirillkom/docling-reports/internal/observability/metrics"
)

// App holds the wired application graph. Construction is eager so that
// misconfiguration fails at startup rather than on the first request.
type App struct {
	Dispatcher *usecase.DispatchService
	OCR        *docling.Converter
	Uploads    *httpadapter.UploadRegistry
	Metrics    *metrics.HTTPServerMetrics
}

func New(cfg config.Config, service string) (*App, error) {
	executor := resilience.NewExecutor(resilience.Config{
		BreakerEnabled:          cfg.BreakerEnabled,
		BreakerMinRequests:      uint32(cfg.BreakerMinRequests),
		BreakerFailureRatio:     cfg.BreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.BreakerOpenTimeoutSeconds) * time.Second,
		BreakerHalfOpenMaxCalls: uint32(cfg.BreakerHalfOpenMaxCalls),
	})

	extractor := ollama.New(
		cfg.OllamaURL,
		cfg.OllamaModel,
		time.Duration(cfg.OllamaTimeoutSeconds)*time.Second,
		executor,
	)

	reg, err := registry.New(converter.Catalog(extractor)...)
	if err != nil {
		return nil, fmt.Errorf("build converter registry: %w", err)
	}

	dispatcher := usecase.NewDispatchService(
		reg,
		domain.ConversionSettings{
			OllamaURL:   cfg.OllamaURL,
			OllamaModel: cfg.OllamaModel,
		},
		usecase.DetectionPolicy{
			ConfidenceFloor: cfg.DetectConfidenceFloor,
			MaxCandidates:   cfg.DetectMaxCandidates,
		},
	)

	ocr := docling.New(docling.Config{
		Binary:          cfg.DoclingBinary,
		OCREngine:       cfg.DoclingOCREngine,
		ImageExportMode: cfg.DoclingImageExportMode,
		Timeout:         time.Duration(cfg.DoclingTimeoutSeconds) * time.Second,
		Device:          cfg.DoclingDevice,
		NumThreads:      cfg.DoclingNumThreads,
	}, nil)

	uploads, err := httpadapter.NewUploadRegistry(
		cfg.TempUploadDir,
		time.Duration(cfg.TempFileMaxAgeSeconds)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("init upload registry: %w", err)
	}

	return &App{
		Dispatcher: dispatcher,
		OCR:        ocr,
		Uploads:    uploads,
		Metrics:    metrics.NewHTTPServerMetrics(service),
	}, nil
}
