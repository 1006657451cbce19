package docling

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/docling-reports/internal/core/domain"
)

const (
	DeviceCUDA = "cuda"
	DeviceCPU  = "cpu"
)

type Config struct {
	Binary          string
	OCREngine       string
	ImageExportMode string
	Timeout         time.Duration

	// Device and NumThreads override autodetection when set.
	Device     string
	NumThreads int
}

func (c Config) normalize() Config {
	out := c
	if out.Binary == "" {
		out.Binary = "docling"
	}
	if out.OCREngine == "" {
		out.OCREngine = "rapidocr"
	}
	if out.ImageExportMode == "" {
		out.ImageExportMode = "placeholder"
	}
	if out.Timeout <= 0 {
		out.Timeout = 10 * time.Minute
	}
	return out
}

// Converter invokes the docling CLI to turn an uploaded document into
// markdown. The tool itself is an opaque external collaborator; this adapter
// only shapes its invocation and consumes its output.
type Converter struct {
	cfg    Config
	runner Runner

	deviceOnce sync.Once
	device     string
}

func New(cfg Config, runner Runner) *Converter {
	if runner == nil {
		runner = execRunner{}
	}
	return &Converter{cfg: cfg.normalize(), runner: runner}
}

// ToMarkdown runs docling against req.InputPath and returns the produced
// markdown. Failure surface: input missing, process failure, timeout, and no
// markdown output.
func (c *Converter) ToMarkdown(ctx context.Context, req domain.OCRRequest) (string, error) {
	if _, err := os.Stat(req.InputPath); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "docling input", fmt.Errorf("input file %q does not exist: %w", req.InputPath, err))
	}

	device := req.Device
	if device == "" {
		device = c.detectDevice(ctx)
	}
	numThreads := req.NumThreads
	if numThreads <= 0 {
		numThreads = c.defaultThreads()
	}

	outputDir, err := os.MkdirTemp("", "docling-out-*")
	if err != nil {
		return "", fmt.Errorf("create docling output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	args := []string{
		req.InputPath,
		"--output", outputDir,
		"--device", device,
		"--ocr-engine", c.cfg.OCREngine,
		"--image-export-mode", c.cfg.ImageExportMode,
		"--force-ocr",
		"--num-threads", strconv.Itoa(numThreads),
	}

	_, stderr, err := c.runner.Run(runCtx, c.cfg.Binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return "", domain.WrapError(domain.ErrBackendTimeout, "docling run", fmt.Errorf("processing timeout (%s exceeded)", c.cfg.Timeout))
		}
		return "", domain.WrapError(domain.ErrConversion, "docling run", fmt.Errorf("%w: %s", err, truncate(string(stderr), 2048)))
	}

	markdown, err := readMarkdownOutput(outputDir)
	if err != nil {
		return "", domain.WrapError(domain.ErrConversion, "docling output", fmt.Errorf("%w; stderr: %s", err, truncate(string(stderr), 2048)))
	}
	return markdown, nil
}

// Runtime reports the resolved device and thread defaults for this host.
func (c *Converter) Runtime(ctx context.Context) domain.OCRRuntime {
	return domain.OCRRuntime{
		Device:     c.detectDevice(ctx),
		NumThreads: c.defaultThreads(),
	}
}

// detectDevice probes for CUDA via nvidia-smi once per process; anything else
// falls back to CPU.
func (c *Converter) detectDevice(ctx context.Context) string {
	c.deviceOnce.Do(func() {
		if c.cfg.Device != "" {
			c.device = c.cfg.Device
			return
		}
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if _, _, err := c.runner.Run(probeCtx, "nvidia-smi"); err == nil {
			c.device = DeviceCUDA
			return
		}
		c.device = DeviceCPU
	})
	return c.device
}

func (c *Converter) defaultThreads() int {
	if c.cfg.NumThreads > 0 {
		return c.cfg.NumThreads
	}
	return runtime.NumCPU()
}

func readMarkdownOutput(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return "", fmt.Errorf("scan output dir: %w", err)
	}
	if len(matches) == 0 {
		return "", errors.New("no markdown output produced")
	}
	sort.Strings(matches)

	raw, err := os.ReadFile(matches[0])
	if err != nil {
		return "", fmt.Errorf("read markdown output: %w", err)
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return "", errors.New("markdown output is empty")
	}
	return content, nil
}
