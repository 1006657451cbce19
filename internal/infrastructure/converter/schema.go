package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/docling-reports/internal/core/domain"
	"github.com/kirillkom/docling-reports/internal/core/ports"
)

// Spec declaratively describes one report converter: its identity, the
// detection keywords, the JSON-schema constraint sent to the model, and the
// extraction rules embedded in the prompt. Specs are configuration data;
// adding a report type means adding a Spec, not dispatch logic.
type Spec struct {
	ReportID     string
	DisplayName  string
	Description  string
	DocumentKind string
	Keywords     []string
	Rules        []string
	Schema       map[string]any
}

// SchemaConverter adapts one Spec to the ReportConverter contract. Detection
// is pure keyword counting; conversion prompts the model backend with the
// schema constraint and validates the response against the same schema. The
// compiled schema is built lazily, once, and is race-safe.
type SchemaConverter struct {
	spec      Spec
	extractor ports.StructuredExtractor

	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
}

func NewSchemaConverter(spec Spec, extractor ports.StructuredExtractor) *SchemaConverter {
	return &SchemaConverter{spec: spec, extractor: extractor}
}

func (c *SchemaConverter) Descriptor() domain.ReportDescriptor {
	return domain.ReportDescriptor{
		ReportID:    c.spec.ReportID,
		DisplayName: c.spec.DisplayName,
		Description: c.spec.Description,
		Keywords:    append([]string(nil), c.spec.Keywords...),
	}
}

// Detect counts case-insensitive occurrences of every keyword in the markdown
// body; a keyword absent from the body but present in the filename is credited
// one occurrence. Returns nil when no keyword matched at all.
func (c *SchemaConverter) Detect(dctx domain.DetectionContext) *domain.DetectionResult {
	if len(c.spec.Keywords) == 0 {
		return nil
	}

	text := strings.ToLower(dctx.Markdown)
	filename := strings.ToLower(dctx.OriginalFilename)

	var (
		score   float64
		matched []string
	)
	for _, keyword := range c.spec.Keywords {
		kw := strings.ToLower(keyword)
		if kw == "" {
			continue
		}
		if occurrences := strings.Count(text, kw); occurrences > 0 {
			score += float64(occurrences)
			matched = append(matched, keyword)
			continue
		}
		if strings.Contains(filename, kw) {
			score++
			matched = append(matched, keyword)
		}
	}

	if len(matched) == 0 {
		return nil
	}
	return &domain.DetectionResult{Score: score, MatchedKeywords: matched}
}

// Convert extracts the structured payload for this report kind. All failure
// modes are wrapped into the conversion error kind; backend timeout and
// unreachable kinds from the extractor are preserved in the chain.
func (c *SchemaConverter) Convert(ctx context.Context, markdown, markdownPath string, settings domain.ConversionSettings) (map[string]any, error) {
	op := fmt.Sprintf("convert %q", c.spec.ReportID)

	if markdown == "" && markdownPath != "" {
		content, err := readMarkdownFile(markdownPath)
		if err != nil {
			return nil, domain.WrapError(domain.ErrConversion, op, err)
		}
		markdown = content
	}

	raw, err := c.extractor.ExtractJSON(ctx, settings, buildPrompt(c.spec, markdown), c.spec.Schema)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConversion, op, err)
	}

	schema, err := c.schema()
	if err != nil {
		return nil, domain.WrapError(domain.ErrConversion, op, err)
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, domain.WrapError(domain.ErrConversion, op,
			domain.WrapError(domain.ErrSchemaMismatch, "decode response", err))
	}
	if err := schema.Validate(value); err != nil {
		return nil, domain.WrapError(domain.ErrConversion, op,
			domain.WrapError(domain.ErrSchemaMismatch, "validate response", err))
	}

	payload, ok := value.(map[string]any)
	if !ok {
		return nil, domain.WrapError(domain.ErrConversion, op,
			domain.WrapError(domain.ErrSchemaMismatch, "validate response", fmt.Errorf("expected JSON object, got %T", value)))
	}
	return payload, nil
}

func (c *SchemaConverter) schema() (*jsonschema.Schema, error) {
	c.compileOnce.Do(func() {
		c.compiled, c.compileErr = compileSchema(c.spec.ReportID, c.spec.Schema)
	})
	return c.compiled, c.compileErr
}
