package domain

// ReportDescriptor is immutable metadata describing one registered report
// converter. Created at registry build time and never mutated afterwards.
type ReportDescriptor struct {
	ReportID    string   `json:"id"`
	DisplayName string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// DetectionContext carries the inputs available to converter detection
// heuristics. One instance is shared by all converters within a dispatch call.
type DetectionContext struct {
	Markdown         string
	OriginalFilename string
}

// DetectionResult is produced by a converter's detection routine. A nil result
// means "not applicable", which is distinct from a zero score.
type DetectionResult struct {
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// ConversionSettings is the per-call runtime configuration for extraction.
type ConversionSettings struct {
	OllamaURL   string
	OllamaModel string
}

// Outcome is the structured result of one successful conversion.
type Outcome struct {
	ReportID        string         `json:"report_id"`
	DisplayName     string         `json:"display_name"`
	Score           float64        `json:"score"`
	MatchedKeywords []string       `json:"matched_keywords"`
	Data            map[string]any `json:"data"`
}

// ReportCandidate is a lightweight projection of a converter used when zero or
// multiple converters matched and the caller must disambiguate.
type ReportCandidate struct {
	ReportID        string   `json:"id"`
	DisplayName     string   `json:"name"`
	Score           float64  `json:"score"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// OCRRequest describes one document-to-markdown run of the OCR collaborator.
type OCRRequest struct {
	InputPath  string
	Device     string
	NumThreads int
}

// OCRRuntime reports the device and thread defaults the OCR collaborator
// resolved for this host.
type OCRRuntime struct {
	Device     string `json:"device"`
	NumThreads int    `json:"num_threads"`
}
