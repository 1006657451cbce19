package converter

import (
	"fmt"
	"strings"
)

// buildPrompt composes the extraction instruction for one report kind. The
// schema itself travels separately as the structured-output constraint; the
// prompt restates the task and the report-specific extraction rules.
func buildPrompt(spec Spec, markdown string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a data extraction assistant. Extract all information from the %s into a strictly valid JSON structure.\n\n", spec.DocumentKind)
	b.WriteString("The report is written in markdown format. Parse all relevant fields and return ONLY JSON that conforms exactly to the provided JSON Schema.\n\n")

	b.WriteString("Key extraction rules:\n")
	n := 1
	for _, rule := range spec.Rules {
		fmt.Fprintf(&b, "%d. %s\n", n, rule)
		n++
	}
	for _, rule := range []string{
		"Numeric values must be stored as numbers, not strings.",
		"Dates must remain in ISO or string date format (e.g., \"2025-10-16\" or \"16-Oct-2025\").",
		"If any value is missing, use null.",
		"Do not include any extra text, only the JSON.",
	} {
		fmt.Fprintf(&b, "%d. %s\n", n, rule)
		n++
	}

	fmt.Fprintf(&b, "\nHere is the markdown content of the %s:\n\n%s\n", spec.DocumentKind, markdown)
	return b.String()
}
