package ingestion

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lexph/batasrag-go/internal/rag"
)

// categoryByPrefix maps the issuing-instrument prefix of a document ID to our
// canonical category label. IDs follow the corpus convention of
// "<prefix>-<number>" (e.g. "ra-4136", "mc-2023-039", "jao-2014-01").
var categoryByPrefix = map[string]string{
	"ra":  "statute",
	"bp":  "statute",
	"ao":  "administrative-order",
	"mc":  "memorandum-circular",
	"jao": "joint-administrative-order",
	"do":  "department-order",
	"irr": "implementing-rules",
}

// yearPattern matches a plausible 4-digit year inside a document ID.
var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// InferMetadata returns best-effort metadata for a document based on its ID.
// Explicit metadata supplied by the caller takes precedence over inferred
// values; this is the fallback for bulk ingestion where only IDs and text are
// available. Unknown prefixes classify as "regulation".
func InferMetadata(documentID string) rag.Metadata {
	m := rag.Metadata{
		Category:     "regulation",
		Jurisdiction: "PH",
		Status:       rag.StatusActive,
	}

	id := strings.ToLower(strings.TrimSpace(documentID))
	prefix, _, found := strings.Cut(id, "-")
	if !found {
		prefix = id
	}
	if cat, ok := categoryByPrefix[prefix]; ok {
		m.Category = cat
	}

	// IDs embed the issuance year for dated instruments (e.g. "mc-2023-039").
	if match := yearPattern.FindString(id); match != "" {
		if y, err := strconv.Atoi(match); err == nil {
			m.Year = y
		}
	}

	return m
}

// fillMetadata completes partially specified metadata with inferred values.
// Fields the caller set explicitly are kept.
func fillMetadata(documentID string, given rag.Metadata) rag.Metadata {
	inferred := InferMetadata(documentID)
	if given.Category == "" {
		given.Category = inferred.Category
	}
	if given.Year == 0 {
		given.Year = inferred.Year
	}
	if given.Jurisdiction == "" {
		given.Jurisdiction = inferred.Jurisdiction
	}
	if given.Status == "" {
		given.Status = inferred.Status
	}
	return given
}
