package infra

import (
	"strings"
	"testing"

	"tryon/internal/sqlinline"
)

func TestExtractMarker(t *testing.T) {
	query := "--sql 096af08b-389c-4e0c-8fdc-df4c9ab01da5\nselect 1;"
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extract marker: %v", err)
	}
	if marker != "096af08b-389c-4e0c-8fdc-df4c9ab01da5" {
		t.Fatalf("marker = %q", marker)
	}
	if strings.Contains(trimmed, "--sql") {
		t.Fatalf("marker line must be stripped from the executed SQL: %q", trimmed)
	}
}

func TestExtractMarkerRejectsUnmarkedSQL(t *testing.T) {
	for _, query := range []string{
		"select 1;",
		"--sql not-a-uuid\nselect 1;",
		"",
	} {
		if _, _, err := extractMarker(query); err == nil {
			t.Fatalf("expected error for query %q", query)
		}
	}
}

// Every inline statement must carry a valid marker, otherwise the runner
// refuses to execute it at runtime.
func TestAllInlineQueriesCarryMarkers(t *testing.T) {
	queries := map[string]string{
		"QEnsureJobsTable":              sqlinline.QEnsureJobsTable,
		"QInsertJob":                    sqlinline.QInsertJob,
		"QSelectJob":                    sqlinline.QSelectJob,
		"QClaimJob":                     sqlinline.QClaimJob,
		"QAckJob":                       sqlinline.QAckJob,
		"QMarkJobSubmitted":             sqlinline.QMarkJobSubmitted,
		"QMarkJobPolling":               sqlinline.QMarkJobPolling,
		"QMarkJobCompleted":             sqlinline.QMarkJobCompleted,
		"QMarkJobTerminal":              sqlinline.QMarkJobTerminal,
		"QSelectIntegrationToken":       sqlinline.QSelectIntegrationToken,
		"QUpsertIntegrationToken":       sqlinline.QUpsertIntegrationToken,
		"QEnsureIntegrationTokensTable": sqlinline.QEnsureIntegrationTokensTable,
	}
	seen := make(map[string]string, len(queries))
	for name, query := range queries {
		marker, _, err := extractMarker(query)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if prior, ok := seen[marker]; ok {
			t.Errorf("%s reuses marker %s from %s", name, marker, prior)
		}
		seen[marker] = name
	}
}
