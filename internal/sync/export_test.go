package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/confvault/internal/model"
)

func TestExportJSONL_Empty(t *testing.T) {
	ms := newMockStore()
	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	if len(lines) != 1 {
		t.Fatalf("expected 1 line (header only), got %d", len(lines))
	}

	var h header
	if err := json.Unmarshal([]byte(lines[0]), &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Version != "1" || h.Type != "header" || h.EntityCount != 0 || h.VersionCount != 0 || h.TestResultCount != 0 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestExportJSONL_Ordering(t *testing.T) {
	ms := newMockStore()
	ms.seed(time.Now().UTC())

	var buf bytes.Buffer
	if err := ExportJSONL(context.Background(), ms, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := nonEmptyLines(buf.String())
	// 1 header + 2 entities + 3 versions + 1 test result
	if len(lines) != 7 {
		t.Fatalf("expected 7 lines, got %d:\n%s", len(lines), buf.String())
	}

	var types []string
	var kinds []model.Kind
	for _, line := range lines[1:] {
		var rec rawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("unmarshal %q: %v", line, err)
		}
		types = append(types, rec.Type)
		kinds = append(kinds, rec.Kind)
	}
	wantTypes := []string{"entity", "entity", "version", "version", "version", "test_result"}
	for i := range wantTypes {
		if types[i] != wantTypes[i] {
			t.Fatalf("types = %v, want %v", types, wantTypes)
		}
	}
	// Agents come before tools.
	if kinds[0] != model.KindAgent || kinds[1] != model.KindTool {
		t.Errorf("entity kinds = %v, want agent then tool", kinds[:2])
	}
	// HTML characters are not escaped.
	if !strings.Contains(buf.String(), "<Specialist>") {
		t.Error("expected unescaped angle brackets in export")
	}
}

func TestExportJSONL_SourceError(t *testing.T) {
	ms := newMockStore()
	ms.failList = errors.New("disk gone")
	var buf bytes.Buffer
	err := ExportJSONL(context.Background(), ms, &buf)
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Fatalf("expected wrapped source error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing written, got %q", buf.String())
	}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
