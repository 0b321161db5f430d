package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/oauthcap/internal/models"
	"github.com/desertthunder/oauthcap/internal/server"
	th "github.com/desertthunder/oauthcap/internal/testing"
)

func sampleRecords() []*models.CallbackRecord {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	ok := models.NewCallbackRecord(2, "google", 1420)
	ok.SetID("id-2")
	ok.SetPresence(true, true)
	ok.SetReceivedAt(at)

	failed := models.NewCallbackRecord(1, "github", 8080)
	failed.SetID("id-1")
	failed.SetPresence(false, true)
	failed.SetError("access_denied", "User | denied")
	failed.SetReceivedAt(at.Add(-time.Minute))

	return []*models.CallbackRecord{ok, failed}
}

func TestExporters(t *testing.T) {
	records := sampleRecords()

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(records)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Sequence,ID,Provider,Port,Status,Code,State,Error,Description,ReceivedAt") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "2,id-2,google,1420,ok,true,true,,,2026-10-16T12:00:00Z") {
			t.Errorf("CSV missing google row, got: %s", output)
		}
		if !strings.Contains(output, "access_denied") {
			t.Errorf("CSV missing error code")
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(records)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Callback History") {
			t.Error("Markdown missing title")
		}
		if !strings.Contains(output, "**Callbacks**: 2") {
			t.Error("Markdown missing count")
		}
		if !strings.Contains(output, `access_denied: User \| denied`) {
			t.Errorf("Markdown should escape pipes, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown empty", func(t *testing.T) {
		data, err := ExportToMarkdown(nil)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if strings.Contains(string(data), "| # |") {
			t.Error("empty history should not render a table")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(records)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "Callbacks: 2" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if !strings.HasPrefix(lines[2], "#2 2026-10-16T12:00:00Z google port=1420 status=ok") {
			t.Errorf("unexpected first record line %q", lines[2])
		}
		if !strings.Contains(lines[3], `error="access_denied: User | denied"`) {
			t.Errorf("unexpected error line %q", lines[3])
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(records)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded []map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0]["provider"] != "google" {
			t.Errorf("unexpected JSON %s", data)
		}
		if _, ok := decoded[0]["error"]; ok {
			t.Error("empty error should be omitted")
		}
	})

	t.Run("Render", func(t *testing.T) {
		for _, format := range []string{"", "text", "csv", "markdown", "md", "json"} {
			if _, err := Render(format, records); err != nil {
				t.Errorf("Render(%q) error: %v", format, err)
			}
		}
		if _, err := Render("yaml", records); err == nil {
			t.Error("expected error for unsupported format")
		}
	})

	t.Run("WriteExport", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "history.csv")
		if err := WriteExport("csv", records, path); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "google") {
			t.Error("export file missing records")
		}
	})
}

func TestFormatPayload(t *testing.T) {
	code := "abc"
	data, err := FormatPayload(server.Payload{Provider: "google", Code: &code})
	if err != nil {
		t.Fatalf("FormatPayload failed: %v", err)
	}

	want := `{"provider":"google","code":"abc","state":null,"error":null,"error_description":null}`
	if string(data) != want {
		t.Errorf("FormatPayload() = %s, want %s", data, want)
	}
}
