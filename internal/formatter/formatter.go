// package formatter renders callback history as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/oauthcap/internal/models"
	"github.com/desertthunder/oauthcap/internal/server"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

const timeLayout = time.RFC3339

// Render dispatches records to the exporter for format.
func Render(format string, records []*models.CallbackRecord) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return ExportToText(records)
	case FormatCSV:
		return ExportToCSV(records)
	case FormatMarkdown, "md":
		return ExportToMarkdown(records)
	case FormatJSON:
		return ExportToJSON(records)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// ExportToCSV converts records to CSV with columns: Sequence, ID, Provider, Port, Status, Code, State, Error, Description, ReceivedAt
func ExportToCSV(records []*models.CallbackRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "ID", "Provider", "Port", "Status", "Code", "State", "Error", "Description", "ReceivedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, r := range records {
		record := []string{
			strconv.Itoa(r.Sequence()),
			r.ID(),
			r.Provider(),
			strconv.Itoa(r.Port()),
			r.Status(),
			strconv.FormatBool(r.HasCode()),
			strconv.FormatBool(r.HasState()),
			r.ErrorCode(),
			r.ErrorDescription(),
			r.ReceivedAt().Format(timeLayout),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts records to a Markdown table
func ExportToMarkdown(records []*models.CallbackRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Callback History\n\n")
	buf.WriteString(fmt.Sprintf("**Callbacks**: %d\n\n", len(records)))

	if len(records) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Provider | Port | Status | Error | Received |\n")
	buf.WriteString("|---|----------|------|--------|-------|----------|\n")
	for _, r := range records {
		buf.WriteString(fmt.Sprintf("| %d | %s | %d | %s | %s | %s |\n",
			r.Sequence(), escapeCell(r.Provider()), r.Port(), r.Status(),
			escapeCell(describeError(r)), r.ReceivedAt().Format(timeLayout)))
	}

	return buf.Bytes(), nil
}

// ExportToText converts records to plain text, one line per callback
func ExportToText(records []*models.CallbackRecord) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Callbacks: %d\n\n", len(records)))

	for _, r := range records {
		line := fmt.Sprintf("#%d %s %s port=%d status=%s", r.Sequence(),
			r.ReceivedAt().Format(timeLayout), r.Provider(), r.Port(), r.Status())
		if e := describeError(r); e != "" {
			line += " error=" + strconv.Quote(e)
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

type recordJSON struct {
	ID               string    `json:"id"`
	Sequence         int       `json:"sequence"`
	Provider         string    `json:"provider"`
	Port             int       `json:"port"`
	HasCode          bool      `json:"has_code"`
	HasState         bool      `json:"has_state"`
	Error            string    `json:"error,omitempty"`
	ErrorDescription string    `json:"error_description,omitempty"`
	ReceivedAt       time.Time `json:"received_at"`
}

// ExportToJSON converts records to an indented JSON array
func ExportToJSON(records []*models.CallbackRecord) ([]byte, error) {
	out := make([]recordJSON, 0, len(records))
	for _, r := range records {
		out = append(out, recordJSON{
			ID:               r.ID(),
			Sequence:         r.Sequence(),
			Provider:         r.Provider(),
			Port:             r.Port(),
			HasCode:          r.HasCode(),
			HasState:         r.HasState(),
			Error:            r.ErrorCode(),
			ErrorDescription: r.ErrorDescription(),
			ReceivedAt:       r.ReceivedAt(),
		})
	}
	return MarshalJSON(out, true)
}

// FormatPayload renders a live callback payload as a single JSON line.
func FormatPayload(p server.Payload) ([]byte, error) {
	return MarshalJSON(p, false)
}

// MarshalJSON marshals v, optionally indented.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return data, nil
}

// WriteExport renders records in format and writes them to path.
func WriteExport(format string, records []*models.CallbackRecord, path string) error {
	data, err := Render(format, records)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}

func describeError(r *models.CallbackRecord) string {
	switch {
	case r.ErrorCode() == "":
		return ""
	case r.ErrorDescription() == "":
		return r.ErrorCode()
	default:
		return r.ErrorCode() + ": " + r.ErrorDescription()
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
