package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/papercomputeco/relay/pkg/llm"
)

// ExportFormat is a conversation export encoding.
type ExportFormat string

const (
	ExportJSON     ExportFormat = "json"
	ExportMarkdown ExportFormat = "markdown"
	ExportText     ExportFormat = "txt"
)

const exportDateLayout = "2006-01-02"

// ParseExportFormat validates a format name. "md" and "text" are accepted as
// aliases.
func ParseExportFormat(name string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "json":
		return ExportJSON, nil
	case "markdown", "md":
		return ExportMarkdown, nil
	case "txt", "text":
		return ExportText, nil
	default:
		return "", fmt.Errorf("unknown export format: %q (supported: json, markdown, txt)", name)
	}
}

// ContentType is the MIME type of an export.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportMarkdown:
		return "text/markdown; charset=utf-8"
	case ExportText:
		return "text/plain; charset=utf-8"
	case ExportJSON:
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// Extension is the file extension for an export.
func (f ExportFormat) Extension() string {
	switch f {
	case ExportMarkdown:
		return ".md"
	case ExportText:
		return ".txt"
	case ExportJSON:
		return ".json"
	default:
		return ""
	}
}

// Export renders conv in format.
func Export(conv *Conversation, format ExportFormat) ([]byte, error) {
	switch format {
	case ExportJSON:
		return json.MarshalIndent(conv, "", "  ")
	case ExportMarkdown:
		return []byte(exportMarkdown(conv)), nil
	case ExportText:
		return []byte(exportText(conv)), nil
	default:
		return nil, fmt.Errorf("unknown export format: %q", format)
	}
}

func exportMarkdown(conv *Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.Title + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(exportDateLayout) + "\n\n")
	sb.WriteString("---\n\n")

	for _, m := range conv.Messages {
		heading := "Assistant"
		if m.Role == llm.RoleUser {
			heading = "User"
		}
		sb.WriteString("## " + heading + "\n\n")
		sb.WriteString(m.Content + "\n\n")
		sb.WriteString("---\n\n")
	}
	return sb.String()
}

func exportText(conv *Conversation) string {
	var sb strings.Builder
	sb.WriteString(conv.Title + "\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(exportDateLayout) + "\n\n")
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, m := range conv.Messages {
		sb.WriteString(strings.ToUpper(m.Role) + ":\n")
		sb.WriteString(m.Content + "\n\n")
		sb.WriteString(strings.Repeat("-", 50) + "\n\n")
	}
	return sb.String()
}
