// Package rag turns user supplied documents into a system prompt that grounds
// the conversation in their content.
package rag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
)

// MaxDocumentSize is the largest document accepted, in bytes.
const MaxDocumentSize = 5 * 1024 * 1024

const (
	preamble = "You are an AI assistant with access to the following documents. " +
		"Use this context to answer questions accurately and cite sources when relevant."

	guidelines = "When answering questions:\n" +
		"1. Use information from the provided documents\n" +
		"2. Cite which document(s) you're referencing\n" +
		"3. If the answer isn't in the documents, say so\n" +
		"4. Be accurate and don't make up information"

	documentSeparator = "\n\n---\n\n"
)

// ErrTooLarge is returned for documents over MaxDocumentSize.
var ErrTooLarge = errors.New("document too large")

// ErrUnsupportedType is returned for files whose extension is not text.
var ErrUnsupportedType = errors.New("unsupported document type")

// AllowedExtensions are the file types LoadFile accepts.
var AllowedExtensions = []string{
	".txt", ".md", ".json", ".js", ".ts", ".tsx", ".jsx", ".py",
	".java", ".cpp", ".c", ".h", ".css", ".html", ".htm", ".go", ".yaml", ".yml",
}

// Document is a named piece of context.
type Document struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Content string    `json:"content"`
	AddedAt time.Time `json:"addedAt"`
}

// NewDocument builds a document. HTML content, detected by file extension,
// is converted to markdown.
func NewDocument(name, content string) (Document, error) {
	if len(content) > MaxDocumentSize {
		return Document{}, fmt.Errorf("%w: %s is %d bytes, max %d", ErrTooLarge, name, len(content), MaxDocumentSize)
	}

	if isHTML(name) {
		md, err := htmltomarkdown.ConvertString(content)
		if err != nil {
			return Document{}, fmt.Errorf("converting %s to markdown: %w", name, err)
		}
		content = md
	}

	return Document{
		ID:      uuid.NewString(),
		Name:    name,
		Content: content,
		AddedAt: time.Now().UTC(),
	}, nil
}

// LoadFile reads a document from disk.
func LoadFile(path string) (Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(AllowedExtensions, ext) {
		return Document{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Document{}, fmt.Errorf("stat document: %w", err)
	}
	if info.Size() > MaxDocumentSize {
		return Document{}, fmt.Errorf("%w: %s is %d bytes, max %d", ErrTooLarge, path, info.Size(), MaxDocumentSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read document: %w", err)
	}

	return NewDocument(filepath.Base(path), string(data))
}

// BuildSystemPrompt renders docs into the grounding prompt. No documents
// yield an empty prompt.
func BuildSystemPrompt(docs []Document) string {
	if len(docs) == 0 {
		return ""
	}

	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		parts = append(parts, "Document: "+d.Name+"\n\n"+d.Content)
	}

	return preamble + "\n\n" + strings.Join(parts, documentSeparator) + "\n\n" + guidelines
}

func isHTML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".html" || ext == ".htm"
}
