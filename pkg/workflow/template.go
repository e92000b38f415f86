package workflow

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is one stage of a template.
type Step struct {
	Name         string `json:"name" yaml:"name"`
	SystemPrompt string `json:"systemPrompt" yaml:"system_prompt"`
}

// Template is a named sequence of steps.
type Template struct {
	Name  string `json:"name" yaml:"name"`
	Steps []Step `json:"steps" yaml:"steps"`
}

// Validate checks that the template is runnable.
func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.New("template name is required")
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("template %q: %w", t.Name, ErrNoSteps)
	}
	for i, s := range t.Steps {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("template %q: step %d has no name", t.Name, i)
		}
		if strings.TrimSpace(s.SystemPrompt) == "" {
			return fmt.Errorf("template %q: step %q has no system prompt", t.Name, s.Name)
		}
	}
	return nil
}

// Builtin returns the templates shipped with relay.
func Builtin() []Template {
	return []Template{
		{
			Name: "Research → Write → Edit",
			Steps: []Step{
				{Name: "Research", SystemPrompt: "You are a research assistant. Research the topic thoroughly and provide key findings."},
				{Name: "Write", SystemPrompt: "You are a professional writer. Using the research provided, write a comprehensive article."},
				{Name: "Edit", SystemPrompt: "You are an expert editor. Polish the article for grammar, clarity, and flow."},
			},
		},
		{
			Name: "Code → Test → Review",
			Steps: []Step{
				{Name: "Code Generator", SystemPrompt: "You are a software engineer. Write clean, well-documented code based on the requirements."},
				{Name: "Test Generator", SystemPrompt: "You are a testing expert. Generate comprehensive tests for the code provided."},
				{Name: "Code Reviewer", SystemPrompt: "You are a senior developer. Review the code and tests for quality, security, and best practices."},
			},
		},
		{
			Name: "Outline → Draft → Refine",
			Steps: []Step{
				{Name: "Outliner", SystemPrompt: "Create a detailed outline for the content."},
				{Name: "Drafter", SystemPrompt: "Write a full draft based on the outline."},
				{Name: "Refiner", SystemPrompt: "Refine and improve the draft to make it publication-ready."},
			},
		},
	}
}

type templateFile struct {
	Templates []Template `yaml:"templates"`
}

// ParseTemplates decodes a YAML document of the form:
//
//	templates:
//	  - name: Summarize
//	    steps:
//	      - name: Summarizer
//	        system_prompt: Summarize the input.
//
// Unknown keys are rejected.
func ParseTemplates(data []byte) ([]Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f templateFile
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse workflow templates: %w", err)
	}

	for _, t := range f.Templates {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Templates, nil
}

// LoadTemplates reads templates from a YAML file.
func LoadTemplates(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workflow templates: %w", err)
	}
	return ParseTemplates(data)
}

// Library is a name-indexed set of templates. Later additions replace
// earlier templates with the same name.
type Library struct {
	order     []string
	templates map[string]Template
}

// NewLibrary creates a library seeded with templates.
func NewLibrary(templates ...Template) *Library {
	l := &Library{templates: make(map[string]Template)}
	l.Add(templates...)
	return l
}

// Add inserts or replaces templates.
func (l *Library) Add(templates ...Template) {
	for _, t := range templates {
		if _, ok := l.templates[t.Name]; !ok {
			l.order = append(l.order, t.Name)
		}
		l.templates[t.Name] = t
	}
}

// Get returns a template by name.
func (l *Library) Get(name string) (Template, bool) {
	t, ok := l.templates[name]
	return t, ok
}

// All returns templates in insertion order.
func (l *Library) All() []Template {
	out := make([]Template, 0, len(l.order))
	for _, n := range l.order {
		out = append(out, l.templates[n])
	}
	return out
}
