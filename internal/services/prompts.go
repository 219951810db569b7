package services

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const assistPromptsEnv = "ASSIST_PROMPTS_YAML"

const (
	promptAutoGenerate     = "autogenerate"
	promptConsistencyCheck = "consistency_check"
	promptAutoAnswer       = "auto_answer"
	promptCanvasUpdate     = "canvas_update"
	promptResearch         = "research"
	promptInterview        = "interview"
)

var requiredPrompts = []string{
	promptAutoGenerate,
	promptConsistencyCheck,
	promptAutoAnswer,
	promptCanvasUpdate,
	promptResearch,
	promptInterview,
}

//go:embed prompts.yaml
var promptsFS embed.FS

type yamlPromptCatalog struct {
	Version int               `yaml:"version"`
	System  string            `yaml:"system"`
	Prompts map[string]string `yaml:"prompts"`
}

type promptCatalog struct {
	system    string
	templates map[string]*template.Template
}

var promptFuncs = template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
}

// loadPromptCatalog reads the catalogue from ASSIST_PROMPTS_YAML when set, else
// the embedded copy.
func loadPromptCatalog() (*promptCatalog, error) {
	data, err := readPromptCatalog()
	if err != nil {
		return nil, err
	}
	return parsePromptCatalog(data)
}

func readPromptCatalog() ([]byte, error) {
	if path := strings.TrimSpace(os.Getenv(assistPromptsEnv)); path != "" {
		return os.ReadFile(path)
	}
	return promptsFS.ReadFile("prompts.yaml")
}

func parsePromptCatalog(data []byte) (*promptCatalog, error) {
	var raw yamlPromptCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse prompt catalogue: %w", err)
	}
	if strings.TrimSpace(raw.System) == "" {
		return nil, fmt.Errorf("prompt catalogue: system prompt is empty")
	}
	out := &promptCatalog{
		system:    strings.TrimSpace(raw.System),
		templates: make(map[string]*template.Template, len(raw.Prompts)),
	}
	for _, name := range requiredPrompts {
		body, ok := raw.Prompts[name]
		if !ok || strings.TrimSpace(body) == "" {
			return nil, fmt.Errorf("prompt catalogue: missing prompt %q", name)
		}
		t, err := template.New(name).Funcs(promptFuncs).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("prompt catalogue: %s: %w", name, err)
		}
		out.templates[name] = t
	}
	return out, nil
}

func (c *promptCatalog) render(name string, data any) (string, error) {
	t, ok := c.templates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
