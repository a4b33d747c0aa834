package engine

import (
	"os"
	"strings"
	"text/template"

	"github.com/go-go-golems/glazed/pkg/helpers/templating"
	"github.com/pkg/errors"
)

const DefaultPromptTemplate = `
You are {{.Name}}. {{.Description}}

Here is the conversation history:
{{.History}}

User: {{.Input}}

{{.Name}}:
`

// PromptData is what a prompt template is rendered with.
type PromptData struct {
	Name        string
	Description string
	History     string
	Input       string
}

// Prompt renders completion requests from a template.
type Prompt struct {
	tmpl *template.Template
}

func NewPrompt(text string) (*Prompt, error) {
	tmpl, err := templating.CreateTemplate("prompt").Parse(text)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse prompt template")
	}
	return &Prompt{tmpl: tmpl}, nil
}

// LoadPrompt reads a template file. An empty path returns the default
// template.
func LoadPrompt(path string) (*Prompt, error) {
	if path == "" {
		return NewPrompt(DefaultPromptTemplate)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read prompt template %s", path)
	}
	return NewPrompt(string(b))
}

func (p *Prompt) Render(data PromptData) (string, error) {
	var sb strings.Builder
	if err := p.tmpl.Execute(&sb, data); err != nil {
		return "", errors.Wrap(err, "could not render prompt")
	}
	return sb.String(), nil
}
