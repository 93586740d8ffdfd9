package translation

import (
	"bytes"
	"text/template"
)

const itemNamePrompt = `You translate item names of a 3D scene editor for a Japanese game.
Translate the following name from {{.SourceLanguage}} to {{.TargetLanguage}}.
{{- if .Context}}
It belongs to: {{.Context}}
{{- end}}
Keep proper nouns, brand names and numbers as they are. Answer with the translated name only, on one line.

Name: {{.Text}}`

var itemNameTemplate = template.Must(template.New("item_name").Parse(itemNamePrompt))

type PromptVars struct {
	SourceLanguage string
	TargetLanguage string
	Context        string
	Text           string
}

func BuildPrompt(vars PromptVars) (string, error) {
	if vars.SourceLanguage == "" {
		vars.SourceLanguage = "Japanese"
	}
	if vars.TargetLanguage == "" {
		vars.TargetLanguage = "English"
	}

	var buf bytes.Buffer
	if err := itemNameTemplate.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}
