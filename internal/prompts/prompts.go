// Package prompts renders the generation prompts from embedded templates.
package prompts

import (
	"bytes"
	"embed"
	"strings"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

var (
	answerTmpl   = template.Must(template.ParseFS(templatesFS, "templates/answer.md"))
	followUpTmpl = template.Must(template.ParseFS(templatesFS, "templates/followup.md"))
)

// RenderAnswerPrompt renders the counselor persona with the retrieved
// context and the question being answered.
func RenderAnswerPrompt(context, question string) (string, error) {
	data := struct {
		Context  string
		Question string
	}{
		Context:  context,
		Question: question,
	}
	return render(answerTmpl, data)
}

// RenderFollowUpPrompt asks for a single next question grounded on the
// rendered reference list.
func RenderFollowUpPrompt(referencesText, question string) (string, error) {
	data := struct {
		References string
		Question   string
	}{
		References: referencesText,
		Question:   question,
	}
	return render(followUpTmpl, data)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
