package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

var workflowTemplate = template.Must(
	template.New("base.html").ParseFS(templateFS, "templates/base.html", "templates/workflow.html"),
)

func renderWorkflowEmail(msg Message) (string, error) {
	var buf bytes.Buffer
	if err := workflowTemplate.ExecuteTemplate(&buf, "email", msg); err != nil {
		return "", fmt.Errorf("execute workflow email template: %w", err)
	}
	return buf.String(), nil
}

// renderWorkflowText is the plain text part for clients that do not render
// HTML.
func renderWorkflowText(msg Message) string {
	var b strings.Builder
	if msg.Greeting != "" {
		b.WriteString(msg.Greeting)
		b.WriteString("\n\n")
	}
	b.WriteString(msg.Body)
	b.WriteString("\n")
	if msg.CTAURL != "" {
		fmt.Fprintf(&b, "\n%s: %s\n", msg.CTALabel, msg.CTAURL)
	}
	return b.String()
}
