package widget

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"html"
	"strings"
	"text/template"
	"time"

	"github.com/hickar/mailbar/internal/app/mailer"
)

// defaultTemplateContent renders a single tooltip block. Subject is bold,
// sender is indented and date is set in small font.
const defaultTemplateContent = ` <b>{{ escapeHTML .Subject }}</b>
  {{ escapeHTML .Sender }}
  <small>{{ formatDate .Date }}</small>`

const (
	dateLayout = "2006-01-02 15:04:05-07:00"
	// unknownDate is shown for messages without a parseable Date header,
	// in place of a language-specific null literal.
	unknownDate = "unknown"
)

var (
	defaultTemplateFuncs = template.FuncMap{
		"escapeHTML": escapeHTML,
		"formatDate": formatDate,
		"join":       strings.Join,
		"replace":    strings.Replace,
		"replaceAll": strings.ReplaceAll,
		"upper":      strings.ToUpper,
		"lower":      strings.ToLower,
		"contains":   strings.Contains,
		"trim":       strings.Trim,
		"trimSpace":  strings.TrimSpace,
	}
	defaultTemplateName = "default"
	defaultTemplate     = template.Must(
		template.
			New(defaultTemplateName).
			Funcs(defaultTemplateFuncs).
			Parse(defaultTemplateContent),
	)
)

// parseTemplate returns block template. Empty content selects the default one.
func parseTemplate(templateContent string) (*template.Template, error) {
	if templateContent == "" {
		return defaultTemplate, nil
	}

	tmpl, err := template.
		New(templateHash(templateContent)).
		Funcs(defaultTemplateFuncs).
		Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("custom template parsing: %w", err)
	}

	return tmpl, nil
}

// renderTooltip renders one block per message and joins them with newlines.
func renderTooltip(messages []mailer.Message, tmpl *template.Template) (string, error) {
	blocks := make([]string, 0, len(messages))

	var buf bytes.Buffer
	for _, message := range messages {
		buf.Reset()
		if err := tmpl.Execute(&buf, message); err != nil {
			return "", fmt.Errorf("template rendering: %w", err)
		}

		blocks = append(blocks, buf.String())
	}

	return strings.Join(blocks, "\n"), nil
}

func templateHash(s string) string {
	h := fnv.New32()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("custom-%08x", h.Sum32())
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return unknownDate
	}

	return t.UTC().Format(dateLayout)
}
