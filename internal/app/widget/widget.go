package widget

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/template"

	"github.com/hickar/mailbar/internal/app/config"
	"github.com/hickar/mailbar/internal/app/mailer"
)

// Record is the single line consumed by the status bar.
type Record struct {
	Text    string `json:"text"`
	Tooltip string `json:"tooltip"`
}

// Fallback builds record shown instead of the summary when the run failed.
// Last known count is never shown.
func Fallback(warningGlyph string, err error) Record {
	return Record{
		Text:    warningGlyph,
		Tooltip: err.Error(),
	}
}

type statusWriter struct {
	w            io.Writer
	glyph        string
	warningGlyph string
	tmpl         *template.Template
	tmplErr      error
}

// NewStatusWriter creates forwarder printing records to w, one per line.
func NewStatusWriter(w io.Writer, cfg config.Config) *statusWriter {
	tmpl, err := parseTemplate(cfg.TooltipTemplate)

	return &statusWriter{
		w:            w,
		glyph:        cfg.Glyph,
		warningGlyph: cfg.WarningGlyph,
		tmpl:         tmpl,
		tmplErr:      err,
	}
}

// Forward prints unread count and tooltip with the latest messages.
// A rendering failure is printed as a fallback record.
func (sw *statusWriter) Forward(ctx context.Context, summary mailer.Summary) error {
	if sw.tmplErr != nil {
		return sw.Fail(ctx, sw.tmplErr)
	}

	tooltip, err := renderTooltip(summary.Latest, sw.tmpl)
	if err != nil {
		return sw.Fail(ctx, fmt.Errorf("render tooltip: %w", err))
	}

	return sw.Write(Record{
		Text:    fmt.Sprintf("%s  %d", sw.glyph, summary.Count),
		Tooltip: tooltip,
	})
}

func (sw *statusWriter) Fail(_ context.Context, err error) error {
	return sw.Write(Fallback(sw.warningGlyph, err))
}

// Write prints record as compact JSON object followed by a newline.
// Markup characters are kept as is.
func (sw *statusWriter) Write(record Record) error {
	enc := json.NewEncoder(sw.w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}
