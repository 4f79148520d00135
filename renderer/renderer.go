// Package renderer turns valuation results into markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"math"
	"strings"
	"text/template"

	"github.com/Rhymond/go-money"
	"github.com/etnz/valuation"
)

//go:embed *.md
var templates embed.FS

// funcs are the formatting helpers available to every template.
var funcs = template.FuncMap{
	"pct":   formatPct,
	"num":   formatNum,
	"ratio": formatRatio,
	"join":  strings.Join,
}

// formatPct prints a rate as a percentage, "n/a" when it is not a number.
func formatPct(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "n/a"
	}
	return valuation.Pct(rate).String()
}

// numFormat groups thousands with commas and keeps two decimals, without a currency sign.
var numFormat = money.NewFormatter(2, ".", ",", "", "1")

// formatNum prints a value with thousand separators and two decimals.
func formatNum(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return numFormat.Format(int64(math.Round(v * 100)))
}

// formatRatio prints a multiple like a P/E, "n/a" when it is not a number.
func formatRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// RenderValuation renders a discounted cash flow valuation.
func RenderValuation(r *valuation.Result) string {
	partials := map[string]string{
		"valuation_title":    "valuation_title.md",
		"valuation_rates":    "valuation_rates.md",
		"valuation_metrics":  "valuation_metrics.md",
		"valuation_verdict":  "valuation_verdict.md",
		"valuation_warnings": "valuation_warnings.md",
	}
	return renderTemplate("valuation", "valuation.md", partials, r)
}

// RenderComparison renders the peer comparison of a company.
func RenderComparison(c *valuation.Comparison) string {
	partials := map[string]string{
		"peers_table": "peers_table.md",
	}
	return renderTemplate("peers", "peers.md", partials, c)
}

// RenderScreen renders the result of an exchange screening.
func RenderScreen(s *valuation.ScreenResult, opts ScreenRenderOptions) string {
	partials := map[string]string{
		"screen_selected":   "screen_selected.md",
		"screen_regression": "screen_regression.md",
		"screen_skipped":    "screen_skipped.md",
	}
	// An empty file name results in an empty template.
	if !opts.ShowSkipped {
		partials["screen_skipped"] = ""
	}
	return renderTemplate("screen", "screen.md", partials, newScreen(s))
}

// ScreenRenderOptions holds configuration for rendering a screen report.
type ScreenRenderOptions struct {
	ShowSkipped bool // list every symbol that could not be fetched
}

// RenderMacro renders a set of macroeconomic series side by side.
func RenderMacro(title string, m *valuation.MacroTable) string {
	return renderTemplate("macro", "macro.md", nil, newMacro(title, m))
}

// RenderPEG renders a PEG report.
func RenderPEG(p *valuation.PEGReport) string {
	return renderTemplate("peg", "peg.md", nil, p)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
