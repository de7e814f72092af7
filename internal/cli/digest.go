package cli

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"insightd/internal/metrics"
	"insightd/internal/models"
	"insightd/internal/service"
)

var (
	digestTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(defaultTheme.Success)

	digestHeadlineStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(defaultTheme.Status)

	digestMetaStyle = lipgloss.NewStyle().
			Foreground(defaultTheme.Hint)

	digestBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// printDigest renders the day's top insights to the terminal and writes the
// HTML digest file. The HTML write failing is a warning, not an error.
func printDigest(w io.Writer, summary *service.Summary, digestDir string) {
	fmt.Fprintln(w, digestTitleStyle.Render(
		fmt.Sprintf("Daily Digest — %s", time.Now().Format("2 Jan 2006"))))
	fmt.Fprintln(w, digestMetaStyle.Render(fmt.Sprintf(
		"%d signals researched, %d insights produced, %d stored, %d failed",
		summary.Signals, summary.Insights, summary.Stored, summary.FailedSignals)))
	fmt.Fprintln(w)

	if len(summary.Top) == 0 {
		fmt.Fprintln(w, "Nothing interesting today.")
		return
	}

	for i, ins := range summary.Top {
		fmt.Fprintln(w, renderInsight(i+1, ins))
		fmt.Fprintln(w)
	}

	if digestDir == "" {
		return
	}
	path, err := writeHTMLDigest(digestDir, summary)
	if err != nil {
		fmt.Fprintln(w, digestMetaStyle.Render("Warning: HTML digest not written: "+err.Error()))
		return
	}
	fmt.Fprintln(w, digestMetaStyle.Render("HTML digest: "+path))
}

func renderInsight(rank int, ins *models.Insight) string {
	var b strings.Builder

	b.WriteString(digestHeadlineStyle.Render(
		fmt.Sprintf("%d. %s", rank, ins.Headline)))
	b.WriteString("\n")
	b.WriteString(digestMetaStyle.Render(fmt.Sprintf(
		"%s (%s) · score %.1f · quality %.2f",
		ins.CompanyName, ins.CompanySymbol, ins.Score, ins.PredictedQuality)))
	b.WriteString("\n\n")
	b.WriteString(ins.Analysis)

	if len(ins.Evidence) > 0 {
		b.WriteString("\n")
		for _, fact := range ins.Evidence {
			b.WriteString("\n  • " + fact)
		}
	}

	return digestBoxStyle.Render(b.String())
}

// printRunStats summarizes gateway and stage timings after a run.
func printRunStats(w io.Writer, snap metrics.Snapshot) {
	fmt.Fprintln(w, digestTitleStyle.Render("Run statistics"))
	fmt.Fprintf(w, "Cache: %d hits, %d misses\n", snap.CacheHits, snap.CacheMisses)
	if snap.PersistFailures > 0 {
		fmt.Fprintf(w, "Persist failures: %d\n", snap.PersistFailures)
	}

	ops := snap.Operations
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	for _, op := range ops {
		fmt.Fprintf(w, "  %-22s %4d calls, avg %7.1fms, max %6dms\n",
			op.Name, op.Count, op.AvgTimeMs, op.MaxTimeMs)
	}
}

type htmlDigestData struct {
	Date     string
	Summary  *service.Summary
	Insights []*models.Insight
}

// writeHTMLDigest writes the shareable digest page and returns its path.
func writeHTMLDigest(dir string, summary *service.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("insights-%s.html", time.Now().Format("2006-01-02")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	err = htmlDigestTemplate.Execute(f, htmlDigestData{
		Date:     time.Now().Format("2 January 2006"),
		Summary:  summary,
		Insights: summary.Top,
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

var htmlDigestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Daily Insights — {{.Date}}</title>
<style>
body { font-family: Georgia, serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; }
.meta { color: #666; font-size: 0.9rem; }
.insight { border: 1px solid #ddd; border-radius: 8px; padding: 1rem; margin: 1rem 0; }
.insight h2 { margin-top: 0; }
</style>
</head>
<body>
<h1>Daily Insights — {{.Date}}</h1>
<p class="meta">{{.Summary.Signals}} signals researched · {{.Summary.Insights}} insights · {{.Summary.Stored}} stored</p>
{{range $i, $ins := .Insights}}
<div class="insight">
  <h2>{{$ins.Headline}}</h2>
  <p class="meta">{{$ins.CompanyName}} ({{$ins.CompanySymbol}}) · score {{printf "%.1f" $ins.Score}} · quality {{printf "%.2f" $ins.PredictedQuality}}</p>
  <p>{{$ins.Analysis}}</p>
  <ul>{{range $ins.Evidence}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}
</body>
</html>`))
