package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/quill/pkg/domain"
	"github.com/muesli/termenv"
)

// ScanMarkdown renders a scan report as a markdown table.
func ScanMarkdown(r domain.ScanReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Text scan\n\n%s\n\n", r.Message)
	if len(r.TextNodes) == 0 {
		sb.WriteString("_No visible text nodes._\n")
		return sb.String()
	}
	sb.WriteString("| ID | Path | Font | Text |\n|---|---|---|---|\n")
	for _, n := range r.TextNodes {
		font := n.FontFamily + " " + n.FontStyle
		if n.Mixed {
			font += " (mixed)"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", n.ID, cell(n.Path), font, cell(n.Characters))
	}
	return sb.String()
}

// BatchMarkdown renders a batch replacement report.
func BatchMarkdown(r domain.BatchReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Text replacement\n\n**%d** of %d applied in %d chunks", r.Succeeded, r.TotalRequested, r.Chunks)
	if r.Failed > 0 {
		fmt.Fprintf(&sb, ", **%d failed**", r.Failed)
	}
	sb.WriteString(".\n\n| Node | Result | Text |\n|---|---|---|\n")
	for _, res := range r.Results {
		status := "ok"
		if !res.Success {
			status = "failed: " + res.Error
		} else if len(res.Substitutions) > 0 {
			status = fmt.Sprintf("ok, %d font substitution(s)", len(res.Substitutions))
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", res.NodeID, cell(status), cell(res.NewText))
	}
	return sb.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 60 {
		s = string(r[:57]) + "..."
	}
	return s
}

// ProgressPrinter writes one colored line per progress event.
type ProgressPrinter struct {
	out *termenv.Output
}

func NewProgressPrinter(w io.Writer) *ProgressPrinter {
	return &ProgressPrinter{out: termenv.NewOutput(w)}
}

// Publish implements ports.ProgressSink.
func (p *ProgressPrinter) Publish(ev domain.ProgressEvent) {
	color := "#60a5fa"
	switch ev.Status {
	case domain.ProgressCompleted:
		color = "#4ade80"
	case domain.ProgressError:
		color = "#f87171"
	}
	status := p.out.String(fmt.Sprintf("%3d%%", ev.Progress)).Foreground(p.out.Color(color))
	fmt.Fprintf(p.out, "%s %s %s\n", status, ev.CommandType, ev.Message)
}
