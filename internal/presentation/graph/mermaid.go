// Package graph renders document outlines as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/quill/pkg/domain"
)

// Overlay highlights nodes on the chart, e.g. the matches of a search.
type Overlay struct {
	Highlighted []string
}

// GenerateMermaid draws info and its children top-down. Shapes follow the node
// type: containers are rounded, text is a parallelogram, shapes are rectangles.
// Hidden nodes are drawn dashed.
func GenerateMermaid(info domain.NodeInfo, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	var hidden []string
	writeNode(&sb, info, &hidden)

	sb.WriteString("\n    classDef hidden stroke-dasharray: 5 5,color:#888;\n")
	for _, id := range hidden {
		fmt.Fprintf(&sb, "    class %s hidden;\n", sanitizeMermaidID(id))
	}
	if overlay != nil && len(overlay.Highlighted) > 0 {
		sb.WriteString("    classDef match fill:#ffeb3b,stroke:#fbc02d,stroke-width:3px,color:#000;\n")
		seen := map[string]bool{}
		for _, id := range overlay.Highlighted {
			safe := sanitizeMermaidID(id)
			if safe != "" && !seen[safe] {
				seen[safe] = true
				fmt.Fprintf(&sb, "    class %s match;\n", safe)
			}
		}
	}
	return sb.String()
}

func writeNode(sb *strings.Builder, n domain.NodeInfo, hidden *[]string) {
	safe := sanitizeMermaidID(n.ID)
	opener, closer := "[", "]"
	switch n.Type {
	case domain.NodeTypeDocument, domain.NodeTypePage:
		opener, closer = "([", "])"
	case domain.NodeTypeFrame, domain.NodeTypeGroup, domain.NodeTypeComponent, domain.NodeTypeInstance:
		opener, closer = "(", ")"
	case domain.NodeTypeText:
		opener, closer = "[/", "/]"
	}

	label := n.Name
	if label == "" {
		label = "Unnamed-" + string(n.Type)
	}
	if n.Type == domain.NodeTypeText && n.Text != "" {
		label += " <br/> " + truncate(n.Text, 24)
	}
	fmt.Fprintf(sb, "    %s%s\"%s\"%s\n", safe, opener, strings.ReplaceAll(label, "\"", "'"), closer)
	if !n.Visible {
		*hidden = append(*hidden, n.ID)
	}

	for _, c := range n.Children {
		fmt.Fprintf(sb, "    %s --> %s\n", safe, sanitizeMermaidID(c.ID))
		writeNode(sb, c, hidden)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func sanitizeMermaidID(id string) string {
	if id == "" {
		return ""
	}
	return "n_" + strings.NewReplacer(":", "_", ";", "_", "-", "_", ".", "_", "/", "_").Replace(id)
}
