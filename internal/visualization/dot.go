// Package visualization renders the neuron network for human inspection:
// DOT and JSON exports, plus a live HTTP/websocket server that streams
// engine events to a browser canvas.
package visualization

import (
	"fmt"
	"strings"

	"github.com/nvandessel/pulse/internal/constants"
	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
)

// Format specifies the output format for network rendering.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// edgeStyle maps a connection's speed tier to a DOT edge style.
func edgeStyle(speed float64) string {
	switch {
	case speed >= constants.InstantSpeedThreshold:
		return "bold"
	case speed >= constants.FastSpeedThreshold:
		return "solid"
	default:
		return "dashed"
	}
}

// RenderDOT produces a Graphviz DOT representation of the network. Driven
// neurons are filled; edge width follows weight and style follows the
// speed tier.
func RenderDOT(eng *engine.Engine) string {
	neurons := eng.Snapshot()
	conns := eng.Connections()

	var b strings.Builder
	b.WriteString("digraph pulse {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle, fontname=\"Helvetica\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n\n")

	for _, n := range neurons {
		label := fmt.Sprintf("%d", n.ID)
		if n.Appearance.PresetName != "" {
			label = fmt.Sprintf("%d\\n%s", n.ID, n.Appearance.PresetName)
		}

		attrs := fmt.Sprintf("label=\"%s\"", label)
		if n.DCInput > 0 {
			attrs += fmt.Sprintf(", style=filled, fillcolor=goldenrod, xlabel=\"dc=%.2f\"", n.DCInput)
		}
		b.WriteString(fmt.Sprintf("  n%d [%s];\n", n.ID, attrs))
	}

	b.WriteString("\n")
	for _, c := range conns {
		penwidth := 0.5 + c.Weight*2.5
		b.WriteString(fmt.Sprintf(
			"  n%d -> n%d [style=%s, penwidth=%.2f, label=\"w=%.2f s=%.2f\"];\n",
			c.Source, c.Target, edgeStyle(c.Speed), penwidth, c.Weight, c.Speed,
		))
	}

	b.WriteString("}\n")
	return b.String()
}

// NetworkJSON is the JSON snapshot served by /api/network and rendered by
// `pulse graph --format json`.
type NetworkJSON struct {
	Neurons     []neuron.Neuron     `json:"neurons"`
	Connections []neuron.Connection `json:"connections"`
}

// RenderJSON produces the network snapshot.
func RenderJSON(eng *engine.Engine) NetworkJSON {
	return NetworkJSON{
		Neurons:     eng.Snapshot(),
		Connections: eng.Connections(),
	}
}
