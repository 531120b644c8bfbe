/*
Package quill lets an automation agent drive a vector design document over a relay.

An agent sends named commands through a Request Correlator (package relay) to a host
that owns the document (package host). The host routes each command to a handler;
long operations walk the node tree, process it in chunks and stream progress events
back while they run. Text edits go through a styled-text engine that keeps per-range
fonts intact where it can.

# Topology

	agent (MCP tools) -> relay.Client -> websocket relay -> host.Executor -> document

The relay pairs the members of a named channel. Either side can also run in-process
over an in-memory pipe, which is what Local does.

# Usage

	cache := fonts.NewCache(available)
	doc, err := document.Load("design.yaml", document.WithFontRegistry(cache))
	if err != nil {
		log.Fatal(err)
	}
	x := host.New(doc, cache)

	client, stop := quill.Local(ctx, x)
	defer stop()

	res, err := client.Send(ctx, "scan_text_nodes", map[string]any{"nodeId": "0:1"}, 0)
*/
package quill
