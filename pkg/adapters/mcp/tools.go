package mcp

import "github.com/mark3labs/mcp-go/mcp"

var strategyEnum = mcp.Enum("first", "prevail", "strict", "smart", "experimental")

func nodeID(desc string) mcp.ToolOption {
	return mcp.WithString("nodeId", mcp.Required(), mcp.Description(desc))
}

func textStrategy() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("strategy", strategyEnum,
			mcp.Description("How mixed fonts are kept when replacing text. Defaults to the host setting.")),
		mcp.WithObject("fallbackFont",
			mcp.Description("Font used when a requested font cannot be loaded"),
			mcp.Properties(map[string]any{
				"family": map[string]any{"type": "string"},
				"style":  map[string]any{"type": "string"},
			})),
	}
}

func (s *Server) add(name, desc string, opts ...mcp.ToolOption) {
	tool := mcp.NewTool(name, append([]mcp.ToolOption{mcp.WithDescription(desc)}, opts...)...)
	s.mcpServer.AddTool(tool, s.forward(name))
	s.tools = append(s.tools, name)
}

func (s *Server) registerTools() {
	s.add("get_document_info", "Get the top levels of the current document and its node count.")
	s.add("get_node_info", "Get a node and its children.",
		nodeID("The ID of the node"),
		mcp.WithNumber("depth", mcp.Description("Levels of children to include; negative for all. Defaults to 1.")))
	s.add("get_nodes_info", "Get several nodes at once. Unknown ids are reported as missing.",
		mcp.WithArray("nodeIds", mcp.Required(), mcp.Description("Node ids"), mcp.WithStringItems()))
	s.add("find_nodes", "Fuzzy search visible nodes by name.",
		mcp.WithString("query", mcp.Required(), mcp.Description("Search text")),
		mcp.WithString("nodeId", mcp.Description("Restrict the search to this subtree")),
		mcp.WithArray("types", mcp.Description("Node types to keep, e.g. TEXT or FRAME"), mcp.WithStringItems()),
		mcp.WithNumber("limit", mcp.Description("Maximum matches, default 20")))

	s.add("scan_text_nodes", "Scan all visible text nodes below a node, in chunks with progress updates.",
		nodeID("The ID of the node to scan"),
		mcp.WithBoolean("useChunking", mcp.Description("Process in chunks (default true)")),
		mcp.WithNumber("chunkSize", mcp.Description("Nodes per chunk, default 10")))
	s.add("set_text_content", "Replace the text of one text node, keeping fonts per the strategy.",
		append([]mcp.ToolOption{
			nodeID("The ID of the text node"),
			mcp.WithString("text", mcp.Required(), mcp.Description("New text")),
		}, textStrategy()...)...)
	s.add("set_multiple_text_contents", "Replace the text of many nodes in chunks with progress updates.",
		append([]mcp.ToolOption{
			nodeID("The ID of the node containing the text nodes"),
			mcp.WithArray("text", mcp.Required(),
				mcp.Description("Replacements to apply"),
				mcp.Items(map[string]any{
					"type": "object",
					"properties": map[string]any{
						"nodeId": map[string]any{"type": "string"},
						"text":   map[string]any{"type": "string"},
					},
					"required": []string{"nodeId", "text"},
				})),
			mcp.WithNumber("chunkSize", mcp.Description("Replacements per chunk, default 5")),
		}, textStrategy()...)...)
	s.add("get_styled_text_segments", "List the font runs of a text node.",
		nodeID("The ID of the text node"),
		mcp.WithString("property", mcp.Enum("fontName"), mcp.Description("Style property, only fontName")))
	s.add("set_range_font_name", "Set the font of a character range of a text node.",
		nodeID("The ID of the text node"),
		mcp.WithNumber("start", mcp.Required(), mcp.Description("First character, inclusive")),
		mcp.WithNumber("end", mcp.Required(), mcp.Description("Last character, exclusive")),
		mcp.WithString("fontFamily", mcp.Required()),
		mcp.WithString("fontStyle", mcp.Description("Defaults to Regular")))
	s.add("load_font_async", "Load a font so it can be assigned to text.",
		mcp.WithString("family", mcp.Required()),
		mcp.WithString("style", mcp.Description("Defaults to Regular")))
	s.add("create_text", "Create a text node.",
		mcp.WithString("text", mcp.Required()),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithString("parentId", mcp.Description("Parent node, defaults to the first page")),
		mcp.WithString("name"),
		mcp.WithNumber("fontSize"),
		mcp.WithString("fontFamily"),
		mcp.WithString("fontStyle"))

	s.add("move_node", "Move a node.",
		nodeID("The ID of the node"),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()))
	s.add("resize_node", "Resize a node.",
		nodeID("The ID of the node"),
		mcp.WithNumber("width", mcp.Required()),
		mcp.WithNumber("height", mcp.Required()))
	s.add("rename_node", "Rename a node.",
		nodeID("The ID of the node"),
		mcp.WithString("name", mcp.Required()))
	s.add("set_visible", "Show or hide a node.",
		nodeID("The ID of the node"),
		mcp.WithBoolean("visible", mcp.Required()))
	s.add("set_locked", "Lock or unlock a node.",
		nodeID("The ID of the node"),
		mcp.WithBoolean("locked", mcp.Required()))
	s.add("delete_node", "Delete a node and its subtree.",
		nodeID("The ID of the node"))
	s.add("clone_node", "Clone a node, optionally moving the copy.",
		nodeID("The ID of the node"),
		mcp.WithNumber("x"),
		mcp.WithNumber("y"))
	s.add("set_fill_color", "Set a solid fill from an rgba object or a hex string.",
		nodeID("The ID of the node"),
		mcp.WithString("hex", mcp.Description("Color such as #ff8800")),
		mcp.WithObject("color", mcp.Description("RGBA components in [0,1]"),
			mcp.Properties(map[string]any{
				"r": map[string]any{"type": "number"},
				"g": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
				"a": map[string]any{"type": "number"},
			})),
		mcp.WithNumber("a", mcp.Description("Alpha in [0,1] applied with hex")))
	s.add("set_corner_radius", "Set the corner radius of a node.",
		nodeID("The ID of the node"),
		mcp.WithNumber("radius", mcp.Required()))
}
