package domain

import "fmt"

// NodeType is the closed set of document node variants.
type NodeType string

const (
	NodeTypeDocument  NodeType = "DOCUMENT"
	NodeTypePage      NodeType = "PAGE"
	NodeTypeFrame     NodeType = "FRAME"
	NodeTypeGroup     NodeType = "GROUP"
	NodeTypeComponent NodeType = "COMPONENT"
	NodeTypeInstance  NodeType = "INSTANCE"
	NodeTypeRectangle NodeType = "RECTANGLE"
	NodeTypeEllipse   NodeType = "ELLIPSE"
	NodeTypeText      NodeType = "TEXT"
)

// Capability is a bit set describing which mutations a node type accepts.
type Capability uint8

const (
	CapChildren Capability = 1 << iota
	CapGeometry
	CapFills
	CapCornerRadius
	CapText
)

func (c Capability) String() string {
	switch c {
	case CapChildren:
		return "children"
	case CapGeometry:
		return "geometry"
	case CapFills:
		return "fills"
	case CapCornerRadius:
		return "corner radius"
	case CapText:
		return "text"
	default:
		return fmt.Sprintf("capability(%d)", uint8(c))
	}
}

var capabilities = map[NodeType]Capability{
	NodeTypeDocument:  CapChildren,
	NodeTypePage:      CapChildren,
	NodeTypeFrame:     CapChildren | CapGeometry | CapFills | CapCornerRadius,
	NodeTypeGroup:     CapChildren | CapGeometry,
	NodeTypeComponent: CapChildren | CapGeometry | CapFills | CapCornerRadius,
	NodeTypeInstance:  CapChildren | CapGeometry | CapFills | CapCornerRadius,
	NodeTypeRectangle: CapGeometry | CapFills | CapCornerRadius,
	NodeTypeEllipse:   CapGeometry | CapFills,
	NodeTypeText:      CapGeometry | CapFills | CapText,
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	_, ok := capabilities[t]
	return ok
}

// Has reports whether nodes of type t support every capability in c.
func (t NodeType) Has(c Capability) bool {
	return capabilities[t]&c == c
}

// Color is an RGBA color with components in [0,1].
type Color struct {
	R float64 `json:"r" yaml:"r" mapstructure:"r"`
	G float64 `json:"g" yaml:"g" mapstructure:"g"`
	B float64 `json:"b" yaml:"b" mapstructure:"b"`
	A float64 `json:"a" yaml:"a" mapstructure:"a"`
}

// Paint is a solid fill.
type Paint struct {
	Type    string  `json:"type" yaml:"type"`
	Color   Color   `json:"color" yaml:"color"`
	Opacity float64 `json:"opacity" yaml:"opacity"`
}

// SolidPaint builds a SOLID paint from c, using its alpha as opacity.
func SolidPaint(c Color) Paint {
	return Paint{Type: "SOLID", Color: Color{R: c.R, G: c.G, B: c.B, A: 1}, Opacity: c.A}
}

// NodeInfo is the serializable view of a node returned to callers.
type NodeInfo struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     NodeType   `json:"type"`
	Visible  bool       `json:"visible"`
	Locked   bool       `json:"locked,omitempty"`
	X        float64    `json:"x"`
	Y        float64    `json:"y"`
	Width    float64    `json:"width"`
	Height   float64    `json:"height"`
	Fills    []Paint    `json:"fills,omitempty"`
	Radius   float64    `json:"cornerRadius,omitempty"`
	Text     string     `json:"characters,omitempty"`
	FontName *FontName  `json:"fontName,omitempty"`
	Children []NodeInfo `json:"children,omitempty"`
}

// TextNodeInfo describes a text node found by a scan.
type TextNodeInfo struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Characters string  `json:"characters"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	FontStyle  string  `json:"fontStyle"`
	Mixed      bool    `json:"mixedStyles,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Path       string  `json:"path"`
	Depth      int     `json:"depth"`
}
