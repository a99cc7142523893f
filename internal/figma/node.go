// Package figma provides the Figma REST API client and the scene-graph
// node model consumed by the icon extraction pipeline.
package figma

import "encoding/json"

// NodeKind is the closed set of scene-graph node types the pipeline
// distinguishes. Any type tag outside this set decodes as KindOther.
type NodeKind string

const (
	KindDocument  NodeKind = "DOCUMENT"
	KindCanvas    NodeKind = "CANVAS"
	KindFrame     NodeKind = "FRAME"
	KindGroup     NodeKind = "GROUP"
	KindComponent NodeKind = "COMPONENT"
	KindInstance  NodeKind = "INSTANCE"
	KindText      NodeKind = "TEXT"
	KindOther     NodeKind = "OTHER"
)

func parseKind(tag string) NodeKind {
	switch NodeKind(tag) {
	case KindDocument, KindCanvas, KindFrame, KindGroup, KindComponent, KindInstance, KindText:
		return NodeKind(tag)
	default:
		return KindOther
	}
}

// Node is one node of the Figma scene graph, carrying only the fields
// the extraction pipeline needs.
type Node struct {
	ID         string
	Name       string
	Kind       NodeKind
	Width      float64
	Height     float64
	Characters string // TEXT nodes only
	Children   []*Node
}

type nodeJSON struct {
	ID                  string  `json:"id"`
	Name                string  `json:"name"`
	Type                string  `json:"type"`
	Characters          string  `json:"characters"`
	AbsoluteBoundingBox *struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"absoluteBoundingBox"`
	Children []*Node `json:"children"`
}

// UnmarshalJSON decodes the Figma wire format, flattening the bounding
// box and collapsing unknown type tags to KindOther.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw nodeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.ID = raw.ID
	n.Name = raw.Name
	n.Kind = parseKind(raw.Type)
	n.Characters = raw.Characters
	n.Children = raw.Children
	if raw.AbsoluteBoundingBox != nil {
		n.Width = raw.AbsoluteBoundingBox.Width
		n.Height = raw.AbsoluteBoundingBox.Height
	}
	return nil
}
