// Package icons implements the extraction, normalization and manifest
// pipeline: locating exportable icon nodes in a Figma page, rewriting
// their names into unique slugs, and assembling the publishable manifest.
package icons

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/starford/iconsync/internal/figma"
)

// iconSize is the exact bounding box (in local units) an instance must
// have to qualify as an icon.
const iconSize = 24.0

// Icon is one discovered icon.
type Icon struct {
	ID          string
	Kind        string
	RawName     string
	Name        string // canonical slug, assigned by Canonicalize
	SVG         string
	ExtractedAt time.Time
}

// Group is a named collection of icons sharing a container on the page.
type Group struct {
	Name  string
	Icons []Icon
}

// Exporter renders a single scene-graph node as SVG markup.
type Exporter interface {
	ExportSVG(ctx context.Context, nodeID string) ([]byte, error)
}

// validMarkup reports whether exported text is structurally valid SVG:
// after trimming it must start with an <svg root tag and end with the
// matching closing tag.
func validMarkup(data []byte) bool {
	s := strings.TrimSpace(string(data))
	return strings.HasPrefix(s, "<svg") && strings.HasSuffix(s, "</svg>")
}

type locator struct {
	exp    Exporter
	logger *slog.Logger
	now    func() time.Time
}

// findResult is the per-node traversal outcome. matched reports whether
// the node satisfied the shape contract; the traversal only recurses
// into children when matched is false. icon is nil when the node matched
// but its export failed.
type findResult struct {
	icon    *Icon
	matched bool
}

// LocateGroups scans a page: every top-level page child is one container.
// Within a container the group label is the first TEXT child (falling back
// to the container's own name) and the traversal roots at the first
// GROUP/FRAME child, the icon holder. Containers without a holder yield
// an empty group, which is retained.
func LocateGroups(ctx context.Context, page *figma.Node, exp Exporter, logger *slog.Logger) []Group {
	if logger == nil {
		logger = slog.Default()
	}
	l := &locator{exp: exp, logger: logger, now: time.Now}

	if page == nil {
		return nil
	}
	groups := make([]Group, 0, len(page.Children))
	for _, container := range page.Children {
		groups = append(groups, l.groupFromContainer(ctx, container))
	}
	return groups
}

func (l *locator) groupFromContainer(ctx context.Context, container *figma.Node) Group {
	g := Group{Name: container.Name, Icons: []Icon{}}

	var holder *figma.Node
	labeled := false
	for _, ch := range container.Children {
		if !labeled && ch.Kind == figma.KindText {
			labeled = true
			if label := labelText(ch); label != "" {
				g.Name = label
			}
		}
		if holder == nil && (ch.Kind == figma.KindGroup || ch.Kind == figma.KindFrame) {
			holder = ch
		}
	}
	if holder == nil {
		l.logger.Debug("locator: container has no icon holder", slog.String("container", container.Name))
		return g
	}

	g.Icons = l.walk(ctx, holder, g.Icons)
	return g
}

// labelText returns the display text of a TEXT node.
func labelText(n *figma.Node) string {
	if n.Characters != "" {
		return n.Characters
	}
	return n.Name
}

// walk performs a depth-first pre-order traversal. A node whose inspect
// result is matched is a leaf for search purposes: its children are never
// visited, even when the export attempt failed.
func (l *locator) walk(ctx context.Context, n *figma.Node, out []Icon) []Icon {
	res := l.inspect(ctx, n)
	if res.matched {
		if res.icon != nil {
			out = append(out, *res.icon)
		}
		return out
	}
	for _, ch := range n.Children {
		out = l.walk(ctx, ch, out)
	}
	return out
}

// inspect applies the shape contract and, on a match, attempts the export.
func (l *locator) inspect(ctx context.Context, n *figma.Node) findResult {
	if n.Kind != figma.KindInstance || n.Width != iconSize || n.Height != iconSize {
		return findResult{matched: false}
	}

	data, err := l.exp.ExportSVG(ctx, n.ID)
	if err != nil {
		l.logger.Warn("locator: export failed",
			slog.String("id", n.ID),
			slog.String("name", n.Name),
			slog.String("error", err.Error()))
		return findResult{matched: true}
	}
	if !validMarkup(data) {
		l.logger.Warn("locator: invalid markup, skipping",
			slog.String("id", n.ID),
			slog.String("name", n.Name))
		return findResult{matched: true}
	}

	return findResult{
		matched: true,
		icon: &Icon{
			ID:          n.ID,
			Kind:        string(n.Kind),
			RawName:     n.Name,
			SVG:         strings.TrimSpace(string(data)),
			ExtractedAt: l.now(),
		},
	}
}
