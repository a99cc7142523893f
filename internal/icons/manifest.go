package icons

import (
	"encoding/json"
	"fmt"
	"time"
)

// ManifestPath is the fixed target path of the published manifest at the
// repository root.
const ManifestPath = "figma-icons-manifest.json"

// CommitMessage returns the commit message for a manifest publish.
func CommitMessage(iconCount int) string {
	return fmt.Sprintf("feat: Update icons manifest - %d icons", iconCount)
}

// Manifest is the publishable artifact. Struct field order fixes the JSON
// key order for reproducible output.
type Manifest struct {
	LastSyncTime int64           `json:"lastSyncTime"`
	Groups       []ManifestGroup `json:"groups"`
}

// ManifestGroup is one serialized icon group.
type ManifestGroup struct {
	Name  string         `json:"name"`
	Icons []ManifestIcon `json:"icons"`
}

// ManifestIcon is one serialized icon. Name carries the canonical slug;
// the raw source name is not serialized.
type ManifestIcon struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	SVG          string `json:"svg"`
	LastModified int64  `json:"lastModified"`
}

// BuildManifest assembles a manifest from canonicalized groups. Pure: no
// I/O, no side effects; group and icon order follow the input.
func BuildManifest(now time.Time, groups []Group) Manifest {
	m := Manifest{
		LastSyncTime: now.UnixMilli(),
		Groups:       make([]ManifestGroup, 0, len(groups)),
	}
	for _, g := range groups {
		mg := ManifestGroup{
			Name:  g.Name,
			Icons: make([]ManifestIcon, 0, len(g.Icons)),
		}
		for _, ic := range g.Icons {
			mg.Icons = append(mg.Icons, ManifestIcon{
				ID:           ic.ID,
				Name:         ic.Name,
				Type:         ic.Kind,
				SVG:          ic.SVG,
				LastModified: ic.ExtractedAt.UnixMilli(),
			})
		}
		m.Groups = append(m.Groups, mg)
	}
	return m
}

// IconCount returns the total number of icons across all groups.
func (m Manifest) IconCount() int {
	n := 0
	for _, g := range m.Groups {
		n += len(g.Icons)
	}
	return n
}

// Encode serializes the manifest as pretty-printed JSON with 2-space
// indentation.
func (m Manifest) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("icons: encode manifest: %w", err)
	}
	return data, nil
}
