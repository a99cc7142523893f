package icons

import (
	"fmt"
	"regexp"
	"strings"
)

// fallbackSlug is assigned when a raw name contains no usable characters.
const fallbackSlug = "icon"

var nonSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a raw name and replaces every run of characters
// outside [a-z0-9] with a single hyphen, trimming leading and trailing
// hyphens. May return the empty string.
func Slugify(raw string) string {
	s := strings.ToLower(raw)
	s = nonSlugRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Canonicalize rewrites every icon's Name in place to a globally unique
// slug. Uniqueness spans the union of all groups: the accumulator set is
// threaded through a single pass in (group order, within-group order), so
// the result is fully deterministic for a given input. On collision the
// smallest unused "-N" suffix (starting at 1) wins.
func Canonicalize(groups []Group) {
	used := make(map[string]struct{})
	for gi := range groups {
		icons := groups[gi].Icons
		for i := range icons {
			icons[i].Name = assignName(used, icons[i].RawName)
		}
	}
}

func assignName(used map[string]struct{}, raw string) string {
	slug := Slugify(raw)
	if slug == "" {
		slug = fallbackSlug
	}
	name := slug
	for n := 1; ; n++ {
		if _, taken := used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s-%d", slug, n)
	}
	used[name] = struct{}{}
	return name
}
