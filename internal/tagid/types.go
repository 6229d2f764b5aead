// internal/tagid/types.go
package tagid

import "strings"

// Kind classifies how a tag's path must be resolved.
type Kind int

const (
	// Scalar is a plain dotted path.
	Scalar Kind = iota
	// Glob contains a single-level wildcard segment.
	Glob
	// DerivedPath references a path built after another artifact exists.
	DerivedPath
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Glob:
		return "glob"
	case DerivedPath:
		return "derived"
	default:
		return "unknown"
	}
}

const (
	// AssetSep separates an explicit asset from the rest of the tag.
	AssetSep = "#"
	// SubSep separates the main and sub parts of a two-level tag.
	SubSep = "::"
	// PlugSep introduces a plug name.
	PlugSep = "@"
	// ChildrenSuffix asks for the children of the resolved object.
	ChildrenSuffix = ":::children"
	// DerivedMarker marks a derived-path reference.
	DerivedMarker = "->"
)

// Tag is the parsed form of a tag string.
type Tag struct {
	Asset    string // empty when the tag relies on the current asset
	Main     string
	Sub      string
	HasSub   bool
	Children bool
	Plug     string // empty when no plug is addressed
	Kind     Kind
}

// Key returns the asset-less lookup key, "main" or "main::sub".
func (t Tag) Key() string {
	if !t.HasSub {
		return t.Main
	}
	return t.Main + SubSep + t.Sub
}

// String serializes the Tag into its canonical string representation.
func (t Tag) String() string {
	var sb strings.Builder
	if t.Asset != "" {
		sb.WriteString(t.Asset)
		sb.WriteString(AssetSep)
	}
	sb.WriteString(t.Key())
	if t.Children {
		sb.WriteString(ChildrenSuffix)
	}
	if t.Plug != "" {
		sb.WriteString(PlugSep)
		sb.WriteString(t.Plug)
	}
	return sb.String()
}

// WithAsset returns a copy of the tag scoped to asset.
func (t Tag) WithAsset(asset string) Tag {
	t.Asset = asset
	return t
}

// Base returns the tag without its plug and children parts.
func (t Tag) Base() Tag {
	t.Plug = ""
	t.Children = false
	return t
}
