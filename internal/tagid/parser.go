// internal/tagid/parser.go
package tagid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("invalid tag")

const (
	globChars     = "*?["
	reservedChars = ".#@:"
)

// Markers that make an unresolved tag worth waiting for: a reference into
// another job's namespace, or a derived path.
var deferralMarkers = []string{"::mod.", "::!mod.", DerivedMarker}

// IsDeferrable reports whether an unresolved tag may resolve once another
// job has run.
func IsDeferrable(raw string) bool {
	for _, m := range deferralMarkers {
		if strings.Contains(raw, m) {
			return true
		}
	}
	return false
}

type parser struct {
	src string
	pos int
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek(s string) bool {
	return strings.HasPrefix(p.src[p.pos:], s)
}

func (p *parser) accept(s string) bool {
	if p.peek(s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w %q at offset %d: %s", ErrSyntax, p.src, p.pos, fmt.Sprintf(format, args...))
}

// segment consumes characters up to the next reserved character.
func (p *parser) segment() (string, error) {
	start := p.pos
	for !p.eof() && !strings.ContainsRune(reservedChars, rune(p.src[p.pos])) {
		p.pos++
	}
	if p.pos == start {
		return "", p.errorf("empty segment")
	}
	return p.src[start:p.pos], nil
}

// path consumes segment { "." segment }.
func (p *parser) path() (string, error) {
	var segs []string
	for {
		seg, err := p.segment()
		if err != nil {
			return "", err
		}
		segs = append(segs, seg)
		if !p.accept(".") {
			return strings.Join(segs, "."), nil
		}
	}
}

// Parse creates a Tag by parsing its string representation.
func Parse(raw string) (Tag, error) {
	if raw == "" {
		return Tag{}, fmt.Errorf("%w: tag cannot be empty", ErrSyntax)
	}
	p := &parser{src: raw}
	var tag Tag

	if strings.Contains(raw, AssetSep) {
		asset, err := p.segment()
		if err != nil {
			return Tag{}, err
		}
		if !p.accept(AssetSep) {
			return Tag{}, p.errorf("asset name must be a single segment")
		}
		if strings.ContainsAny(asset, globChars) {
			return Tag{}, p.errorf("asset name cannot be a glob")
		}
		tag.Asset = asset
	}

	main, err := p.path()
	if err != nil {
		return Tag{}, err
	}
	tag.Main = main

	switch {
	case p.accept(ChildrenSuffix):
		tag.Children = true
	case p.accept(SubSep):
		sub, err := p.path()
		if err != nil {
			return Tag{}, err
		}
		tag.Sub, tag.HasSub = sub, true
		if p.accept(ChildrenSuffix) {
			tag.Children = true
		}
	}

	if p.accept(PlugSep) {
		plug, err := p.segment()
		if err != nil {
			return Tag{}, err
		}
		tag.Plug = plug
	}

	if !p.eof() {
		return Tag{}, p.errorf("unexpected %q", p.src[p.pos:])
	}

	key := tag.Key()
	switch {
	case strings.Contains(key, DerivedMarker):
		tag.Kind = DerivedPath
	case strings.ContainsAny(key, globChars):
		tag.Kind = Glob
	default:
		tag.Kind = Scalar
	}
	return tag, nil
}

// MustParse is like Parse but panics on error. It is meant for constants
// and tests.
func MustParse(raw string) Tag {
	t, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// ValidateAsset checks that name can be used as an explicit asset scope.
func ValidateAsset(name string) error {
	if name == "" {
		return fmt.Errorf("%w: asset name cannot be empty", ErrSyntax)
	}
	if strings.ContainsAny(name, reservedChars+globChars) {
		return fmt.Errorf("%w: asset name %q contains a reserved character", ErrSyntax, name)
	}
	return nil
}
