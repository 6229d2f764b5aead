package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/vk/rigbuild/internal/nstree"
	"github.com/vk/rigbuild/internal/tagid"
)

// Validate checks the whole manifest and reports every problem at once. It
// also fills in the asset of jobs that rely on the only declared asset.
func (m *Manifest) Validate() error {
	var result *multierror.Error
	fail := func(format string, args ...any) {
		result = multierror.Append(result, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	assets := make(map[string]struct{}, len(m.Assets))
	for _, a := range m.Assets {
		if _, dup := assets[a]; dup {
			fail("asset %q declared more than once", a)
		}
		if err := tagid.ValidateAsset(a); err != nil {
			fail("%v", err)
		}
		assets[a] = struct{}{}
	}

	names := make(map[string]struct{}, len(m.Jobs))
	for _, j := range m.Jobs {
		if _, dup := names[j.Name]; dup {
			fail("job %q declared more than once", j.Name)
		}
		names[j.Name] = struct{}{}

		if j.Kind == "" {
			fail("job %q: kind must not be empty", j.Name)
		}
		switch {
		case j.Asset == "" && len(m.Assets) == 1:
			j.Asset = m.Assets[0]
		case j.Asset == "":
			fail("job %q: asset is required when %d assets are declared", j.Name, len(m.Assets))
		default:
			if _, ok := assets[j.Asset]; !ok {
				fail("job %q: unknown asset %q", j.Name, j.Asset)
			}
		}
		if !slices.Contains(m.Stages, j.Stage) {
			fail("job %q: unknown stage %q", j.Name, j.Stage)
		}

		if j.Target != "" {
			if err := checkRegistrable(j.Target); err != nil {
				fail("job %q: target: %v", j.Name, err)
			}
		}
		for _, raw := range j.Requires {
			if _, err := tagid.Parse(raw); err != nil {
				fail("job %q: requires: %v", j.Name, err)
			}
		}
		produced := []string{}
		if j.Target != "" {
			produced = append(produced, j.Target)
		}
		for tag, v := range nstree.Flatten(j.Outputs) {
			if err := checkRegistrable(tag); err != nil {
				fail("job %q: output: %v", j.Name, err)
			}
			if _, ok := v.(string); !ok {
				fail("job %q: output %q must be a handle name, got %T", j.Name, tag, v)
			}
			produced = append(produced, tag)
		}
		for i, a := range produced {
			for _, b := range produced[i+1:] {
				if overlaps(j.Asset, a, b) {
					fail("job %q: produced tags %q and %q overlap", j.Name, a, b)
				}
			}
		}
	}

	return result.ErrorOrNil()
}

// overlaps reports whether registering one of a and b would replace the
// other: the same tag, a scalar main and a sub-tree main of the same name,
// or sub paths where one is a prefix of the other.
func overlaps(asset, a, b string) bool {
	ta, errA := tagid.Parse(a)
	tb, errB := tagid.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	scope := func(t tagid.Tag) string {
		if t.Asset != "" {
			return t.Asset
		}
		return asset
	}
	if scope(ta) != scope(tb) || ta.Main != tb.Main {
		return false
	}
	if !ta.HasSub || !tb.HasSub {
		return true
	}
	return ta.Sub == tb.Sub ||
		strings.HasPrefix(ta.Sub, tb.Sub+nstree.Sep) ||
		strings.HasPrefix(tb.Sub, ta.Sub+nstree.Sep)
}

// checkRegistrable rejects tags that cannot name a single entry.
func checkRegistrable(raw string) error {
	tag, err := tagid.Parse(raw)
	if err != nil {
		return err
	}
	if tag.Kind == tagid.Glob || tag.Plug != "" || tag.Children {
		return fmt.Errorf("%q cannot be produced by a job", raw)
	}
	return nil
}
