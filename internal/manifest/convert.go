package manifest

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/rigbuild/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// isExprDefined reports whether an optional attribute was written in the
// source. gohcl fills omitted optional expressions with zero-width
// placeholders, so a nil check is not enough.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// decodeObject evaluates an object-valued attribute into a nested Go map.
func decodeObject(ctx context.Context, expr hcl.Expression, attr string) (map[string]any, error) {
	if !isExprDefined(expr) {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid %s: %w", attr, diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	if t := val.Type(); !t.IsObjectType() && !t.IsMapType() {
		return nil, fmt.Errorf("%s must be an object, got %s", attr, t.FriendlyName())
	}

	native, err := ctyToNative(val)
	if err != nil {
		return nil, fmt.Errorf("in %s: %w", attr, err)
	}
	ctxlog.FromContext(ctx).Debug("Decoded object attribute.", "attribute", attr, "cty_type", val.Type().FriendlyName())
	return native.(map[string]any), nil
}

// ctyToNative converts a known cty value into plain Go values: string,
// bool, int64 or float64, []any and map[string]any.
func ctyToNative(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	t := val.Type()
	switch {
	case t == cty.String:
		return val.AsString(), nil
	case t == cty.Bool:
		return val.True(), nil
	case t == cty.Number:
		bf := val.AsBigFloat()
		if i, acc := bf.Int64(); acc == big.Exact {
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case t.IsObjectType() || t.IsMapType():
		out := make(map[string]any)
		for k, ev := range val.AsValueMap() {
			n, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case t.IsTupleType() || t.IsListType() || t.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for i, ev := range val.AsValueSlice() {
			n, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %s", t.FriendlyName())
}
