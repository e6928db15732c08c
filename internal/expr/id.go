package expr

import (
	"sort"
	"strings"

	"github.com/vk/exprgrid/internal/operator"
)

// Hidden selects operators elided from generated identifiers. The synthetic
// consumer and run-data operators are always elided regardless of the set.
type Hidden map[string]bool

func hidden(op *operator.Operator, set Hidden) bool {
	if op.Kind() == operator.KindConsumer || op.Kind() == operator.KindRunData {
		return true
	}
	return set[op.Name()]
}

// ID formats a human-readable identifier for the expression in prefix
// notation: the first visible parameter's identifier precedes the operator
// name, remaining parameters follow in parentheses.
//
//	make_seed:increment:describe(style=plain)
func (x *Expression) ID(set Hidden) string {
	return x.id(set, nil)
}

// ID formats the identifier of one concrete value, appending the display
// tags of every value along the path that carries any.
func (v *Value) ID(set Hidden) string {
	return v.Expr.id(set, v)
}

func (x *Expression) id(set Hidden, val *Value) string {
	type paramID struct {
		name string
		id   string
	}
	var params []paramID
	for _, pb := range x.Params() {
		if hidden(pb.Expr.Op, set) {
			continue
		}
		var pv *Value
		if val != nil {
			pv = val.Params[pb.Name]
		}
		params = append(params, paramID{pb.Name, pb.Expr.id(set, pv)})
	}

	var b strings.Builder
	rest := params
	if len(params) > 0 {
		b.WriteString(params[0].id)
		b.WriteString(":")
		rest = params[1:]
	}
	b.WriteString(x.Op.Name())
	b.WriteString(formatTags(x.Op, val))

	if len(rest) > 0 {
		b.WriteString("(")
		for i, p := range rest {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(p.name)
			b.WriteString("=")
			b.WriteString(p.id)
		}
		b.WriteString(")")
	}
	return b.String()
}

func formatTags(op *operator.Operator, val *Value) string {
	if val == nil || !val.HasValue() {
		return ""
	}
	tags := op.Tags(val.V)
	if len(tags) == 0 {
		return ""
	}
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString("[")
		if k != "" {
			b.WriteString(k)
			b.WriteString("=")
		}
		b.WriteString(tags[k])
		b.WriteString("]")
	}
	return b.String()
}
