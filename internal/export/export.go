// Package export renders expression trees for human consumption: an indented
// structural view, and a linear replay listing that shows the order operators
// would run in, with reusable results bound to variables exactly once.
package export

import (
	"fmt"
	"strings"

	"github.com/vk/exprgrid/internal/expr"
)

// RenderTree formats the expression as an indented tree, one operator per
// line with its produced type, children labelled by parameter name.
func RenderTree(x *expr.Expression) string {
	var b strings.Builder
	renderNode(&b, x, "", 0)
	return b.String()
}

func renderNode(b *strings.Builder, x *expr.Expression, label string, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
	if label != "" {
		b.WriteString(label)
		b.WriteString(": ")
	}
	fmt.Fprintf(b, "%s (%s)\n", x.Op.Name(), x.Op.Produces())
	for _, pb := range x.Params() {
		renderNode(b, pb.Expr, pb.Name, depth+1)
	}
}

// Arg names one resolved parameter of a replay step.
type Arg struct {
	Name string
	Var  string
}

// Step is one operator application in a linearized replay.
type Step struct {
	Var    string
	Op     string
	SrcLoc string
	Args   []Arg

	// ValueIDs lists the identifiers of the values this step actually
	// produced, when the expression has been executed.
	ValueIDs []string
}

// Replay linearizes a batch of expression trees into dependency order.
// A reusable subexpression shared between trees appears exactly once and
// later steps reference its variable; non-reusable ones are repeated per
// consumer, matching how execution would recompute them.
func Replay(exprs []*expr.Expression, hidden expr.Hidden) []Step {
	r := &replayer{
		reusableVars: make(map[*expr.Expression]string),
		counts:       make(map[string]int),
	}
	for _, x := range exprs {
		r.visit(x, hidden)
	}
	return r.steps
}

type replayer struct {
	steps        []Step
	reusableVars map[*expr.Expression]string
	counts       map[string]int
}

func (r *replayer) visit(x *expr.Expression, hidden expr.Hidden) string {
	if v, ok := r.reusableVars[x]; ok {
		return v
	}

	args := make([]Arg, 0, len(x.Params()))
	for _, pb := range x.Params() {
		args = append(args, Arg{Name: pb.Name, Var: r.visit(pb.Expr, hidden)})
	}

	v := r.newVar(x.Op.Name())
	step := Step{
		Var:    v,
		Op:     x.Op.Name(),
		SrcLoc: x.Op.SrcLoc(),
		Args:   args,
	}
	for _, val := range x.AllValues() {
		step.ValueIDs = append(step.ValueIDs, val.ID(hidden))
	}
	r.steps = append(r.steps, step)

	if x.Op.Reusable() {
		r.reusableVars[x] = v
	}
	return v
}

func (r *replayer) newVar(opName string) string {
	base := sanitize(opName)
	n := r.counts[base]
	r.counts[base] = n + 1
	if n == 0 {
		return base
	}
	return fmt.Sprintf("%s_%d", base, n)
}

func sanitize(name string) string {
	var b strings.Builder
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "v"
	}
	return b.String()
}

// RenderReplay formats replay steps as one assignment per line.
func RenderReplay(steps []Step) string {
	var b strings.Builder
	for _, s := range steps {
		b.WriteString(s.Var)
		b.WriteString(" = ")
		b.WriteString(s.Op)
		b.WriteString("(")
		for i, a := range s.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name)
			b.WriteString("=")
			b.WriteString(a.Var)
		}
		b.WriteString(")")
		if s.SrcLoc != "" {
			b.WriteString("  # ")
			b.WriteString(s.SrcLoc)
		}
		b.WriteString("\n")
		for _, id := range s.ValueIDs {
			b.WriteString("#   value: ")
			b.WriteString(id)
			b.WriteString("\n")
		}
	}
	return b.String()
}
