package engine

import (
	"github.com/vk/exprgrid/internal/expr"
)

// comboStream lazily yields parameter value combinations. A yielded combo may
// be shorter than the number of input streams: when a value carries no result
// there is no point computing the remaining parameters, so the partial prefix
// is yielded as-is and the caller sees the binding as incomplete.
type comboStream func() ([]*expr.Value, bool)

// comboProduct returns the cartesian product of the given value streams,
// filtered for ancestry consistency. The head stream drives the outer loop;
// the product over the tail is consumed once and cached, so later head values
// replay the tail combinations without recomputing them.
func (e *Engine) comboProduct(streams []expr.Stream) comboStream {
	if len(streams) == 0 {
		done := false
		return func() ([]*expr.Value, bool) {
			if done {
				return nil, false
			}
			done = true
			return nil, true
		}
	}

	head := streams[0]
	var sub comboStream
	if len(streams) > 1 {
		sub = e.comboProduct(streams[1:])
	}

	var (
		hv       *expr.Value
		haveHead bool
		fromGen  = true
		cache    [][]*expr.Value
		cursor   int
	)
	return func() ([]*expr.Value, bool) {
		for {
			if !haveHead {
				v, ok := head()
				if !ok {
					return nil, false
				}
				hv = v
				haveHead = true
				cursor = 0

				if sub == nil {
					haveHead = false
					combo := []*expr.Value{hv}
					if validCombo(combo) {
						return combo, true
					}
					continue
				}
				if !hv.HasValue() {
					// Yield the partial prefix without touching the tail
					// streams: the downstream operator cannot run anyway.
					haveHead = false
					return []*expr.Value{hv}, true
				}
			}

			var tail []*expr.Value
			if fromGen {
				t, ok := sub()
				if !ok {
					fromGen = false
					haveHead = false
					continue
				}
				cache = append(cache, t)
				tail = t
			} else {
				if cursor >= len(cache) {
					haveHead = false
					continue
				}
				tail = cache[cursor]
				cursor++
			}

			combo := append([]*expr.Value{hv}, tail...)
			if validCombo(combo) {
				return combo, true
			}
		}
	}
}

// validCombo reports whether every shared reusable ancestor expression
// resolved to the same value across the whole combination. Without this
// filter, a diamond-shaped dependency could combine values computed from
// conflicting instances of the common ancestor.
//
// Non-reusable ancestors are exempt: their values are expected to differ on
// every consumption.
func validCombo(combo []*expr.Value) bool {
	seen := make(map[*expr.Expression]*expr.Value)
	for _, v := range combo {
		for x, av := range v.AncestorValues() {
			if !x.Op.Reusable() {
				continue
			}
			if prev, ok := seen[x]; ok {
				if !expr.SameIdentity(prev, av) {
					return false
				}
				continue
			}
			seen[x] = av
		}
	}
	return true
}
