package expr

// OnValue observes every value as it is yielded. reused is false the first
// time a value is computed and true whenever it is replayed.
type OnValue func(v *Value, reused bool)

// Stream pulls values one at a time; false means exhausted for now.
type Stream func() (*Value, bool)

// Seq is the append-only sequence of Values produced for one (expression,
// reusable-parameter binding) pair. It grows only forward and never reorders
// or removes entries.
//
// Multiple readers may iterate one Seq at the same time within the single
// evaluation thread: each reader holds a cursor into the buffer and re-checks
// the buffer length on every pull, so entries appended by a nested reader
// while an outer iteration is in flight are still yielded exactly once, in
// append order.
type Seq struct {
	Expr   *Expression
	Params map[string]*Value

	values    []*Value
	producer  Stream
	onValue   OnValue
	advancing bool
}

// NewSeq wraps a tail producer. Values pulled from the producer are appended
// to the buffer as they are computed.
func NewSeq(x *Expression, params map[string]*Value, producer Stream, onValue OnValue) *Seq {
	return &Seq{Expr: x, Params: params, producer: producer, onValue: onValue}
}

// FromValue builds an already-exhausted sequence holding a single value.
func FromValue(x *Expression, v *Value, params map[string]*Value, onValue OnValue) *Seq {
	return &Seq{Expr: x, Params: params, values: []*Value{v}, onValue: onValue}
}

// Values returns the entries computed so far.
func (s *Seq) Values() []*Value { return s.values }

// advance pulls one value from the shared tail producer and appends it.
// The new-value callback fires here, exactly once per computed value.
func (s *Seq) advance() (*Value, bool) {
	if s.producer == nil || s.advancing {
		return nil, false
	}
	s.advancing = true
	v, ok := s.producer()
	s.advancing = false

	if !ok {
		s.producer = nil
		return nil, false
	}
	if s.onValue != nil {
		s.onValue(v, false)
	}
	s.values = append(s.values, v)
	return v, true
}

// Iter returns an independent reader over the sequence. Entries already in
// the buffer are replayed; once the cursor reaches the end, the shared
// producer is advanced. Entries appended behind the reader's back are picked
// up by the cursor in append order.
func (s *Seq) Iter() Stream {
	i := 0
	var fresh *Value
	return func() (*Value, bool) {
		for {
			if i < len(s.values) {
				v := s.values[i]
				i++
				if v == fresh {
					fresh = nil
				} else if s.onValue != nil {
					s.onValue(v, true)
				}
				return v, true
			}
			v, ok := s.advance()
			if !ok {
				return nil, false
			}
			// The producer may have appended more than one entry if a nested
			// reader advanced it too; loop so the cursor keeps append order.
			fresh = v
		}
	}
}
