// Package store persists the values produced by a run as a gzip-compressed
// YAML document, so a later run can reload them as prebuilt operator values
// with their identity preserved.
package store

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	yaml "gopkg.in/yaml.v2"

	"github.com/vk/exprgrid/internal/expr"
	"github.com/vk/exprgrid/internal/operator"
)

// Record is one persisted value. Params references the records of the
// parameter values it was computed from, by UUID.
type Record struct {
	UUID  string `yaml:"uuid"`
	ID    string `yaml:"id"`
	Op    string `yaml:"op"`
	Type  string `yaml:"type"`
	State string `yaml:"state"`

	// Value is only set for computed records and must be representable in
	// YAML; values that are not round-trippable come back as their YAML-native
	// shape.
	Value any `yaml:"value,omitempty"`

	Error   string `yaml:"error,omitempty"`
	ErrUUID string `yaml:"err_uuid,omitempty"`

	Params map[string]string `yaml:"params,omitempty"`
}

const (
	StateComputed    = "computed"
	StateFailed      = "failed"
	StateNotComputed = "not-computed"
)

// Store is a persisted run. Roots holds, per executed expression, the UUIDs
// of its root values in production order; Records lists every value in the
// run, ancestors included, in first-seen order.
type Store struct {
	Version int        `yaml:"version"`
	Roots   [][]string `yaml:"roots"`
	Records []*Record  `yaml:"records"`

	byUUID map[string]*Record `yaml:"-"`
}

const version = 1

// Snapshot captures the given root values and their full ancestry. hidden
// controls which operators are elided from the recorded identifiers.
func Snapshot(roots [][]*expr.Value, hidden expr.Hidden) *Store {
	s := &Store{Version: version, byUUID: make(map[string]*Record)}
	assigned := make(map[*expr.Value]string)

	var record func(v *expr.Value) string
	record = func(v *expr.Value) string {
		if u, ok := assigned[v]; ok {
			return u
		}
		u := recordUUID(v)
		assigned[v] = u

		r := &Record{
			UUID: u,
			ID:   v.ID(hidden),
			Op:   v.Expr.Op.Name(),
			Type: string(v.Expr.Op.Produces()),
		}
		switch v.State {
		case expr.Computed:
			r.State = StateComputed
			r.Value = v.V
		case expr.Failed:
			r.State = StateFailed
			r.Error = v.Err.Error()
			r.ErrUUID = v.ErrID.String()
		default:
			r.State = StateNotComputed
		}
		if len(v.Params) > 0 {
			r.Params = make(map[string]string, len(v.Params))
			for name, pv := range v.Params {
				r.Params[name] = record(pv)
			}
		}

		s.Records = append(s.Records, r)
		s.byUUID[u] = r
		return u
	}

	for _, rootVals := range roots {
		ids := make([]string, len(rootVals))
		for i, v := range rootVals {
			ids[i] = record(v)
		}
		s.Roots = append(s.Roots, ids)
	}
	return s
}

// recordUUID keeps the value's own identity token when it has one, so a
// reloaded value stays matchable against memoized results. Values without a
// token (failures, short-circuits) get a fresh one scoped to the snapshot.
func recordUUID(v *expr.Value) string {
	if v.ValueID != uuid.Nil {
		return v.ValueID.String()
	}
	return uuid.NewString()
}

// Save writes the store to path as gzip-compressed YAML.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating store file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	enc, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}
	if _, err := zw.Write(enc); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flushing store: %w", err)
	}
	return f.Close()
}

// Load reads a store written by Save.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening store file: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading store header: %w", err)
	}
	defer zr.Close()

	var s Store
	dec := yaml.NewDecoder(zr)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding store: %w", err)
	}
	if s.Version != version {
		return nil, fmt.Errorf("unsupported store version %d", s.Version)
	}
	s.index()
	return &s, nil
}

func (s *Store) index() {
	s.byUUID = make(map[string]*Record, len(s.Records))
	for _, r := range s.Records {
		s.byUUID[r.UUID] = r
	}
}

// ByUUID returns the record with the given identity token, or nil.
func (s *Store) ByUUID(u string) *Record {
	if s.byUUID == nil {
		s.index()
	}
	return s.byUUID[u]
}

// ByType returns the records of the given produced type, in recorded order.
func (s *Store) ByType(t operator.Type) []*Record {
	var out []*Record
	for _, r := range s.Records {
		if r.Type == string(t) {
			out = append(out, r)
		}
	}
	return out
}

// Prebuilt wraps the computed values of the given type as a prebuilt
// operator. Each value keeps the identity token it was recorded with, so
// expressions re-derived from the store reuse rather than recompute.
func (s *Store) Prebuilt(t operator.Type, opts operator.Options) (*operator.Operator, error) {
	var (
		values []any
		ids    []uuid.UUID
	)
	for _, r := range s.ByType(t) {
		if r.State != StateComputed {
			continue
		}
		u, err := uuid.Parse(r.UUID)
		if err != nil {
			return nil, fmt.Errorf("record %q has malformed uuid: %w", r.ID, err)
		}
		values = append(values, r.Value)
		ids = append(ids, u)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("store holds no computed value of type %s", t)
	}
	return operator.NewPrebuilt(operator.PrebuiltSpec{
		Produces: t,
		Values:   values,
		ValueIDs: ids,
	}, opts), nil
}
