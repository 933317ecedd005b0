package workspace

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Memory is an in-memory Store used by tests. It mirrors the real store's
// visible behavior: archived records drop out of Query results, schema
// renames keep the property id, updates merge into the existing bag.
//
// The counters record write traffic so tests can assert idempotence:
// ValueChanges only grows when an Update actually changes a property.
type Memory struct {
	mu      sync.Mutex
	seq     int
	records map[string][]*memRecord // by collection
	byID    map[string]*memRecord
	schemas map[string]Schema

	Creates       int
	Updates       int
	Archives      int
	ValueChanges  int
	SchemaUpdates int
}

type memRecord struct {
	id         string
	collection string
	archived   bool
	props      Properties
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string][]*memRecord),
		byID:    make(map[string]*memRecord),
		schemas: make(map[string]Schema),
	}
}

// SetSchema seeds a collection's live schema.
func (m *Memory) SetSchema(collection string, s Schema) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schemas[collection] = s
}

func match(r *memRecord, f Filter) bool {
	for _, c := range f {
		v, ok := r.props[c.Property]
		if !ok {
			return false
		}
		switch c.Equals.Kind {
		case KindTitle, KindRichText:
			if v.Text != c.Equals.Text {
				return false
			}
		case KindNumber:
			if v.Number != c.Equals.Number {
				return false
			}
		case KindRelation, KindDualRelation:
			if len(c.Equals.Relation) == 0 || !slices.Contains(v.Relation, c.Equals.Relation[0]) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (m *Memory) Query(_ context.Context, collection string, filter Filter) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Record
	for _, r := range m.records[collection] {
		if r.archived || !match(r, filter) {
			continue
		}
		out = append(out, Record{ID: r.id, Props: cloneProps(r.props)})
	}
	return out, nil
}

func (m *Memory) Create(_ context.Context, collection string, props Properties) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.Creates++
	r := &memRecord{
		id:         fmt.Sprintf("rec-%06d", m.seq),
		collection: collection,
		props:      cloneProps(props),
	}
	m.records[collection] = append(m.records[collection], r)
	m.byID[r.id] = r
	return r.id, nil
}

func (m *Memory) Update(_ context.Context, id string, props Properties) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("update: no record %q", id)
	}
	m.Updates++
	for name, v := range props {
		if !valueEqual(r.props[name], v) {
			m.ValueChanges++
		}
		r.props[name] = v
	}
	return nil
}

func (m *Memory) Archive(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("archive: no record %q", id)
	}
	m.Archives++
	r.archived = true
	return nil
}

func (m *Memory) GetSchema(_ context.Context, collection string) (Schema, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[collection]
	if !ok {
		return nil, fmt.Errorf("no collection %q", collection)
	}
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

func (m *Memory) UpdateSchema(_ context.Context, collection string, edits SchemaEdits) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schemas[collection]
	if !ok {
		return fmt.Errorf("no collection %q", collection)
	}
	m.SchemaUpdates++
	for from, to := range edits.Renames {
		d, ok := s[from]
		if !ok {
			return fmt.Errorf("rename: no property %q", from)
		}
		delete(s, from)
		d.Name = to
		s[to] = d
	}
	for _, d := range edits.Adds {
		if _, exists := s[d.Name]; exists {
			return fmt.Errorf("add: property %q already exists", d.Name)
		}
		m.seq++
		d.ID = fmt.Sprintf("prop-%06d", m.seq)
		s[d.Name] = d

		// A dual relation grows a synced counterpart on the target
		// collection, with a store-chosen name, like the real store does.
		if d.Kind == KindDualRelation {
			target, ok := m.schemas[d.Target]
			if !ok {
				return fmt.Errorf("add: dual relation target %q does not exist", d.Target)
			}
			m.seq++
			synced := PropertyDef{
				ID:     fmt.Sprintf("prop-%06d", m.seq),
				Name:   fmt.Sprintf("Related to %s (%s)", collection, d.Name),
				Kind:   KindDualRelation,
				Target: collection,
			}
			target[synced.Name] = synced
		}
	}
	return nil
}

// Record returns a record by id, archived or not, for test assertions.
func (m *Memory) Record(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return Record{}, false
	}
	return Record{ID: r.id, Archived: r.archived, Props: cloneProps(r.props)}, true
}

func cloneProps(p Properties) Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		v.Relation = slices.Clone(v.Relation)
		out[k] = v
	}
	return out
}

func valueEqual(a, b Value) bool {
	return a.Kind == b.Kind && a.Text == b.Text && a.Number == b.Number && slices.Equal(a.Relation, b.Relation)
}
