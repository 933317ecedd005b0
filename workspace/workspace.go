// Package workspace is the client for the relational workspace store the
// settlement graph is synchronized into.
//
// The store holds collections of records. Each record carries a property
// bag; each collection carries a schema describing its properties. The
// engine only ever consumes the Store interface: Client talks to the real
// service, Memory backs the tests.
package workspace

import "context"

// Kind is the closed set of property kinds the engine uses. Schema
// evolution dispatches on it exhaustively rather than on wire strings.
type Kind int

const (
	KindTitle Kind = iota
	KindRichText
	KindNumber
	KindRelation     // one-way relation to another collection
	KindDualRelation // relation with a synced back-reference
	KindRollup       // aggregate over a relation's remote property
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindRichText:
		return "rich_text"
	case KindNumber:
		return "number"
	case KindRelation:
		return "relation"
	case KindDualRelation:
		return "dual_relation"
	case KindRollup:
		return "rollup"
	}
	return "unknown"
}

// Value is one property value. Which field is meaningful depends on Kind.
type Value struct {
	Kind     Kind
	Text     string   // KindTitle, KindRichText
	Number   float64  // KindNumber, numeric rollups
	Relation []string // related record ids
}

func Title(s string) Value   { return Value{Kind: KindTitle, Text: s} }
func Text(s string) Value    { return Value{Kind: KindRichText, Text: s} }
func Number(f float64) Value { return Value{Kind: KindNumber, Number: f} }

func Relation(ids ...string) Value {
	return Value{Kind: KindRelation, Relation: ids}
}

// Properties is a record's property bag in wire shape. Typed entities are
// mapped to and from it at the engine boundary; it never travels further.
type Properties map[string]Value

// Text returns the plain text of a title or rich-text property.
func (p Properties) Text(name string) string { return p[name].Text }

// Number returns a numeric property value, and whether it is present.
func (p Properties) Number(name string) (float64, bool) {
	v, ok := p[name]
	return v.Number, ok
}

// Relation returns the related record ids of a relation property.
func (p Properties) Relation(name string) []string { return p[name].Relation }

// Record is one store record.
type Record struct {
	ID       string
	Archived bool
	Props    Properties
}

// Condition is one exact-match constraint on a property. For relation
// properties it matches records whose relation contains the first id.
type Condition struct {
	Property string
	Equals   Value
}

// Filter is a conjunction of conditions, evaluated by the store itself so
// lookups stay exact-match server-side as collections grow.
type Filter []Condition

func Eq(property string, v Value) Condition { return Condition{Property: property, Equals: v} }

// PropertyDef describes one schema property.
type PropertyDef struct {
	ID   string
	Name string
	Kind Kind

	// Relations.
	Target string // target collection id

	// Rollups.
	RollupRelation string // name of the relation property to follow
	RollupProperty string // remote property to aggregate
	RollupFunction string // "sum", "count", ...
}

// Schema is a collection's live property definitions, by property name.
type Schema map[string]PropertyDef

// TitleProperty returns the collection's title property. Every collection
// has exactly one, and it cannot be removed, only renamed.
func (s Schema) TitleProperty() (PropertyDef, bool) {
	for _, d := range s {
		if d.Kind == KindTitle {
			return d, true
		}
	}
	return PropertyDef{}, false
}

// RelationTo returns the first relation property pointing at the target
// collection. Dual relations may carry store-chosen names, so callers
// locate them by target instead of by name.
func (s Schema) RelationTo(target string) (PropertyDef, bool) {
	for _, d := range s {
		if (d.Kind == KindRelation || d.Kind == KindDualRelation) && d.Target == target {
			return d, true
		}
	}
	return PropertyDef{}, false
}

// SchemaEdits is one batch of schema changes. Renames apply by current
// property name; Adds create new properties.
type SchemaEdits struct {
	Renames map[string]string
	Adds    []PropertyDef
}

func (e SchemaEdits) Empty() bool { return len(e.Renames) == 0 && len(e.Adds) == 0 }

// Store is the store contract the engine consumes.
//
// Query and the natural-key lookups built on it see only live records;
// archived ones stay in the store but drop out of results. Query follows
// continuation cursors to exhaustion before returning, so callers always
// act on the complete live set.
type Store interface {
	Query(ctx context.Context, collection string, filter Filter) ([]Record, error)
	Create(ctx context.Context, collection string, props Properties) (string, error)
	Update(ctx context.Context, id string, props Properties) error
	Archive(ctx context.Context, id string) error
	GetSchema(ctx context.Context, collection string) (Schema, error)
	UpdateSchema(ctx context.Context, collection string, edits SchemaEdits) error
}
