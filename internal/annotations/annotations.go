// Package annotations declares named database aggregates per model type and
// compiles a requested subset of them into correlated-subquery SELECT
// fragments, so computed fields ride along on the base query with no extra
// round-trips.
package annotations

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Reserved selectors meaning "every registered definition".
const (
	SelectorAll  = "@all"
	SelectorStar = "*"
)

type Output int

const (
	OutputText Output = iota
	OutputInt
	OutputFloat
	OutputBool
)

// Cond restricts which related rows feed the aggregate. Column belongs to the
// aggregated table; Op defaults to "=".
type Cond struct {
	Column string
	Op     string
	Value  any
}

// Definition is one named aggregate: AGG(column) over Table rows whose FK
// column references the owner's primary key.
type Definition struct {
	Name      string
	Field     string // Go struct field on the owner receiving the value
	Aggregate string // COUNT, AVG, SUM, MIN, MAX
	Table     string
	FK        string
	Column    string // aggregated column, "*" when empty (COUNT only)
	Distinct  bool
	Where     []Cond
	Output    Output
}

// Group yields several independent named outputs from one declaration. The
// serializer surfaces a group as a single nested object keyed by member name.
type Group struct {
	Name    string
	Members []Definition
}

type entry struct {
	def   *Definition
	group *Group
}

type Registry struct {
	table   string
	pk      string
	entries []entry
	byName  map[string]*Definition
	groups  map[string]*Group
}

// NewRegistry creates a registry for rows of the given table, correlated on
// its "id" column.
func NewRegistry(table string) *Registry {
	return &Registry{
		table:  table,
		pk:     "id",
		byName: map[string]*Definition{},
		groups: map[string]*Group{},
	}
}

func (r *Registry) Define(d Definition) *Registry {
	if _, dup := r.byName[d.Name]; dup {
		panic(fmt.Sprintf("annotations: duplicate definition %q on %q", d.Name, r.table))
	}
	dd := d
	r.entries = append(r.entries, entry{def: &dd})
	r.byName[d.Name] = &dd
	return r
}

func (r *Registry) DefineGroup(g Group) *Registry {
	gg := g
	for i := range gg.Members {
		m := &gg.Members[i]
		if _, dup := r.byName[m.Name]; dup {
			panic(fmt.Sprintf("annotations: duplicate definition %q on %q", m.Name, r.table))
		}
		r.byName[m.Name] = m
	}
	r.entries = append(r.entries, entry{group: &gg})
	r.groups[g.Name] = &gg
	return r
}

// Names returns every registered output name, groups expanded, in
// declaration order.
func (r *Registry) Names() []string {
	var out []string
	for _, e := range r.entries {
		if e.def != nil {
			out = append(out, e.def.Name)
			continue
		}
		for _, m := range e.group.Members {
			out = append(out, m.Name)
		}
	}
	return out
}

// Lookup returns the definition for one output name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Groups returns the declared groups in declaration order.
func (r *Registry) Groups() []*Group {
	var out []*Group
	for _, e := range r.entries {
		if e.group != nil {
			out = append(out, e.group)
		}
	}
	return out
}

// Resolve expands the requested names into definitions. Names may be
// comma-joined, include @all/*, or name a group (expanding to its members).
// Unknown names are dropped silently so raw query-string content can be
// passed through unvalidated.
func (r *Registry) Resolve(names ...string) []*Definition {
	seen := map[string]bool{}
	var out []*Definition
	add := func(d *Definition) {
		if !seen[d.Name] {
			seen[d.Name] = true
			out = append(out, d)
		}
	}
	for _, raw := range names {
		for _, name := range strings.Split(raw, ",") {
			name = strings.TrimSpace(name)
			switch name {
			case "":
			case SelectorAll, SelectorStar:
				for _, e := range r.entries {
					if e.def != nil {
						add(e.def)
						continue
					}
					for i := range e.group.Members {
						add(&e.group.Members[i])
					}
				}
			default:
				if g, ok := r.groups[name]; ok {
					for i := range g.Members {
						add(&g.Members[i])
					}
					continue
				}
				if d, ok := r.byName[name]; ok {
					add(d)
				}
			}
		}
	}
	return out
}

// SQL compiles one definition into a correlated subquery fragment. ownerAlias
// is the (quoted) alias the correlation references; alias is the output
// column name.
func (d *Definition) SQL(ownerAlias, ownerPK, alias string) string {
	col := "*"
	if d.Column != "" && d.Column != "*" {
		col = fmt.Sprintf(`"__ann".%q`, d.Column)
	}
	agg := strings.ToUpper(d.Aggregate)
	inner := col
	if d.Distinct && col != "*" {
		inner = "DISTINCT " + inner
	}
	var conds []string
	conds = append(conds, fmt.Sprintf(`"__ann".%q = %s.%q`, d.FK, ownerAlias, ownerPK))
	for _, c := range d.Where {
		op := c.Op
		if op == "" {
			op = "="
		}
		conds = append(conds, fmt.Sprintf(`"__ann".%q %s %s`, c.Column, op, literal(c.Value)))
	}
	// live rows only; every aggregated table here carries deleted_at
	conds = append(conds, `"__ann"."deleted_at" IS NULL`)
	return fmt.Sprintf(`(SELECT %s(%s) FROM %q "__ann" WHERE %s) AS %q`,
		agg, inner, d.Table, strings.Join(conds, " AND "), alias)
}

func literal(v any) string {
	switch t := v.(type) {
	case string:
		return "'" + strings.ReplaceAll(t, "'", "''") + "'"
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case nil:
		return "NULL"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// SelectExprs builds the SELECT fragments for the requested names. With an
// empty path the correlation targets the base table and outputs keep their
// plain names; with a path (a join alias such as "Course") the correlation
// retargets that alias and outputs are prefixed "path__name", the composition
// rule that lets a related row's aggregates ride on the parent query.
func (r *Registry) SelectExprs(path string, names ...string) []string {
	defs := r.Resolve(names...)
	if len(defs) == 0 {
		return nil
	}
	ownerAlias := fmt.Sprintf("%q", r.table)
	prefix := ""
	if path != "" {
		ownerAlias = fmt.Sprintf("%q", path)
		prefix = path + "__"
	}
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.SQL(ownerAlias, r.pk, prefix+d.Name))
	}
	return out
}

// Apply appends the requested annotation columns to a query over the
// registry's own table, keeping the base columns first. Merging a related
// registry into a parent query goes through SelectExprs with a join-alias
// path instead.
func (r *Registry) Apply(tx *gorm.DB, names ...string) *gorm.DB {
	exprs := r.SelectExprs("", names...)
	if len(exprs) == 0 {
		return tx
	}
	cols := append([]string{fmt.Sprintf("%q.*", r.table)}, exprs...)
	return tx.Select(strings.Join(cols, ", "))
}
