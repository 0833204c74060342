package serializer

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Optimize prepares the base queryset for everything this instance will
// render: one Joins per requested to-one relation (with the related
// registry's annotations merged into the parent SELECT under the join
// alias), one Preload per requested to-many relation (annotations computed
// inside the preload query), plus the base registry's own annotation
// columns. The query count is therefore 1 + one per distinct to-many name,
// independent of fan-out.
func (ins *Instance) Optimize(tx *gorm.DB) *gorm.DB {
	selects := []string{fmt.Sprintf("%q.*", ins.def.Table)}
	joined := false
	if ins.def.Annotations != nil {
		if names := ins.appliedNames(); len(names) > 0 {
			selects = append(selects, ins.def.Annotations.SelectExprs("", names...)...)
		}
	}
	for _, req := range ins.related {
		target := Lookup(req.rel.Serializer)
		if req.rel.Many {
			req := req
			target := target
			tx = tx.Preload(req.rel.Association, func(db *gorm.DB) *gorm.DB {
				if req.rel.Filter != nil {
					db = req.rel.Filter(db)
				}
				if target.Annotations != nil {
					if names := nestedAnnotationNames(target, req.fields); len(names) > 0 {
						db = target.Annotations.Apply(db, names...)
					}
				}
				// fixed secondary ordering by primary key
				return db.Order(fmt.Sprintf("%q.%q", target.Table, "id"))
			})
			continue
		}
		joined = true
		if target.Annotations != nil {
			// the target's annotation outputs are virtual columns; the join
			// must not select them from the table itself, only under the
			// subquery aliases appended below
			tx = tx.Joins(req.rel.Association,
				tx.Session(&gorm.Session{NewDB: true}).Omit(target.Annotations.Names()...))
			if names := nestedAnnotationNames(target, req.fields); len(names) > 0 {
				selects = append(selects,
					target.Annotations.SelectExprs(req.rel.Association, names...)...)
			}
			continue
		}
		tx = tx.Joins(req.rel.Association)
	}
	// with a join present the base columns must stay "table".* as well, or
	// gorm enumerates the schema's columns, virtual ones included
	if len(selects) > 1 || joined {
		tx = tx.Select(strings.Join(selects, ", "))
	}
	return tx
}

// nestedAnnotationNames intersects a nested field set with the target's
// annotation surface, group names expanding to their members.
func nestedAnnotationNames(target *Definition, fields []string) []string {
	active := map[string]bool{}
	for _, f := range fields {
		active[f] = true
	}
	var out []string
	for _, g := range target.Annotations.Groups() {
		if active[g.Name] {
			for _, m := range g.Members {
				out = append(out, m.Name)
			}
		}
	}
	grouped := map[string]bool{}
	for _, g := range target.Annotations.Groups() {
		for _, m := range g.Members {
			grouped[m.Name] = true
		}
	}
	for _, n := range target.Annotations.Names() {
		if !grouped[n] && active[n] {
			out = append(out, n)
		}
	}
	return out
}
