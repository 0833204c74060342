// Package serializer turns model rows into JSON-shaped maps and request
// payloads back into validated attribute maps. A serializer definition is
// registered per entity tag at startup; per request an Instance is built that
// applies, in fixed order: field restriction, query-time annotation and
// relation optimization, relation permission checks, related-object
// expansion, and rendering.
package serializer

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"coursemart/internal/annotations"
)

// Context carries everything a serializer needs for one request. Nothing in
// this package reads ambient state.
type Context struct {
	Ctx     context.Context
	DB      *gorm.DB
	ActorID uuid.UUID
	Query   url.Values
	URL     *url.URL
}

// Check runs against the resolved value object of a submitted field.
type Check func(c *Context, value any) error

// RelationCheck runs against the parent row before a related object expands.
type RelationCheck func(c *Context, parent any) error

// Resolver turns a submitted raw field value (usually an id) into the object
// the permission checks evaluate.
type Resolver func(c *Context, raw any) (any, error)

type FieldPermission struct {
	Fields  []string
	Resolve Resolver
	Checks  []Check
}

type Relation struct {
	// Serializer is the registry tag of the nested serializer. Tags are
	// resolved through the startup registry, never through lazy class paths.
	Serializer  string
	Association string // gorm association name on the model
	Many        bool
	Filter      func(tx *gorm.DB) *gorm.DB
	Permissions []RelationCheck
}

type Definition struct {
	Tag           string
	Model         any
	Table         string
	Fields        []string // declared plain fields, output order
	MinFields     []string
	DefaultFields []string
	CreateOnly    []string
	UpdateOnly    []string
	ReadOnly      []string
	Related       map[string]Relation
	FieldPerms    []FieldPermission
	Annotations   *annotations.Registry

	once     sync.Once
	fieldIdx map[string][]int // json name -> struct index path
	assocIdx map[string][]int // association name -> struct index path
}

var (
	regMu    sync.RWMutex
	registry = map[string]*Definition{}
)

// Register adds a definition to the process-wide registry. Call at startup,
// before any request is served.
func Register(def *Definition) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[def.Tag]; dup {
		panic(fmt.Sprintf("serializer: duplicate tag %q", def.Tag))
	}
	def.index()
	registry[def.Tag] = def
}

// Lookup resolves a tag. A missing tag is a registry misconfiguration, not
// bad input, so it propagates as a panic.
func Lookup(tag string) *Definition {
	regMu.RLock()
	defer regMu.RUnlock()
	def, ok := registry[tag]
	if !ok {
		panic(fmt.Sprintf("serializer: unknown tag %q", tag))
	}
	return def
}

// Reset drops all registrations. Test hook.
func Reset() {
	regMu.Lock()
	defer regMu.Unlock()
	registry = map[string]*Definition{}
}

func (d *Definition) index() {
	d.once.Do(func() {
		d.fieldIdx = map[string][]int{}
		d.assocIdx = map[string][]int{}
		t := reflect.TypeOf(d.Model)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			d.assocIdx[f.Name] = f.Index
			tag := f.Tag.Get("json")
			name := tag
			for j, r := range tag {
				if r == ',' {
					name = tag[:j]
					break
				}
			}
			if name == "" || name == "-" {
				continue
			}
			d.fieldIdx[name] = f.Index
		}
		// relation names render through the expansion path only; an
		// association's json tag must not surface it as a plain field
		for name := range d.Related {
			delete(d.fieldIdx, name)
		}
	})
}

// annotationFieldNames lists the serialized names contributed by the
// annotation registry: single definitions by their own name, groups by the
// group name.
func (d *Definition) annotationFieldNames() []string {
	if d.Annotations == nil {
		return nil
	}
	grouped := map[string]bool{}
	var groups []string
	for _, g := range d.Annotations.Groups() {
		groups = append(groups, g.Name)
		for _, m := range g.Members {
			grouped[m.Name] = true
		}
	}
	var out []string
	for _, n := range d.Annotations.Names() {
		if !grouped[n] {
			out = append(out, n)
		}
	}
	return append(out, groups...)
}

// declaredSet is the full selectable surface: plain fields, annotation
// fields, related names.
func (d *Definition) declaredSet() []string {
	out := append([]string{}, d.Fields...)
	out = append(out, d.annotationFieldNames()...)
	for name := range d.Related {
		out = append(out, name)
	}
	return out
}

func fieldValue(row reflect.Value, idx []int) any {
	v := row
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	fv := v.FieldByIndex(idx)
	if fv.Kind() == reflect.Ptr {
		if fv.IsNil() {
			return nil
		}
		return fv.Elem().Interface()
	}
	return fv.Interface()
}

// Instance is a per-request serializer over one definition.
type Instance struct {
	def        *Definition
	ctx        *Context
	fields     []string // active field set, declared order
	restricted bool
	applied    map[string]bool
	related    []*relatedRequest
	nested     bool
}

type Option func(*Instance) error

// WithFields restricts the active field set explicitly instead of reading
// the request's fields parameter.
func WithFields(tokens ...string) Option {
	return func(ins *Instance) error {
		ins.fields = ins.def.expandFields(tokens)
		ins.restricted = true
		return nil
	}
}

// New builds an Instance for one request: restricts fields from the fields=
// parameter (or WithFields), parses every requested fields[<name>] selector,
// and records which annotations the query phase must compute.
func New(tag string, c *Context, opts ...Option) (*Instance, error) {
	def := Lookup(tag)
	ins := &Instance{def: def, ctx: c, applied: map[string]bool{}}
	if c.Query != nil {
		if raw, ok := c.Query["fields"]; ok {
			sel, err := ParseSelector(raw[0])
			if err != nil {
				return nil, err
			}
			ins.fields = def.expandFields(sel.Tokens)
			ins.restricted = true
		}
	}
	for _, opt := range opts {
		if err := opt(ins); err != nil {
			return nil, err
		}
	}
	if ins.fields == nil {
		ins.fields = def.expandFields([]string{SelectorAll})
	}
	if err := ins.parseRelatedRequests(); err != nil {
		return nil, err
	}
	ins.resolveApplied()
	return ins, nil
}

// resolveApplied intersects the annotations= request (default: all) with the
// active field set; only that intersection is computed and rendered.
func (ins *Instance) resolveApplied() {
	if ins.def.Annotations == nil {
		return
	}
	requested := map[string]bool{}
	raw := []string{annotations.SelectorAll}
	if ins.ctx.Query != nil {
		if v, ok := ins.ctx.Query["annotations"]; ok {
			raw = v
		}
	}
	for _, d := range ins.def.Annotations.Resolve(raw...) {
		requested[d.Name] = true
	}
	active := map[string]bool{}
	for _, f := range ins.fields {
		active[f] = true
	}
	for _, g := range ins.def.Annotations.Groups() {
		if active[g.Name] {
			for _, m := range g.Members {
				active[m.Name] = true
			}
		}
	}
	for name := range requested {
		if active[name] {
			ins.applied[name] = true
		}
	}
}

func (ins *Instance) appliedNames() []string {
	var out []string
	for _, n := range ins.def.Annotations.Names() {
		if ins.applied[n] {
			out = append(out, n)
		}
	}
	return out
}

// Represent renders one row through the stage pipeline.
func (ins *Instance) Represent(row any) (map[string]any, error) {
	rv := reflect.ValueOf(row)
	out := map[string]any{}
	for _, name := range ins.fields {
		if idx, ok := ins.def.fieldIdx[name]; ok {
			out[name] = fieldValue(rv, idx)
		}
	}
	if err := ins.representAnnotations(rv, out); err != nil {
		return nil, err
	}
	for _, req := range ins.related {
		val, err := ins.representRelated(row, rv, req)
		if err != nil {
			return nil, err
		}
		out[req.name] = val
	}
	return out, nil
}

// RepresentMany renders a slice of rows.
func (ins *Instance) RepresentMany(rows any) ([]map[string]any, error) {
	rv := reflect.ValueOf(rows)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("serializer: RepresentMany wants a slice, got %T", rows)
	}
	out := make([]map[string]any, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		m, err := ins.Represent(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (ins *Instance) representAnnotations(rv reflect.Value, out map[string]any) error {
	reg := ins.def.Annotations
	if reg == nil {
		return nil
	}
	row := rv
	if row.Kind() == reflect.Ptr {
		if row.IsNil() {
			return nil
		}
		row = row.Elem()
	}
	read := func(d *annotations.Definition) any {
		fv := row.FieldByName(d.Field)
		if !fv.IsValid() {
			return nil
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				return nil
			}
			return fv.Elem().Interface()
		}
		return fv.Interface()
	}
	grouped := map[string]bool{}
	for _, g := range reg.Groups() {
		var members map[string]any
		for _, m := range g.Members {
			grouped[m.Name] = true
			if ins.applied[m.Name] {
				if members == nil {
					members = map[string]any{}
				}
				d, _ := reg.Lookup(m.Name)
				members[m.Name] = read(d)
			}
		}
		if members != nil {
			out[g.Name] = members
		}
	}
	for _, n := range reg.Names() {
		if grouped[n] || !ins.applied[n] {
			continue
		}
		d, _ := reg.Lookup(n)
		out[n] = read(d)
	}
	return nil
}
