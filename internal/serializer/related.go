package serializer

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"coursemart/internal/apierr"
)

// relatedRequest is one fields[<name>]= selector from the query string.
// Only requested names expand; declaring a relation in a definition does
// nothing by itself.
type relatedRequest struct {
	name   string
	rel    Relation
	sel    Selection
	fields []string // expanded nested field set
}

func relatedParamName(name string) string { return "fields[" + name + "]" }

func (ins *Instance) parseRelatedRequests() error {
	if ins.ctx.Query == nil {
		return nil
	}
	active := map[string]bool{}
	for _, f := range ins.fields {
		active[f] = true
	}
	// stable iteration order over the relation map
	names := make([]string, 0, len(ins.def.Related))
	for name := range ins.def.Related {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rel := ins.def.Related[name]
		raw, ok := ins.ctx.Query[relatedParamName(name)]
		if !ok {
			continue
		}
		// restriction runs before related logic: a name sliced away by
		// fields= is never traversed
		if ins.restricted && !active[name] {
			continue
		}
		sel, err := ParseSelector(raw[0])
		if err != nil {
			return err
		}
		target := Lookup(rel.Serializer)
		req := &relatedRequest{name: name, rel: rel, sel: sel}
		if len(sel.Tokens) == 0 {
			req.fields = target.defaultOrAll()
		} else {
			req.fields = target.expandFields(sel.Tokens)
		}
		ins.related = append(ins.related, req)
	}
	return nil
}

// RequestedRelated reports the requested related names, for query planning.
func (ins *Instance) RequestedRelated() []string {
	var out []string
	for _, r := range ins.related {
		out = append(out, r.name)
	}
	return out
}

func (ins *Instance) representRelated(parent any, rv reflect.Value, req *relatedRequest) (any, error) {
	for _, check := range req.rel.Permissions {
		if err := check(ins.ctx, parent); err != nil {
			return nil, apierr.Forbidden("related_object_forbidden",
				fmt.Errorf("You do not have permission to use `%s` with this id", req.name))
		}
	}
	target := Lookup(req.rel.Serializer)
	nested := &Instance{
		def:        target,
		ctx:        ins.ctx,
		fields:     req.fields,
		restricted: true,
		applied:    map[string]bool{},
		nested:     true,
	}
	nested.resolveAppliedNested()

	idx, ok := ins.def.assocIdx[req.rel.Association]
	if !ok {
		panic(fmt.Sprintf("serializer: %q has no association %q", ins.def.Tag, req.rel.Association))
	}
	row := rv
	if row.Kind() == reflect.Ptr {
		if row.IsNil() {
			return nil, nil
		}
		row = row.Elem()
	}
	fv := row.FieldByIndex(idx)

	if !req.rel.Many {
		if fv.Kind() == reflect.Ptr && fv.IsNil() {
			return nil, nil
		}
		return nested.Represent(fv.Interface())
	}
	return ins.paginateRelated(nested, req, fv)
}

// resolveAppliedNested marks every active annotation field as applied; the
// query phase computed them inside the preload or join already.
func (ins *Instance) resolveAppliedNested() {
	if ins.def.Annotations == nil {
		return
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
	for _, n := range ins.def.Annotations.Names() {
		if active[n] {
			ins.applied[n] = true
		}
	}
}

// paginateRelated slices the preloaded collection. The envelope only wraps
// the results when they span more than one page; page 1 of 1 returns the
// bare list.
func (ins *Instance) paginateRelated(nested *Instance, req *relatedRequest, fv reflect.Value) (any, error) {
	count := fv.Len()
	pageSize := DefaultRelatedPageSize
	if req.sel.PageSizeSet {
		pageSize = req.sel.PageSize
	}
	if pageSize < 1 {
		return nil, apierr.NotFound("invalid_page",
			fmt.Errorf("Invalid page size for related object `%s`", req.name))
	}
	totalPages := (count + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := 1
	if req.sel.PageSet {
		page = req.sel.Page
	}
	if page < 1 || page > totalPages {
		return nil, apierr.NotFound("invalid_page",
			fmt.Errorf("Invalid page for related object `%s`", req.name))
	}
	lo := (page - 1) * pageSize
	hi := lo + pageSize
	if hi > count {
		hi = count
	}
	results, err := nested.RepresentMany(fv.Slice(lo, hi).Interface())
	if err != nil {
		return nil, err
	}
	if totalPages <= 1 {
		return results, nil
	}
	env := map[string]any{
		"count":    count,
		"next":     nil,
		"previous": nil,
		"results":  results,
	}
	if page < totalPages {
		env["next"] = ins.pageLink(req, page+1)
	}
	if page > 1 {
		env["previous"] = ins.pageLink(req, page-1)
	}
	return env, nil
}

// pageLink rebuilds the request URL, rewriting only the fields[<name>]
// parameter: the page(n) token is swapped for the target page, or dropped
// entirely when the target is page 1.
func (ins *Instance) pageLink(req *relatedRequest, page int) any {
	if ins.ctx.URL == nil {
		return nil
	}
	q := url.Values{}
	for k, v := range ins.ctx.Query {
		q[k] = append([]string{}, v...)
	}
	param := relatedParamName(req.name)
	raw := ""
	if v, ok := q[param]; ok {
		raw = v[0]
	}
	var toks []string
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || (strings.HasPrefix(tok, "page(") && strings.HasSuffix(tok, ")")) {
			continue
		}
		toks = append(toks, tok)
	}
	if page > 1 {
		toks = append(toks, fmt.Sprintf("page(%d)", page))
	}
	q.Set(param, strings.Join(toks, ","))
	u := *ins.ctx.URL
	u.RawQuery = q.Encode()
	return u.String()
}
