package serializer

import (
	"encoding/json"
	"fmt"

	"coursemart/internal/apierr"
)

type Op int

const (
	OpCreate Op = iota
	OpUpdate
)

// Deserialize filters a submitted payload down to the fields writable for
// the operation, then runs the field permission checks declared for any
// submitted field against its resolved value object. Fields not submitted
// are never checked.
func (ins *Instance) Deserialize(payload map[string]any, op Op) (map[string]any, error) {
	writable := map[string]bool{}
	for _, f := range ins.def.Fields {
		writable[f] = true
	}
	for _, f := range ins.def.ReadOnly {
		delete(writable, f)
	}
	switch op {
	case OpCreate:
		for _, f := range ins.def.UpdateOnly {
			delete(writable, f)
		}
	case OpUpdate:
		for _, f := range ins.def.CreateOnly {
			delete(writable, f)
		}
	}
	attrs := map[string]any{}
	for k, v := range payload {
		if writable[k] {
			attrs[k] = v
		}
	}
	for _, fp := range ins.def.FieldPerms {
		for _, field := range fp.Fields {
			raw, submitted := attrs[field]
			if !submitted {
				continue
			}
			value := raw
			if fp.Resolve != nil {
				resolved, err := fp.Resolve(ins.ctx, raw)
				if err != nil {
					return nil, err
				}
				value = resolved
			}
			for _, check := range fp.Checks {
				if err := check(ins.ctx, value); err != nil {
					return nil, apierr.Forbidden("field_permission",
						fmt.Errorf("You do not have permission to use `%s` with this id", field))
				}
			}
		}
	}
	return attrs, nil
}

// ApplyAttrs copies a validated attribute map onto a model row, matching by
// json tag. A JSON round-trip keeps the type coercion rules identical to the
// read path.
func ApplyAttrs(row any, attrs map[string]any) error {
	b, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, row); err != nil {
		return apierr.ValidationError{"detail": err.Error()}
	}
	return nil
}
