package serializer

import (
	"fmt"
	"strconv"
	"strings"

	"coursemart/internal/apierr"
)

// Field selection presets.
const (
	SelectorMin     = "@min"
	SelectorDefault = "@default"
	SelectorAll     = "@all"
)

// DefaultRelatedPageSize bounds related collections unless the selector
// carries a page_size(n) token.
const DefaultRelatedPageSize = 10

// Selection is one parsed fields selector: the field-name/preset tokens plus
// the optional page(n) / page_size(n) control tokens, which may appear
// anywhere in the comma list.
type Selection struct {
	Tokens      []string
	Page        int
	PageSet     bool
	PageSize    int
	PageSizeSet bool
}

// ParseSelector splits a raw comma-joined selector. Malformed control tokens
// surface as invalid-argument errors; plain tokens pass through unvalidated
// (unknown names are dropped later, at expansion).
func ParseSelector(raw string) (Selection, error) {
	var sel Selection
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		switch {
		case strings.HasPrefix(tok, "page(") && strings.HasSuffix(tok, ")"):
			n, err := strconv.Atoi(tok[len("page(") : len(tok)-1])
			if err != nil {
				return sel, apierr.ValidationError{"fields": fmt.Sprintf("malformed token %q", tok)}
			}
			sel.Page = n
			sel.PageSet = true
		case strings.HasPrefix(tok, "page_size(") && strings.HasSuffix(tok, ")"):
			n, err := strconv.Atoi(tok[len("page_size(") : len(tok)-1])
			if err != nil {
				return sel, apierr.ValidationError{"fields": fmt.Sprintf("malformed token %q", tok)}
			}
			sel.PageSize = n
			sel.PageSizeSet = true
		default:
			sel.Tokens = append(sel.Tokens, tok)
		}
	}
	return sel, nil
}

// expandFields resolves presets and intersects with the declared surface.
// @all alone disables restriction; presets union with individually named
// fields; unknown names are silently dropped.
func (d *Definition) expandFields(tokens []string) []string {
	declared := d.declaredSet()
	if len(tokens) == 0 {
		return d.defaultOrAll()
	}
	want := map[string]bool{}
	all := false
	for _, tok := range tokens {
		switch tok {
		case SelectorAll:
			all = true
		case SelectorMin:
			for _, f := range d.MinFields {
				want[f] = true
			}
		case SelectorDefault:
			for _, f := range d.defaultOrAll() {
				want[f] = true
			}
		default:
			want[tok] = true
		}
	}
	if all {
		return declared
	}
	// keep declared order
	var out []string
	for _, f := range declared {
		if want[f] {
			out = append(out, f)
		}
	}
	return out
}

func (d *Definition) defaultOrAll() []string {
	if len(d.DefaultFields) > 0 {
		return append([]string{}, d.DefaultFields...)
	}
	return d.declaredSet()
}
