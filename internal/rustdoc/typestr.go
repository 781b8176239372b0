package rustdoc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// typeStr renders a rustdoc Type as Rust source text. Shapes it doesn't
// understand render as "_".
func (c *Crate) typeStr(raw json.RawMessage) string {
	var unit string
	if err := json.Unmarshal(raw, &unit); err == nil {
		// unit variants such as "infer" are encoded as bare strings
		return "_"
	}

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return "_"
	}

	if data, ok := outer["resolved_path"]; ok {
		return c.pathStr(data)
	}
	if data, ok := outer["primitive"]; ok {
		return stringOr(data, "_")
	}
	if data, ok := outer["generic"]; ok {
		return stringOr(data, "_")
	}
	if data, ok := outer["borrowed_ref"]; ok {
		return c.borrowedRefStr(data)
	}
	if data, ok := outer["raw_pointer"]; ok {
		var p struct {
			IsMutable bool            `json:"is_mutable"`
			Type      json.RawMessage `json:"type"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return "_"
		}
		if p.IsMutable {
			return "*mut " + c.typeStr(p.Type)
		}
		return "*const " + c.typeStr(p.Type)
	}
	if data, ok := outer["slice"]; ok {
		return "[" + c.typeStr(data) + "]"
	}
	if data, ok := outer["array"]; ok {
		var a struct {
			Type json.RawMessage `json:"type"`
			Len  string          `json:"len"`
		}
		if err := json.Unmarshal(data, &a); err != nil {
			return "_"
		}
		return fmt.Sprintf("[%s; %s]", c.typeStr(a.Type), a.Len)
	}
	if data, ok := outer["tuple"]; ok {
		var types []json.RawMessage
		if err := json.Unmarshal(data, &types); err != nil {
			return "_"
		}
		parts := make([]string, len(types))
		for i, t := range types {
			parts[i] = c.typeStr(t)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	if data, ok := outer["dyn_trait"]; ok {
		return c.dynTraitStr(data)
	}
	if data, ok := outer["impl_trait"]; ok {
		return "impl " + c.boundsStr(data)
	}
	if data, ok := outer["qualified_path"]; ok {
		return c.qualifiedPathStr(data)
	}
	if data, ok := outer["function_pointer"]; ok {
		return c.fnPointerStr(data)
	}
	return "_"
}

// pathStr renders a rustdoc Path (a resolved path or a trait reference)
// including its generic arguments.
func (c *Crate) pathStr(data json.RawMessage) string {
	var p struct {
		Name string           `json:"name"`
		Path string           `json:"path"`
		ID   int              `json:"id"`
		Args *json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return "_"
	}

	// Newer formats call the field "path"; older ones "name", and the name
	// can be empty, in which case the paths table has it.
	name := p.Path
	if name == "" {
		name = p.Name
	}
	if name == "" {
		if summary, ok := c.Paths[strconv.Itoa(p.ID)]; ok && len(summary.Path) > 0 {
			name = summary.Path[len(summary.Path)-1]
		}
	}
	if name == "" {
		return "_"
	}

	if p.Args != nil {
		name += c.genericArgsStr(*p.Args)
	}
	return name
}

func (c *Crate) genericArgsStr(data json.RawMessage) string {
	var args struct {
		AngleBracketed *struct {
			Args        []json.RawMessage `json:"args"`
			Constraints []json.RawMessage `json:"constraints"`
			Bindings    []json.RawMessage `json:"bindings"`
		} `json:"angle_bracketed"`
		Parenthesized *struct {
			Inputs []json.RawMessage `json:"inputs"`
			Output json.RawMessage   `json:"output"`
		} `json:"parenthesized"`
	}
	if err := json.Unmarshal(data, &args); err != nil {
		return ""
	}

	if pa := args.Parenthesized; pa != nil {
		inputs := make([]string, len(pa.Inputs))
		for i, in := range pa.Inputs {
			inputs[i] = c.typeStr(in)
		}
		s := "(" + strings.Join(inputs, ", ") + ")"
		if !isNull(pa.Output) {
			s += " -> " + c.typeStr(pa.Output)
		}
		return s
	}

	ab := args.AngleBracketed
	if ab == nil {
		return ""
	}
	var parts []string
	for _, arg := range ab.Args {
		if s := c.genericArgStr(arg); s != "" {
			parts = append(parts, s)
		}
	}
	for _, cons := range append(ab.Constraints, ab.Bindings...) {
		if s := c.constraintStr(cons); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (c *Crate) genericArgStr(arg json.RawMessage) string {
	var unit string
	if json.Unmarshal(arg, &unit) == nil {
		return "_"
	}
	var a map[string]json.RawMessage
	if err := json.Unmarshal(arg, &a); err != nil {
		return ""
	}
	if lt, ok := a["lifetime"]; ok {
		return stringOr(lt, "")
	}
	if t, ok := a["type"]; ok {
		return c.typeStr(t)
	}
	if k, ok := a["const"]; ok {
		var cst struct {
			Expr string `json:"expr"`
		}
		json.Unmarshal(k, &cst)
		return cst.Expr
	}
	return ""
}

// constraintStr renders an associated item constraint such as "Item = T" or
// "Item: Clone".
func (c *Crate) constraintStr(data json.RawMessage) string {
	var cons struct {
		Name    string `json:"name"`
		Binding struct {
			Equality   json.RawMessage `json:"equality"`
			Constraint json.RawMessage `json:"constraint"`
		} `json:"binding"`
	}
	if err := json.Unmarshal(data, &cons); err != nil || cons.Name == "" {
		return ""
	}
	if cons.Binding.Equality != nil {
		var term map[string]json.RawMessage
		if json.Unmarshal(cons.Binding.Equality, &term) == nil {
			if t, ok := term["type"]; ok {
				return cons.Name + " = " + c.typeStr(t)
			}
		}
	}
	if cons.Binding.Constraint != nil {
		return cons.Name + ": " + c.boundsStr(cons.Binding.Constraint)
	}
	return cons.Name
}

func (c *Crate) borrowedRefStr(data json.RawMessage) string {
	var r struct {
		Lifetime  *string         `json:"lifetime"`
		IsMutable bool            `json:"is_mutable"`
		Type      json.RawMessage `json:"type"`
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return "_"
	}
	prefix := "&"
	if r.Lifetime != nil && *r.Lifetime != "" {
		prefix += *r.Lifetime + " "
	}
	if r.IsMutable {
		prefix += "mut "
	}
	return prefix + c.typeStr(r.Type)
}

func (c *Crate) dynTraitStr(data json.RawMessage) string {
	var d struct {
		Traits []struct {
			Trait json.RawMessage `json:"trait"`
		} `json:"traits"`
		Lifetime *string `json:"lifetime"`
	}
	if err := json.Unmarshal(data, &d); err != nil || len(d.Traits) == 0 {
		return "_"
	}
	parts := make([]string, 0, len(d.Traits)+1)
	for _, t := range d.Traits {
		parts = append(parts, c.pathStr(t.Trait))
	}
	if d.Lifetime != nil && *d.Lifetime != "" {
		parts = append(parts, *d.Lifetime)
	}
	return "dyn " + strings.Join(parts, " + ")
}

func (c *Crate) qualifiedPathStr(data json.RawMessage) string {
	var q struct {
		Name     string          `json:"name"`
		SelfType json.RawMessage `json:"self_type"`
		Trait    json.RawMessage `json:"trait"`
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return "_"
	}
	self := c.typeStr(q.SelfType)
	if !isNull(q.Trait) {
		if trait := c.pathStr(q.Trait); trait != "_" {
			return fmt.Sprintf("<%s as %s>::%s", self, trait, q.Name)
		}
	}
	return self + "::" + q.Name
}

func (c *Crate) fnPointerStr(data json.RawMessage) string {
	var fp struct {
		Sig struct {
			Inputs []json.RawMessage `json:"inputs"`
			Output json.RawMessage   `json:"output"`
		} `json:"sig"`
		Header fnHeader `json:"header"`
	}
	if err := json.Unmarshal(data, &fp); err != nil {
		return "_"
	}
	var params []string
	for _, input := range fp.Sig.Inputs {
		var pair []json.RawMessage
		if err := json.Unmarshal(input, &pair); err != nil || len(pair) < 2 {
			continue
		}
		params = append(params, c.typeStr(pair[1]))
	}
	s := fp.Header.qualifiers() + "fn(" + strings.Join(params, ", ") + ")"
	if !isNull(fp.Sig.Output) {
		s += " -> " + c.typeStr(fp.Sig.Output)
	}
	return s
}

// boundsStr renders a list of GenericBounds joined with " + ".
func (c *Crate) boundsStr(data json.RawMessage) string {
	var bounds []json.RawMessage
	if err := json.Unmarshal(data, &bounds); err != nil {
		return ""
	}
	var parts []string
	for _, raw := range bounds {
		var b map[string]json.RawMessage
		if err := json.Unmarshal(raw, &b); err != nil {
			continue
		}
		if tb, ok := b["trait_bound"]; ok {
			var bound struct {
				Trait    json.RawMessage `json:"trait"`
				Modifier string          `json:"modifier"`
			}
			if json.Unmarshal(tb, &bound) != nil {
				continue
			}
			s := c.pathStr(bound.Trait)
			switch bound.Modifier {
			case "maybe":
				s = "?" + s
			case "maybe_const":
				s = "~const " + s
			}
			parts = append(parts, s)
		} else if lt, ok := b["outlives"]; ok {
			parts = append(parts, stringOr(lt, ""))
		}
	}
	return strings.Join(parts, " + ")
}

// genericsStr renders a Generics parameter list, e.g. "<'a, T: Clone>".
// Synthetic parameters (from `impl Trait` arguments) are omitted.
func (c *Crate) genericsStr(data json.RawMessage) string {
	var g struct {
		Params []struct {
			Name string                     `json:"name"`
			Kind map[string]json.RawMessage `json:"kind"`
		} `json:"params"`
	}
	if len(data) == 0 || json.Unmarshal(data, &g) != nil {
		return ""
	}

	var parts []string
	for _, p := range g.Params {
		if p.Name == "" {
			continue
		}
		switch {
		case p.Kind["type"] != nil:
			var tp struct {
				Bounds      json.RawMessage `json:"bounds"`
				IsSynthetic bool            `json:"is_synthetic"`
			}
			json.Unmarshal(p.Kind["type"], &tp)
			if tp.IsSynthetic {
				continue
			}
			s := p.Name
			if bounds := c.boundsStr(tp.Bounds); bounds != "" {
				s += ": " + bounds
			}
			parts = append(parts, s)
		case p.Kind["const"] != nil:
			var cp struct {
				Type json.RawMessage `json:"type"`
			}
			json.Unmarshal(p.Kind["const"], &cp)
			parts = append(parts, "const "+p.Name+": "+c.typeStr(cp.Type))
		case p.Kind["lifetime"] != nil:
			var lp struct {
				Outlives []string `json:"outlives"`
			}
			json.Unmarshal(p.Kind["lifetime"], &lp)
			s := p.Name
			if len(lp.Outlives) > 0 {
				s += ": " + strings.Join(lp.Outlives, " + ")
			}
			parts = append(parts, s)
		default:
			parts = append(parts, p.Name)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// whereStr renders the where clause of a Generics, or "".
func (c *Crate) whereStr(data json.RawMessage) string {
	var g struct {
		WherePredicates []map[string]json.RawMessage `json:"where_predicates"`
	}
	if len(data) == 0 || json.Unmarshal(data, &g) != nil {
		return ""
	}
	var preds []string
	for _, wp := range g.WherePredicates {
		bp, ok := wp["bound_predicate"]
		if !ok {
			continue
		}
		var pred struct {
			Type   json.RawMessage `json:"type"`
			Bounds json.RawMessage `json:"bounds"`
		}
		if json.Unmarshal(bp, &pred) != nil {
			continue
		}
		if bounds := c.boundsStr(pred.Bounds); bounds != "" {
			preds = append(preds, c.typeStr(pred.Type)+": "+bounds)
		}
	}
	if len(preds) == 0 {
		return ""
	}
	return " where " + strings.Join(preds, ", ")
}

func stringOr(data json.RawMessage, def string) string {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return def
	}
	return s
}

func isNull(data json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(data))
	return trimmed == "" || trimmed == "null"
}
