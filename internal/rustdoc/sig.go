package rustdoc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type fnHeader struct {
	IsConst  bool            `json:"is_const"`
	IsUnsafe bool            `json:"is_unsafe"`
	IsAsync  bool            `json:"is_async"`
	ABI      json.RawMessage `json:"abi"`
}

// qualifiers renders the header in source order, e.g. `unsafe extern "C" `.
func (h fnHeader) qualifiers() string {
	var b strings.Builder
	if h.IsConst {
		b.WriteString("const ")
	}
	if h.IsAsync {
		b.WriteString("async ")
	}
	if h.IsUnsafe {
		b.WriteString("unsafe ")
	}
	if abi := abiName(h.ABI); abi != "Rust" {
		fmt.Fprintf(&b, "extern %q ", abi)
	}
	return b.String()
}

// abiName returns the ABI as written after `extern`. Missing or unreadable
// ABIs count as "Rust".
func abiName(raw json.RawMessage) string {
	if isNull(raw) {
		return "Rust"
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return abiLabel(s)
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return "Rust"
	}
	if other, ok := obj["Other"]; ok {
		return stringOr(other, "Rust")
	}
	for k := range obj {
		return abiLabel(k)
	}
	return "Rust"
}

func abiLabel(variant string) string {
	switch variant {
	case "Rust", "C":
		return variant
	default:
		return strings.ToLower(variant)
	}
}

type fnInner struct {
	Sig struct {
		Inputs      []json.RawMessage `json:"inputs"`
		Output      json.RawMessage   `json:"output"`
		IsCVariadic bool              `json:"is_c_variadic"`
	} `json:"sig"`
	Generics json.RawMessage `json:"generics"`
	Header   fnHeader        `json:"header"`
	HasBody  bool            `json:"has_body"`
}

// fnSig builds a plain-text Rust function signature from structured rustdoc JSON.
// Example output: "fn record_debug(&mut self, field: &Field, value: &dyn Debug)"
func (c *Crate) fnSig(name string, fnData json.RawMessage) string {
	var fn fnInner
	if err := json.Unmarshal(fnData, &fn); err != nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(fn.Header.qualifiers())
	b.WriteString("fn ")
	b.WriteString(name)
	b.WriteString(c.genericsStr(fn.Generics))

	b.WriteString("(")
	var params []string
	for _, input := range fn.Sig.Inputs {
		var pair []json.RawMessage
		if err := json.Unmarshal(input, &pair); err != nil || len(pair) < 2 {
			continue
		}
		var paramName string
		json.Unmarshal(pair[0], &paramName)

		// Render self params with Rust shorthand
		if paramName == "self" {
			params = append(params, selfShorthand(pair[1]))
		} else {
			params = append(params, paramName+": "+c.typeStr(pair[1]))
		}
	}
	if fn.Sig.IsCVariadic {
		params = append(params, "...")
	}
	b.WriteString(strings.Join(params, ", "))
	b.WriteString(")")

	if !isNull(fn.Sig.Output) {
		b.WriteString(" -> ")
		b.WriteString(c.typeStr(fn.Sig.Output))
	}
	b.WriteString(c.whereStr(fn.Generics))
	return b.String()
}

// selfShorthand converts a rustdoc self-parameter type to Rust shorthand.
// {"generic": "Self"} → "self", {"borrowed_ref": {is_mutable: false, type: {generic: Self}}} → "&self", etc.
func selfShorthand(typeJSON json.RawMessage) string {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(typeJSON, &outer); err != nil {
		return "self"
	}
	if br, ok := outer["borrowed_ref"]; ok {
		var r struct {
			Lifetime  *string `json:"lifetime"`
			IsMutable bool    `json:"is_mutable"`
		}
		json.Unmarshal(br, &r)
		prefix := "&"
		if r.Lifetime != nil && *r.Lifetime != "" {
			prefix += *r.Lifetime + " "
		}
		if r.IsMutable {
			prefix += "mut "
		}
		return prefix + "self"
	}
	return "self"
}

// constSig renders a constant, e.g. "const MAX: usize = 16;".
func (c *Crate) constSig(name string, data json.RawMessage) string {
	var k struct {
		Type  json.RawMessage `json:"type"`
		Expr  string          `json:"expr"`
		Const struct {
			Expr string `json:"expr"`
		} `json:"const"`
	}
	if err := json.Unmarshal(data, &k); err != nil {
		return ""
	}
	expr := k.Const.Expr
	if expr == "" {
		expr = k.Expr
	}
	s := "const " + name + ": " + c.typeStr(k.Type)
	if expr != "" && expr != "_" {
		s += " = " + expr
	}
	return s + ";"
}

// staticSig renders a static, e.g. "static mut COUNT: u32;".
func (c *Crate) staticSig(name string, data json.RawMessage) string {
	var s struct {
		Type      json.RawMessage `json:"type"`
		IsMutable bool            `json:"is_mutable"`
		Expr      string          `json:"expr"`
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return ""
	}
	sig := "static "
	if s.IsMutable {
		sig += "mut "
	}
	sig += name + ": " + c.typeStr(s.Type)
	if s.Expr != "" && s.Expr != "_" {
		sig += " = " + s.Expr
	}
	return sig + ";"
}

// typeAliasSig renders a type alias, e.g. "type Result<T> = Result<T, Error>;".
func (c *Crate) typeAliasSig(name string, data json.RawMessage) string {
	var t struct {
		Type     json.RawMessage `json:"type"`
		Generics json.RawMessage `json:"generics"`
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return ""
	}
	return "type " + name + c.genericsStr(t.Generics) + " = " + c.typeStr(t.Type) + ";"
}

type structInner struct {
	Kind     json.RawMessage `json:"kind"`
	Generics json.RawMessage `json:"generics"`
	Impls    []int           `json:"impls"`
}

// structShape decodes a struct or variant kind: "unit"/"plain" (a bare
// string), {"tuple": [id|null]} or {"plain"|"struct": {"fields": [...]}}.
type structShape struct {
	unit     bool
	tuple    bool
	fields   []*int
	stripped bool
}

func parseShape(kind json.RawMessage) structShape {
	var unit string
	if json.Unmarshal(kind, &unit) == nil {
		return structShape{unit: true}
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(kind, &obj) != nil {
		return structShape{unit: true}
	}
	if data, ok := obj["tuple"]; ok {
		var ids []*int
		json.Unmarshal(data, &ids)
		return structShape{tuple: true, fields: ids}
	}
	for _, key := range []string{"plain", "struct"} {
		data, ok := obj[key]
		if !ok {
			continue
		}
		var p struct {
			Fields            []int `json:"fields"`
			HasStrippedFields bool  `json:"has_stripped_fields"`
			FieldsStripped    bool  `json:"fields_stripped"`
		}
		json.Unmarshal(data, &p)
		shape := structShape{stripped: p.HasStrippedFields || p.FieldsStripped}
		for _, id := range p.Fields {
			shape.fields = append(shape.fields, &id)
		}
		return shape
	}
	return structShape{unit: true}
}

// field returns the name and rendered type of a struct field item.
func (c *Crate) field(id *int) (string, string) {
	if id == nil {
		return "", "_"
	}
	it, ok := c.item(*id)
	if !ok {
		return "", "_"
	}
	ty := unwrapInner(it.Inner, "struct_field")
	if ty == nil {
		return nameOf(it), "_"
	}
	return nameOf(it), c.typeStr(ty)
}

// fieldNames lists the names of the visible fields; tuple fields are named
// by position.
func (c *Crate) fieldNames(shape structShape) []string {
	var names []string
	for i, id := range shape.fields {
		if shape.tuple {
			if id != nil {
				names = append(names, strconv.Itoa(i))
			}
			continue
		}
		if name, _ := c.field(id); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// shapeBody renders the part of a struct or variant after its name:
// "", "(T, U)" or " {\n    a: T,\n}".
func (c *Crate) shapeBody(shape structShape, indent string) string {
	switch {
	case shape.unit:
		return ""
	case shape.tuple:
		parts := make([]string, len(shape.fields))
		for i, id := range shape.fields {
			_, parts[i] = c.field(id)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}

	var b strings.Builder
	b.WriteString(" {")
	if len(shape.fields) == 0 && !shape.stripped {
		b.WriteString("}")
		return b.String()
	}
	b.WriteString("\n")
	for _, id := range shape.fields {
		name, ty := c.field(id)
		fmt.Fprintf(&b, "%s    %s: %s,\n", indent, name, ty)
	}
	if shape.stripped {
		fmt.Fprintf(&b, "%s    /* private fields */\n", indent)
	}
	b.WriteString(indent + "}")
	return b.String()
}

// structSig renders a struct declaration with its visible fields.
func (c *Crate) structSig(name string, s structInner, shape structShape) string {
	sig := "struct " + name + c.genericsStr(s.Generics)
	switch {
	case shape.unit:
		return sig + ";"
	case shape.tuple:
		return sig + c.shapeBody(shape, "") + c.whereStr(s.Generics) + ";"
	}
	return sig + c.whereStr(s.Generics) + c.shapeBody(shape, "")
}

// variantSig renders an enum variant, e.g. "Some(T)" or "Red = 1".
func (c *Crate) variantSig(name string, data json.RawMessage) string {
	var v struct {
		Kind         json.RawMessage `json:"kind"`
		Discriminant *struct {
			Expr string `json:"expr"`
		} `json:"discriminant"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return name
	}
	sig := name + c.shapeBody(parseShape(v.Kind), "")
	if v.Discriminant != nil && v.Discriminant.Expr != "" {
		sig += " = " + v.Discriminant.Expr
	}
	return sig
}
