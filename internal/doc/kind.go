package doc

import (
	"fmt"
	"strings"
)

// Kind names the variant held by an ItemTag.
type Kind int

const (
	KindMod Kind = iota
	KindNmod
	KindConst
	KindFn
	KindEnum
	KindTrait
	KindImpl
	KindTy
	KindStruct
)

// Kinds lists every Kind in declaration order.
var Kinds = []Kind{KindMod, KindNmod, KindConst, KindFn, KindEnum, KindTrait, KindImpl, KindTy, KindStruct}

// String returns the label used in headings and index tables.
func (k Kind) String() string {
	switch k {
	case KindMod:
		return "Module"
	case KindNmod:
		return "Foreign module"
	case KindConst:
		return "Constant"
	case KindFn:
		return "Function"
	case KindEnum:
		return "Enum"
	case KindTrait:
		return "Trait"
	case KindImpl:
		return "Implementation"
	case KindTy:
		return "Type"
	case KindStruct:
		return "Struct"
	default:
		return "unknown"
	}
}

// Slug returns the stable identifier used in storage and on the command
// line. It matches the rustdoc JSON kind names where one exists.
func (k Kind) Slug() string {
	switch k {
	case KindMod:
		return "module"
	case KindNmod:
		return "foreign_module"
	case KindConst:
		return "constant"
	case KindFn:
		return "function"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindImpl:
		return "impl"
	case KindTy:
		return "type_alias"
	case KindStruct:
		return "struct"
	default:
		return "unknown"
	}
}

var kindAliases = map[string]Kind{
	"mod":    KindMod,
	"nmod":   KindNmod,
	"extern": KindNmod,
	"const":  KindConst,
	"static": KindConst,
	"fn":     KindFn,
	"ty":     KindTy,
	"type":   KindTy,
}

// ParseKind accepts a slug, a label (case-insensitive) or a short alias such
// as "fn" or "mod".
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if k, ok := kindAliases[s]; ok {
		return k, nil
	}
	for _, k := range Kinds {
		if s == k.Slug() || s == strings.ToLower(k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown item kind %q", s)
}
