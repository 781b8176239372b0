package doc

// filterMap keeps the results of f for which it reports true, in order.
// No match yields nil.
func filterMap[S ~[]E, E, T any](in S, f func(E) (T, bool)) []T {
	var out []T
	for _, e := range in {
		if v, ok := f(e); ok {
			out = append(out, v)
		}
	}
	return out
}

// variant is satisfied by the ItemTag variants, each of which can copy
// itself as its own type.
type variant[T any] interface {
	ItemTag
	Clone() T
}

// narrow extracts a copy of the payload when tag holds variant T.
func narrow[T variant[T]](tag ItemTag) (T, bool) {
	v, ok := tag.(T)
	if !ok {
		var zero T
		return zero, false
	}
	return v.Clone(), true
}

func narrowPage[T variant[T]](p Page) (T, bool) {
	ip, ok := p.(ItemPage)
	if !ok {
		var zero T
		return zero, false
	}
	return narrow[T](ip.Tag)
}

func (m ModDoc) Mods() []ModDoc       { return filterMap(m.Items, narrow[ModDoc]) }
func (m ModDoc) Nmods() []NmodDoc     { return filterMap(m.Items, narrow[NmodDoc]) }
func (m ModDoc) Fns() []FnDoc         { return filterMap(m.Items, narrow[FnDoc]) }
func (m ModDoc) Consts() []ConstDoc   { return filterMap(m.Items, narrow[ConstDoc]) }
func (m ModDoc) Enums() []EnumDoc     { return filterMap(m.Items, narrow[EnumDoc]) }
func (m ModDoc) Traits() []TraitDoc   { return filterMap(m.Items, narrow[TraitDoc]) }
func (m ModDoc) Impls() []ImplDoc     { return filterMap(m.Items, narrow[ImplDoc]) }
func (m ModDoc) Types() []TyDoc       { return filterMap(m.Items, narrow[TyDoc]) }
func (m ModDoc) Structs() []StructDoc { return filterMap(m.Items, narrow[StructDoc]) }

func (ps Pages) Mods() []ModDoc       { return filterMap(ps, narrowPage[ModDoc]) }
func (ps Pages) Nmods() []NmodDoc     { return filterMap(ps, narrowPage[NmodDoc]) }
func (ps Pages) Fns() []FnDoc         { return filterMap(ps, narrowPage[FnDoc]) }
func (ps Pages) Consts() []ConstDoc   { return filterMap(ps, narrowPage[ConstDoc]) }
func (ps Pages) Enums() []EnumDoc     { return filterMap(ps, narrowPage[EnumDoc]) }
func (ps Pages) Traits() []TraitDoc   { return filterMap(ps, narrowPage[TraitDoc]) }
func (ps Pages) Impls() []ImplDoc     { return filterMap(ps, narrowPage[ImplDoc]) }
func (ps Pages) Types() []TyDoc       { return filterMap(ps, narrowPage[TyDoc]) }
func (ps Pages) Structs() []StructDoc { return filterMap(ps, narrowPage[StructDoc]) }

// OfKind is the dynamic form of the narrowing methods, for callers that pick
// the kind at run time.
func OfKind(items []ItemTag, k Kind) []ItemTag {
	return filterMap(items, func(t ItemTag) (ItemTag, bool) {
		if t == nil || t.Kind() != k {
			return nil, false
		}
		return t.cloneTag(), true
	})
}
