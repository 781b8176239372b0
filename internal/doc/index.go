package doc

import "slices"

// Index is a flat link table attached to a module or foreign module so
// renderers don't have to re-derive it from the children.
type Index struct {
	Entries []IndexEntry
}

// IndexEntry is one row of an Index.
//
// Kind is the label of the thing being indexed (e.g. "Module"), Name its
// name, Brief its brief description and Link a format-specific link target.
type IndexEntry struct {
	Kind  string
	Name  string
	Brief *string
	Link  string
}

func (e IndexEntry) Equal(o IndexEntry) bool {
	return e.Kind == o.Kind && e.Name == o.Name && strEqual(e.Brief, o.Brief) && e.Link == o.Link
}

// Clone returns a deep copy of idx. A nil index stays nil.
func (idx *Index) Clone() *Index {
	if idx == nil {
		return nil
	}
	entries := cloneEach(idx.Entries, func(e IndexEntry) IndexEntry {
		e.Brief = cloneStr(e.Brief)
		return e
	})
	return &Index{Entries: entries}
}

func (idx *Index) Equal(o *Index) bool {
	if idx == nil || o == nil {
		return idx == nil && o == nil
	}
	return slices.EqualFunc(idx.Entries, o.Entries, IndexEntry.Equal)
}
