package library

// Index is the ordered, read-only collection of documents.
type Index struct {
	docs   []*Document
	byPath map[string]*Document
}

// NewIndex builds an index keeping the given order. When two documents share
// a path the first one wins the lookup.
func NewIndex(docs []*Document) *Index {
	idx := &Index{
		docs:   docs,
		byPath: make(map[string]*Document, len(docs)),
	}
	for _, d := range docs {
		if d.Path == "" {
			continue
		}
		if _, ok := idx.byPath[d.Path]; !ok {
			idx.byPath[d.Path] = d
		}
	}
	return idx
}

// All returns the documents in manifest order. Callers must not modify the
// returned slice.
func (i *Index) All() []*Document {
	return i.docs
}

// Len returns the number of documents.
func (i *Index) Len() int {
	return len(i.docs)
}

// First returns the first document or nil for an empty shelf.
func (i *Index) First() *Document {
	if len(i.docs) == 0 {
		return nil
	}
	return i.docs[0]
}

// Lookup finds a document by path.
func (i *Index) Lookup(path string) (*Document, bool) {
	d, ok := i.byPath[path]
	return d, ok
}
