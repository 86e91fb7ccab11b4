package models

// AttributeAccessor reads and writes named attributes.
type AttributeAccessor interface {
	Get(name string) Value
	Set(name string, v Value)
}

// Record is a loaded row of a resource: its primary key plus the declared
// attributes read from storage.
type Record struct {
	Resource string
	ID       string
	attrs    map[string]Value
}

// NewRecord creates a record with the given attributes.
func NewRecord(resource, id string, attrs map[string]Value) *Record {
	if attrs == nil {
		attrs = make(map[string]Value)
	}

	return &Record{Resource: resource, ID: id, attrs: attrs}
}

// Get returns an attribute value. Unset attributes read as Null.
func (r *Record) Get(name string) Value {
	return r.attrs[name]
}

// Lookup returns an attribute value and whether it was loaded at all.
func (r *Record) Lookup(name string) (Value, bool) {
	v, ok := r.attrs[name]
	return v, ok
}

// Has reports whether the attribute is present and non-null.
func (r *Record) Has(name string) bool {
	v, ok := r.attrs[name]
	return ok && !v.IsNull()
}

// Set assigns an attribute value in memory. Persisting is the record store's job.
func (r *Record) Set(name string, v Value) {
	r.attrs[name] = v
}

// Attributes returns a copy of the attribute map.
func (r *Record) Attributes() map[string]Value {
	out := make(map[string]Value, len(r.attrs))
	for k, v := range r.attrs {
		out[k] = v
	}

	return out
}
