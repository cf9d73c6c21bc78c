package source

// Headers is a set of protocol headers with unique keys. Lookup is unordered
// but emission on the wire preserves insertion order, which matters to some
// legacy servers that expect the icy-* block in a particular sequence.
type Headers struct {
	keys []string
	vals map[string]string
}

func NewHeaders() *Headers {
	return &Headers{vals: make(map[string]string)}
}

// Set inserts or replaces a header. Replacing keeps the key's original
// position in the emission order.
func (h *Headers) Set(key, value string) {
	if _, ok := h.vals[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.vals[key] = value
}

func (h *Headers) Get(key string) (string, bool) {
	v, ok := h.vals[key]
	return v, ok
}

func (h *Headers) Del(key string) {
	if _, ok := h.vals[key]; !ok {
		return
	}
	delete(h.vals, key)
	for i, k := range h.keys {
		if k == key {
			h.keys = append(h.keys[:i], h.keys[i+1:]...)
			break
		}
	}
}

func (h *Headers) Len() int {
	return len(h.keys)
}

// Keys returns the keys in insertion order.
func (h *Headers) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// clone returns a deep copy so a ConnectionConfig stays immutable once the
// connection handed it to a session.
func (h *Headers) clone() *Headers {
	c := NewHeaders()
	if h == nil {
		return c
	}
	for _, k := range h.keys {
		c.Set(k, h.vals[k])
	}
	return c
}
