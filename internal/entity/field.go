package entity

// Field is one extracted value keyed by its template field name.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Fields is the extracted field map. Order follows the model reply and names
// are unique; use Map for plain lookups.
type Fields []Field

// Get returns the value for name.
func (fs Fields) Get(name string) (string, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Map returns the fields as a plain map.
func (fs Fields) Map() map[string]string {
	m := make(map[string]string, len(fs))
	for _, f := range fs {
		m[f.Name] = f.Value
	}
	return m
}

// Names returns field names in order.
func (fs Fields) Names() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name
	}
	return out
}

// Set inserts or overwrites name, keeping the position of the first insert.
func (fs Fields) Set(name, value string) Fields {
	for i := range fs {
		if fs[i].Name == name {
			fs[i].Value = value
			return fs
		}
	}
	return append(fs, Field{Name: name, Value: value})
}
