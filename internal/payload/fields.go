package payload

// Fields is a semi-structured JSON object as sent by the storefront pixel.
// Every accessor tolerates a nil map and missing or mistyped keys, so
// deeply nested lookups degrade to "absent" instead of panicking.
type Fields map[string]any

// Child returns the nested object under key, or nil if the key is absent
// or holds a non-object value.
func (f Fields) Child(key string) Fields {
	if f == nil {
		return nil
	}
	switch v := f[key].(type) {
	case Fields:
		return v
	case map[string]any:
		return Fields(v)
	}
	return nil
}

// String returns the string value under key. An absent key, a non-string
// value, or an empty string all report absent.
func (f Fields) String(key string) (string, bool) {
	if f == nil {
		return "", false
	}
	s, ok := f[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Clone returns a shallow copy so callers can add keys without mutating
// the original request payload. Clone of nil is an empty map.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f)+4)
	for k, v := range f {
		out[k] = v
	}
	return out
}
