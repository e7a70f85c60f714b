package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Formats maps a format name to a Format and remembers key order. The order
// comes from the JSON document and decides ties when picking the best format.
type Formats struct {
	names   []string
	formats map[string]Format
}

type namedFormat struct {
	Name string
	Format
}

func (f Formats) Len() int {
	return len(f.names)
}

func (f Formats) Get(name string) (Format, bool) {
	v, ok := f.formats[name]
	return v, ok
}

// Set replaces an existing entry in place or appends a new one.
func (f *Formats) Set(name string, v Format) {
	if f.formats == nil {
		f.formats = make(map[string]Format)
	}
	if _, ok := f.formats[name]; !ok {
		f.names = append(f.names, name)
	}
	f.formats[name] = v
}

// Each calls fn for every entry in key order.
func (f Formats) Each(fn func(name string, v Format)) {
	for _, name := range f.names {
		fn(name, f.formats[name])
	}
}

func (f Formats) Names() []string {
	return append([]string{}, f.names...)
}

func (f Formats) Clone() Formats {
	var out Formats
	f.Each(out.Set)
	return out
}

func (f Formats) entries() []namedFormat {
	out := make([]namedFormat, 0, len(f.names))
	f.Each(func(name string, v Format) {
		out = append(out, namedFormat{name, v})
	})
	return out
}

func (f Formats) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range f.entries() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Format)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Formats) UnmarshalJSON(data []byte) error {
	*f = Formats{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("formats: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("formats: expected key, got %v", tok)
		}
		var v Format
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("formats: %s: %w", name, err)
		}
		f.Set(name, v)
	}
	_, err = dec.Token()
	return err
}
