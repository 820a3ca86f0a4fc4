package form

import "github.com/erazemk/soporte/internal/client"

// Field is one scalar form value.
type Field struct {
	Name  string
	Value string
}

// Payload is a serialized draft ready to be sent by a resource service.
type Payload struct {
	Fields []Field
	File   *client.FilePart
}

// Get returns the value of the named field.
func (p Payload) Get(name string) (string, bool) {
	for _, f := range p.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// With returns a copy of the payload with an extra field appended.
func (p Payload) With(name, value string) Payload {
	fields := make([]Field, len(p.Fields), len(p.Fields)+1)
	copy(fields, p.Fields)
	p.Fields = append(fields, Field{Name: name, Value: value})
	return p
}

// Multipart encodes the payload as a multipart form body.
func (p Payload) Multipart() *client.Multipart {
	m := client.NewMultipart()
	for _, f := range p.Fields {
		m.AddField(f.Name, f.Value)
	}
	if p.File != nil {
		m.AddFile(*p.File)
	}
	return m
}

// JSON encodes the scalar fields as a JSON object body.
func (p Payload) JSON() map[string]string {
	out := make(map[string]string, len(p.Fields))
	for _, f := range p.Fields {
		out[f.Name] = f.Value
	}
	return out
}
