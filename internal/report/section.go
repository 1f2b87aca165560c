package report

import "encoding/json"

// Section is one independently computed part of a report. A failed section
// keeps its error so the rest of the report still renders.
type Section[T any] struct {
	Value T
	Err   error
}

func section[T any](v T, err error) Section[T] {
	if err != nil {
		var zero T
		return Section[T]{Value: zero, Err: err}
	}
	return Section[T]{Value: v}
}

// OK reports whether the section was computed.
func (s Section[T]) OK() bool { return s.Err == nil }

type sectionDoc struct {
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

func (s Section[T]) doc() sectionDoc {
	if s.Err != nil {
		return sectionDoc{Error: s.Err.Error()}
	}
	return sectionDoc{Value: s.Value}
}

func (s Section[T]) MarshalJSON() ([]byte, error) { return json.Marshal(s.doc()) }

func (s Section[T]) MarshalYAML() (any, error) { return s.doc(), nil }
