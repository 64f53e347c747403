// Package query turns replies from a type-analysis server into typed
// records. It owns request batching, per-operation JSON decoding, class
// hierarchy indexing, and normalization of the server's two model
// validation error formats. All operations are synchronous and stateless;
// every call builds fresh records from one reply and retains nothing.
package query

import (
	"encoding/json"
	"fmt"
)

// DefineParameter is one parameter of a queried function or method.
type DefineParameter struct {
	Name       string `json:"name"`
	Annotation string `json:"annotation"`
}

// Define describes one function or method definition.
type Define struct {
	Name             string            `json:"name"`
	Parameters       []DefineParameter `json:"parameters"`
	ReturnAnnotation string            `json:"return_annotation"`
}

// Attribute is one class attribute. Annotation is nil when the server
// could not determine the attribute's type; absence is distinct from an
// empty annotation string and must be preserved.
type Attribute struct {
	Name       string  `json:"name"`
	Annotation *string `json:"annotation"`
}

// Position is a line/column pair within a source file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Location is a source range.
type Location struct {
	Path  string   `json:"path"`
	Start Position `json:"start"`
	Stop  Position `json:"stop"`
}

// MethodDetails are the fields only present on method-kind call graph
// targets.
type MethodDetails struct {
	ClassName                string `json:"class_name"`
	Dispatch                 string `json:"dispatch"`
	DirectTarget             string `json:"direct_target"`
	IsOptionalClassAttribute bool   `json:"is_optional_class_attribute"`
}

// CallGraphTarget is one outgoing call edge. The set of kinds is
// server-defined and may grow, so the raw descriptor is kept alongside
// the decoded fields; unknown kinds decode with Method == nil and their
// extra fields remain reachable through Raw.
type CallGraphTarget struct {
	Target    string
	Kind      string
	Locations []Location

	// Method is populated only for kind "method".
	Method *MethodDetails

	// Raw is the full descriptor as received from the server.
	Raw json.RawMessage
}

// UnmarshalJSON decodes the common fields, the method-only fields when
// the kind calls for them, and retains the original payload.
func (t *CallGraphTarget) UnmarshalJSON(data []byte) error {
	var common struct {
		Target    string     `json:"target"`
		Kind      string     `json:"kind"`
		Locations []Location `json:"locations"`
	}
	if err := json.Unmarshal(data, &common); err != nil {
		return err
	}
	t.Target = common.Target
	t.Kind = common.Kind
	t.Locations = common.Locations
	t.Raw = append(t.Raw[:0], data...)

	if common.Kind == "method" {
		var details MethodDetails
		if err := json.Unmarshal(data, &details); err != nil {
			return fmt.Errorf("decoding method target %q: %w", common.Target, err)
		}
		t.Method = &details
	}
	return nil
}

// MarshalJSON writes back the original descriptor so no server-supplied
// field is dropped.
func (t CallGraphTarget) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	type plain struct {
		Target    string     `json:"target"`
		Kind      string     `json:"kind"`
		Locations []Location `json:"locations"`
	}
	return json.Marshal(plain{Target: t.Target, Kind: t.Kind, Locations: t.Locations})
}

// InvalidModel is one normalized model validation failure.
// FullyQualifiedName is empty when the server's description does not name
// the modeled entity.
type InvalidModel struct {
	FullyQualifiedName string `json:"fully_qualified_name"`
	Path               string `json:"path"`
	Line               int    `json:"line"`
	FullErrorMessage   string `json:"full_error_message"`
}
