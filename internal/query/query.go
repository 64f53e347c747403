package query

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"typequery/internal/connection"
)

// envelope is the standard reply wrapper: the payload of a successful
// query sits under "response". A reply without that key violates the
// protocol contract and is reported as a decode error, never defaulted.
type envelope struct {
	Response json.RawMessage `json:"response"`
}

func unwrap(reply json.RawMessage) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(reply, &env); err != nil {
		return nil, fmt.Errorf("decoding reply envelope: %w", err)
	}
	if env.Response == nil {
		return nil, fmt.Errorf("reply has no response field")
	}
	return env.Response, nil
}

// Defines returns the definition records for every function and method in
// the given modules, in a single round trip.
func Defines(ctx context.Context, conn connection.Connection, modules []string) ([]Define, error) {
	return defines(ctx, conn, modules)
}

// DefinesBatched behaves like Defines but splits the module list into
// chunks of batchSize, one sequential round trip per chunk. Results keep
// the input order.
func DefinesBatched(ctx context.Context, conn connection.Connection, modules []string, batchSize int) ([]Define, error) {
	return inBatches(ctx, conn, modules, batchSize, defines)
}

func defines(ctx context.Context, conn connection.Connection, modules []string) ([]Define, error) {
	reply, err := conn.QueryServer(ctx, fmt.Sprintf("defines(%s)", strings.Join(modules, ",")))
	if err != nil {
		return nil, err
	}
	response, err := unwrap(reply)
	if err != nil {
		return nil, fmt.Errorf("defines: %w", err)
	}
	var result []Define
	if err := json.Unmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("defines: decoding response: %w", err)
	}
	return result, nil
}

// classAttributes pairs one requested class with its decoded attributes.
// The pair keeps batch output ordered until the final map is assembled.
type classAttributes struct {
	Class      string
	Attributes []Attribute
}

// GetAttributes returns the attributes of each class, keyed by class
// name, in a single round trip.
func GetAttributes(ctx context.Context, conn connection.Connection, classes []string) (map[string][]Attribute, error) {
	pairs, err := attributes(ctx, conn, classes)
	if err != nil {
		return nil, err
	}
	return collectAttributes(pairs), nil
}

// GetAttributesBatched behaves like GetAttributes but chunks the class
// list into batches of batchSize, one sequential round trip per chunk.
func GetAttributesBatched(ctx context.Context, conn connection.Connection, classes []string, batchSize int) (map[string][]Attribute, error) {
	pairs, err := inBatches(ctx, conn, classes, batchSize, attributes)
	if err != nil {
		return nil, err
	}
	return collectAttributes(pairs), nil
}

func collectAttributes(pairs []classAttributes) map[string][]Attribute {
	result := make(map[string][]Attribute, len(pairs))
	for _, pair := range pairs {
		result[pair.Class] = pair.Attributes
	}
	return result
}

// attributes issues one combined round trip for a batch of classes. The
// server answers a batch query with one nested reply per sub-query, in
// sub-query order, which is zipped back against the requested classes.
func attributes(ctx context.Context, conn connection.Connection, classes []string) ([]classAttributes, error) {
	subQueries := make([]string, len(classes))
	for i, class := range classes {
		subQueries[i] = fmt.Sprintf("attributes(%s)", class)
	}
	reply, err := conn.QueryServer(ctx, fmt.Sprintf("batch(%s)", strings.Join(subQueries, ", ")))
	if err != nil {
		return nil, err
	}
	response, err := unwrap(reply)
	if err != nil {
		return nil, fmt.Errorf("attributes: %w", err)
	}

	var nested []struct {
		Response *struct {
			Attributes *[]Attribute `json:"attributes"`
		} `json:"response"`
	}
	if err := json.Unmarshal(response, &nested); err != nil {
		return nil, fmt.Errorf("attributes: decoding response: %w", err)
	}
	if len(nested) != len(classes) {
		return nil, fmt.Errorf("attributes: requested %d classes but reply has %d entries", len(classes), len(nested))
	}

	pairs := make([]classAttributes, len(classes))
	for i, entry := range nested {
		if entry.Response == nil || entry.Response.Attributes == nil {
			return nil, fmt.Errorf("attributes: reply for %s has no attributes field", classes[i])
		}
		pairs[i] = classAttributes{Class: classes[i], Attributes: *entry.Response.Attributes}
	}
	return pairs, nil
}

// GetCallGraph returns the server's whole-program call graph as a mapping
// from caller to outgoing call targets. Functions without outgoing calls
// map to an empty slice.
func GetCallGraph(ctx context.Context, conn connection.Connection) (map[string][]CallGraphTarget, error) {
	reply, err := conn.QueryServer(ctx, "dump_call_graph()")
	if err != nil {
		return nil, err
	}
	response, err := unwrap(reply)
	if err != nil {
		return nil, fmt.Errorf("call graph: %w", err)
	}
	var result map[string][]CallGraphTarget
	if err := json.Unmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("call graph: decoding response: %w", err)
	}
	for caller, targets := range result {
		if targets == nil {
			result[caller] = []CallGraphTarget{}
		}
	}
	return result, nil
}

// GetClassHierarchy fetches and indexes the direct-edge class hierarchy
// of the whole program.
func GetClassHierarchy(ctx context.Context, conn connection.Connection) (*ClassHierarchy, error) {
	reply, err := conn.QueryServer(ctx, "dump_class_hierarchy()")
	if err != nil {
		return nil, err
	}
	response, err := unwrap(reply)
	if err != nil {
		return nil, fmt.Errorf("class hierarchy: %w", err)
	}
	entries, err := decodeHierarchyEntries(response)
	if err != nil {
		return nil, fmt.Errorf("class hierarchy: %w", err)
	}
	return NewClassHierarchy(entries), nil
}

// GetSuperclasses returns the direct superclasses of one class by issuing
// a single-class hierarchy query and unwrapping its one entry.
func GetSuperclasses(ctx context.Context, conn connection.Connection, class string) ([]string, error) {
	reply, err := conn.QueryServer(ctx, fmt.Sprintf("superclasses(%s)", class))
	if err != nil {
		return nil, err
	}
	response, err := unwrap(reply)
	if err != nil {
		return nil, fmt.Errorf("superclasses: %w", err)
	}
	entries, err := decodeHierarchyEntries(response)
	if err != nil {
		return nil, fmt.Errorf("superclasses: %w", err)
	}
	for _, entry := range entries {
		if entry.Class == class {
			return entry.Superclasses, nil
		}
	}
	return nil, fmt.Errorf("superclasses: reply has no entry for %s", class)
}
