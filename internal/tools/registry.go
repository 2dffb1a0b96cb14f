package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Registry errors.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrDuplicateTool    = errors.New("duplicate tool name")
	ErrInvalidTool      = errors.New("invalid tool descriptor")
)

// ParamType is the JSON scalar type a tool parameter accepts.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// Param declares one input parameter of a tool.
type Param struct {
	Name        string
	Description string
	Type        ParamType
	Required    bool
}

// Handler produces the text result of a tool call. Arguments have already
// been checked against the declared parameters.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Descriptor describes a tool: its name, its declared input schema and the
// handler that runs it.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Registry is the immutable set of tools served by the process.
type Registry struct {
	tools map[string]Descriptor
	names []string
}

// NewRegistry builds a registry from descriptors. Empty names, missing
// handlers and duplicate names are rejected.
func NewRegistry(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{tools: make(map[string]Descriptor, len(descriptors))}

	for _, d := range descriptors {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidTool)
		}
		if d.Handler == nil {
			return nil, fmt.Errorf("%w: %s has no handler", ErrInvalidTool, d.Name)
		}
		if _, ok := r.tools[d.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
		}
		seen := make(map[string]struct{}, len(d.Params))
		for _, p := range d.Params {
			if p.Name == "" {
				return nil, fmt.Errorf("%w: %s has a parameter without a name", ErrInvalidTool, d.Name)
			}
			if _, ok := seen[p.Name]; ok {
				return nil, fmt.Errorf("%w: %s declares %q twice", ErrInvalidTool, d.Name, p.Name)
			}
			switch p.Type {
			case ParamString, ParamNumber, ParamBoolean:
			default:
				return nil, fmt.Errorf("%w: %s.%s has unsupported type %q", ErrInvalidTool, d.Name, p.Name, p.Type)
			}
			seen[p.Name] = struct{}{}
		}

		r.tools[d.Name] = d
		r.names = append(r.names, d.Name)
	}

	sort.Strings(r.names)
	return r, nil
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.tools[name]
	return d, ok
}

// Dispatch validates args against the declared parameters of the named tool
// and runs its handler.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	d, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if err := validateArgs(d, args); err != nil {
		return "", err
	}
	return d.Handler(ctx, args)
}

// validateArgs rejects unknown parameters, missing required parameters
// (null counts as missing) and values of the wrong scalar type.
func validateArgs(d Descriptor, args map[string]any) error {
	declared := make(map[string]Param, len(d.Params))
	for _, p := range d.Params {
		declared[p.Name] = p
	}

	var unknown []string
	for k := range args {
		if _, ok := declared[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s: unknown parameter(s) %s", ErrInvalidArguments, d.Name, strings.Join(unknown, ", "))
	}

	for _, p := range d.Params {
		v, present := args[p.Name]
		if !present || v == nil {
			if p.Required {
				return fmt.Errorf("%w: %s: missing required parameter %q", ErrInvalidArguments, d.Name, p.Name)
			}
			continue
		}
		if !hasType(v, p.Type) {
			return fmt.Errorf("%w: %s: parameter %q must be a %s", ErrInvalidArguments, d.Name, p.Name, p.Type)
		}
	}

	return nil
}

func hasType(v any, t ParamType) bool {
	switch t {
	case ParamString:
		_, ok := v.(string)
		return ok
	case ParamBoolean:
		_, ok := v.(bool)
		return ok
	case ParamNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64, json.Number:
			return true
		}
	}
	return false
}

// StringArg returns the string argument name, or "" when absent.
func StringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return s
}
