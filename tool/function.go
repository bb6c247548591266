package tool

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"time"

	"github.com/kaptinlin/jsonschema"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/util"
)

// Param declares one tool parameter.
type Param struct {
	Name        string   // JSON field name
	Type        string   // JSON schema type: string, number, integer, boolean
	Description string   // shown to the model
	Prompt      string   // Portuguese question used to ask the user for the value
	Keywords    []string // words identifying the field in user-facing text
	Optional    bool
}

// FunctionTool exposes a plain Go function as a tool.
//
// Error semantics:
//
//	validation failure              -> *ToolError{Code: "VALIDATION_ERROR"}
//	*ToolError (returned directly)  -> forwarded unchanged
//	other error                     -> *ToolError{Code: "EXECUTION_ERROR"}
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	fields      []Param
	parameters  map[string]any
	compiled    *jsonschema.Schema
	fn          func(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from an ordered parameter list.
// The JSON schema is derived from params and compiled up front; a schema that
// fails to compile is a configuration error.
func NewFunctionTool(
	name, description string,
	params []Param,
	fn func(toolCtx *core.ToolContext, args map[string]any) (any, error),
) (*FunctionTool, error) {
	const op = "tool.NewFunctionTool"

	if name == "" {
		return nil, core.ConfigErrorf(op, "tool name is required")
	}
	if fn == nil {
		return nil, core.ConfigErrorf(op, "tool %q has no handler", name)
	}

	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if p.Name == "" {
			return nil, core.ConfigErrorf(op, "tool %q declares an unnamed parameter", name)
		}
		if _, dup := seen[p.Name]; dup {
			return nil, core.ConfigErrorf(op, "tool %q declares parameter %q twice", name, p.Name)
		}
		seen[p.Name] = struct{}{}
		if !validType(p.Type) {
			return nil, core.ConfigErrorf(op, "tool %q parameter %q has unsupported type %q", name, p.Name, p.Type)
		}
	}

	schema := schemaFor(params)

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, core.NewError(op, core.ErrConfiguration, err.Error())
	}

	compiled, err := jsonschema.NewCompiler().Compile(raw)
	if err != nil {
		return nil, core.NewError(op, core.ErrConfiguration, fmt.Sprintf("compile schema for %q: %v", name, err))
	}

	return &FunctionTool{
		name:        name,
		description: description,
		fields:      slices.Clone(params),
		parameters:  schema,
		compiled:    compiled,
		fn:          fn,
	}, nil
}

// NewStructTool builds a typed tool. The declared params must agree with the
// JSON-tagged fields of T in name and JSON type; any disagreement is reported
// as a configuration error so a tool whose schema does not match its handler
// never starts. Validated arguments are decoded into T before fn runs.
func NewStructTool[T any](
	name, description string,
	params []Param,
	fn func(toolCtx *core.ToolContext, args T) (any, error),
) (*FunctionTool, error) {
	const op = "tool.NewStructTool"

	var zero T
	if err := matchStruct(reflect.TypeOf(zero), params); err != nil {
		return nil, core.NewError(op, core.ErrConfiguration, fmt.Sprintf("tool %q: %v", name, err))
	}

	return NewFunctionTool(name, description, params, func(tc *core.ToolContext, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, err
		}
		var typed T
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, &ToolError{Tool: name, Message: err.Error(), Code: CodeValidation, Details: core.ErrInvalidArgument}
		}
		return fn(tc, typed)
	})
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the short natural language description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema describing expected arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Fields returns a copy of the ordered parameter list.
func (t *FunctionTool) Fields() []Param { return slices.Clone(t.fields) }

// Call validates args and then invokes the underlying function.
//
// Logging fields: tool, duration_ms (plus agent and function_call_id from the scope).
func (t *FunctionTool) Call(toolCtx *core.ToolContext, args map[string]any) (any, error) {
	logger := toolCtx.Logger()
	start := time.Now()

	logger.Debug("tool.call.start", "tool", t.name)

	if err := t.validate(args); err != nil {
		logger.Warn("tool.call.validation_failed", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	result, err := t.fn(toolCtx, args)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			logger.Error("tool.call.error", "tool", t.name, "error", toolErr.Message)

			return nil, toolErr
		}

		logger.Error("tool.call.error", "tool", t.name, "error", err.Error())

		return nil, &ToolError{
			Tool:    t.name,
			Message: err.Error(),
			Code:    CodeExecution,
			Details: err,
		}
	}

	logger.Info("tool.call.success", "tool", t.name, "duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (t *FunctionTool) validate(args map[string]any) error {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return err
	}

	result := t.compiled.Validate(args)
	if !result.IsValid() {
		return &ValidationError{Value: args, Message: fmt.Sprintf("%v", result.Error())}
	}

	return nil
}

func schemaFor(params []Param) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0, len(params))

	for _, p := range params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if p.Type == "string" && !p.Optional {
			prop["minLength"] = 1
		}
		properties[p.Name] = prop

		if !p.Optional {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return schema
}

func validType(t string) bool {
	switch t {
	case "string", "number", "integer", "boolean", "array", "object":
		return true
	}
	return false
}

// matchStruct compares params with the JSON shape of typ.
func matchStruct(typ reflect.Type, params []Param) error {
	if typ == nil {
		return fmt.Errorf("argument type must be a struct")
	}

	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("argument type %s must be a struct", typ)
	}

	schema := util.CreateSchema(reflect.New(typ).Elem().Interface())
	props, _ := schema["properties"].(map[string]any)

	declared := make(map[string]struct{}, len(params))
	for _, p := range params {
		declared[p.Name] = struct{}{}

		prop, ok := props[p.Name].(map[string]any)
		if !ok {
			return fmt.Errorf("parameter %q has no matching field in %s", p.Name, typ)
		}
		if got, _ := prop["type"].(string); !compatible(p.Type, got) {
			return fmt.Errorf("parameter %q declared as %s but field is %s", p.Name, p.Type, got)
		}
	}

	for name := range props {
		if _, ok := declared[name]; !ok {
			return fmt.Errorf("field %q of %s is not declared as a parameter", name, typ)
		}
	}

	return nil
}

func compatible(declared, field string) bool {
	if declared == field {
		return true
	}
	// an integer field cannot hold fractional numbers, the reverse is fine
	return declared == "integer" && field == "number"
}
