// Package tool implements the callback subsystem that lets agents invoke
// structured capabilities with schema validated arguments and consistent
// error handling.
package tool

import (
	"errors"
	"fmt"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/util"
)

// Tool is a named, schema-described function an agent may invoke mid-turn.
//
// Implementations must be stateless and safe for concurrent use: the same
// tool value serves every session.
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description returns a human-readable description provided to the model.
	Description() string

	// Parameters returns the JSON schema describing the expected input.
	Parameters() map[string]any

	// Fields returns the ordered parameter list. Order drives required-field
	// checks and the prompts used to ask the user for missing data.
	Fields() []Param

	// Call executes the tool with validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]any) (any, error)
}

// Error codes carried by ToolError.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
	CodeNotFound   = "TOOL_NOT_FOUND"
	CodeTransfer   = "TRANSFER_REFUSED"
)

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details error  `json:"details,omitempty"` // Underlying cause, if any
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error { return e.Details }

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// MissingField reports the field named by a validation failure, if err is one.
func MissingField(err error) (string, bool) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Field, true
	}
	return "", false
}
