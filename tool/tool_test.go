package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loft/finassist/core"
	"github.com/loft/finassist/internal/util"
)

// -------------------- Schema & Validation Tests --------------------

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
}

func TestCreateSchema(t *testing.T) {
	schema := util.CreateSchema(sampleSchema{})
	props, ok := schema["properties"].(map[string]any)
	assert.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.ElementsMatch(t, []string{"a"}, util.RequiredFields(schema))
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
			"y": map[string]any{"type": "string"},
		},
		"required": []any{"x", "y"},
	}

	assert.NoError(t, util.ValidateParameters(map[string]any{"x": 5, "y": "ok"}, schema))

	// the first missing field in declaration order is reported
	err := util.ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	// blank strings count as missing
	err = util.ValidateParameters(map[string]any{"x": 1, "y": "  "}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "y", vErr.Field)

	err = util.ValidateParameters(map[string]any{"x": "not-int", "y": "ok"}, schema)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)
	assert.Contains(t, vErr.Message, "expected type integer")
}

// -------------------- FunctionTool Tests --------------------

type sumArgs struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

func sumParams() []Param {
	return []Param{
		{Name: "a", Type: "number", Prompt: "Qual o primeiro valor?", Keywords: []string{"primeiro"}},
		{Name: "b", Type: "number", Prompt: "Qual o segundo valor?", Keywords: []string{"segundo"}},
	}
}

func testToolContext(fcID string) *core.ToolContext {
	rc := core.NewRunContext(context.Background(), "whatsapp:+5511999999999", "thread-1", "run-1", 5, nil).WithAgent("Agent")
	return core.NewToolContext(rc, fcID)
}

func TestStructTool_Success(t *testing.T) {
	sumTool, err := NewStructTool("sum", "Add numbers", sumParams(), func(_ *core.ToolContext, args sumArgs) (any, error) {
		return args.A + args.B, nil
	})
	require.NoError(t, err)

	result, err := sumTool.Call(testToolContext("fc1"), map[string]any{"a": 2.0, "b": 3.0})
	assert.NoError(t, err)
	assert.Equal(t, 5.0, result)

	assert.Equal(t, []string{"a", "b"}, util.RequiredFields(sumTool.Parameters()))
	assert.Equal(t, "a", sumTool.Fields()[0].Name)
}

func TestStructTool_ValidationErrorSkipsHandler(t *testing.T) {
	called := false
	sumTool, err := NewStructTool("sum", "Add numbers", sumParams(), func(_ *core.ToolContext, _ sumArgs) (any, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)

	_, err = sumTool.Call(testToolContext("fc2"), map[string]any{"a": 1.0})
	require.Error(t, err)
	assert.False(t, called)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeValidation, toolErr.Code)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)

	field, ok := MissingField(err)
	assert.True(t, ok)
	assert.Equal(t, "b", field)
}

func TestStructTool_MistypedArgument(t *testing.T) {
	sumTool, err := NewStructTool("sum", "Add numbers", sumParams(), func(_ *core.ToolContext, args sumArgs) (any, error) {
		return args.A + args.B, nil
	})
	require.NoError(t, err)

	_, err = sumTool.Call(testToolContext("fc3"), map[string]any{"a": "dois", "b": 1.0})
	field, ok := MissingField(err)
	assert.True(t, ok)
	assert.Equal(t, "a", field)
}

func TestStructTool_SchemaMismatch(t *testing.T) {
	noop := func(_ *core.ToolContext, _ sumArgs) (any, error) { return nil, nil }

	t.Run("undeclared field", func(t *testing.T) {
		_, err := NewStructTool("sum", "Add", sumParams()[:1], noop)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("unknown param", func(t *testing.T) {
		params := append(sumParams(), Param{Name: "c", Type: "number"})
		_, err := NewStructTool("sum", "Add", params, noop)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("type mismatch", func(t *testing.T) {
		params := sumParams()
		params[1].Type = "string"
		_, err := NewStructTool("sum", "Add", params, noop)
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})

	t.Run("duplicate param", func(t *testing.T) {
		_, err := NewFunctionTool("dup", "Dup", []Param{{Name: "a", Type: "string"}, {Name: "a", Type: "string"}},
			func(_ *core.ToolContext, _ map[string]any) (any, error) { return nil, nil })
		assert.ErrorIs(t, err, core.ErrConfiguration)
	})
}

func TestFunctionTool_ExecutionError(t *testing.T) {
	execTool, err := NewFunctionTool("fail", "Fails", nil, func(_ *core.ToolContext, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	})
	require.NoError(t, err)

	_, err = execTool.Call(testToolContext("fc4"), map[string]any{})
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, CodeExecution, toolErr.Code)
	_, isValidation := MissingField(err)
	assert.False(t, isValidation)
}

func TestTransferToAgentTool(t *testing.T) {
	tr := NewTransferToAgentTool("Simulator Agent", "Questions Agent")
	props := tr.Parameters()["properties"].(map[string]any)
	assert.Equal(t, []any{"Simulator Agent", "Questions Agent"}, props["agent"].(map[string]any)["enum"])

	tc := testToolContext("fc5")
	_, err := tr.Call(tc, map[string]any{"agent": "Questions Agent"})
	require.NoError(t, err)
	require.NotNil(t, tc.Actions().TransferToAgent)
	assert.Equal(t, "Questions Agent", *tc.Actions().TransferToAgent)

	_, err = tr.Call(testToolContext("fc6"), map[string]any{"agent": ""})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

// -------------------- ToolError Formatting --------------------

func TestToolErrorFormatting(t *testing.T) {
	err := NewToolError("demo", "something failed", "E123")
	assert.Contains(t, err.Error(), "E123")
	assert.Contains(t, err.Error(), "demo")
}
