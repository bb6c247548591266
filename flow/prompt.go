package flow

import (
	"fmt"
	"strings"

	"github.com/loft/finassist/tool"
)

// missingFields returns the required fields absent or blank in args, in
// declaration order, followed by the field named by the validation failure if
// it is present but malformed.
func missingFields(fields []tool.Param, args map[string]any, failed string) []tool.Param {
	var out []tool.Param
	seen := map[string]bool{}

	for _, f := range fields {
		if f.Optional {
			continue
		}
		v, ok := args[f.Name]
		if !ok || v == nil {
			out = append(out, f)
			seen[f.Name] = true
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			out = append(out, f)
			seen[f.Name] = true
		}
	}

	if failed != "" && !seen[failed] {
		for _, f := range fields {
			if f.Name == failed {
				out = append(out, f)
			}
		}
	}

	return out
}

// fieldPrompt is the question asking the user for f.
func fieldPrompt(f tool.Param) string {
	if f.Prompt != "" {
		return f.Prompt
	}
	label := f.Name
	if len(f.Keywords) > 0 {
		label = f.Keywords[0]
	}
	return fmt.Sprintf("Por favor, informe %s.", label)
}

// missingPrompt asks for the first missing field. A malformed value is
// called out so the user knows the earlier answer was not understood.
func missingPrompt(fields []tool.Param, args map[string]any, failed string) string {
	missing := missingFields(fields, args, failed)
	if len(missing) == 0 {
		return "Desculpe, não entendi algumas informações. Pode repeti-las, por favor?"
	}

	first := missing[0]
	prompt := fieldPrompt(first)

	if v, ok := args[first.Name]; ok && v != nil {
		if s, isStr := v.(string); !isStr || strings.TrimSpace(s) != "" {
			return "Não consegui entender essa informação. " + prompt
		}
	}

	return prompt
}
