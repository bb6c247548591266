package util

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/loft/finassist/core"
)

var templateFuncs = template.FuncMap{
	"default": func(fallback, v any) any {
		if v == nil || v == "" {
			return fallback
		}
		return v
	},
	"upper": strings.ToUpper,
	"fold":  Fold,
}

// RenderTemplate expands text/template markers in text with vars. Unknown
// keys render empty; text without markers is returned as is. Parse and
// execution failures are configuration errors.
func RenderTemplate(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instructions").Option("missingkey=zero").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", core.NewError("util.RenderTemplate", core.ErrConfiguration, err.Error())
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", core.NewError("util.RenderTemplate", core.ErrConfiguration, err.Error())
	}

	// missingkey=zero prints "<no value>" for absent map entries.
	return strings.ReplaceAll(buf.String(), "<no value>", ""), nil
}
