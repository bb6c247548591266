package agent

import (
	"strings"

	"github.com/loft/finassist/core"
)

// ValidateGraph checks the delegate graph rooted at root. Agent names must be
// unique across the graph (two distinct agents may not share a name) and no
// agent may reach itself through delegation, whether by pointer or by name.
func ValidateGraph(root *Agent) error {
	const op = "agent.ValidateGraph"

	if root == nil {
		return core.ConfigErrorf(op, "root agent is nil")
	}

	byName := map[string]*Agent{}
	var path []string

	var visit func(a *Agent) error
	visit = func(a *Agent) error {
		for _, p := range path {
			if p == a.name {
				return core.ConfigErrorf(op, "delegation cycle: %s -> %s", strings.Join(path, " -> "), a.name)
			}
		}

		if other, ok := byName[a.name]; ok && other != a {
			return core.ConfigErrorf(op, "agent name %q is used by two different agents", a.name)
		}
		byName[a.name] = a

		path = append(path, a.name)
		defer func() { path = path[:len(path)-1] }()

		for _, d := range a.delegates {
			if err := visit(d); err != nil {
				return err
			}
		}

		return nil
	}

	return visit(root)
}
