package artifact

import (
	"fmt"

	"github.com/loft/finassist/core"
)

var (
	// ErrNotFound is returned when the named asset does not exist. It matches
	// core.ErrAssetUnavailable.
	ErrNotFound = fmt.Errorf("artifact not found: %w", core.ErrAssetUnavailable)
)
