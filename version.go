package alignenv

import _ "embed"

// Version is the release of the module, trimmed by callers.
//
//go:embed VERSION
var Version string
