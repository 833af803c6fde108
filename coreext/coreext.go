// Package coreext declares the extension types that ship with avium. Import
// it for side effects to make every extension type available by name.
package coreext

import (
	// importing for side effects
	_ "github.com/zephyrtronium/avium/coreext/collector"
	_ "github.com/zephyrtronium/avium/coreext/list"
	_ "github.com/zephyrtronium/avium/coreext/stream"
	_ "github.com/zephyrtronium/avium/coreext/sync"
)
