package app

import (
	cliflag "k8s.io/component-base/cli/flag"
)

// NamedFlagSetOptions is implemented by the options of a command. Flags are
// grouped in named sets so that the usage output can print them by section.
type NamedFlagSetOptions interface {
	// Flags returns the flag sets of the options, keyed by section name.
	Flags() cliflag.NamedFlagSets

	// Complete fills in fields that were not set and derive from others.
	Complete() error

	// Validate checks the options once flags and config are applied.
	Validate() error
}
