package inspectbridge

import "errors"

// Common errors returned by inspect-bridge operations.
var (
	// ErrDuplicatePlugin is returned when a plugin with the same identifier
	// is already registered.
	ErrDuplicatePlugin = errors.New("plugin already added")

	// ErrPluginNotFound is returned when the named plugin is not registered.
	ErrPluginNotFound = errors.New("plugin not found")

	// ErrConnectionNotFound is returned when an execute call targets a
	// plugin with no live connection.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// classified reports whether err belongs to the known failure taxonomy.
// Classified failures may be reported to the inspection peer; anything else
// is logged generically and never forwarded, so internal detail does not
// leak off the host.
func classified(err error) bool {
	return errors.Is(err, ErrDuplicatePlugin) ||
		errors.Is(err, ErrPluginNotFound) ||
		errors.Is(err, ErrConnectionNotFound)
}
