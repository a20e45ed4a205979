package provision

import (
	"errors"
	"fmt"
)

// ErrInvalidName is returned for node names that cannot be used as a
// directory name.
var ErrInvalidName = errors.New("invalid node name")

// Error is a provisioning IO error.
//
// It is fatal for the run: the lab must not start with a partially
// provisioned router.
type Error struct {
	// Node is the router being provisioned, empty while loading templates.
	Node string
	// Path is the file or directory the operation failed on.
	Path string
	// Err is the underlying error.
	Err error
}

func (m *Error) Error() string {
	if m.Node == "" {
		return fmt.Sprintf("failed to provision %s: %v", m.Path, m.Err)
	}
	return fmt.Sprintf("failed to provision %s at %s: %v", m.Node, m.Path, m.Err)
}

func (m *Error) Unwrap() error {
	return m.Err
}
