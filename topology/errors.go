package topology

import "errors"

var (
	// ErrDuplicateNode is returned when a node name is declared twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrInvalidNode is returned for malformed node descriptors.
	ErrInvalidNode = errors.New("invalid node")
	// ErrUnknownNode is returned when a link references an undeclared node.
	ErrUnknownNode = errors.New("unknown node")
	// ErrInvalidLink is returned for malformed links.
	ErrInvalidLink = errors.New("invalid link")
	// ErrInvalidInterface is returned for bad or clashing interface names.
	ErrInvalidInterface = errors.New("invalid interface")
)

// Error is a topology construction error.
//
// Errors of this type are fatal: no partial topology is ever returned
// alongside them.
type Error struct {
	// Topology is the name of the topology being built.
	Topology string
	// Err is the underlying error, wrapping one of the Err* sentinels.
	Err error
}

func (m *Error) Error() string {
	return "failed to build topology " + m.Topology + ": " + m.Err.Error()
}

func (m *Error) Unwrap() error {
	return m.Err
}
