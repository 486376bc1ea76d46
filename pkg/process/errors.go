package process

import "fmt"

// ErrDestination represents an unusable results-table destination. It is
// raised before any table is mutated.
type ErrDestination struct {
	Name   string
	Reason string
}

func (e *ErrDestination) Error() string {
	return fmt.Sprintf("cannot use %q as destination: %s", e.Name, e.Reason)
}
