package model

import (
	"fmt"
	"strings"
)

// ResolutionError reports a reference whose target cannot be located.
type ResolutionError struct {
	Name   string // name as written at the reference site
	Module string // module containing the reference
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("cannot resolve %q", e.Name)
	if e.Module != "" {
		msg += " from " + e.Module
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TypeAssertionError reports a resolved declaration that does not satisfy
// the kind the caller asked for.
type TypeAssertionError struct {
	Name string
	Want Kind
	Got  Kind
}

func (e *TypeAssertionError) Error() string {
	return fmt.Sprintf("%q is a %s declaration, not a %s declaration", e.Name, e.Got, e.Want)
}

// CyclicHeritageError reports an inheritance chain that loops back on itself.
// Chain lists the class names in walk order, ending with the repeated class.
type CyclicHeritageError struct {
	Chain []string
}

func (e *CyclicHeritageError) Error() string {
	return "cyclic class heritage: " + strings.Join(e.Chain, " -> ")
}
