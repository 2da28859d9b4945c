/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error types raised while locating and parsing manifests.
*/

package manifest

import "fmt"

// RootNotFoundError is returned when the scan root does not exist or is not a directory
type RootNotFoundError struct {
	Root string
	Err  error
}

func (e *RootNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scan root %s not found: %v", e.Root, e.Err)
	}
	return fmt.Sprintf("scan root %s is not a directory", e.Root)
}

func (e *RootNotFoundError) Unwrap() error { return e.Err }

// MalformedManifestError reports a manifest that could not be turned into a record.
// Line and Column are 1-based and zero when unknown.
type MalformedManifestError struct {
	Path   string
	Line   int
	Column int
	Reason string
}

func (e *MalformedManifestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: malformed manifest: %s", e.Path, e.Line, e.Column, e.Reason)
	}
	return fmt.Sprintf("%s: malformed manifest: %s", e.Path, e.Reason)
}
