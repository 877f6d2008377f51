// Copyright 2026 The Epicea Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. When a command returns an ExitError, main exits with
// the specified code without printing the error string; the command is
// expected to have already written its own output.
//
// Used where a non-zero exit is a valid outcome rather than an
// unexpected error, such as "policy check" classifying an identifier
// as external.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. main checks for this interface on
// returned errors to distinguish "handled non-zero exit" from
// "unexpected error to display".
func (e *ExitError) ExitCode() int {
	return e.Code
}
