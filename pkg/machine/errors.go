package machine

import "errors"

// ErrAlreadyStarted is returned by LoadROMFile (and any other error-
// returning configuration call) once the machine has left the
// Configuring state. Boolean-returning configuration calls report the
// same condition by returning false rather than wrapping this error, to
// match the spec's "report as false, no state change" contract.
var ErrAlreadyStarted = errors.New("z80console: machine already started")

// ErrNoROM is returned by LoadROMFile when asked to load a zero-length
// ROM image.
var ErrNoROM = errors.New("z80console: rom image is empty")
