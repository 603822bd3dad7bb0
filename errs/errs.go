// Package errs collects the sentinel errors shared across the rodeo-bufr-library
// packages. Call sites wrap these with fmt.Errorf("...: %w", ...) to attach
// path, line, or descriptor context; callers match on the sentinel with
// errors.Is.
package errs

import "errors"

var (
	// ErrTableLoadFailed is returned when no master Table B, C, or D entries
	// remain registered after an init/update call.
	ErrTableLoadFailed = errors.New("bufr: table load failed, no master tables registered")

	// ErrUnknownDescriptor is returned when a descriptor has no entry in the
	// effective Table B/D for the message being processed.
	ErrUnknownDescriptor = errors.New("bufr: unknown descriptor")

	// ErrDescriptorCycle is returned when Table D expansion revisits an
	// ancestor sequence descriptor.
	ErrDescriptorCycle = errors.New("bufr: descriptor cycle in table D expansion")

	// ErrTruncatedMessage is returned when section 4 ends before expansion
	// of the declared descriptor list finishes.
	ErrTruncatedMessage = errors.New("bufr: truncated message")

	// ErrInvalidMagic is returned when section 0 does not start with "BUFR".
	ErrInvalidMagic = errors.New("bufr: invalid section 0 magic")

	// ErrInvalidEdition is returned for an unsupported BUFR edition.
	ErrInvalidEdition = errors.New("bufr: unsupported edition")

	// ErrInvalidTerminator is returned when section 5 is not "7777".
	ErrInvalidTerminator = errors.New("bufr: invalid section 5 terminator")

	// ErrParseError is returned for a malformed table file line. Callers
	// wrap it with the offending path and line number; the line is skipped
	// and this is logged, not fatal.
	ErrParseError = errors.New("bufr: table file parse error")

	// ErrDomainInput is returned when the Coverage-JSON input is unparseable
	// or is missing the required "coverages" array.
	ErrDomainInput = errors.New("bufr: invalid coverage-json input")

	// ErrMaxDepthExceeded is returned when Table D sequence expansion nests
	// deeper than the implementation's bound.
	ErrMaxDepthExceeded = errors.New("bufr: table D expansion exceeds maximum nesting depth")

	// ErrTablesNotLoaded is returned by registry resolution when Load has
	// never populated the registry.
	ErrTablesNotLoaded = errors.New("bufr: tables not loaded")
)
