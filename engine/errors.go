/*
errors.go - Centralized error types for the LCOE engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.
  Callers branch on error class, not on concrete types.

ERROR CATEGORIES:
  1. Config errors - invalid shared parameters; fatal for the whole run
  2. Data errors   - invalid per-site input or an undefined per-site
                     computation; the site is excluded, the batch continues

USAGE:
  if engine.IsConfigError(err) {
      // abort the run before producing any output
  }
  if engine.IsDataError(err) {
      // record the failure against this site, keep going
  }

SEE ALSO:
  - types.go: Validate methods producing these errors
  - batch.go: the recovery boundary that applies the classification
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidParameter is returned when a shared parameter violates an
	// invariant. This is a config error: every site depends on the shared
	// constants, so the run aborts before any output is produced.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidSite is returned when a single site's input is unusable
	// (negative population or capacity, unparseable field).
	ErrInvalidSite = errors.New("invalid site input")

	// ErrUndefinedResult is returned when a per-site computation has no
	// defined value (zero demand tier feeding the LCOE division).
	ErrUndefinedResult = errors.New("undefined result")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParameterError identifies which shared parameter is invalid and why.
// The name is surfaced verbatim to the operator so a bad config.yaml can
// be fixed without reading code.
type ParameterError struct {
	Name   string
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %q: %s", e.Name, e.Reason)
}

func (e *ParameterError) Unwrap() error { return ErrInvalidParameter }

// SiteError identifies which field of which site is unusable.
type SiteError struct {
	SiteID string
	Field  string
	Reason string
}

func (e *SiteError) Error() string {
	return fmt.Sprintf("site %q: field %q %s", e.SiteID, e.Field, e.Reason)
}

func (e *SiteError) Unwrap() error { return ErrInvalidSite }

// UndefinedResultError identifies a per-site computation with no defined
// value. Treated exactly like a bad input: the site is excluded.
type UndefinedResultError struct {
	SiteID string
	Op     string
	Reason string
}

func (e *UndefinedResultError) Error() string {
	return fmt.Sprintf("site %q: %s is undefined: %s", e.SiteID, e.Op, e.Reason)
}

func (e *UndefinedResultError) Unwrap() error { return ErrUndefinedResult }

// =============================================================================
// ERROR CLASSIFIERS
// =============================================================================

// IsConfigError reports whether err is fatal for the entire run.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidParameter)
}

// IsDataError reports whether err is recoverable at the per-site boundary.
func IsDataError(err error) bool {
	return errors.Is(err, ErrInvalidSite) || errors.Is(err, ErrUndefinedResult)
}
