// Package daemonerr collects the sentinel errors shared across the
// daemon's components, one per row of the error taxonomy.
package daemonerr

import "errors"

var (
	ErrTransport         = errors.New("daemonerr: transport failure")
	ErrCrypto            = errors.New("daemonerr: crypto verification failed")
	ErrReplay            = errors.New("daemonerr: event already processed")
	ErrTurnMismatch      = errors.New("daemonerr: command tagged for wrong turn")
	ErrInviteMismatch    = errors.New("daemonerr: invite code unknown or already claimed")
	ErrCommandValidation = errors.New("daemonerr: command failed validation")
	ErrPersistence       = errors.New("daemonerr: persistence I/O failed")
	ErrResolverInvariant = errors.New("daemonerr: resolver invariant violated")
	ErrConfiguration     = errors.New("daemonerr: configuration invalid")
	ErrIdentity          = errors.New("daemonerr: identity keypair invalid")
)
