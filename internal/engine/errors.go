package engine

import "errors"

// ErrConfiguration marks malformed or empty threshold/severity tables and
// invariant violations of the tier table. It is fatal to the triggering
// operation but never to the process.
var ErrConfiguration = errors.New("toxicity configuration error")

// ErrInvalidAmount rejects negative toxicity deltas and ledger values.
var ErrInvalidAmount = errors.New("invalid toxicity amount")

// ErrMissingCollaborator is returned when the host did not provide a callback
// the current operation needs.
var ErrMissingCollaborator = errors.New("missing host collaborator")

// ErrSourceExhausted is returned by ScriptedSource once every queued result was used.
var ErrSourceExhausted = errors.New("scripted random source exhausted")
