// Package errs is the catalog of domain errors. Each value is a typed
// go-errs error so transports can derive a status code from its kind.
package errs

import goerrs "github.com/nicolasparada/go-errs"

var (
	Unauthenticated  = goerrs.Unauthenticated
	PermissionDenied = goerrs.PermissionDenied
)

var (
	// NotActivityOwner deliberately does not reveal whether the
	// activity exists.
	NotActivityOwner   = goerrs.PermissionDeniedError("not the activity owner or activity not found")
	NotRecipient       = goerrs.PermissionDeniedError("only the recipient can respond to this request")
	NotConnectionParty = goerrs.PermissionDeniedError("not a party of this connection")
)

// MaxParticipantsTooLow guards the capacity check constraint: the cap
// can never drop below the people already in.
var MaxParticipantsTooLow = goerrs.InvalidArgumentError("max participants cannot be less than the current participant count")

var (
	ActivityNotFound   = goerrs.NotFoundError("activity not found")
	ConnectionNotFound = goerrs.NotFoundError("connection not found")
	UserNotFound       = goerrs.NotFoundError("user not found")

	ActivityNotActive  = goerrs.ConflictError("activity is no longer active")
	AlreadyJoined      = goerrs.ConflictError("already participating in this activity")
	ActivityFull       = goerrs.ConflictError("activity is at maximum capacity")
	CreatorCannotLeave = goerrs.ConflictError("creator cannot leave, cancel the activity instead")
	NotParticipant     = goerrs.ConflictError("not participating in this activity")
	ChatNotEnabled     = goerrs.ConflictError("chat not enabled, connection must be accepted first")
	AlreadyResponded   = goerrs.ConflictError("connection request already responded to")
)
