package models

import "errors"

// Domain errors surfaced to callers. The HTTP layer maps these to
// user-visible responses; everything else stays an internal error.
var (
	// ErrNotFound is returned when an entity does not exist locally or remotely.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidOffer is returned when an offer carries neither items nor cash,
	// or otherwise fails shape validation.
	ErrInvalidOffer = errors.New("offer must include at least one item or a cash amount")

	// ErrInvalidTransition is returned when a requested status change is not
	// permitted from the entity's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotAuthorized is returned when the acting user may not perform the
	// requested transition.
	ErrNotAuthorized = errors.New("not authorized to perform this action")

	// ErrStaleState is returned when a transition's guard check finds the
	// entity already changed by another actor or device. The caller should
	// refresh and re-present the current state.
	ErrStaleState = errors.New("offer state changed, refresh and try again")

	// ErrItemsUnavailable is returned when accepting an offer whose requested
	// or offered items are no longer available.
	ErrItemsUnavailable = errors.New("one or more items are no longer available")

	// ErrNoActor is returned when an operation requiring an acting user runs
	// without an authenticated identity.
	ErrNoActor = errors.New("no authenticated user")

	// ErrAlreadyRated is returned when a participant tries to rate the same
	// trade twice.
	ErrAlreadyRated = errors.New("trade already rated by this user")
)
