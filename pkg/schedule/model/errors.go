package model

import "errors"

var (
	// ErrNoLanes is returned when an item is constructed with no lanes.
	ErrNoLanes = errors.New("item must occupy at least one lane")
	// ErrNonPositiveDuration is returned when a lane duration is not > 0.
	ErrNonPositiveDuration = errors.New("lane duration must be positive")
	// ErrNoAlternatives is returned when a SwitchLaneItem is constructed
	// with an empty alternatives list.
	ErrNoAlternatives = errors.New("switch-lane item must carry at least one alternative duration mapping")
	// ErrUnknownAlternative is returned when Switch is asked for an
	// alternative index outside the current alternatives list.
	ErrUnknownAlternative = errors.New("unknown alternative duration mapping")
)
