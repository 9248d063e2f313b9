package match

import "errors"

var (
	// ErrRoomNotFound is returned when a private room code is unknown, expired or already claimed.
	ErrRoomNotFound = errors.New("private room not found or expired")
	// ErrHostUnavailable is returned when the private room host has disconnected.
	ErrHostUnavailable = errors.New("private room host disconnected")
	// ErrOwnRoom is returned when a host tries to join their own private room.
	ErrOwnRoom = errors.New("cannot join your own private room")
	// ErrStoreUnavailable wraps every failed match store operation.
	ErrStoreUnavailable = errors.New("match store unavailable")
)
