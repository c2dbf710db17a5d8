package report

import "errors"

var (
	// ErrMalformedDirective indicates a sidecar element that is neither a Tag nor a DirTag.
	ErrMalformedDirective = errors.New("malformed directive")
	// ErrInvalidPattern indicates a Tag directive whose regex does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrCycleDetected indicates a directory that is already on the current ancestor chain.
	ErrCycleDetected = errors.New("cycle detected")
	// ErrNotFound indicates a path that was never visited by the walk.
	ErrNotFound = errors.New("path not found in index")
	// ErrPersistFailed indicates a failed sidecar write during interactive tagging.
	ErrPersistFailed = errors.New("persisting tags failed")
	// ErrNoRoots indicates that none of the given roots could be used.
	ErrNoRoots = errors.New("no readable roots")
)
