package wildtrackws

import "errors"

var (
	// ErrStoreUnavailable means the dataset could not be retrieved.
	ErrStoreUnavailable = errors.New("dataset unavailable")
	// ErrMalformedQuery means the query message could not be used.
	ErrMalformedQuery = errors.New("malformed query")
	// ErrChannelGone means the peer disconnected while chunks were being pushed.
	ErrChannelGone = errors.New("channel gone")
	// ErrRegistryWrite means the connection row could not be stored.
	ErrRegistryWrite = errors.New("registry write failed")
)
