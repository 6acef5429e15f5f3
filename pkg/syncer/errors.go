package syncer

import "errors"

// ErrInvalidRequest is returned before any store access when the request
// cannot describe a sync.
var ErrInvalidRequest = errors.New("invalid sync request")
