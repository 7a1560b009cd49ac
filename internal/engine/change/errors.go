package change

import "errors"

// ErrInvalidMap is returned when an offset change map does not describe
// the edit it is attached to.
var ErrInvalidMap = errors.New("offset change map does not match change")
