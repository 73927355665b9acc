package world

import "errors"

// ErrInvalidConfig indicates a physical constant outside its valid range.
var ErrInvalidConfig = errors.New("world: invalid config")
