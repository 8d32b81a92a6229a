package ginternals

import "errors"

// ErrObjectNotFound is an error corresponding to a object not being
// found in the object database
var ErrObjectNotFound = errors.New("object not found")
