package app

import "errors"

var errUnreachable = errors.New("the AD management API is not reachable")
