package voting

import "errors"

var ErrInvalidDirection = errors.New("vote direction must be 0 or 1")
