package models

import "errors"

var ErrNegativeCost = errors.New("cost must not be negative")
