package scheduler

import "errors"

// ErrInvalidSchedule is returned for an empty or unparsable cron spec
var ErrInvalidSchedule = errors.New("invalid sync schedule")
