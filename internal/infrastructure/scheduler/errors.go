package scheduler

import "errors"

// ErrAlreadyRunning rejects RunNow while a scheduled or manual refill pass has
// not finished
var ErrAlreadyRunning = errors.New("scheduler: refill run already in progress")

// ErrInvalidConfig rejects a RefillSchedulerConfig that cannot be scheduled
var ErrInvalidConfig = errors.New("scheduler: invalid configuration")
