package queue

import "fmt"

// PanicError reports a panic recovered while processing a job.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic while processing: %v", e.Value)
}
