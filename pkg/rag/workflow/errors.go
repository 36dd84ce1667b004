package workflow

import (
	"fmt"

	"multistep-rag-be/pkg/store"
)

// StepError wraps the failure of one step together with the path executed so far
type StepError struct {
	Step store.Step
	Path []store.Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow step %s failed (path %s): %v", e.Step, pathString(e.Path), e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
