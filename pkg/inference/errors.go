package inference

import "fmt"

//Error is a failure of one inference stage. It matches its stage sentinel (ErrBackendInit, ErrBind, ErrInfer)
//with errors.Is and unwraps to the underlying cause.
type Error struct {
	Stage error
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%v: %v", e.Stage, e.Cause)
	}
	return e.Stage.Error()
}

func (e *Error) Is(target error) bool {
	return target == e.Stage
}

func (e *Error) Unwrap() error {
	return e.Cause
}
