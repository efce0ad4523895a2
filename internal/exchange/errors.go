package exchange

// StepError wraps an error with the protocol step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// StepName returns the failed step, for callers that report failures per
// step.
func (e *StepError) StepName() string { return e.Step }
