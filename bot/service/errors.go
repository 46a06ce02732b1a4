package service

// InputError reports malformed user input: bad credential format or an
// invalid area code. Always recoverable by repeating the command.
type InputError struct {
	Kind   string
	Reason string
}

func (e *InputError) Error() string {
	return "service: invalid input (" + e.Kind + "): " + e.Reason
}

// Code implements the handler summary error-code contract.
func (e *InputError) Code() string { return "input_" + e.Kind }
