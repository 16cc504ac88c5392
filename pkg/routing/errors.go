package routing

import "errors"

// ErrMissingParameter matches every *MissingParameterError via errors.Is.
var ErrMissingParameter = errors.New("missing parameter")

// MissingParameterError reports a named parameter absent from the params
// passed to a generator.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return "missing parameter: " + e.Name
}

// Is makes errors.Is(err, ErrMissingParameter) succeed.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}
