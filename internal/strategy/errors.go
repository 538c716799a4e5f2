package strategy

import (
	"errors"
	"fmt"

	"github.com/contactkeval/option-picker/internal/data"
)

var (
	// ErrDataUnavailable reports that a quote, chain or premium lookup
	// returned nothing. Selections that fail this way return no result.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidInput reports a non-finite or non-positive price or strike,
	// an unknown strategy name or an incomplete market.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStrikeExpression reports a strike expression that does not
	// parse or evaluate to a positive number. It wraps ErrInvalidInput.
	ErrInvalidStrikeExpression = fmt.Errorf("%w: strike expression", ErrInvalidInput)
)

// DataUnavailableError names the leg whose lookup failed.
type DataUnavailableError struct {
	Strike float64
	Type   data.ContractType
	Reason string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("data unavailable for %s strike %.2f: %s", e.Type, e.Strike, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }
