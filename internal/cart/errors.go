package cart

import (
	"errors"
	"strings"
)

var ErrMissingVariants = errors.New("missing variant selection")

// MissingVariantsError names the variant axes that still need a choice.
type MissingVariantsError struct {
	IDs   []string
	Names []string
}

func (e *MissingVariantsError) Error() string {
	return "missing variant selection: " + strings.Join(e.IDs, ", ")
}

func (e *MissingVariantsError) Is(target error) bool {
	return target == ErrMissingVariants
}

// Message is the text shown to the shopper.
func (e *MissingVariantsError) Message() string {
	return "Por favor, selecione " + strings.Join(e.Names, " e ")
}
