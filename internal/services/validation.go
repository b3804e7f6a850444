package services

import "fmt"

// ValidationError marks a request rejected before any write.
// Handlers map it to 400 with the message intact.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

// Validationf builds a ValidationError
func Validationf(format string, args ...interface{}) error {
	return ValidationError(fmt.Sprintf(format, args...))
}
