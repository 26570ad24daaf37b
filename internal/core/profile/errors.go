package profile

import "errors"

var (
	ErrInvalidAccountID  = errors.New("profile: invalid account id")
	ErrAccountNotFound   = errors.New("profile: account not found")
	ErrUnknownField      = errors.New("profile: unknown field")
	ErrInvalidFieldValue = errors.New("profile: invalid field value")
	ErrInvalidPlatform   = errors.New("profile: invalid social platform")
	ErrNothingToUpdate   = errors.New("profile: nothing to update")
)
