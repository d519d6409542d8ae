package aukro

import (
	"errors"
	"fmt"
)

var (
	// ErrLoginFailed matches every error returned by a failed Login
	ErrLoginFailed = errors.New("aukro: login failed")

	// ErrMissingSessionHandle is the cause of a login whose response carried no sessionHandlePart
	ErrMissingSessionHandle = errors.New("aukro: login response has no sessionHandlePart")

	ErrEmptyMethod = errors.New("aukro: method name is empty")

	ErrUnknownCountry = errors.New("aukro: unknown country")
)

// LoginFailedError is returned by Login when the remote login call fails.
// The underlying cause stays reachable through Unwrap.
type LoginFailedError struct {
	Err error
}

func (e *LoginFailedError) Error() string {
	return fmt.Sprintf("%s: %v", ErrLoginFailed, e.Err)
}

func (e *LoginFailedError) Unwrap() error { return e.Err }

func (e *LoginFailedError) Is(target error) bool { return target == ErrLoginFailed }

type unknownCountryError struct {
	value string
}

func (e *unknownCountryError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownCountry, e.value)
}

func (e *unknownCountryError) Is(target error) bool { return target == ErrUnknownCountry }
