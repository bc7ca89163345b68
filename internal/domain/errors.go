package domain

import "errors"

var (
	ErrAuthTransport  = errors.New("identity provider unreachable")
	ErrAuthRejected   = errors.New("credentials rejected")
	ErrRemoteRead     = errors.New("remote catalog read failed")
	ErrRemoteWrite    = errors.New("remote catalog write failed")
	ErrOptionNotFound = errors.New("investment option not found")
	ErrNoSession      = errors.New("no active session")
)
