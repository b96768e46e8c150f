package service

import "errors"

// Common service errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// User service specific errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
)

// Battle service specific errors
var (
	ErrBattleNotFound    = errors.New("battle not found")
	ErrProblemNotFound   = errors.New("problem not found")
	ErrInvalidDifficulty = errors.New("invalid difficulty")
)
