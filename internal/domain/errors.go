package domain

import "errors"

// Sentinel errors for the client core.
var (
	ErrStoreNotInitialized   = errors.New("store not initialized")
	ErrGatewayNotInitialized = errors.New("gateway not initialized")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrInvalidInput          = errors.New("invalid input")
)
