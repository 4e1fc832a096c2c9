package notify

import "errors"

// Common errors for notifier operations
var (
	ErrBind               = errors.New("failed to bind publish socket")
	ErrSend               = errors.New("failed to send message")
	ErrSourceRead         = errors.New("failed to read notification source")
	ErrNotReady           = errors.New("notifier is not initialized")
	ErrAlreadyInitialized = errors.New("notifier already initialized")
	ErrUnknownType        = errors.New("unknown notifier type")
)
