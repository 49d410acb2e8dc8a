package dispatcher

import "errors"

// Dispatcher errors.
var (
	// ErrRemapDepth indicates a chain of user mappings expanded too often
	// without running a handler.
	ErrRemapDepth = errors.New("dispatcher: mapping expanded too deeply")

	// ErrHandlerPanic indicates a handler panicked.
	ErrHandlerPanic = errors.New("dispatcher: handler panic")
)
