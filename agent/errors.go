package agent

import "errors"

var (
	// ErrUnknownSubAgent is returned when delegation names a subagent that
	// was not configured.
	ErrUnknownSubAgent = errors.New("unknown subagent")

	// ErrInvalidTodo is returned by SetTodos when an item fails validation.
	ErrInvalidTodo = errors.New("invalid todo item")

	// ErrModelInvocation wraps failures of the model interface. Unlike tool
	// errors it is fatal: the loop aborts and surfaces it to the caller.
	ErrModelInvocation = errors.New("model invocation failed")
)
