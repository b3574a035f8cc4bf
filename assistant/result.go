package assistant

// Outcome tells how a Result was produced.
type Outcome int

const (
	// Text is a free-text reply used as is.
	Text Outcome = iota + 1
	// Parsed is a structured value read from the reply.
	Parsed
	// Fallback is a default substituted because the call failed or the reply
	// could not be parsed. Err holds the cause when there is one.
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Text:
		return "text"
	case Parsed:
		return "parsed"
	case Fallback:
		return "fallback"
	}
	return "unknown"
}

// Result is the value an operation hands back to its caller. Operations never
// fail because of the model: a failed call or an unusable reply produces a
// Fallback result instead of an error.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

func textResult(s string) Result[string] {
	return Result[string]{Value: s, Outcome: Text}
}

func parsed[T any](v T) Result[T] {
	return Result[T]{Value: v, Outcome: Parsed}
}

func fallback[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Outcome: Fallback, Err: err}
}
