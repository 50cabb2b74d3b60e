package tracelang

import "fmt"

// CompileError is a problem found before any evaluation happens: the lexer
// could not form a token, or the parser could not derive a construct. A
// tracepoint with a compile error is treated as never having run.
type CompileError interface {
	error
	GetLocation() *Location
}

type LexicalError struct {
	Loc     *Location
	Message string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("%s lexical error: %s", e.Loc, e.Message)
}

func (e *LexicalError) GetLocation() *Location { return e.Loc }

type SyntaxError struct {
	Loc     *Location
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s syntax error: %s", e.Loc, e.Message)
}

func (e *SyntaxError) GetLocation() *Location { return e.Loc }

// EvalError halts a single evaluation. It is fatal to that call only; log
// entries produced by earlier statements are preserved by the evaluator.
type EvalError struct {
	Message string
	Loc     *Location
}

func (e *EvalError) Error() string { return e.Message }

func (e *EvalError) GetLocation() *Location { return e.Loc }

func evalErrorf(loc *Location, format string, args ...interface{}) *EvalError {
	return &EvalError{
		Message: fmt.Sprintf(format, args...),
		Loc:     loc,
	}
}
