package tracelang

import "fmt"

// Interpreter holds the compiled programs of a debugging session's
// tracepoints, keyed by the host's tracepoint index. Registering compiles
// once; evaluating replays the cached program against fresh bindings, so a
// hot replayed loop never re-parses its tracepoint body.
type Interpreter struct {
	programs      map[int]*Block
	compileErrors map[int]CompileError
}

func NewInterpreter() *Interpreter {
	return &Interpreter{
		programs:      map[int]*Block{},
		compileErrors: map[int]CompileError{},
	}
}

// Register compiles the source of tracepoint i, replacing whatever was
// registered there before. A compile failure is remembered and reported by
// every subsequent Evaluate of that index.
func (in *Interpreter) Register(i int, source string) CompileError {
	delete(in.programs, i)
	delete(in.compileErrors, i)

	program, err := Parse(source)
	if err != nil {
		in.compileErrors[i] = err

		return err
	}

	in.programs[i] = program

	return nil
}

// Evaluate runs tracepoint i against one hit's captured bindings. A
// tracepoint that failed to compile yields a single ERROR entry without
// running; an unregistered index is reported the same way.
func (in *Interpreter) Evaluate(i int, bindings map[string]Value) ([]string, *EvalError) {
	if cerr, ok := in.compileErrors[i]; ok {
		return []string{"ERROR=" + cerr.Error()}, nil
	}

	program, ok := in.programs[i]
	if !ok {
		return []string{fmt.Sprintf("ERROR=no tracepoint registered at index %d", i)}, nil
	}

	return Evaluate(program, bindings)
}
