package tracelang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	loc := &Location{Line: 2, Column: 7}

	lex := &LexicalError{Loc: loc, Message: "unclosed string: \"abc\""}
	assert.Equal(t, "2:7 lexical error: unclosed string: \"abc\"", lex.Error())
	assert.Equal(t, loc, lex.GetLocation())

	syn := &SyntaxError{Loc: loc, Message: "expected '{'"}
	assert.Equal(t, "2:7 syntax error: expected '{'", syn.Error())

	eval := evalErrorf(loc, "Index %d out of range 0..%d.", 7, 5)
	assert.Equal(t, "Index 7 out of range 0..5.", eval.Error())
	assert.Equal(t, loc, eval.GetLocation())
}

func TestErrorLocationFallback(t *testing.T) {
	var missing *Location
	assert.Equal(t, "?:?", missing.String())

	eval := evalErrorf(nil, "Division by zero")
	assert.Nil(t, eval.GetLocation())
}

func TestParseErrorsCarryPositions(t *testing.T) {
	_, err := Parse("log(a\nlog(b)")
	assert.Error(t, err)
	assert.NotNil(t, err.GetLocation())
}
