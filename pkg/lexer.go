package tracelang

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType uint64
type stateFunc func(l *Lexer) stateFunc

const (
	EOF rune = 0

	TokenError TokenType = iota
	TokenEOF

	TokenInt
	TokenFloat
	TokenBool
	TokenString
	TokenIdentifier

	// An interpolated string literal is emitted as
	// StringOpen (expr...) StringMid (expr...) ... StringClose,
	// each carrying the raw text segment before the next embedding.
	TokenStringOpen
	TokenStringMid
	TokenStringClose

	TokenIf
	TokenElse
	TokenLog
	TokenFor
	TokenIn
	TokenAnd
	TokenOr
	TokenNot
	TokenLet

	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenEquals
	TokenNotEquals
	TokenGreaterEquals
	TokenGreater
	TokenLessEquals
	TokenLess
	TokenBang
	TokenTilde
	TokenAssign

	TokenRangeUpTo     // ..<
	TokenRangeUpToEq   // ..<=
	TokenRangeDownTo   // ..>
	TokenRangeDownToEq // ..>=
	TokenDotDot
	TokenDot
	TokenComma
	TokenColon
	TokenNamespace
	TokenUnderscore

	TokenOpenParentheses
	TokenCloseParentheses
	TokenOpenCurly
	TokenCloseCurly
	TokenOpenBracket
	TokenCloseBracket

	TokenNewline
	TokenLineComment
)

// Every control keyword has exactly one alternate spelling; both resolve to
// the same token type so the parser never sees which one was written.
var keywordTable = map[string]TokenType{
	"if":     TokenIf,
	"ако":    TokenIf,
	"else":   TokenElse,
	"иначе":  TokenElse,
	"log":    TokenLog,
	"покажи": TokenLog,
	"for":    TokenFor,
	"за":     TokenFor,
	"in":     TokenIn,
	"в":      TokenIn,
	"and":    TokenAnd,
	"и":      TokenAnd,
	"or":     TokenOr,
	"или":    TokenOr,
	"not":    TokenNot,
	"не":     TokenNot,
	"let":    TokenLet,
}

var operatorTable = map[string]TokenType{
	"+":    TokenPlus,
	"-":    TokenMinus,
	"*":    TokenStar,
	"/":    TokenSlash,
	"%":    TokenPercent,
	"==":   TokenEquals,
	"!=":   TokenNotEquals,
	">=":   TokenGreaterEquals,
	">":    TokenGreater,
	"<=":   TokenLessEquals,
	"<":    TokenLess,
	"!":    TokenBang,
	"~":    TokenTilde,
	"=":    TokenAssign,
	"..<":  TokenRangeUpTo,
	"..<=": TokenRangeUpToEq,
	"..>":  TokenRangeDownTo,
	"..>=": TokenRangeDownToEq,
	"..":   TokenDotDot,
	".":    TokenDot,
	",":    TokenComma,
	":":    TokenColon,
	"::":   TokenNamespace,
	"(":    TokenOpenParentheses,
	")":    TokenCloseParentheses,
	"{":    TokenOpenCurly,
	"}":    TokenCloseCurly,
	"[":    TokenOpenBracket,
	"]":    TokenCloseBracket,
}

type Location struct {
	Line   int
	Column int
}

func (l *Location) String() string {
	if l == nil {
		return "?:?"
	}

	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

type Token struct {
	Typ   TokenType
	Value string
	Loc   *Location
}

func (t Token) isValid() bool {
	return t.Typ != TokenError && t.Typ != TokenEOF
}

func (t Token) isComment() bool {
	return t.Typ == TokenLineComment
}

type Lexer struct {
	reader *bufio.Reader
	done   chan Token

	line   int
	column int

	// Open interpolations, innermost last. Each entry counts the curly
	// braces opened inside that embedded expression, so the `}` that
	// resumes the surrounding string can be told apart from the `}`
	// closing an inner block.
	interp []int
}

func NewLexer(reader io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(reader),
		done:   make(chan Token),
		line:   1,
		column: 1,
	}
}

func NewLexerFromString(source string) *Lexer {
	return NewLexer(strings.NewReader(source))
}

func (l *Lexer) Chan() chan Token {
	return l.done
}

// Do implements Tokenizer.
func (l *Lexer) Do() {
	l.Run()
}

// Get implements Tokenizer. After the stream is exhausted it keeps
// returning EOF tokens.
func (l *Lexer) Get() Token {
	t, ok := <-l.done
	if !ok {
		return Token{Typ: TokenEOF, Loc: l.loc()}
	}

	return t
}

func (l *Lexer) Run() {
	for state := defaultState; state != nil; {
		state = state(l)
	}

	close(l.done)
}

func (l *Lexer) RunBlocking() ([]Token, error) {
	go l.Run()

	var tokens []Token
	for t := range l.Chan() {
		if t.Typ == TokenEOF {
			return tokens, nil
		}

		if t.Typ == TokenError {
			return nil, errors.New(t.Value)
		}

		tokens = append(tokens, t)
	}

	return tokens, nil
}

func defaultState(l *Lexer) stateFunc {
	for {
		switch r := l.peek(); {
		case r == EOF:
			l.emmit(TokenEOF, "")
			return nil
		case r == '\n' || r == ';':
			loc := l.loc()
			l.next()
			l.done <- Token{Typ: TokenNewline, Value: string(r), Loc: loc}
			continue
		case unicode.IsSpace(r):
			l.next()
			continue
		case r == '}' && len(l.interp) > 0 && l.interp[len(l.interp)-1] == 0:
			// Ends the embedded expression; resume the surrounding string.
			l.next()
			l.interp = l.interp[:len(l.interp)-1]
			return stringResumeState
		case '0' <= r && r <= '9':
			return numberState
		case r == '.':
			return dotState
		case r == '"':
			return stringState
		case unicode.IsLetter(r) || r == '_':
			return identifierState
		default:
			return operatorState
		}
	}
}

func numberState(l *Lexer) stateFunc {
	loc := l.loc()

	var num strings.Builder
	for r := l.peek(); '0' <= r && r <= '9' || r == '_'; r = l.peek() {
		if r == '_' {
			l.next() // digit grouping, not part of the value
			continue
		}

		num.WriteRune(l.next())
	}

	if l.peek() != '.' {
		return l.emmitAt(TokenInt, num.String(), loc)
	}

	l.next() // consume the dot, then decide what it was part of

	switch r := l.peek(); {
	case '0' <= r && r <= '9':
		num.WriteRune('.')
		for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			num.WriteRune(l.next())
		}

		return l.emmitAt(TokenFloat, num.String(), loc)
	case r == '.':
		// `0..<3`: integer followed by a range operator
		l.next()
		l.emmitAt(TokenInt, num.String(), loc)
		return rangeTail(l)
	default:
		// `5.` is a valid float
		num.WriteRune('.')
		return l.emmitAt(TokenFloat, num.String(), loc)
	}
}

// dotState handles `.5` floats, the `..<` family of range operators, the
// `..` rest-wildcard and plain field-access dots.
func dotState(l *Lexer) stateFunc {
	loc := l.loc()
	l.next() // leading dot

	switch r := l.peek(); {
	case '0' <= r && r <= '9':
		var num strings.Builder
		num.WriteRune('.')
		for r := l.peek(); '0' <= r && r <= '9'; r = l.peek() {
			num.WriteRune(l.next())
		}

		return l.emmitAt(TokenFloat, num.String(), loc)
	case r == '.':
		l.next()
		return rangeTail(l)
	default:
		return l.emmitAt(TokenDot, ".", loc)
	}
}

// rangeTail lexes what follows `..`: a direction arrow making one of the
// four range operators, or nothing, leaving the rest-wildcard `..`.
func rangeTail(l *Lexer) stateFunc {
	loc := l.loc()

	switch l.peek() {
	case '<':
		l.next()
		if l.peek() == '=' {
			l.next()
			return l.emmitAt(TokenRangeUpToEq, "..<=", loc)
		}

		return l.emmitAt(TokenRangeUpTo, "..<", loc)
	case '>':
		l.next()
		if l.peek() == '=' {
			l.next()
			return l.emmitAt(TokenRangeDownToEq, "..>=", loc)
		}

		return l.emmitAt(TokenRangeDownTo, "..>", loc)
	default:
		return l.emmitAt(TokenDotDot, "..", loc)
	}
}

func stringState(l *Lexer) stateFunc {
	return lexString(l, false)
}

func stringResumeState(l *Lexer) stateFunc {
	return lexString(l, true)
}

func lexString(l *Lexer, resuming bool) stateFunc {
	loc := l.loc()
	if !resuming {
		l.next() // skip the leading double-quote
	}

	var str strings.Builder
	for {
		r := l.next()
		switch r {
		case EOF:
			return l.errorf(loc, "unclosed string: %q", str.String())
		case '"':
			if resuming {
				return l.emmitAt(TokenStringClose, str.String(), loc)
			}

			return l.emmitAt(TokenString, str.String(), loc)
		case '{':
			l.interp = append(l.interp, 0)
			if resuming {
				return l.emmitAt(TokenStringMid, str.String(), loc)
			}

			return l.emmitAt(TokenStringOpen, str.String(), loc)
		case '\\':
			esc := l.next()
			switch esc {
			case 'n':
				str.WriteRune('\n')
			case 't':
				str.WriteRune('\t')
			case '"', '\\', '{', '}':
				str.WriteRune(esc)
			case EOF:
				return l.errorf(loc, "unclosed string: %q", str.String())
			default:
				str.WriteRune('\\')
				str.WriteRune(esc)
			}
		default:
			str.WriteRune(r)
		}
	}
}

func identifierState(l *Lexer) stateFunc {
	loc := l.loc()

	var id strings.Builder
	for r := l.peek(); unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'; r = l.peek() {
		id.WriteRune(l.next())
	}

	name := id.String()
	if name == "_" {
		return l.emmitAt(TokenUnderscore, name, loc)
	}

	if name == "true" || name == "false" {
		return l.emmitAt(TokenBool, name, loc)
	}

	if t, ok := keywordTable[name]; ok {
		return l.emmitAt(t, name, loc)
	}

	return l.emmitAt(TokenIdentifier, name, loc)
}

func operatorState(l *Lexer) stateFunc {
	loc := l.loc()
	r := l.next()

	switch r {
	case '{':
		if len(l.interp) > 0 {
			l.interp[len(l.interp)-1]++
		}

		return l.emmitAt(TokenOpenCurly, "{", loc)
	case '}':
		if len(l.interp) > 0 {
			l.interp[len(l.interp)-1]--
		}

		return l.emmitAt(TokenCloseCurly, "}", loc)
	case '/':
		if l.peek() == '/' {
			l.next()
			return lineCommentState
		}
	case '=', '!', '<', '>':
		if l.peek() == '=' {
			l.next()
			op := string(r) + "="
			return l.emmitAt(operatorTable[op], op, loc)
		}
	case ':':
		if l.peek() == ':' {
			l.next()
			return l.emmitAt(TokenNamespace, "::", loc)
		}
	}

	if tok, ok := operatorTable[string(r)]; ok {
		return l.emmitAt(tok, string(r), loc)
	}

	return l.errorf(loc, "invalid symbol '%c'", r)
}

func lineCommentState(l *Lexer) stateFunc {
	loc := l.loc()

	var text strings.Builder
	for r := l.peek(); r != '\n' && r != EOF; r = l.peek() {
		text.WriteRune(l.next())
	}

	return l.emmitAt(TokenLineComment, text.String(), loc)
}

func (l *Lexer) errorf(loc *Location, format string, args ...interface{}) stateFunc {
	l.done <- Token{
		Typ:   TokenError,
		Value: fmt.Sprintf(format, args...),
		Loc:   loc,
	}

	return nil
}

func (l *Lexer) emmit(t TokenType, val string) stateFunc {
	return l.emmitAt(t, val, l.loc())
}

func (l *Lexer) emmitAt(t TokenType, val string, loc *Location) stateFunc {
	l.done <- Token{
		Typ:   t,
		Value: val,
		Loc:   loc,
	}

	return defaultState
}

func (l *Lexer) loc() *Location {
	return &Location{Line: l.line, Column: l.column}
}

func (l *Lexer) peek() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return EOF
		}

		return utf8.RuneError
	}

	_ = l.reader.UnreadRune()
	return r
}

func (l *Lexer) next() rune {
	r, _, err := l.reader.ReadRune()
	if err != nil {
		if err == io.EOF {
			return EOF
		}

		return utf8.RuneError
	}

	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}

	return r
}
