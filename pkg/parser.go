package tracelang

import (
	"fmt"
	"strconv"
	"strings"
)

// Tokenizer feeds the parser. The lexer is the production implementation;
// tests may substitute a buffered mock.
type Tokenizer interface {
	Do()
	Get() Token
}

type Parser struct {
	tokenizer Tokenizer
	buf       *Token
	err       CompileError
}

func NewParser(tokenizer Tokenizer) *Parser {
	return &Parser{
		tokenizer: tokenizer,
	}
}

// Parse lexes and parses a whole tracepoint body. It never panics: the
// result is either a program or a structured compile error, and a program
// with any error yields no AST at all.
func Parse(source string) (*Block, CompileError) {
	return NewParser(NewLexerFromString(source)).Run()
}

func (p *Parser) Run() (*Block, CompileError) {
	go p.tokenizer.Do()

	block := &Block{Loc: &Location{Line: 1, Column: 1}}

	p.skipSeparators()
	for tok := p.peek(); tok.Typ != TokenEOF; tok = p.peek() {
		if tok.Typ == TokenError {
			p.lexFail(tok)
			break
		}

		block.Statements = append(block.Statements, p.statement())
		if p.err != nil {
			break
		}

		if !p.endOfStatement() {
			break
		}
	}

	if p.err != nil {
		p.drain()
		return nil, p.err
	}

	return block, nil
}

// drain runs the tokenizer to completion when parsing stops early, so a
// lexer goroutine is never left blocked on its channel after a failed parse.
func (p *Parser) drain() {
	if p.buf != nil && !p.buf.isValid() {
		// The stream already ended in EOF or a lexical error
		return
	}

	for tok := p.tokenizer.Get(); tok.isValid(); tok = p.tokenizer.Get() {
	}
}

func (p *Parser) peek() Token {
	if p.buf == nil {
		temp := p.next()
		p.buf = &temp
	}

	return *p.buf
}

func (p *Parser) next() Token {
	if p.buf != nil {
		if !p.buf.isValid() {
			// If an invalid token is buffered, don't try to get more tokens
			return *p.buf
		}

		temp := p.buf
		p.buf = nil

		return *temp
	}

	tok := p.tokenizer.Get()
	if !tok.isValid() {
		// Keep Error and EOF buffered since no more valid tokens are expected
		p.buf = &tok
	}

	if tok.isComment() {
		return p.next()
	}

	return tok
}

func (p *Parser) expect(typ TokenType) *Token {
	tok := p.next()
	if tok.Typ != typ {
		return nil
	}

	return &tok
}

func (p *Parser) check(typ TokenType) bool {
	return p.peek().Typ == typ
}

func (p *Parser) consume(typ TokenType) bool {
	return p.next().Typ == typ
}

// skipSeparators discards newline and `;` tokens between statements.
func (p *Parser) skipSeparators() {
	for p.check(TokenNewline) {
		p.next()
	}
}

// endOfStatement requires a statement to be followed by a separator, the
// end of the enclosing block, or the end of input.
func (p *Parser) endOfStatement() bool {
	switch tok := p.peek(); tok.Typ {
	case TokenNewline:
		p.skipSeparators()
		return true
	case TokenEOF, TokenCloseCurly:
		return true
	case TokenError:
		p.lexFail(tok)
		return false
	default:
		p.errorf(tok.Loc, "unexpected token '%s' after statement", tok.Value)
		return false
	}
}

func (p *Parser) errorf(loc *Location, format string, args ...interface{}) Expr {
	msg := fmt.Sprintf(format, args...)
	if p.err == nil {
		p.err = &SyntaxError{Loc: loc, Message: msg}
	}

	return &BadExpr{Location: loc, Error: msg}
}

func (p *Parser) lexFail(tok Token) Expr {
	if p.err == nil {
		p.err = &LexicalError{Loc: tok.Loc, Message: tok.Value}
	}

	return &BadExpr{Location: tok.Loc, Error: tok.Value}
}

func (p *Parser) statement() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenTilde:
		return p.patternMatch("~")
	case TokenLet:
		return p.patternMatch("let")
	default:
		return p.expr()
	}
}

func (p *Parser) patternMatch(introducer string) Expr {
	start := p.next().Loc // ~ or let

	pattern := p.pattern()

	if tok := p.peek(); tok.Typ != TokenAssign {
		return p.errorf(tok.Loc, "expected '=' after pattern")
	}
	p.next()

	return &PatternMatch{
		Introducer: introducer,
		Pattern:    pattern,
		Value:      p.expr(),
		Loc:        start,
	}
}

func (p *Parser) pattern() Pattern {
	switch tok := p.peek(); tok.Typ {
	case TokenUnderscore:
		p.next()
		return &WildcardPattern{Loc: tok.Loc}
	case TokenDotDot:
		p.next()
		return &RestPattern{Loc: tok.Loc}
	case TokenInt, TokenFloat, TokenBool, TokenString, TokenMinus:
		return &LiteralPattern{Literal: p.literalForPattern(), Loc: tok.Loc}
	case TokenIdentifier:
		p.next()
		switch p.peek().Typ {
		case TokenOpenParentheses:
			return p.argsPattern(tok)
		case TokenOpenCurly:
			return p.recordPattern(tok)
		default:
			return &BindingPattern{Name: tok.Value, Loc: tok.Loc}
		}
	case TokenError:
		p.lexFail(tok)
		return &WildcardPattern{Loc: tok.Loc}
	default:
		p.errorf(tok.Loc, "expected a pattern, got '%s'", tok.Value)
		return &WildcardPattern{Loc: tok.Loc}
	}
}

func (p *Parser) literalForPattern() Expr {
	negative := false
	loc := p.peek().Loc
	if p.check(TokenMinus) {
		negative = true
		p.next()
	}

	switch tok := p.next(); tok.Typ {
	case TokenInt:
		v, convErr := strconv.ParseInt(tok.Value, 10, 64)
		if convErr != nil {
			return p.errorf(tok.Loc, "invalid integer literal '%s'", tok.Value)
		}
		if negative {
			v = -v
		}

		return &IntLiteral{Value: v, Loc: loc}
	case TokenFloat:
		v, convErr := strconv.ParseFloat(tok.Value, 64)
		if convErr != nil {
			return p.errorf(tok.Loc, "invalid float literal '%s'", tok.Value)
		}
		if negative {
			v = -v
		}

		return &FloatLiteral{Value: v, Loc: loc}
	case TokenBool:
		if negative {
			return p.errorf(tok.Loc, "'-' is not valid before a boolean")
		}

		return &BoolLiteral{Value: tok.Value == "true", Loc: loc}
	case TokenString:
		if negative {
			return p.errorf(tok.Loc, "'-' is not valid before a string")
		}

		return &StringLiteral{Value: tok.Value, Loc: loc}
	default:
		return p.errorf(tok.Loc, "expected a literal, got '%s'", tok.Value)
	}
}

func (p *Parser) argsPattern(name Token) Pattern {
	p.next() // (

	pat := &ArgsPattern{Name: name.Value, Loc: name.Loc}
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseParentheses; tok = p.peek() {
		pat.Args = append(pat.Args, p.pattern())

		if !p.check(TokenComma) {
			break
		}

		p.next() // skip the comma
	}

	if !p.consume(TokenCloseParentheses) {
		p.errorf(name.Loc, "unclosed argument pattern")
	}

	return pat
}

func (p *Parser) recordPattern(name Token) Pattern {
	p.next() // {

	pat := &RecordPattern{Name: name.Value, Loc: name.Loc}
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseCurly; tok = p.peek() {
		switch tok.Typ {
		case TokenDotDot:
			p.next()
			pat.Fields = append(pat.Fields, FieldPattern{Rest: true})
		case TokenIdentifier:
			p.next()
			field := FieldPattern{Name: tok.Value}
			if p.check(TokenColon) {
				p.next()
				field.Pattern = p.pattern()
			}

			pat.Fields = append(pat.Fields, field)
		default:
			p.errorf(tok.Loc, "expected a field pattern, got '%s'", tok.Value)
			return pat
		}

		if !p.check(TokenComma) {
			break
		}

		p.next() // skip the comma
	}

	if !p.consume(TokenCloseCurly) {
		p.errorf(name.Loc, "unclosed record pattern")
	}

	return pat
}

// expr parses with the loosest binding level, the range operators, which
// sit below the logical operators and are non-associative.
func (p *Parser) expr() Expr {
	lhs := p.orExpr()

	switch tok := p.peek(); tok.Typ {
	case TokenRangeUpTo, TokenRangeUpToEq, TokenRangeDownTo, TokenRangeDownToEq, TokenDotDot:
		p.next()

		op := RangeOp(tok.Value)
		if tok.Typ == TokenDotDot {
			// `0..3` is the short form of `0..<3`.
			op = RangeUpTo
		}

		return &RangeExpr{
			Operation: op,
			From:      lhs,
			To:        p.orExpr(),
			Loc:       lhs.GetLocation(),
		}
	}

	return lhs
}

func (p *Parser) orExpr() Expr {
	lhs := p.andExpr()

	for p.check(TokenOr) {
		p.next()

		lhs = &BinaryExpr{
			Operation: BinaryOr,
			Op1:       lhs,
			Op2:       p.andExpr(),
			Loc:       lhs.GetLocation(),
		}
	}

	return lhs
}

func (p *Parser) andExpr() Expr {
	lhs := p.comparisonExpr()

	for p.check(TokenAnd) {
		p.next()

		lhs = &BinaryExpr{
			Operation: BinaryAnd,
			Op1:       lhs,
			Op2:       p.comparisonExpr(),
			Loc:       lhs.GetLocation(),
		}
	}

	return lhs
}

var comparisonOps = map[TokenType]BinaryOp{
	TokenEquals:        BinaryEqual,
	TokenNotEquals:     BinaryNotEqual,
	TokenGreaterEquals: BinaryGreaterEqual,
	TokenGreater:       BinaryGreater,
	TokenLessEquals:    BinaryLessEqual,
	TokenLess:          BinaryLess,
}

func (p *Parser) comparisonExpr() Expr {
	lhs := p.additiveExpr()

	for {
		op, ok := comparisonOps[p.peek().Typ]
		if !ok {
			return lhs
		}
		p.next()

		lhs = &BinaryExpr{
			Operation: op,
			Op1:       lhs,
			Op2:       p.additiveExpr(),
			Loc:       lhs.GetLocation(),
		}
	}
}

func (p *Parser) additiveExpr() Expr {
	lhs := p.multiplicativeExpr()

	for {
		tok := p.peek()
		if tok.Typ != TokenPlus && tok.Typ != TokenMinus {
			return lhs
		}
		p.next()

		// Chained operands (for example 1 - 3 + 1) nest to the left
		lhs = &BinaryExpr{
			Operation: BinaryOp(tok.Value),
			Op1:       lhs,
			Op2:       p.multiplicativeExpr(),
			Loc:       lhs.GetLocation(),
		}
	}
}

func (p *Parser) multiplicativeExpr() Expr {
	lhs := p.unaryExpr()

	for {
		tok := p.peek()
		if tok.Typ != TokenStar && tok.Typ != TokenSlash && tok.Typ != TokenPercent {
			return lhs
		}
		p.next()

		lhs = &BinaryExpr{
			Operation: BinaryOp(tok.Value),
			Op1:       lhs,
			Op2:       p.unaryExpr(),
			Loc:       lhs.GetLocation(),
		}
	}
}

func (p *Parser) unaryExpr() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenNot:
		p.next()
		return &UnaryExpr{Operation: UnaryNot, Operand: p.unaryExpr(), Loc: tok.Loc}
	case TokenBang:
		p.next()
		return &UnaryExpr{Operation: UnaryBang, Operand: p.unaryExpr(), Loc: tok.Loc}
	case TokenMinus:
		p.next()
		return &UnaryExpr{Operation: UnaryNegative, Operand: p.unaryExpr(), Loc: tok.Loc}
	default:
		return p.postfixExpr()
	}
}

// postfixExpr parses field access, tuple access and indexing, which chain
// left to right: a.b[0].1
func (p *Parser) postfixExpr() Expr {
	expr := p.primary()

	for {
		switch tok := p.peek(); {
		case tok.Typ == TokenDot:
			p.next()
			expr = p.fieldAccess(expr)
		case tok.Typ == TokenFloat && strings.HasPrefix(tok.Value, "."):
			// The lexer reads `p.0` as an identifier and the float `.0`;
			// after an expression that is positional field access.
			p.next()
			pos, convErr := strconv.ParseInt(tok.Value[1:], 10, 64)
			if convErr != nil {
				return p.errorf(tok.Loc, "invalid field position '%s'", tok.Value)
			}

			expr = &FieldExpr{
				Base:       expr,
				Position:   pos,
				Positional: true,
				Loc:        expr.GetLocation(),
			}
		case tok.Typ == TokenOpenBracket:
			p.next()
			index := p.expr()
			if !p.consume(TokenCloseBracket) {
				return p.errorf(tok.Loc, "unclosed index expression")
			}

			expr = &IndexExpr{
				Base:  expr,
				Index: index,
				Loc:   expr.GetLocation(),
			}
		default:
			return expr
		}
	}
}

func (p *Parser) fieldAccess(base Expr) Expr {
	switch tok := p.next(); tok.Typ {
	case TokenIdentifier:
		return &FieldExpr{Base: base, Name: tok.Value, Loc: base.GetLocation()}
	case TokenInt:
		pos, convErr := strconv.ParseInt(tok.Value, 10, 64)
		if convErr != nil {
			return p.errorf(tok.Loc, "invalid field position '%s'", tok.Value)
		}

		return &FieldExpr{Base: base, Position: pos, Positional: true, Loc: base.GetLocation()}
	default:
		return p.errorf(tok.Loc, "expected a field name or position after '.'")
	}
}

func (p *Parser) primary() Expr {
	switch tok := p.peek(); tok.Typ {
	case TokenOpenParentheses:
		return p.parenthesisedExpression()
	case TokenInt, TokenFloat, TokenBool, TokenString:
		return p.literal()
	case TokenStringOpen:
		return p.interpolatedString()
	case TokenIf:
		return p.ifExpr()
	case TokenFor:
		return p.forExpr()
	case TokenLog:
		return p.logExpr()
	case TokenIdentifier:
		return p.nameRef()
	case TokenError:
		return p.lexFail(tok)
	default:
		p.next() // skip the errored token
		return p.errorf(tok.Loc, "unexpected token '%s'", tok.Value)
	}
}

func (p *Parser) parenthesisedExpression() Expr {
	if tok := p.next(); tok.Typ != TokenOpenParentheses {
		return p.errorf(tok.Loc, "expected opening parenthesis")
	}

	exp := p.expr()

	if tok := p.next(); tok.Typ != TokenCloseParentheses {
		return p.errorf(tok.Loc, "expected closing parenthesis")
	}

	return exp
}

func (p *Parser) literal() Expr {
	switch tok := p.next(); tok.Typ {
	case TokenInt:
		v, convErr := strconv.ParseInt(tok.Value, 10, 64)
		if convErr != nil {
			return p.errorf(tok.Loc, "invalid integer literal '%s'", tok.Value)
		}

		return &IntLiteral{Value: v, Loc: tok.Loc}
	case TokenFloat:
		v, convErr := strconv.ParseFloat(tok.Value, 64)
		if convErr != nil {
			return p.errorf(tok.Loc, "invalid float literal '%s'", tok.Value)
		}

		return &FloatLiteral{Value: v, Loc: tok.Loc}
	case TokenBool:
		return &BoolLiteral{Value: tok.Value == "true", Loc: tok.Loc}
	case TokenString:
		return &StringLiteral{Value: tok.Value, Loc: tok.Loc}
	default:
		return p.errorf(tok.Loc, "expected a literal, got '%s'", tok.Value)
	}
}

func (p *Parser) interpolatedString() Expr {
	open := p.next() // StringOpen

	lit := &InterpolatedString{Loc: open.Loc}
	if open.Value != "" {
		lit.Parts = append(lit.Parts, StringPart{Raw: open.Value})
	}

	for {
		lit.Parts = append(lit.Parts, StringPart{Embedded: p.expr()})

		switch tok := p.next(); tok.Typ {
		case TokenStringMid:
			if tok.Value != "" {
				lit.Parts = append(lit.Parts, StringPart{Raw: tok.Value})
			}
		case TokenStringClose:
			if tok.Value != "" {
				lit.Parts = append(lit.Parts, StringPart{Raw: tok.Value})
			}

			return lit
		case TokenError:
			return p.lexFail(tok)
		default:
			return p.errorf(tok.Loc, "unterminated string interpolation")
		}
	}
}

func (p *Parser) ifExpr() Expr {
	start := p.next().Loc // if keyword

	cond := p.expr()
	then := p.blockStmt()
	out := &IfExpr{Condition: cond, Then: then, Loc: start}

	if !p.check(TokenElse) {
		return out
	}
	p.next()

	if p.check(TokenIf) {
		out.Else = p.ifExpr()
		return out
	}

	out.Else = p.blockStmt()
	return out
}

func (p *Parser) forExpr() Expr {
	start := p.next().Loc // for keyword

	out := &ForExpr{Loc: start}

	parenthesised := p.check(TokenOpenParentheses)
	if parenthesised {
		p.next()
	}

	for {
		name := p.expect(TokenIdentifier)
		if name == nil {
			return p.errorf(start, "expected a binding name in for loop")
		}

		out.Names = append(out.Names, name.Value)
		if !p.check(TokenComma) {
			break
		}

		p.next() // skip the comma
	}

	if !p.consume(TokenIn) {
		return p.errorf(start, "expected 'in' after for loop bindings")
	}

	out.Iterable = p.expr()

	if parenthesised && !p.consume(TokenCloseParentheses) {
		return p.errorf(start, "unclosed for loop header")
	}

	out.Body = p.blockStmt()
	return out
}

func (p *Parser) logExpr() Expr {
	start := p.next().Loc // log keyword

	if !p.consume(TokenOpenParentheses) {
		return p.errorf(start, "expected '(' after log")
	}

	out := &LogExpr{Loc: start}
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseParentheses; tok = p.peek() {
		out.Args = append(out.Args, p.expr())

		if !p.check(TokenComma) {
			break
		}

		p.next() // skip the comma
	}

	if !p.consume(TokenCloseParentheses) {
		return p.errorf(start, "unclosed log call")
	}

	return out
}

func (p *Parser) nameRef() Expr {
	name := p.next()

	if p.check(TokenNamespace) {
		segments := []string{name.Value}
		for p.check(TokenNamespace) {
			p.next()
			seg := p.expect(TokenIdentifier)
			if seg == nil {
				return p.errorf(name.Loc, "expected a name after '::'")
			}

			segments = append(segments, seg.Value)
		}

		return &NamespacedName{Segments: segments, Loc: name.Loc}
	}

	if p.check(TokenOpenParentheses) {
		return p.funcCall(name)
	}

	return &Identifier{Name: name.Value, Loc: name.Loc}
}

func (p *Parser) funcCall(name Token) Expr {
	p.next() // (

	call := &FuncCall{Name: name.Value, Loc: name.Loc}
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseParentheses; tok = p.peek() {
		call.Args = append(call.Args, p.expr())

		if !p.check(TokenComma) {
			break
		}

		p.next() // skip the comma
	}

	if !p.consume(TokenCloseParentheses) {
		return p.errorf(name.Loc, "unclosed call to '%s'", name.Value)
	}

	return call
}

func (p *Parser) blockStmt() *Block {
	open := p.expect(TokenOpenCurly)
	if open == nil {
		p.errorf(p.peek().Loc, "expected '{'")
		return &Block{}
	}

	block := &Block{Loc: open.Loc}

	p.skipSeparators()
	for tok := p.peek(); tok.isValid() && tok.Typ != TokenCloseCurly; tok = p.peek() {
		block.Statements = append(block.Statements, p.statement())
		if p.err != nil {
			return block
		}

		if !p.endOfBlockStatement() {
			return block
		}
	}

	switch closer := p.next(); closer.Typ {
	case TokenCloseCurly:
		return block
	case TokenError:
		p.lexFail(closer)
		return block
	case TokenEOF:
		p.errorf(closer.Loc, "unclosed block")
		return block
	default:
		p.errorf(closer.Loc, "unexpected token in block")
		return block
	}
}

func (p *Parser) endOfBlockStatement() bool {
	switch tok := p.peek(); tok.Typ {
	case TokenNewline:
		p.skipSeparators()
		return true
	case TokenCloseCurly:
		return true
	case TokenError:
		p.lexFail(tok)
		return false
	case TokenEOF:
		p.errorf(tok.Loc, "unclosed block")
		return false
	default:
		p.errorf(tok.Loc, "unexpected token '%s' after statement", tok.Value)
		return false
	}
}
