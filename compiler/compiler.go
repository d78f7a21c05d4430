// Package compiler implements Slorp's single-pass Pratt compiler: it
// consumes tokens from a scanner and emits bytecode directly into a Chunk
// in one forward walk, with no intermediate AST. Lexical scope (locals,
// block nesting) is resolved on the fly as tokens are consumed.
package compiler

import (
	"strconv"

	"slorp/chunk"
	"slorp/heap"
	"slorp/scanner"
	"slorp/token"
	"slorp/value"
)

// Precedence levels, lowest to highest. parsePrecedence uses these to decide
// how far an infix chain should keep consuming.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or (reserved; not reachable while and/or are non-goals)
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

// parseFn is a prefix or infix parsing function bound to a Compiler method.
// canAssign threads through the call so `a = …`-shaped targets can be
// rejected when the enclosing expression is parsed at too high a
// precedence to be a valid assignment target.
type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LPAREN:        {(*Compiler).grouping, nil, precNone},
		token.MINUS:         {(*Compiler).unary, (*Compiler).binary, precTerm},
		token.PLUS:          {nil, (*Compiler).binary, precTerm},
		token.SLASH:         {nil, (*Compiler).binary, precFactor},
		token.STAR:          {nil, (*Compiler).binary, precFactor},
		token.BANG:          {(*Compiler).unary, nil, precNone},
		token.BANG_EQUAL:    {nil, (*Compiler).binary, precEquality},
		token.EQUAL_EQUAL:   {nil, (*Compiler).binary, precEquality},
		token.GREATER:       {nil, (*Compiler).binary, precComparison},
		token.GREATER_EQUAL: {nil, (*Compiler).binary, precComparison},
		token.LESS:          {nil, (*Compiler).binary, precComparison},
		token.LESS_EQUAL:    {nil, (*Compiler).binary, precComparison},
		token.IDENTIFIER:    {(*Compiler).variable, nil, precNone},
		token.STRING:        {(*Compiler).string_, nil, precNone},
		token.NUMBER:        {(*Compiler).number, nil, precNone},
		token.FALSE:         {(*Compiler).literal, nil, precNone},
		token.NIL:           {(*Compiler).literal, nil, precNone},
		token.TRUE:          {(*Compiler).literal, nil, precNone},
	}
}

func ruleFor(kind token.Kind) parseRule {
	if r, ok := rules[kind]; ok {
		return r
	}
	return parseRule{}
}

const (
	maxLocals    = 256
	maxConstants = 256
)

// local is a compile-time lexical local. Depth == -1 marks "declared but
// not yet initialized", which rejects self-referential initializers like
// `dat x = x;`. A local's index in this slice equals its runtime slot on
// the VM's value stack — the single most important invariant tying compile
// time to run time (see table 4 of the design notes).
type local struct {
	name  token.Token
	depth int
}

// Compiler holds all state for one single-pass compile: a Scanner to pull
// tokens from, the Chunk being built, and the locals stack tracking lexical
// scope. A Compiler is constructed fresh per Compile call and never reused,
// so REPL lines never leak locals-stack state into one another.
type Compiler struct {
	scanner *scanner.Scanner
	heap    *heap.Heap
	chunk   *chunk.Chunk

	previous token.Token
	current  token.Token

	locals     []local
	scopeDepth int

	errors    []SyntaxError
	panicMode bool
}

// Compile compiles source into bytecode using h as the shared intern set
// and object heap. It returns the resulting Chunk and, if any error was
// recorded, a non-nil *CompileError aggregating every diagnostic.
func Compile(source string, h *heap.Heap) (*chunk.Chunk, error) {
	c := &Compiler{
		scanner: scanner.New(source),
		heap:    h,
		chunk:   chunk.New(),
	}
	c.advance()
	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "expect end of expression")
	c.emitReturn()

	if len(c.errors) > 0 {
		return c.chunk, &CompileError{Errors: c.errors}
	}
	return c.chunk, nil
}

/* token stream plumbing */

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.scanner.ScanToken()
		if c.current.Kind != token.ERROR {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.current.Kind == kind
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, message string) {
	if c.current.Kind == kind {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

/* emission helpers */

func (c *Compiler) emitOp(op chunk.Opcode, operands ...byte) {
	c.chunk.WriteOp(op, c.previous.Line, operands...)
}

func (c *Compiler) emitReturn() {
	c.emitOp(chunk.OpReturn)
}

// emitConstant appends val to the chunk's constant pool and emits
// OP_CONSTANT referencing it.
func (c *Compiler) emitConstant(val value.Value) {
	c.emitOp(chunk.OpConstant, c.makeConstant(val))
}

func (c *Compiler) makeConstant(val value.Value) byte {
	idx := c.chunk.AddConstant(val)
	if idx >= maxConstants {
		c.error("too many constants in one chunk")
		return 0
	}
	return byte(idx)
}

/* declarations and statements */

func (c *Compiler) declaration() {
	if c.match(token.DAT) {
		c.datDeclaration()
	} else {
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

// datDeclaration compiles `dat name (= expr)? ;`. Net stack effect is +1 in
// local scope (the initializer value stays live as the local's slot) and 0
// at global scope (DEFINE_GLOBAL consumes the initializer value).
func (c *Compiler) datDeclaration() {
	global := c.parseVariable("expect variable name")

	if c.match(token.ASSIGN) {
		c.expression()
	} else {
		c.emitOp(chunk.OpNil)
	}
	c.consume(token.SEMICOLON, "expect ';' after variable declaration")

	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.PRINT):
		c.printStatement()
	case c.match(token.LBRACE):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after value")
	c.emitOp(chunk.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.SEMICOLON, "expect ';' after expression")
	c.emitOp(chunk.OpPop)
}

func (c *Compiler) block() {
	for !c.check(token.RBRACE) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RBRACE, "expect '}' after block")
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops one runtime stack slot for every local the scope is about
// to discard, keeping the VM's stack exactly mirroring the compile-time
// locals stack it is modeled after.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(chunk.OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

/* expressions */

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := ruleFor(c.previous.Kind).prefix
	if prefix == nil {
		c.error("expected expression")
		return
	}

	canAssign := prec <= precAssignment
	prefix(c, canAssign)

	for prec <= ruleFor(c.current.Kind).precedence {
		c.advance()
		infix := ruleFor(c.previous.Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) number(_ bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstant(value.NumberValue(n))
}

func (c *Compiler) string_(_ bool) {
	lexeme := c.previous.Lexeme
	unquoted := lexeme[1 : len(lexeme)-1]
	obj := c.heap.InternString(unquoted)
	c.emitConstant(value.ObjValue(obj))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous.Kind {
	case token.FALSE:
		c.emitOp(chunk.OpFalse)
	case token.TRUE:
		c.emitOp(chunk.OpTrue)
	case token.NIL:
		c.emitOp(chunk.OpNil)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RPAREN, "expect ')' after expression")
}

func (c *Compiler) unary(_ bool) {
	op := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		c.emitOp(chunk.OpNot)
	case token.MINUS:
		c.emitOp(chunk.OpNegate)
	}
}

// binary compiles the right-hand operand (at one precedence level higher,
// for left associativity) then emits the operator. `!=` and the two
// *_EQUAL comparisons are each compiled as two opcodes rather than given
// their own, per spec.
func (c *Compiler) binary(_ bool) {
	op := c.previous.Kind
	rule := ruleFor(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.BANG_EQUAL:
		c.emitOp(chunk.OpEqual)
		c.emitOp(chunk.OpNot)
	case token.EQUAL_EQUAL:
		c.emitOp(chunk.OpEqual)
	case token.GREATER:
		c.emitOp(chunk.OpGreater)
	case token.GREATER_EQUAL:
		c.emitOp(chunk.OpLess)
		c.emitOp(chunk.OpNot)
	case token.LESS:
		c.emitOp(chunk.OpLess)
	case token.LESS_EQUAL:
		c.emitOp(chunk.OpGreater)
		c.emitOp(chunk.OpNot)
	case token.PLUS:
		c.emitOp(chunk.OpAdd)
	case token.MINUS:
		c.emitOp(chunk.OpSubtract)
	case token.STAR:
		c.emitOp(chunk.OpMultiply)
	case token.SLASH:
		c.emitOp(chunk.OpDivide)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	slot, isLocal := c.resolveLocal(name)

	var getOp, setOp chunk.Opcode
	var arg byte
	if isLocal {
		getOp, setOp = chunk.OpGetLocal, chunk.OpSetLocal
		arg = byte(slot)
	} else {
		getOp, setOp = chunk.OpGetGlobal, chunk.OpSetGlobal
		arg = c.identifierConstant(name)
	}

	if canAssign && c.match(token.ASSIGN) {
		c.expression()
		c.emitOp(setOp, arg)
	} else {
		c.emitOp(getOp, arg)
	}
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	obj := c.heap.InternString(name.Lexeme)
	return c.makeConstant(value.ObjValue(obj))
}

/* variable declaration / scope resolution */

// parseVariable consumes the variable's name, declares it (as a local if
// inside a scope) and returns the constant-pool index to hand to
// OP_DEFINE_GLOBAL — meaningless (and unused) for a local.
func (c *Compiler) parseVariable(errorMessage string) byte {
	c.consume(token.IDENTIFIER, errorMessage)

	c.declareVariable()
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(c.previous)
}

// declareVariable adds the current token as a new local when inside a
// scope; at global scope it is a no-op (globals live in the VM's globals
// table, not this array). Duplicate names at the exact same depth are
// rejected; shadowing an outer scope's local of the same name is allowed.
func (c *Compiler) declareVariable() {
	if c.scopeDepth == 0 {
		return
	}
	name := c.previous
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth != -1 && l.depth < c.scopeDepth {
			break
		}
		if l.name.Lexeme == name.Lexeme {
			c.error("already a variable with this name in this scope")
		}
	}
	c.addLocal(name)
}

func (c *Compiler) addLocal(name token.Token) {
	if len(c.locals) >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	c.locals = append(c.locals, local{name: name, depth: -1})
}

// defineVariable marks the most recently declared local as initialized
// (making it visible to subsequent reads — this is what rejects
// `dat x = x;`) or, at global scope, emits OP_DEFINE_GLOBAL.
func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitOp(chunk.OpDefineGlobal, global)
}

func (c *Compiler) markInitialized() {
	c.locals[len(c.locals)-1].depth = c.scopeDepth
}

// resolveLocal walks the locals stack from the top (innermost scope) down,
// so shadowing resolves to the nearest declaration. depth == -1 on the
// match means the name is being read from inside its own initializer.
func (c *Compiler) resolveLocal(name token.Token) (slot int, ok bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.name.Lexeme == name.Lexeme {
			if l.depth == -1 {
				c.error("can't read local variable in its own initializer")
			}
			return i, true
		}
	}
	return 0, false
}

/* error handling */

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.errors = append(c.errors, SyntaxError{Line: tok.Line, Message: message})
}

// synchronize advances past the rest of the broken statement, stopping
// just after a ';' or right before a token that starts a new statement, so
// one mistake doesn't cascade into a wall of spurious errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Kind != token.EOF {
		if c.previous.Kind == token.SEMICOLON {
			return
		}
		switch c.current.Kind {
		case token.CLASS, token.FUNC, token.DAT, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		c.advance()
	}
}
