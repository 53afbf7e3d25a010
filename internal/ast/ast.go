// Package ast defines the abstract syntax tree consumed by the resource
// verifier. The tree is produced by the front end (or decoded from a scope
// file); the verifier only reads it, so nodes carry no mutable analysis
// state. Every node records the source span it was parsed from.
package ast

import (
	"fmt"
	"strings"

	"github.com/aether-lang/aether/internal/position"
)

// Node is the interface implemented by all AST nodes.
type Node interface {
	GetSpan() position.Span
	String() string
}

// Statement is implemented by all statement nodes.
type Statement interface {
	Node
	statementNode()
}

// Expression is implemented by all expression nodes.
type Expression interface {
	Node
	expressionNode()
}

// ==========================================================================
// Expressions
// ==========================================================================

// Identifier is a reference to a named binding.
type Identifier struct {
	Span  position.Span
	Value string
}

func (i *Identifier) GetSpan() position.Span { return i.Span }
func (i *Identifier) String() string         { return i.Value }
func (i *Identifier) expressionNode()        {}

// LiteralKind discriminates literal values.
type LiteralKind int

const (
	LiteralInteger LiteralKind = iota
	LiteralFloat
	LiteralString
	LiteralBoolean
	LiteralNull
)

func (k LiteralKind) String() string {
	switch k {
	case LiteralInteger:
		return "integer"
	case LiteralFloat:
		return "float"
	case LiteralString:
		return "string"
	case LiteralBoolean:
		return "boolean"
	case LiteralNull:
		return "null"
	default:
		return "unknown"
	}
}

// Literal is a literal value of any kind. Value holds the decoded Go
// representation (int64, float64, string, bool, or nil for null).
type Literal struct {
	Span  position.Span
	Kind  LiteralKind
	Value interface{}
}

func (l *Literal) GetSpan() position.Span { return l.Span }
func (l *Literal) expressionNode()        {}

func (l *Literal) String() string {
	if l.Kind == LiteralNull {
		return "null"
	}
	if l.Kind == LiteralString {
		return fmt.Sprintf("%q", l.Value)
	}
	return fmt.Sprintf("%v", l.Value)
}

// Operator enumerates binary and unary operators.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
	OpNeg
)

func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	default:
		return "?"
	}
}

// ParseOperator converts an operator token to its Operator value. Unary
// minus cannot be distinguished from subtraction by token alone; callers
// decoding unary expressions map "-" to OpNeg themselves.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "+":
		return OpAdd, nil
	case "-":
		return OpSub, nil
	case "*":
		return OpMul, nil
	case "/":
		return OpDiv, nil
	case "%":
		return OpMod, nil
	case "==":
		return OpEq, nil
	case "!=":
		return OpNe, nil
	case "<":
		return OpLt, nil
	case "<=":
		return OpLe, nil
	case ">":
		return OpGt, nil
	case ">=":
		return OpGe, nil
	case "&&":
		return OpAnd, nil
	case "||":
		return OpOr, nil
	case "!":
		return OpNot, nil
	default:
		return OpAdd, fmt.Errorf("unknown operator %q", s)
	}
}

// BinaryExpression applies an operator to two operands.
type BinaryExpression struct {
	Span     position.Span
	Left     Expression
	Operator Operator
	Right    Expression
}

func (b *BinaryExpression) GetSpan() position.Span { return b.Span }
func (b *BinaryExpression) expressionNode()        {}

func (b *BinaryExpression) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Operator, b.Right)
}

// UnaryExpression applies an operator to a single operand.
type UnaryExpression struct {
	Span     position.Span
	Operator Operator
	Operand  Expression
}

func (u *UnaryExpression) GetSpan() position.Span { return u.Span }
func (u *UnaryExpression) expressionNode()        {}

func (u *UnaryExpression) String() string {
	return fmt.Sprintf("(%s%s)", u.Operator, u.Operand)
}

// CallExpression invokes a function with arguments.
type CallExpression struct {
	Span      position.Span
	Function  Expression
	Arguments []Expression
}

func (c *CallExpression) GetSpan() position.Span { return c.Span }
func (c *CallExpression) expressionNode()        {}

func (c *CallExpression) String() string {
	args := make([]string, len(c.Arguments))
	for i, a := range c.Arguments {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Function, strings.Join(args, ", "))
}

// MemberExpression accesses a field or method of an object.
type MemberExpression struct {
	Span   position.Span
	Object Expression
	Member *Identifier
}

func (m *MemberExpression) GetSpan() position.Span { return m.Span }
func (m *MemberExpression) expressionNode()        {}

func (m *MemberExpression) String() string {
	return fmt.Sprintf("%s.%s", m.Object, m.Member)
}

// ==========================================================================
// Statements
// ==========================================================================

// BlockStatement is a brace-delimited sequence of statements.
type BlockStatement struct {
	Span       position.Span
	Statements []Statement
}

func (b *BlockStatement) GetSpan() position.Span { return b.Span }
func (b *BlockStatement) statementNode()         {}

func (b *BlockStatement) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, s := range b.Statements {
		sb.WriteString(s.String())
		sb.WriteString("; ")
	}
	sb.WriteString("}")
	return sb.String()
}

// ExpressionStatement evaluates an expression for its effect.
type ExpressionStatement struct {
	Span       position.Span
	Expression Expression
}

func (e *ExpressionStatement) GetSpan() position.Span { return e.Span }
func (e *ExpressionStatement) statementNode()         {}
func (e *ExpressionStatement) String() string         { return e.Expression.String() }

// AssignmentStatement stores a value into a target.
type AssignmentStatement struct {
	Span   position.Span
	Target Expression
	Value  Expression
}

func (a *AssignmentStatement) GetSpan() position.Span { return a.Span }
func (a *AssignmentStatement) statementNode()         {}

func (a *AssignmentStatement) String() string {
	return fmt.Sprintf("%s = %s", a.Target, a.Value)
}

// IfStatement conditionally executes one of two branches. Else is nil,
// a *BlockStatement, or another *IfStatement (else-if chain).
type IfStatement struct {
	Span      position.Span
	Condition Expression
	Then      *BlockStatement
	Else      Statement
}

func (i *IfStatement) GetSpan() position.Span { return i.Span }
func (i *IfStatement) statementNode()         {}

func (i *IfStatement) String() string {
	if i.Else == nil {
		return fmt.Sprintf("if %s %s", i.Condition, i.Then)
	}
	return fmt.Sprintf("if %s %s else %s", i.Condition, i.Then, i.Else)
}

// WhileStatement repeats a body while a condition holds.
type WhileStatement struct {
	Span      position.Span
	Condition Expression
	Body      *BlockStatement
}

func (w *WhileStatement) GetSpan() position.Span { return w.Span }
func (w *WhileStatement) statementNode()         {}

func (w *WhileStatement) String() string {
	return fmt.Sprintf("while %s %s", w.Condition, w.Body)
}

// ReturnStatement exits the enclosing function. Value may be nil.
type ReturnStatement struct {
	Span  position.Span
	Value Expression
}

func (r *ReturnStatement) GetSpan() position.Span { return r.Span }
func (r *ReturnStatement) statementNode()         {}

func (r *ReturnStatement) String() string {
	if r.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", r.Value)
}

// ReleaseStatement releases a resource binding before its scope ends.
type ReleaseStatement struct {
	Span    position.Span
	Binding *Identifier
}

func (r *ReleaseStatement) GetSpan() position.Span { return r.Span }
func (r *ReleaseStatement) statementNode()         {}

func (r *ReleaseStatement) String() string {
	return fmt.Sprintf("release %s", r.Binding)
}

// ==========================================================================
// Declarations
// ==========================================================================

// Parameter is a single function parameter. TypeName is the declared type
// by name; the verifier never interprets types beyond display.
type Parameter struct {
	Span     position.Span
	Name     *Identifier
	TypeName string
}

func (p *Parameter) GetSpan() position.Span { return p.Span }

func (p *Parameter) String() string {
	if p.TypeName == "" {
		return p.Name.String()
	}
	return fmt.Sprintf("%s: %s", p.Name, p.TypeName)
}

// FunctionDeclaration is a named function together with its optional
// resource contract. Contract is nil when the function declares no budgets.
type FunctionDeclaration struct {
	Span       position.Span
	Name       *Identifier
	Parameters []*Parameter
	ReturnType string
	Body       *BlockStatement
	Contract   *ResourceContract
}

func (f *FunctionDeclaration) GetSpan() position.Span { return f.Span }
func (f *FunctionDeclaration) statementNode()         {}

func (f *FunctionDeclaration) String() string {
	params := make([]string, len(f.Parameters))
	for i, p := range f.Parameters {
		params[i] = p.String()
	}
	sig := fmt.Sprintf("fn %s(%s)", f.Name, strings.Join(params, ", "))
	if f.ReturnType != "" {
		sig += " -> " + f.ReturnType
	}
	return sig
}

// Module is a compilation unit: a named collection of functions.
type Module struct {
	Span      position.Span
	Name      string
	Functions []*FunctionDeclaration
}

func (m *Module) GetSpan() position.Span { return m.Span }

func (m *Module) String() string {
	return fmt.Sprintf("module %s (%d functions)", m.Name, len(m.Functions))
}

// Program is the root of a verification run: one or more modules.
type Program struct {
	Span    position.Span
	Modules []*Module
}

func (p *Program) GetSpan() position.Span { return p.Span }

func (p *Program) String() string {
	return fmt.Sprintf("program (%d modules)", len(p.Modules))
}
