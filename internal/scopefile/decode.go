package scopefile

import (
	"fmt"

	"github.com/francoispqt/gojay"

	"github.com/aether-lang/aether/internal/ast"
	"github.com/aether-lang/aether/internal/position"
)

// The decode layer uses envelope structs: gojay fills them key by key,
// then toXxx methods validate and convert to AST nodes. Node kinds are
// discriminated by a "kind" key, which may appear anywhere in the object.

// ==========================================================================
// Spans
// ==========================================================================

type spanEnvelope struct {
	file    string
	line    int
	col     int
	endLine int
	endCol  int
}

func (s *spanEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "file":
		return dec.String(&s.file)
	case "line":
		return dec.Int(&s.line)
	case "col":
		return dec.Int(&s.col)
	case "end_line":
		return dec.Int(&s.endLine)
	case "end_col":
		return dec.Int(&s.endCol)
	}
	return nil
}

func (s *spanEnvelope) NKeys() int { return 0 }

func (s *spanEnvelope) span() position.Span {
	if s == nil {
		return position.Span{}
	}
	endLine, endCol := s.endLine, s.endCol
	if endLine == 0 {
		endLine = s.line
	}
	if endCol == 0 {
		endCol = s.col
	}
	return position.NewSpan(
		position.NewPosition(s.file, s.line, s.col),
		position.NewPosition(s.file, endLine, endCol),
	)
}

// ==========================================================================
// Expressions
// ==========================================================================

type exprEnvelope struct {
	kind string
	span *spanEnvelope

	name string

	intVal   int64
	floatVal float64
	strVal   string
	boolVal  bool
	hasInt   bool
	hasFloat bool
	hasStr   bool
	hasBool  bool
	isNull   bool

	op       string
	left     *exprEnvelope
	right    *exprEnvelope
	operand  *exprEnvelope
	function *exprEnvelope
	args     exprList
	object   *exprEnvelope
	member   string
}

type exprList []*exprEnvelope

func (l *exprList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &exprEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (e *exprEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "kind":
		return dec.String(&e.kind)
	case "span":
		e.span = &spanEnvelope{}
		return dec.Object(e.span)
	case "name":
		return dec.String(&e.name)
	case "int":
		e.hasInt = true
		return dec.Int64(&e.intVal)
	case "float":
		e.hasFloat = true
		return dec.Float64(&e.floatVal)
	case "string":
		e.hasStr = true
		return dec.String(&e.strVal)
	case "bool":
		e.hasBool = true
		return dec.Bool(&e.boolVal)
	case "null":
		return dec.Bool(&e.isNull)
	case "op":
		return dec.String(&e.op)
	case "left":
		e.left = &exprEnvelope{}
		return dec.Object(e.left)
	case "right":
		e.right = &exprEnvelope{}
		return dec.Object(e.right)
	case "operand":
		e.operand = &exprEnvelope{}
		return dec.Object(e.operand)
	case "function":
		e.function = &exprEnvelope{}
		return dec.Object(e.function)
	case "args":
		return dec.Array(&e.args)
	case "object":
		e.object = &exprEnvelope{}
		return dec.Object(e.object)
	case "member":
		return dec.String(&e.member)
	}
	return nil
}

func (e *exprEnvelope) NKeys() int { return 0 }

func (e *exprEnvelope) toExpr() (ast.Expression, error) {
	if e == nil {
		return nil, nil
	}
	span := e.span.span()
	switch e.kind {
	case "ident":
		if e.name == "" {
			return nil, fmt.Errorf("ident node has no name")
		}
		return &ast.Identifier{Span: span, Value: e.name}, nil
	case "literal":
		return e.toLiteral(span)
	case "binary":
		op, err := ast.ParseOperator(e.op)
		if err != nil {
			return nil, err
		}
		left, err := e.left.toExpr()
		if err != nil {
			return nil, err
		}
		right, err := e.right.toExpr()
		if err != nil {
			return nil, err
		}
		if left == nil || right == nil {
			return nil, fmt.Errorf("binary node is missing an operand")
		}
		return &ast.BinaryExpression{Span: span, Left: left, Operator: op, Right: right}, nil
	case "unary":
		operand, err := e.operand.toExpr()
		if err != nil {
			return nil, err
		}
		if operand == nil {
			return nil, fmt.Errorf("unary node has no operand")
		}
		var op ast.Operator
		switch e.op {
		case "-":
			op = ast.OpNeg
		case "!":
			op = ast.OpNot
		default:
			return nil, fmt.Errorf("unknown unary operator %q", e.op)
		}
		return &ast.UnaryExpression{Span: span, Operator: op, Operand: operand}, nil
	case "call":
		fn, err := e.function.toExpr()
		if err != nil {
			return nil, err
		}
		if fn == nil {
			return nil, fmt.Errorf("call node has no function")
		}
		args := make([]ast.Expression, 0, len(e.args))
		for _, a := range e.args {
			arg, err := a.toExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &ast.CallExpression{Span: span, Function: fn, Arguments: args}, nil
	case "member":
		obj, err := e.object.toExpr()
		if err != nil {
			return nil, err
		}
		if obj == nil || e.member == "" {
			return nil, fmt.Errorf("member node needs object and member")
		}
		return &ast.MemberExpression{
			Span:   span,
			Object: obj,
			Member: &ast.Identifier{Span: span, Value: e.member},
		}, nil
	case "":
		return nil, fmt.Errorf("expression node has no kind")
	default:
		return nil, fmt.Errorf("unknown expression kind %q", e.kind)
	}
}

func (e *exprEnvelope) toLiteral(span position.Span) (ast.Expression, error) {
	switch {
	case e.isNull:
		return &ast.Literal{Span: span, Kind: ast.LiteralNull}, nil
	case e.hasInt:
		return &ast.Literal{Span: span, Kind: ast.LiteralInteger, Value: e.intVal}, nil
	case e.hasFloat:
		return &ast.Literal{Span: span, Kind: ast.LiteralFloat, Value: e.floatVal}, nil
	case e.hasStr:
		return &ast.Literal{Span: span, Kind: ast.LiteralString, Value: e.strVal}, nil
	case e.hasBool:
		return &ast.Literal{Span: span, Kind: ast.LiteralBoolean, Value: e.boolVal}, nil
	default:
		return nil, fmt.Errorf("literal node has no value")
	}
}

// ==========================================================================
// Statements
// ==========================================================================

type stmtEnvelope struct {
	kind string
	span *spanEnvelope

	statements stmtList

	expr *exprEnvelope

	target *exprEnvelope
	value  *exprEnvelope

	cond     *exprEnvelope
	thenBody *stmtEnvelope
	elseBody *stmtEnvelope
	body     *stmtEnvelope

	binding string

	scopeID       string
	guaranteed    bool
	hasGuaranteed bool
	order         string
	invariants    stringList
	resources     resourceList
}

type stmtList []*stmtEnvelope

func (l *stmtList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &stmtEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

type stringList []string

func (l *stringList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	var s string
	if err := dec.String(&s); err != nil {
		return err
	}
	*l = append(*l, s)
	return nil
}

func (s *stmtEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "kind":
		return dec.String(&s.kind)
	case "span":
		s.span = &spanEnvelope{}
		return dec.Object(s.span)
	case "statements":
		return dec.Array(&s.statements)
	case "expr":
		s.expr = &exprEnvelope{}
		return dec.Object(s.expr)
	case "target":
		s.target = &exprEnvelope{}
		return dec.Object(s.target)
	case "value":
		s.value = &exprEnvelope{}
		return dec.Object(s.value)
	case "cond":
		s.cond = &exprEnvelope{}
		return dec.Object(s.cond)
	case "then":
		s.thenBody = &stmtEnvelope{}
		return dec.Object(s.thenBody)
	case "else":
		s.elseBody = &stmtEnvelope{}
		return dec.Object(s.elseBody)
	case "body":
		s.body = &stmtEnvelope{}
		return dec.Object(s.body)
	case "binding":
		return dec.String(&s.binding)
	case "scope_id":
		return dec.String(&s.scopeID)
	case "cleanup_guaranteed":
		s.hasGuaranteed = true
		return dec.Bool(&s.guaranteed)
	case "cleanup_order":
		return dec.String(&s.order)
	case "invariants":
		return dec.Array(&s.invariants)
	case "resources":
		return dec.Array(&s.resources)
	}
	return nil
}

func (s *stmtEnvelope) NKeys() int { return 0 }

func (s *stmtEnvelope) toBlock() (*ast.BlockStatement, error) {
	if s == nil {
		return &ast.BlockStatement{}, nil
	}
	if s.kind != "" && s.kind != "block" {
		return nil, fmt.Errorf("expected block, got %q", s.kind)
	}
	block := &ast.BlockStatement{Span: s.span.span()}
	for _, stmt := range s.statements {
		converted, err := stmt.toStmt()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, converted)
	}
	return block, nil
}

func (s *stmtEnvelope) toStmt() (ast.Statement, error) {
	span := s.span.span()
	switch s.kind {
	case "block":
		return s.toBlock()
	case "expr":
		expr, err := s.expr.toExpr()
		if err != nil {
			return nil, err
		}
		if expr == nil {
			return nil, fmt.Errorf("expr statement has no expression")
		}
		return &ast.ExpressionStatement{Span: span, Expression: expr}, nil
	case "assign":
		target, err := s.target.toExpr()
		if err != nil {
			return nil, err
		}
		value, err := s.value.toExpr()
		if err != nil {
			return nil, err
		}
		if target == nil || value == nil {
			return nil, fmt.Errorf("assign statement needs target and value")
		}
		return &ast.AssignmentStatement{Span: span, Target: target, Value: value}, nil
	case "if":
		cond, err := s.cond.toExpr()
		if err != nil {
			return nil, err
		}
		if cond == nil {
			return nil, fmt.Errorf("if statement has no condition")
		}
		then, err := s.thenBody.toBlock()
		if err != nil {
			return nil, err
		}
		stmt := &ast.IfStatement{Span: span, Condition: cond, Then: then}
		if s.elseBody != nil {
			elseStmt, err := s.elseBody.toStmt()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseStmt
		}
		return stmt, nil
	case "while":
		cond, err := s.cond.toExpr()
		if err != nil {
			return nil, err
		}
		if cond == nil {
			return nil, fmt.Errorf("while statement has no condition")
		}
		body, err := s.body.toBlock()
		if err != nil {
			return nil, err
		}
		return &ast.WhileStatement{Span: span, Condition: cond, Body: body}, nil
	case "return":
		value, err := s.value.toExpr()
		if err != nil {
			return nil, err
		}
		return &ast.ReturnStatement{Span: span, Value: value}, nil
	case "release":
		if s.binding == "" {
			return nil, fmt.Errorf("release statement has no binding")
		}
		return &ast.ReleaseStatement{
			Span:    span,
			Binding: &ast.Identifier{Span: span, Value: s.binding},
		}, nil
	case "resource_scope":
		return s.toResourceScope(span)
	case "":
		return nil, fmt.Errorf("statement node has no kind")
	default:
		return nil, fmt.Errorf("unknown statement kind %q", s.kind)
	}
}

func (s *stmtEnvelope) toResourceScope(span position.Span) (*ast.ResourceScope, error) {
	scope := &ast.ResourceScope{
		Span:              span,
		ScopeID:           s.scopeID,
		Invariants:        s.invariants,
		CleanupGuaranteed: true,
	}
	if s.hasGuaranteed {
		scope.CleanupGuaranteed = s.guaranteed
	}
	order, err := ast.ParseCleanupOrder(s.order)
	if err != nil {
		return nil, err
	}
	scope.CleanupOrder = order

	for _, res := range s.resources {
		acq, err := res.toAcquisition()
		if err != nil {
			return nil, fmt.Errorf("scope %q: %w", s.scopeID, err)
		}
		scope.Resources = append(scope.Resources, acq)
	}

	body, err := s.body.toBlock()
	if err != nil {
		return nil, fmt.Errorf("scope %q: %w", s.scopeID, err)
	}
	scope.Body = body
	return scope, nil
}

// ==========================================================================
// Acquisitions
// ==========================================================================

type resourceEnvelope struct {
	span        *spanEnvelope
	category    string
	binding     string
	typeName    string
	acquisition *exprEnvelope
	cleanup     *cleanupEnvelope
	parameters  paramList
	lifecycle   *lifecycleEnvelope
}

type resourceList []*resourceEnvelope

func (l *resourceList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &resourceEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (r *resourceEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "span":
		r.span = &spanEnvelope{}
		return dec.Object(r.span)
	case "category":
		return dec.String(&r.category)
	case "binding":
		return dec.String(&r.binding)
	case "type":
		return dec.String(&r.typeName)
	case "acquisition":
		r.acquisition = &exprEnvelope{}
		return dec.Object(r.acquisition)
	case "cleanup":
		r.cleanup = &cleanupEnvelope{}
		return dec.Object(r.cleanup)
	case "parameters":
		return dec.Array(&r.parameters)
	case "lifecycle":
		r.lifecycle = &lifecycleEnvelope{}
		return dec.Object(r.lifecycle)
	}
	return nil
}

func (r *resourceEnvelope) NKeys() int { return 0 }

func (r *resourceEnvelope) toAcquisition() (*ast.ResourceAcquisition, error) {
	if r.binding == "" {
		return nil, fmt.Errorf("resource acquisition has no binding")
	}
	if r.category == "" {
		return nil, fmt.Errorf("resource %q has no category", r.binding)
	}
	acquisition, err := r.acquisition.toExpr()
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.binding, err)
	}
	if acquisition == nil {
		return nil, fmt.Errorf("resource %q has no acquisition expression", r.binding)
	}

	span := r.span.span()
	out := &ast.ResourceAcquisition{
		Span:        span,
		Category:    r.category,
		Binding:     &ast.Identifier{Span: span, Value: r.binding},
		TypeName:    r.typeName,
		Acquisition: acquisition,
	}

	out.Cleanup, err = r.cleanup.toCleanup()
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.binding, err)
	}

	for _, p := range r.parameters {
		value, err := p.value.toExpr()
		if err != nil {
			return nil, fmt.Errorf("resource %q parameter %q: %w", r.binding, p.name, err)
		}
		out.Parameters = append(out.Parameters, ast.ResourceParameter{Name: p.name, Value: value})
	}

	out.Lifecycle, err = r.lifecycle.toLifecycle()
	if err != nil {
		return nil, fmt.Errorf("resource %q: %w", r.binding, err)
	}
	return out, nil
}

type cleanupEnvelope struct {
	kind         string
	name         string
	passResource bool
	expr         *exprEnvelope
}

func (c *cleanupEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "kind":
		return dec.String(&c.kind)
	case "name":
		return dec.String(&c.name)
	case "pass_resource":
		return dec.Bool(&c.passResource)
	case "expr":
		c.expr = &exprEnvelope{}
		return dec.Object(c.expr)
	}
	return nil
}

func (c *cleanupEnvelope) NKeys() int { return 0 }

func (c *cleanupEnvelope) toCleanup() (ast.CleanupSpec, error) {
	if c == nil {
		return &ast.CleanupAutomatic{}, nil
	}
	switch c.kind {
	case "function":
		if c.name == "" {
			return nil, fmt.Errorf("cleanup function has no name")
		}
		return &ast.CleanupFunction{Name: c.name, PassResource: c.passResource}, nil
	case "method":
		if c.name == "" {
			return nil, fmt.Errorf("cleanup method has no name")
		}
		return &ast.CleanupMethod{Name: c.name}, nil
	case "expression":
		expr, err := c.expr.toExpr()
		if err != nil {
			return nil, err
		}
		if expr == nil {
			return nil, fmt.Errorf("cleanup expression is missing")
		}
		return &ast.CleanupExpression{Expr: expr}, nil
	case "automatic", "":
		return &ast.CleanupAutomatic{}, nil
	default:
		return nil, fmt.Errorf("unknown cleanup kind %q", c.kind)
	}
}

type paramEnvelope struct {
	name  string
	value *exprEnvelope
}

type paramList []*paramEnvelope

func (l *paramList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &paramEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (p *paramEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "name":
		return dec.String(&p.name)
	case "value":
		p.value = &exprEnvelope{}
		return dec.Object(p.value)
	}
	return nil
}

func (p *paramEnvelope) NKeys() int { return 0 }

type lifecycleEnvelope struct {
	preAcquire       *exprEnvelope
	postAcquire      *exprEnvelope
	preRelease       *exprEnvelope
	postRelease      *exprEnvelope
	onAcquireFailure *exprEnvelope
	onReleaseFailure *exprEnvelope
}

func (l *lifecycleEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	target := map[string]**exprEnvelope{
		"pre_acquire":        &l.preAcquire,
		"post_acquire":       &l.postAcquire,
		"pre_release":        &l.preRelease,
		"post_release":       &l.postRelease,
		"on_acquire_failure": &l.onAcquireFailure,
		"on_release_failure": &l.onReleaseFailure,
	}[key]
	if target == nil {
		return nil
	}
	*target = &exprEnvelope{}
	return dec.Object(*target)
}

func (l *lifecycleEnvelope) NKeys() int { return 0 }

func (l *lifecycleEnvelope) toLifecycle() (*ast.ResourceLifecycle, error) {
	if l == nil {
		return nil, nil
	}
	out := &ast.ResourceLifecycle{}
	for _, hook := range []struct {
		env *exprEnvelope
		dst *ast.Expression
	}{
		{l.preAcquire, &out.PreAcquire},
		{l.postAcquire, &out.PostAcquire},
		{l.preRelease, &out.PreRelease},
		{l.postRelease, &out.PostRelease},
		{l.onAcquireFailure, &out.OnAcquireFailure},
		{l.onReleaseFailure, &out.OnReleaseFailure},
	} {
		expr, err := hook.env.toExpr()
		if err != nil {
			return nil, err
		}
		*hook.dst = expr
	}
	return out, nil
}

// ==========================================================================
// Contracts and pools
// ==========================================================================

type enforcementEnvelope struct {
	mode      string
	threshold int
}

func (e *enforcementEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "mode":
		return dec.String(&e.mode)
	case "warn_threshold_percent":
		return dec.Int(&e.threshold)
	}
	return nil
}

func (e *enforcementEnvelope) NKeys() int { return 0 }

type contractEnvelope struct {
	span   *spanEnvelope
	target string

	maxMemoryMB        int64
	maxFileHandles     int64
	maxExecutionTimeMS int64
	maxBandwidthKBPS   int64
	maxCPUCores        int64
	maxThreads         int64

	hasMemory    bool
	hasHandles   bool
	hasTime      bool
	hasBandwidth bool
	hasCores     bool
	hasThreads   bool

	enforcement *enforcementEnvelope
}

type contractList []*contractEnvelope

func (l *contractList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &contractEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (c *contractEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "span":
		c.span = &spanEnvelope{}
		return dec.Object(c.span)
	case "target":
		return dec.String(&c.target)
	case "max_memory_mb":
		c.hasMemory = true
		return dec.Int64(&c.maxMemoryMB)
	case "max_file_handles":
		c.hasHandles = true
		return dec.Int64(&c.maxFileHandles)
	case "max_execution_time_ms":
		c.hasTime = true
		return dec.Int64(&c.maxExecutionTimeMS)
	case "max_bandwidth_kbps":
		c.hasBandwidth = true
		return dec.Int64(&c.maxBandwidthKBPS)
	case "max_cpu_cores":
		c.hasCores = true
		return dec.Int64(&c.maxCPUCores)
	case "max_threads":
		c.hasThreads = true
		return dec.Int64(&c.maxThreads)
	case "enforcement":
		c.enforcement = &enforcementEnvelope{}
		return dec.Object(c.enforcement)
	}
	return nil
}

func (c *contractEnvelope) NKeys() int { return 0 }

func budget64(set bool, v int64, name string) (*uint64, error) {
	if !set {
		return nil, nil
	}
	if v < 0 {
		return nil, fmt.Errorf("%s must not be negative, got %d", name, v)
	}
	u := uint64(v)
	return &u, nil
}

func budget32(set bool, v int64, name string) (*uint32, error) {
	if !set {
		return nil, nil
	}
	if v < 0 || v > int64(^uint32(0)) {
		return nil, fmt.Errorf("%s out of range: %d", name, v)
	}
	u := uint32(v)
	return &u, nil
}

func (c *contractEnvelope) toContract() (*ast.ResourceContract, error) {
	if c == nil {
		return nil, nil
	}
	out := &ast.ResourceContract{Span: c.span.span(), Target: c.target}

	var err error
	if out.MaxMemoryMB, err = budget64(c.hasMemory, c.maxMemoryMB, "max_memory_mb"); err != nil {
		return nil, err
	}
	if out.MaxFileHandles, err = budget32(c.hasHandles, c.maxFileHandles, "max_file_handles"); err != nil {
		return nil, err
	}
	if out.MaxExecutionTimeMS, err = budget64(c.hasTime, c.maxExecutionTimeMS, "max_execution_time_ms"); err != nil {
		return nil, err
	}
	if out.MaxBandwidthKBPS, err = budget64(c.hasBandwidth, c.maxBandwidthKBPS, "max_bandwidth_kbps"); err != nil {
		return nil, err
	}
	if out.MaxCPUCores, err = budget32(c.hasCores, c.maxCPUCores, "max_cpu_cores"); err != nil {
		return nil, err
	}
	if out.MaxThreads, err = budget32(c.hasThreads, c.maxThreads, "max_threads"); err != nil {
		return nil, err
	}

	if c.enforcement != nil {
		mode, err := ast.ParseEnforcementMode(c.enforcement.mode)
		if err != nil {
			return nil, err
		}
		if c.enforcement.threshold < 0 || c.enforcement.threshold > 100 {
			return nil, fmt.Errorf("warn_threshold_percent out of range: %d", c.enforcement.threshold)
		}
		out.Enforcement = ast.ResourceEnforcement{
			Mode:                 mode,
			WarnThresholdPercent: uint8(c.enforcement.threshold),
		}
	} else {
		out.Enforcement = ast.ResourceEnforcement{Mode: ast.EnforceHard}
	}
	return out, nil
}

type initializationEnvelope struct {
	kind        string
	initialSize int64
}

func (i *initializationEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "kind":
		return dec.String(&i.kind)
	case "initial_size":
		return dec.Int64(&i.initialSize)
	}
	return nil
}

func (i *initializationEnvelope) NKeys() int { return 0 }

type poolEnvelope struct {
	span           *spanEnvelope
	name           string
	category       string
	minSize        int64
	maxSize        int64
	initialization *initializationEnvelope
	timeoutMS      int64
	hasTimeout     bool
	validation     *exprEnvelope
	resetFunction  string
}

type poolList []*poolEnvelope

func (l *poolList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &poolEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (p *poolEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "span":
		p.span = &spanEnvelope{}
		return dec.Object(p.span)
	case "name":
		return dec.String(&p.name)
	case "category":
		return dec.String(&p.category)
	case "min_size":
		return dec.Int64(&p.minSize)
	case "max_size":
		return dec.Int64(&p.maxSize)
	case "initialization":
		p.initialization = &initializationEnvelope{}
		return dec.Object(p.initialization)
	case "acquisition_timeout_ms":
		p.hasTimeout = true
		return dec.Int64(&p.timeoutMS)
	case "validation":
		p.validation = &exprEnvelope{}
		return dec.Object(p.validation)
	case "reset_function":
		return dec.String(&p.resetFunction)
	}
	return nil
}

func (p *poolEnvelope) NKeys() int { return 0 }

func (p *poolEnvelope) toPool() (*ast.ResourcePool, error) {
	if p.name == "" {
		return nil, fmt.Errorf("resource pool has no name")
	}
	if p.category == "" {
		return nil, fmt.Errorf("resource pool %q has no category", p.name)
	}
	minSize, err := budget32(true, p.minSize, "min_size")
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", p.name, err)
	}
	maxSize, err := budget32(true, p.maxSize, "max_size")
	if err != nil {
		return nil, fmt.Errorf("pool %q: %w", p.name, err)
	}
	if *maxSize > 0 && *minSize > *maxSize {
		return nil, fmt.Errorf("pool %q: min_size %d exceeds max_size %d", p.name, *minSize, *maxSize)
	}

	out := &ast.ResourcePool{
		Span:          p.span.span(),
		Name:          p.name,
		Category:      p.category,
		MinSize:       *minSize,
		MaxSize:       *maxSize,
		ResetFunction: p.resetFunction,
	}

	if p.initialization != nil {
		kind, err := ast.ParsePoolInitKind(p.initialization.kind)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", p.name, err)
		}
		size, err := budget32(true, p.initialization.initialSize, "initial_size")
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", p.name, err)
		}
		out.Initialization = ast.PoolInitialization{Kind: kind, InitialSize: *size}
	}

	if out.AcquisitionTimeoutMS, err = budget64(p.hasTimeout, p.timeoutMS, "acquisition_timeout_ms"); err != nil {
		return nil, fmt.Errorf("pool %q: %w", p.name, err)
	}

	if out.Validation, err = p.validation.toExpr(); err != nil {
		return nil, fmt.Errorf("pool %q: %w", p.name, err)
	}
	return out, nil
}

// ==========================================================================
// Functions, modules, file
// ==========================================================================

type paramDeclEnvelope struct {
	span     *spanEnvelope
	name     string
	typeName string
}

type paramDeclList []*paramDeclEnvelope

func (l *paramDeclList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &paramDeclEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (p *paramDeclEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "span":
		p.span = &spanEnvelope{}
		return dec.Object(p.span)
	case "name":
		return dec.String(&p.name)
	case "type":
		return dec.String(&p.typeName)
	}
	return nil
}

func (p *paramDeclEnvelope) NKeys() int { return 0 }

type functionEnvelope struct {
	span       *spanEnvelope
	name       string
	params     paramDeclList
	returnType string
	contract   *contractEnvelope
	body       *stmtEnvelope
}

type functionList []*functionEnvelope

func (l *functionList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &functionEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (f *functionEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "span":
		f.span = &spanEnvelope{}
		return dec.Object(f.span)
	case "name":
		return dec.String(&f.name)
	case "params":
		return dec.Array(&f.params)
	case "return_type":
		return dec.String(&f.returnType)
	case "contract":
		f.contract = &contractEnvelope{}
		return dec.Object(f.contract)
	case "body":
		f.body = &stmtEnvelope{}
		return dec.Object(f.body)
	}
	return nil
}

func (f *functionEnvelope) NKeys() int { return 0 }

func (f *functionEnvelope) toFunction() (*ast.FunctionDeclaration, error) {
	if f.name == "" {
		return nil, fmt.Errorf("function has no name")
	}
	span := f.span.span()
	out := &ast.FunctionDeclaration{
		Span:       span,
		Name:       &ast.Identifier{Span: span, Value: f.name},
		ReturnType: f.returnType,
	}
	for _, p := range f.params {
		if p.name == "" {
			return nil, fmt.Errorf("function %q has an unnamed parameter", f.name)
		}
		pspan := p.span.span()
		out.Parameters = append(out.Parameters, &ast.Parameter{
			Span:     pspan,
			Name:     &ast.Identifier{Span: pspan, Value: p.name},
			TypeName: p.typeName,
		})
	}

	contract, err := f.contract.toContract()
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.name, err)
	}
	out.Contract = contract

	body, err := f.body.toBlock()
	if err != nil {
		return nil, fmt.Errorf("function %q: %w", f.name, err)
	}
	out.Body = body
	return out, nil
}

type moduleEnvelope struct {
	span      *spanEnvelope
	name      string
	functions functionList
}

type moduleList []*moduleEnvelope

func (l *moduleList) UnmarshalJSONArray(dec *gojay.Decoder) error {
	item := &moduleEnvelope{}
	if err := dec.Object(item); err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func (m *moduleEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "span":
		m.span = &spanEnvelope{}
		return dec.Object(m.span)
	case "name":
		return dec.String(&m.name)
	case "functions":
		return dec.Array(&m.functions)
	}
	return nil
}

func (m *moduleEnvelope) NKeys() int { return 0 }

type fileEnvelope struct {
	schemaVersion string
	pools         poolList
	contracts     contractList
	modules       moduleList
}

func newFileEnvelope() *fileEnvelope {
	return &fileEnvelope{}
}

func (f *fileEnvelope) UnmarshalJSONObject(dec *gojay.Decoder, key string) error {
	switch key {
	case "schema_version":
		return dec.String(&f.schemaVersion)
	case "pools":
		return dec.Array(&f.pools)
	case "contracts":
		return dec.Array(&f.contracts)
	case "modules":
		return dec.Array(&f.modules)
	}
	return nil
}

func (f *fileEnvelope) NKeys() int { return 0 }

func (f *fileEnvelope) toFile() (*File, error) {
	out := &File{SchemaVersion: f.schemaVersion, Program: &ast.Program{}}

	for _, p := range f.pools {
		pool, err := p.toPool()
		if err != nil {
			return nil, err
		}
		out.Pools = append(out.Pools, pool)
	}
	for _, c := range f.contracts {
		contract, err := c.toContract()
		if err != nil {
			return nil, err
		}
		if contract.Target == "" {
			return nil, fmt.Errorf("standalone contract has no target")
		}
		out.Contracts = append(out.Contracts, contract)
	}
	for _, m := range f.modules {
		if m.name == "" {
			return nil, fmt.Errorf("module has no name")
		}
		mod := &ast.Module{Span: m.span.span(), Name: m.name}
		for _, fn := range m.functions {
			decl, err := fn.toFunction()
			if err != nil {
				return nil, fmt.Errorf("module %q: %w", m.name, err)
			}
			mod.Functions = append(mod.Functions, decl)
		}
		out.Program.Modules = append(out.Program.Modules, mod)
	}
	if len(out.Program.Modules) == 0 {
		return nil, fmt.Errorf("scope file declares no modules")
	}
	return out, nil
}
