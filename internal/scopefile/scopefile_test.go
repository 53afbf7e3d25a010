package scopefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aether-lang/aether/internal/ast"
	"github.com/aether-lang/aether/internal/position"
	"github.com/aether-lang/aether/internal/resource"
)

const fullFixture = `{
  "schema_version": "1.0.0",
  "pools": [
    {
      "name": "db_pool",
      "category": "database_connection",
      "min_size": 2,
      "max_size": 10,
      "initialization": {"kind": "eager", "initial_size": 4},
      "acquisition_timeout_ms": 250,
      "reset_function": "conn_reset",
      "span": {"file": "pools.aeth", "line": 1, "col": 1}
    }
  ],
  "contracts": [
    {
      "target": "copy_file",
      "max_file_handles": 4,
      "max_threads": 1,
      "enforcement": {"mode": "warn", "warn_threshold_percent": 75},
      "span": {"file": "contracts.aeth", "line": 3, "col": 1}
    }
  ],
  "modules": [
    {
      "name": "io",
      "functions": [
        {
          "name": "copy_file",
          "params": [
            {"name": "src", "type": "string"},
            {"name": "dst", "type": "string"}
          ],
          "return_type": "bool",
          "contract": {"max_file_handles": 2},
          "span": {"file": "io.aeth", "line": 1, "col": 1, "end_line": 20, "end_col": 2},
          "body": {
            "kind": "block",
            "statements": [
              {
                "kind": "resource_scope",
                "scope_id": "copy",
                "cleanup_guaranteed": false,
                "cleanup_order": "forward_acquisition",
                "invariants": ["src_open", "dst_open"],
                "span": {"file": "io.aeth", "line": 2, "col": 5, "end_line": 18, "end_col": 6},
                "resources": [
                  {
                    "category": "file_handle",
                    "binding": "input",
                    "type": "File",
                    "span": {"file": "io.aeth", "line": 3, "col": 9, "end_col": 40},
                    "acquisition": {
                      "kind": "call",
                      "function": {"kind": "ident", "name": "file_open"},
                      "args": [{"kind": "ident", "name": "src"}]
                    },
                    "cleanup": {"kind": "function", "name": "file_close", "pass_resource": true},
                    "parameters": [
                      {"name": "mode", "value": {"kind": "literal", "string": "r"}}
                    ],
                    "lifecycle": {
                      "post_acquire": {
                        "kind": "call",
                        "function": {"kind": "ident", "name": "audit"},
                        "args": [{"kind": "literal", "string": "opened"}]
                      }
                    }
                  },
                  {
                    "category": "memory_buffer",
                    "binding": "buf",
                    "span": {"file": "io.aeth", "line": 4, "col": 9, "end_col": 44},
                    "acquisition": {
                      "kind": "call",
                      "function": {"kind": "ident", "name": "aether_alloc"},
                      "args": [{"kind": "literal", "int": 4096}]
                    },
                    "cleanup": {"kind": "method", "name": "free"}
                  }
                ],
                "body": {
                  "kind": "block",
                  "statements": [
                    {
                      "kind": "assign",
                      "target": {"kind": "ident", "name": "n"},
                      "value": {
                        "kind": "call",
                        "function": {
                          "kind": "member",
                          "object": {"kind": "ident", "name": "input"},
                          "member": "read"
                        },
                        "args": [{"kind": "ident", "name": "buf"}]
                      }
                    },
                    {
                      "kind": "if",
                      "cond": {
                        "kind": "binary",
                        "op": "<",
                        "left": {"kind": "ident", "name": "n"},
                        "right": {"kind": "literal", "int": 0}
                      },
                      "then": {
                        "kind": "block",
                        "statements": [
                          {"kind": "return", "value": {"kind": "literal", "bool": false}}
                        ]
                      },
                      "else": {
                        "kind": "block",
                        "statements": [
                          {
                            "kind": "while",
                            "cond": {"kind": "unary", "op": "!", "operand": {"kind": "ident", "name": "done"}},
                            "body": {
                              "kind": "block",
                              "statements": [
                                {
                                  "kind": "expr",
                                  "expr": {"kind": "call", "function": {"kind": "ident", "name": "pump"}, "args": []}
                                }
                              ]
                            }
                          }
                        ]
                      }
                    },
                    {"kind": "release", "binding": "buf", "span": {"file": "io.aeth", "line": 12, "col": 9}},
                    {"kind": "return", "value": {"kind": "literal", "null": true}}
                  ]
                }
              }
            ]
          }
        }
      ]
    }
  ]
}`

func parseFull(t *testing.T) *File {
	t.Helper()
	file, err := Parse([]byte(fullFixture))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	return file
}

func TestParsePools(t *testing.T) {
	file := parseFull(t)
	if len(file.Pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(file.Pools))
	}
	pool := file.Pools[0]
	if pool.Name != "db_pool" || pool.Category != ast.CategoryDatabaseConnection {
		t.Errorf("unexpected pool identity: %q %q", pool.Name, pool.Category)
	}
	if pool.MinSize != 2 || pool.MaxSize != 10 {
		t.Errorf("unexpected pool sizes: %d..%d", pool.MinSize, pool.MaxSize)
	}
	if pool.Initialization.Kind != ast.PoolInitEager || pool.Initialization.InitialSize != 4 {
		t.Errorf("unexpected initialization: %+v", pool.Initialization)
	}
	if pool.AcquisitionTimeoutMS == nil || *pool.AcquisitionTimeoutMS != 250 {
		t.Errorf("unexpected acquisition timeout: %v", pool.AcquisitionTimeoutMS)
	}
	if pool.ResetFunction != "conn_reset" {
		t.Errorf("unexpected reset function %q", pool.ResetFunction)
	}
}

func TestParseStandaloneContracts(t *testing.T) {
	file := parseFull(t)
	if len(file.Contracts) != 1 {
		t.Fatalf("expected 1 contract, got %d", len(file.Contracts))
	}
	c := file.Contracts[0]
	if c.Target != "copy_file" {
		t.Errorf("unexpected target %q", c.Target)
	}
	if c.MaxFileHandles == nil || *c.MaxFileHandles != 4 {
		t.Errorf("unexpected max_file_handles: %v", c.MaxFileHandles)
	}
	if c.MaxThreads == nil || *c.MaxThreads != 1 {
		t.Errorf("unexpected max_threads: %v", c.MaxThreads)
	}
	if c.MaxMemoryMB != nil || c.MaxExecutionTimeMS != nil {
		t.Errorf("budgets that were not declared should stay nil")
	}
	if c.Enforcement.Mode != ast.EnforceWarn || c.Enforcement.WarnThresholdPercent != 75 {
		t.Errorf("unexpected enforcement: %+v", c.Enforcement)
	}
}

func TestParseProgramShape(t *testing.T) {
	file := parseFull(t)
	if len(file.Program.Modules) != 1 {
		t.Fatalf("expected 1 module, got %d", len(file.Program.Modules))
	}
	mod := file.Program.Modules[0]
	if mod.Name != "io" || len(mod.Functions) != 1 {
		t.Fatalf("unexpected module: %q with %d function(s)", mod.Name, len(mod.Functions))
	}

	fn := mod.Functions[0]
	if fn.Name.Value != "copy_file" || fn.ReturnType != "bool" {
		t.Errorf("unexpected function header: %q -> %q", fn.Name.Value, fn.ReturnType)
	}
	if got := fn.Span.String(); got != "io.aeth:1:1-20:2" {
		t.Errorf("unexpected function span %q", got)
	}
	if len(fn.Parameters) != 2 || fn.Parameters[0].Name.Value != "src" || fn.Parameters[1].TypeName != "string" {
		t.Errorf("unexpected parameters: %+v", fn.Parameters)
	}
	if fn.Contract == nil || fn.Contract.MaxFileHandles == nil || *fn.Contract.MaxFileHandles != 2 {
		t.Fatalf("inline contract not decoded: %+v", fn.Contract)
	}
	if fn.Contract.Enforcement.Mode != ast.EnforceHard {
		t.Errorf("inline contract without enforcement should default to enforce, got %v", fn.Contract.Enforcement.Mode)
	}
}

func TestParseResourceScope(t *testing.T) {
	file := parseFull(t)
	body := file.Program.Modules[0].Functions[0].Body
	if len(body.Statements) != 1 {
		t.Fatalf("expected 1 top statement, got %d", len(body.Statements))
	}
	scope, ok := body.Statements[0].(*ast.ResourceScope)
	if !ok {
		t.Fatalf("expected resource scope, got %T", body.Statements[0])
	}
	if scope.ScopeID != "copy" || scope.CleanupGuaranteed || scope.CleanupOrder != ast.CleanupForwardAcquisition {
		t.Errorf("unexpected scope header: %+v", scope)
	}
	if len(scope.Invariants) != 2 || scope.Invariants[0] != "src_open" {
		t.Errorf("unexpected invariants: %v", scope.Invariants)
	}
	if len(scope.Resources) != 2 {
		t.Fatalf("expected 2 resources, got %d", len(scope.Resources))
	}

	input := scope.Resources[0]
	if input.Category != ast.CategoryFileHandle || input.Binding.Value != "input" || input.TypeName != "File" {
		t.Errorf("unexpected resource: %+v", input)
	}
	if got := input.Span.String(); got != "io.aeth:3:9-40" {
		t.Errorf("unexpected resource span %q", got)
	}
	call, ok := input.Acquisition.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call acquisition, got %T", input.Acquisition)
	}
	if fn, ok := call.Function.(*ast.Identifier); !ok || fn.Value != "file_open" {
		t.Errorf("unexpected acquisition callee: %v", call.Function)
	}
	cleanup, ok := input.Cleanup.(*ast.CleanupFunction)
	if !ok || cleanup.Name != "file_close" || !cleanup.PassResource {
		t.Errorf("unexpected cleanup: %v", input.Cleanup)
	}
	if len(input.Parameters) != 1 || input.Parameters[0].Name != "mode" {
		t.Errorf("unexpected parameters: %+v", input.Parameters)
	}
	if lit, ok := input.Parameters[0].Value.(*ast.Literal); !ok || lit.Kind != ast.LiteralString || lit.Value != "r" {
		t.Errorf("unexpected parameter value: %+v", input.Parameters[0].Value)
	}
	if input.Lifecycle == nil || input.Lifecycle.PostAcquire == nil || input.Lifecycle.PreAcquire != nil {
		t.Errorf("unexpected lifecycle: %+v", input.Lifecycle)
	}

	buf := scope.Resources[1]
	if m, ok := buf.Cleanup.(*ast.CleanupMethod); !ok || m.Name != "free" {
		t.Errorf("unexpected cleanup for buf: %v", buf.Cleanup)
	}
}

func TestParseStatements(t *testing.T) {
	file := parseFull(t)
	scope := file.Program.Modules[0].Functions[0].Body.Statements[0].(*ast.ResourceScope)
	stmts := scope.Body.Statements
	if len(stmts) != 4 {
		t.Fatalf("expected 4 body statements, got %d", len(stmts))
	}

	assign, ok := stmts[0].(*ast.AssignmentStatement)
	if !ok {
		t.Fatalf("expected assignment, got %T", stmts[0])
	}
	if id, ok := assign.Target.(*ast.Identifier); !ok || id.Value != "n" {
		t.Errorf("unexpected assignment target: %v", assign.Target)
	}
	call, ok := assign.Value.(*ast.CallExpression)
	if !ok {
		t.Fatalf("expected call value, got %T", assign.Value)
	}
	member, ok := call.Function.(*ast.MemberExpression)
	if !ok || member.Member.Value != "read" {
		t.Fatalf("expected member callee, got %v", call.Function)
	}
	if id, ok := member.Object.(*ast.Identifier); !ok || id.Value != "input" {
		t.Errorf("unexpected member object: %v", member.Object)
	}

	ifStmt, ok := stmts[1].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected if, got %T", stmts[1])
	}
	cond, ok := ifStmt.Condition.(*ast.BinaryExpression)
	if !ok || cond.Operator != ast.OpLt {
		t.Fatalf("unexpected if condition: %v", ifStmt.Condition)
	}
	if len(ifStmt.Then.Statements) != 1 {
		t.Errorf("unexpected then block: %+v", ifStmt.Then)
	}
	elseBlock, ok := ifStmt.Else.(*ast.BlockStatement)
	if !ok || len(elseBlock.Statements) != 1 {
		t.Fatalf("unexpected else branch: %v", ifStmt.Else)
	}
	while, ok := elseBlock.Statements[0].(*ast.WhileStatement)
	if !ok {
		t.Fatalf("expected while, got %T", elseBlock.Statements[0])
	}
	if u, ok := while.Condition.(*ast.UnaryExpression); !ok || u.Operator != ast.OpNot {
		t.Errorf("unexpected while condition: %v", while.Condition)
	}

	rel, ok := stmts[2].(*ast.ReleaseStatement)
	if !ok || rel.Binding.Value != "buf" {
		t.Fatalf("unexpected release: %v", stmts[2])
	}
	if got := rel.Span.String(); got != "io.aeth:12:9" {
		t.Errorf("unexpected release span %q", got)
	}

	ret, ok := stmts[3].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("expected return, got %T", stmts[3])
	}
	if lit, ok := ret.Value.(*ast.Literal); !ok || lit.Kind != ast.LiteralNull {
		t.Errorf("unexpected return value: %v", ret.Value)
	}
}

func minimalFixture(version string) string {
	versionKey := ""
	if version != "" {
		versionKey = `"schema_version": "` + version + `",`
	}
	return `{` + versionKey + `
		"modules": [{"name": "m", "functions": [{"name": "f", "body": {"kind": "block", "statements": [
			{"kind": "resource_scope", "scope_id": "s",
			 "resources": [{"category": "mutex", "binding": "lock",
			                "acquisition": {"kind": "call", "function": {"kind": "ident", "name": "mutex_lock"}, "args": []}}],
			 "body": {"kind": "block", "statements": []}}
		]}}]}]}`
}

func TestParseDefaults(t *testing.T) {
	file, err := Parse([]byte(minimalFixture("1.0.0")))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	fn := file.Program.Modules[0].Functions[0]
	if fn.Contract != nil {
		t.Errorf("function without contract key should have nil contract")
	}
	scope := fn.Body.Statements[0].(*ast.ResourceScope)
	if !scope.CleanupGuaranteed {
		t.Errorf("cleanup_guaranteed should default to true")
	}
	if scope.CleanupOrder != ast.CleanupReverseAcquisition {
		t.Errorf("cleanup_order should default to reverse acquisition, got %v", scope.CleanupOrder)
	}
	if _, ok := scope.Resources[0].Cleanup.(*ast.CleanupAutomatic); !ok {
		t.Errorf("missing cleanup should decode as automatic, got %T", scope.Resources[0].Cleanup)
	}
}

func TestSchemaVersionGate(t *testing.T) {
	tests := []struct {
		version string
		wantErr string
	}{
		{"1.0.0", ""},
		{"1.3.7", ""},
		{"", "schema_version"},
		{"0.9.0", "unsupported schema_version"},
		{"2.0.0", "unsupported schema_version"},
		{"not-a-version", "invalid"},
	}
	for _, tt := range tests {
		name := tt.version
		if name == "" {
			name = "missing"
		}
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(minimalFixture(tt.version)))
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Parse(%q) failed: %v", tt.version, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Parse(%q) should have failed", tt.version)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseMalformed(t *testing.T) {
	wrap := func(body string) string {
		return `{"schema_version": "1.0.0", "modules": [{"name": "m", "functions": [{"name": "f",
			"body": {"kind": "block", "statements": [` + body + `]}}]}]}`
	}
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			"not json",
			`{"schema_version": "1.0.0"`,
			"",
		},
		{
			"no modules",
			`{"schema_version": "1.0.0"}`,
			"no modules",
		},
		{
			"unknown statement kind",
			wrap(`{"kind": "goto"}`),
			`unknown statement kind "goto"`,
		},
		{
			"statement without kind",
			wrap(`{"span": {"line": 1, "col": 1}}`),
			"no kind",
		},
		{
			"unknown expression kind",
			wrap(`{"kind": "expr", "expr": {"kind": "lambda"}}`),
			`unknown expression kind "lambda"`,
		},
		{
			"literal without value",
			wrap(`{"kind": "expr", "expr": {"kind": "literal"}}`),
			"literal node has no value",
		},
		{
			"release without binding",
			wrap(`{"kind": "release"}`),
			"release statement has no binding",
		},
		{
			"unknown unary operator",
			wrap(`{"kind": "expr", "expr": {"kind": "unary", "op": "~", "operand": {"kind": "ident", "name": "x"}}}`),
			`unknown unary operator "~"`,
		},
		{
			"resource without category",
			wrap(`{"kind": "resource_scope", "resources": [{"binding": "r",
				"acquisition": {"kind": "ident", "name": "x"}}], "body": {"kind": "block", "statements": []}}`),
			"has no category",
		},
		{
			"resource without acquisition",
			wrap(`{"kind": "resource_scope", "resources": [{"binding": "r", "category": "mutex"}],
				"body": {"kind": "block", "statements": []}}`),
			"has no acquisition expression",
		},
		{
			"unknown cleanup kind",
			wrap(`{"kind": "resource_scope", "resources": [{"binding": "r", "category": "mutex",
				"acquisition": {"kind": "ident", "name": "x"}, "cleanup": {"kind": "gc"}}],
				"body": {"kind": "block", "statements": []}}`),
			`unknown cleanup kind "gc"`,
		},
		{
			"negative budget",
			`{"schema_version": "1.0.0", "contracts": [{"target": "f", "max_memory_mb": -1}],
				"modules": [{"name": "m", "functions": []}]}`,
			"must not be negative",
		},
		{
			"threshold out of range",
			`{"schema_version": "1.0.0",
				"contracts": [{"target": "f", "enforcement": {"mode": "warn", "warn_threshold_percent": 150}}],
				"modules": [{"name": "m", "functions": []}]}`,
			"warn_threshold_percent out of range",
		},
		{
			"contract without target",
			`{"schema_version": "1.0.0", "contracts": [{"max_threads": 1}],
				"modules": [{"name": "m", "functions": []}]}`,
			"standalone contract has no target",
		},
		{
			"pool min above max",
			`{"schema_version": "1.0.0",
				"pools": [{"name": "p", "category": "mutex", "min_size": 9, "max_size": 3}],
				"modules": [{"name": "m", "functions": []}]}`,
			"min_size 9 exceeds max_size 3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("Parse() should have failed")
			}
			if tt.wantErr != "" && !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "program"+Extension)
	if err := os.WriteFile(path, []byte(fullFixture), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	file, err := Read(path)
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}
	if file.SchemaVersion != "1.0.0" {
		t.Errorf("unexpected schema version %q", file.SchemaVersion)
	}

	missing := filepath.Join(dir, "missing"+Extension)
	if _, err := Read(missing); err == nil {
		t.Fatalf("Read() of a missing file should fail")
	} else if !strings.Contains(err.Error(), missing) {
		t.Errorf("error %q does not name the file", err)
	}
}

func TestEncodeReportSections(t *testing.T) {
	span := position.NewSpan(position.NewPosition("io.aeth", 3, 9), position.NewPosition("io.aeth", 3, 40))
	exit := position.PointSpan(position.NewPosition("io.aeth", 20, 2))
	rep := &resource.Report{
		Modules:   1,
		Functions: 2,
		Results: &resource.Results{
			Leaks: []resource.Leak{{
				Binding: "buf", Category: ast.CategoryMemoryBuffer,
				ScopeID: "copy", Function: "copy_file", AcquisitionSite: span,
				ExitSite: exit,
			}},
			Scopes: []resource.ScopeSummary{{
				ScopeID: "copy", Function: "copy_file", Order: "reverse_acquisition",
				Guaranteed: true, Bindings: []string{"a", "b"}, CleanupSequence: []string{"b", "a"},
			}},
			Patterns: []resource.UsagePattern{{
				Category: ast.CategoryMemoryBuffer, AvgHoldTimeMS: 2.0,
				MaxHoldTimeMS: 2.0, AccessFrequency: 0.25, TypicalCount: 1,
			}},
			MaxConcurrent: 3,
		},
		Duration: 1500 * time.Microsecond,
	}

	data, err := EncodeReport(rep)
	if err != nil {
		t.Fatalf("EncodeReport() failed: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		`"verdict":"passed_with_warnings"`,
		`"modules":1`,
		`"functions":2`,
		`"errors":0`,
		`"warnings":1`,
		`"max_concurrent":3`,
		`"duration_ms":1.5`,
		`"cleanup":["b","a"]`,
		`"acquired_at":"io.aeth:3:9-40"`,
		`"exit_at":"io.aeth:20:2"`,
		`"usage_patterns":[{"category":"memory_buffer","typical_count":1,"access_frequency":0.25`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report JSON missing %s\n%s", want, out)
		}
	}
	for _, absent := range []string{`"double_releases"`, `"use_after_release"`, `"hard_errors"`} {
		if strings.Contains(out, absent) {
			t.Errorf("empty section %s should be omitted\n%s", absent, out)
		}
	}
}

func TestEncodeReportVerdicts(t *testing.T) {
	clean := &resource.Report{Results: resource.NewResults()}
	data, err := EncodeReport(clean)
	if err != nil {
		t.Fatalf("EncodeReport() failed: %v", err)
	}
	if !strings.Contains(string(data), `"verdict":"passed"`) {
		t.Errorf("clean report should pass: %s", data)
	}

	failed := &resource.Report{
		Results: resource.NewResults(),
		Errors: []*resource.AnalysisError{{
			Kind:    resource.ErrUndefinedBinding,
			Binding: "ghost",
			Message: `release of undefined binding "ghost"`,
		}},
	}
	data, err = EncodeReport(failed)
	if err != nil {
		t.Fatalf("EncodeReport() failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"verdict":"failed"`) || !strings.Contains(out, `"hard_errors"`) {
		t.Errorf("failing report not rendered as failure: %s", out)
	}
	if !strings.Contains(out, `"kind":"undefined binding"`) {
		t.Errorf("hard error kind missing: %s", out)
	}
}

func TestDecodeVerifyEncode(t *testing.T) {
	file := parseFull(t)

	mgr := resource.NewManager(resource.Options{}, nil)
	for _, pool := range file.Pools {
		if err := mgr.RegisterPool(pool); err != nil {
			t.Fatalf("RegisterPool() failed: %v", err)
		}
	}
	for _, contract := range file.Contracts {
		if err := mgr.RegisterContract(contract); err != nil {
			t.Fatalf("RegisterContract() failed: %v", err)
		}
	}

	report := mgr.Verify(file.Program)
	if report.ErrorTotal() != 0 {
		t.Fatalf("fixture program should verify cleanly, got %d error(s): %v",
			report.ErrorTotal(), report.Errors)
	}
	if len(report.Results.Leaks) != 1 || report.Results.Leaks[0].Binding != "input" {
		t.Fatalf("expected the unguaranteed scope to leak %q, got %+v", "input", report.Results.Leaks)
	}

	data, err := EncodeReport(report)
	if err != nil {
		t.Fatalf("EncodeReport() failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"verdict":"passed_with_warnings"`) {
		t.Errorf("expected warning verdict, got %s", out)
	}
	if !strings.Contains(out, `"binding":"input"`) {
		t.Errorf("leak missing from JSON: %s", out)
	}
}
