package ast

import (
	"fmt"
	"strings"

	"github.com/aether-lang/aether/internal/position"
)

// Well-known resource categories. The verifier treats categories as opaque
// strings; these constants name the ones the standard runtime provides.
const (
	CategoryMemoryBuffer       = "memory_buffer"
	CategoryFileHandle         = "file_handle"
	CategoryTCPSocket          = "tcp_socket"
	CategoryUDPSocket          = "udp_socket"
	CategoryMutex              = "mutex"
	CategorySemaphore          = "semaphore"
	CategoryThread             = "thread"
	CategoryDatabaseConnection = "database_connection"
	CategoryHTTPClient         = "http_client"
	CategoryTimer              = "timer"
)

// Runtime cleanup entry points matched by cleanup specifications.
const (
	CleanupNameFree       = "aether_free"
	CleanupNameClose      = "close"
	CleanupNameFileClose  = "file_close"
	CleanupNameSockClose  = "socket_close"
	CleanupNameUnlock     = "unlock"
	CleanupNameRelease    = "release"
	CleanupNameJoin       = "thread_join"
	CleanupNameDisconnect = "disconnect"
	CleanupNameCancel     = "cancel"
)

// ==========================================================================
// Cleanup specifications
// ==========================================================================

// CleanupSpec describes how a resource is released. Exactly one of the
// concrete forms below applies to each acquisition.
type CleanupSpec interface {
	cleanupSpecNode()
	String() string
}

// CleanupFunction releases by calling a free function. When PassResource
// is set, the resource value is passed as the sole argument.
type CleanupFunction struct {
	Name         string
	PassResource bool
}

func (c *CleanupFunction) cleanupSpecNode() {}

func (c *CleanupFunction) String() string {
	if c.PassResource {
		return fmt.Sprintf("%s(<resource>)", c.Name)
	}
	return c.Name + "()"
}

// CleanupMethod releases by invoking a method on the resource value.
type CleanupMethod struct {
	Name string
}

func (c *CleanupMethod) cleanupSpecNode() {}
func (c *CleanupMethod) String() string   { return "<resource>." + c.Name + "()" }

// CleanupExpression releases by evaluating an arbitrary expression.
type CleanupExpression struct {
	Expr Expression
}

func (c *CleanupExpression) cleanupSpecNode() {}
func (c *CleanupExpression) String() string   { return c.Expr.String() }

// CleanupAutomatic defers cleanup to the runtime default for the category.
type CleanupAutomatic struct{}

func (c *CleanupAutomatic) cleanupSpecNode() {}
func (c *CleanupAutomatic) String() string   { return "automatic" }

// ==========================================================================
// Cleanup order
// ==========================================================================

// CleanupOrder selects the sequence in which a scope's resources are
// released when the scope exits.
type CleanupOrder int

const (
	// CleanupReverseAcquisition releases in reverse acquisition order.
	// This is the default and always safe with respect to dependencies
	// created by later resources on earlier ones.
	CleanupReverseAcquisition CleanupOrder = iota
	// CleanupForwardAcquisition releases in acquisition order.
	CleanupForwardAcquisition
	// CleanupDependencyBased orders releases so that no resource is
	// released before a resource whose acquisition referenced it.
	CleanupDependencyBased
	// CleanupParallel marks releases as independent. Verification orders
	// them like CleanupDependencyBased so reports stay deterministic.
	CleanupParallel
)

func (o CleanupOrder) String() string {
	switch o {
	case CleanupReverseAcquisition:
		return "reverse_acquisition"
	case CleanupForwardAcquisition:
		return "forward_acquisition"
	case CleanupDependencyBased:
		return "dependency_based"
	case CleanupParallel:
		return "parallel"
	default:
		return "unknown"
	}
}

// ParseCleanupOrder converts the textual form back to a CleanupOrder.
func ParseCleanupOrder(s string) (CleanupOrder, error) {
	switch s {
	case "reverse_acquisition", "":
		return CleanupReverseAcquisition, nil
	case "forward_acquisition":
		return CleanupForwardAcquisition, nil
	case "dependency_based":
		return CleanupDependencyBased, nil
	case "parallel":
		return CleanupParallel, nil
	default:
		return CleanupReverseAcquisition, fmt.Errorf("unknown cleanup order %q", s)
	}
}

// ==========================================================================
// Acquisitions and scopes
// ==========================================================================

// ResourceParameter is a named argument to an acquisition, such as a pool
// name or a timeout.
type ResourceParameter struct {
	Name  string
	Value Expression
}

// ResourceLifecycle carries optional hook expressions evaluated around
// acquisition and release. Any field may be nil.
type ResourceLifecycle struct {
	PreAcquire       Expression
	PostAcquire      Expression
	PreRelease       Expression
	PostRelease      Expression
	OnAcquireFailure Expression
	OnReleaseFailure Expression
}

// Hooks returns the non-nil hook expressions in evaluation order.
func (l *ResourceLifecycle) Hooks() []Expression {
	if l == nil {
		return nil
	}
	all := []Expression{
		l.PreAcquire, l.PostAcquire,
		l.PreRelease, l.PostRelease,
		l.OnAcquireFailure, l.OnReleaseFailure,
	}
	out := make([]Expression, 0, len(all))
	for _, h := range all {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}

// ResourceAcquisition declares one resource inside a resource scope: the
// binding it introduces, the expression that produces it, and how it is
// cleaned up. TypeName is the optional declared type by name.
type ResourceAcquisition struct {
	Span        position.Span
	Category    string
	Binding     *Identifier
	TypeName    string
	Acquisition Expression
	Cleanup     CleanupSpec
	Parameters  []ResourceParameter
	Lifecycle   *ResourceLifecycle
}

func (r *ResourceAcquisition) GetSpan() position.Span { return r.Span }

func (r *ResourceAcquisition) String() string {
	return fmt.Sprintf("%s: %s = %s", r.Binding, r.Category, r.Acquisition)
}

// ResourceScope is a statement that acquires a set of resources, runs a
// body with them bound, and releases them on exit. CleanupGuaranteed
// records whether the language guarantees cleanup runs on every exit path;
// scopes without the guarantee are subject to leak detection instead of
// automatic release.
type ResourceScope struct {
	Span              position.Span
	ScopeID           string
	Resources         []*ResourceAcquisition
	Invariants        []string
	Body              *BlockStatement
	CleanupGuaranteed bool
	CleanupOrder      CleanupOrder
}

func (r *ResourceScope) GetSpan() position.Span { return r.Span }
func (r *ResourceScope) statementNode()         {}

func (r *ResourceScope) String() string {
	names := make([]string, len(r.Resources))
	for i, res := range r.Resources {
		names[i] = res.Binding.Value
	}
	return fmt.Sprintf("resource_scope %s [%s]", r.ScopeID, strings.Join(names, ", "))
}

// Bindings returns the identifiers introduced by the scope's acquisitions,
// in acquisition order.
func (r *ResourceScope) Bindings() []*Identifier {
	out := make([]*Identifier, len(r.Resources))
	for i, res := range r.Resources {
		out[i] = res.Binding
	}
	return out
}

// UsesCategory reports whether any acquisition in the scope has the given
// resource category.
func (r *ResourceScope) UsesCategory(category string) bool {
	for _, res := range r.Resources {
		if res.Category == category {
			return true
		}
	}
	return false
}

// ==========================================================================
// Contracts
// ==========================================================================

// EnforcementMode selects how contract budget violations are handled.
type EnforcementMode int

const (
	// EnforceMonitor records violations without failing verification.
	EnforceMonitor EnforcementMode = iota
	// EnforceWarn warns when usage crosses a threshold percentage of the
	// budget and fails verification only above the budget itself.
	EnforceWarn
	// EnforceHard fails verification on any budget excess.
	EnforceHard
	// EnforceGracefulDegrade requests runtime degradation; verification
	// treats excesses as hard failures so degradation paths are reachable.
	EnforceGracefulDegrade
	// EnforceCustom delegates to a user handler at runtime; verification
	// treats excesses as hard failures.
	EnforceCustom
)

func (m EnforcementMode) String() string {
	switch m {
	case EnforceMonitor:
		return "monitor"
	case EnforceWarn:
		return "warn"
	case EnforceHard:
		return "enforce"
	case EnforceGracefulDegrade:
		return "graceful_degrade"
	case EnforceCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// ParseEnforcementMode converts the textual form back to a mode.
func ParseEnforcementMode(s string) (EnforcementMode, error) {
	switch s {
	case "monitor":
		return EnforceMonitor, nil
	case "warn":
		return EnforceWarn, nil
	case "enforce", "":
		return EnforceHard, nil
	case "graceful_degrade":
		return EnforceGracefulDegrade, nil
	case "custom":
		return EnforceCustom, nil
	default:
		return EnforceHard, fmt.Errorf("unknown enforcement mode %q", s)
	}
}

// ResourceEnforcement pairs an enforcement mode with its parameters.
// WarnThresholdPercent applies only to EnforceWarn.
type ResourceEnforcement struct {
	Mode                 EnforcementMode
	WarnThresholdPercent uint8
}

// ResourceContract declares upper bounds on the resources a function may
// hold at once. Nil fields are unbounded. A zero value is a real budget:
// MaxFileHandles of zero forbids file handles entirely.
type ResourceContract struct {
	Span               position.Span
	Target             string
	MaxMemoryMB        *uint64
	MaxFileHandles     *uint32
	MaxExecutionTimeMS *uint64
	MaxBandwidthKBPS   *uint64
	MaxCPUCores        *uint32
	MaxThreads         *uint32
	Enforcement        ResourceEnforcement
}

func (c *ResourceContract) GetSpan() position.Span { return c.Span }

func (c *ResourceContract) String() string {
	var parts []string
	if c.MaxMemoryMB != nil {
		parts = append(parts, fmt.Sprintf("memory<=%dMB", *c.MaxMemoryMB))
	}
	if c.MaxFileHandles != nil {
		parts = append(parts, fmt.Sprintf("file_handles<=%d", *c.MaxFileHandles))
	}
	if c.MaxExecutionTimeMS != nil {
		parts = append(parts, fmt.Sprintf("time<=%dms", *c.MaxExecutionTimeMS))
	}
	if c.MaxBandwidthKBPS != nil {
		parts = append(parts, fmt.Sprintf("bandwidth<=%dKB/s", *c.MaxBandwidthKBPS))
	}
	if c.MaxCPUCores != nil {
		parts = append(parts, fmt.Sprintf("cpu<=%d", *c.MaxCPUCores))
	}
	if c.MaxThreads != nil {
		parts = append(parts, fmt.Sprintf("threads<=%d", *c.MaxThreads))
	}
	if len(parts) == 0 {
		parts = append(parts, "unbounded")
	}
	return fmt.Sprintf("contract(%s, %s)", strings.Join(parts, ", "), c.Enforcement.Mode)
}

// ==========================================================================
// Pools
// ==========================================================================

// PoolInitKind selects when pooled resources are created.
type PoolInitKind int

const (
	// PoolInitEager creates MinSize resources up front.
	PoolInitEager PoolInitKind = iota
	// PoolInitLazy creates resources on first demand.
	PoolInitLazy
	// PoolInitHybrid creates InitialSize resources up front and the rest
	// on demand.
	PoolInitHybrid
)

func (k PoolInitKind) String() string {
	switch k {
	case PoolInitEager:
		return "eager"
	case PoolInitLazy:
		return "lazy"
	case PoolInitHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParsePoolInitKind converts the textual form back to a PoolInitKind.
func ParsePoolInitKind(s string) (PoolInitKind, error) {
	switch s {
	case "eager":
		return PoolInitEager, nil
	case "lazy", "":
		return PoolInitLazy, nil
	case "hybrid":
		return PoolInitHybrid, nil
	default:
		return PoolInitLazy, fmt.Errorf("unknown pool initialization %q", s)
	}
}

// PoolInitialization describes a pool's initialization strategy.
// InitialSize applies only to PoolInitHybrid.
type PoolInitialization struct {
	Kind        PoolInitKind
	InitialSize uint32
}

// ResourcePool declares a reusable pool of resources of one category.
type ResourcePool struct {
	Span                 position.Span
	Name                 string
	Category             string
	MinSize              uint32
	MaxSize              uint32
	Initialization       PoolInitialization
	AcquisitionTimeoutMS *uint64
	Validation           Expression
	ResetFunction        string
}

func (p *ResourcePool) GetSpan() position.Span { return p.Span }

func (p *ResourcePool) String() string {
	return fmt.Sprintf("pool %s (%s, %d..%d, %s)",
		p.Name, p.Category, p.MinSize, p.MaxSize, p.Initialization.Kind)
}

// ==========================================================================
// Scope builder
// ==========================================================================

// ScopeBuilder assembles a ResourceScope incrementally. It exists for the
// front end and for tests; the zero value is not usable, use NewScopeBuilder.
type ScopeBuilder struct {
	scope *ResourceScope
}

// NewScopeBuilder starts a scope with the given identifier.
func NewScopeBuilder(scopeID string) *ScopeBuilder {
	return &ScopeBuilder{
		scope: &ResourceScope{
			ScopeID:           scopeID,
			CleanupGuaranteed: true,
			CleanupOrder:      CleanupReverseAcquisition,
		},
	}
}

// AddResource appends an acquisition to the scope.
func (b *ScopeBuilder) AddResource(res *ResourceAcquisition) *ScopeBuilder {
	b.scope.Resources = append(b.scope.Resources, res)
	return b
}

// AddInvariant records a named invariant the scope body must preserve.
func (b *ScopeBuilder) AddInvariant(name string) *ScopeBuilder {
	b.scope.Invariants = append(b.scope.Invariants, name)
	return b
}

// CleanupOrder sets the scope's release ordering policy.
func (b *ScopeBuilder) CleanupOrder(order CleanupOrder) *ScopeBuilder {
	b.scope.CleanupOrder = order
	return b
}

// Guaranteed sets whether cleanup runs on every exit path.
func (b *ScopeBuilder) Guaranteed(v bool) *ScopeBuilder {
	b.scope.CleanupGuaranteed = v
	return b
}

// Build attaches the body and span and returns the finished scope.
func (b *ScopeBuilder) Build(body *BlockStatement, span position.Span) *ResourceScope {
	b.scope.Body = body
	b.scope.Span = span
	return b.scope
}
