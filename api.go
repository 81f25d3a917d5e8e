package lispcore

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Version is the embeddable core's semantic version, surfaced by
// cmd/lispcore's `version` subcommand.
const Version = "0.1.0"

// Interp is one interpreter instance: its own heap, environments,
// error state, and logger. Nothing here is safe to share across
// goroutines (spec §5 Non-goal: no multi-threading).
type Interp struct {
	cfg *Config

	env             *Env
	globalEnv       *Env
	specialFormsEnv *Env
	macroEnv        *Env

	intern *internTable
	attrs  *Attributes
	gc     *GC
	types  *TypeRegistry

	errCode            ErrCode
	errMsg             string
	errMsgValue        Value
	settingErrMsgValue bool
	backtrace          *Backtrace

	userCodeNames map[ErrCode]string
	nextUserCode  ErrCode

	inMacroExpansion int
	tceEnabled       bool

	logger  *zap.SugaredLogger
	stderr  io.Writer
	metrics *Metrics
}

// InterpOption customizes a freshly constructed Interp before its
// global environment is populated, the way the teacher's
// NewGrammarParser constructor family takes functional options.
type InterpOption func(*Interp)

// WithLogger overrides the default no-op logger.
func WithLogger(l *zap.SugaredLogger) InterpOption {
	return func(it *Interp) { it.logger = l }
}

// WithStderr overrides where PError writes; tests use this to capture
// output instead of the real os.Stderr.
func WithStderr(w io.Writer) InterpOption {
	return func(it *Interp) { it.stderr = w }
}

// WithMetrics attaches a Metrics collector; nil (the default) disables
// metrics entirely, at zero cost on the hot path.
func WithMetrics(m *Metrics) InterpOption {
	return func(it *Interp) { it.metrics = m }
}

// NewInterp allocates a fresh interpreter: its three namespace
// environments (global/special-forms/macro), the intern table with
// the five standard identifiers pre-interned, and the type registry.
// cfg may be nil, in which case NewConfig's defaults apply.
func NewInterp(cfg *Config, opts ...InterpOption) *Interp {
	if cfg == nil {
		cfg = NewConfig()
	}
	it := &Interp{
		cfg:           cfg,
		userCodeNames: make(map[ErrCode]string),
		nextUserCode:  errUser0,
		stderr:        os.Stderr,
		tceEnabled:    cfg.GetBool(OptTCE),
	}
	it.backtrace = newBacktrace(defaultBacktraceLimit)
	it.attrs = newAttributes()
	it.types = newTypeRegistry()

	arena := NewArena(int64(cfg.GetInt(OptMemLimit)))
	it.gc = newGC(it, arena)
	it.gc.hyperGC = cfg.GetBool(OptHyperGC)

	it.intern = newInternTable(it)
	it.intern.preinternStandard()

	it.globalEnv = it.pushEnvOver(nil)
	it.globalEnv.hdr.rtflags &^= flagNoEscape // global env never "escapes"; it's always live
	it.specialFormsEnv = it.pushEnvOver(nil)
	it.specialFormsEnv.hdr.rtflags &^= flagNoEscape
	it.macroEnv = it.pushEnvOver(nil)
	it.macroEnv.hdr.rtflags &^= flagNoEscape

	// Every list form's head identifier resolves through the ordinary
	// lookupSymbol walk (Eval's TagID case), so special forms and
	// macros must be reachable from globalEnv: bifurcate it over the
	// two namespace environments rather than give Eval a separate
	// resolution path.
	it.globalEnv.below = it.bifurcateOver(nil, it.specialFormsEnv, it.macroEnv)
	it.globalEnv.below.hdr.rtflags &^= flagNoEscape
	it.env = it.globalEnv

	for _, opt := range opts {
		opt(it)
	}
	if it.logger == nil {
		it.logger = zap.NewNop().Sugar()
	}

	registerSpecialForms(it)
	registerCoreBuiltins(it)
	return it
}

// Destroy releases every object this interpreter holds, running
// finalizers to completion (spec §4.4). The Interp must not be used
// afterward.
func (it *Interp) Destroy() {
	it.gc.Destroy()
}

// DefineFunction installs an ExtFunc under name in the global
// environment.
func (it *Interp) DefineFunction(name, info string, fn ExtFunc) error {
	return it.Define(it.globalEnv, name, it.NewExtFunc(name, info, fn), SymNone)
}

// DefineSpecialForm installs a special form under name in the
// dedicated special-forms namespace environment (spec §4.10), never
// the global one. A lookup from globalEnv consults its own bindings
// first, so a global binding of the same name shadows the special form.
func (it *Interp) DefineSpecialForm(name, info string, pattern *Pattern, handler SpecialFormFunc) error {
	return it.Define(it.specialFormsEnv, name, it.NewSpecialForm(name, info, pattern, handler), SymNone)
}

// DefineMacro installs a macro function under name in the dedicated
// macro namespace environment (spec §4.10), consulted by the
// preprocessor before special forms and ordinary application.
func (it *Interp) DefineMacro(name string, fn Value) error {
	if fn.Tag() != TagFunc {
		return it.newGoErr(ErrAPI, "define-macro requires a FUNC value")
	}
	return it.Define(it.macroEnv, name, fn, SymNone)
}

// RegisterType delegates to the type registry (spec §6 register-type).
func (it *Interp) RegisterType(name string, base Tag) (Tag, error) {
	return it.types.RegisterType(name, base)
}

// AddCast delegates to the type registry (spec §6 add-cast).
func (it *Interp) AddCast(src, dst Tag, fn CastFunc) error {
	return it.types.AddCast(src, dst, fn)
}

// GlobalEnv returns the top-level definition environment, for
// collaborator packages (reader, prelude) that need to Define things
// before the first Eval.
func (it *Interp) GlobalEnv() *Env { return it.globalEnv }

// Intern returns the canonical identifier Value for name, allocating
// one on first use. Exported for the reader package, which builds
// identifier forms outside this package.
func (it *Interp) Intern(name string) Value { return it.intern.Intern(name) }

// SetLocation attaches a LOCATION attribute to a heap-allocated form,
// for the reader to record where each form came from.
func (it *Interp) SetLocation(v Value, loc Location) {
	if v.obj != nil {
		it.attrs.SetLocation(v.obj, loc)
	}
}

// EvalTopLevel preprocesses then evaluates form in the global
// environment; this is the entry point collaborator packages
// (prelude, the REPL) drive the core through.
func (it *Interp) EvalTopLevel(form Value) Value {
	expanded, err := it.preprocessExpr(form)
	if err != nil {
		return NilValue
	}
	return it.Eval(it.globalEnv, expanded)
}

// Print renders a Value as a diagnostic s-expression: used internally
// by backtraces and error messages (errors.go, preprocess.go). It is
// deliberately minimal -- the richer, user-facing renderer lives in
// the separate `printer` package, which depends on this package
// rather than the reverse, so it cannot be called from here without
// an import cycle.
func (it *Interp) Print(v Value) string {
	var b strings.Builder
	it.print(&b, v)
	return b.String()
}

func (it *Interp) print(b *strings.Builder, v Value) {
	switch v.Tag() {
	case TagNil:
		b.WriteString("()")
	case TagInt:
		b.WriteString(strconv.FormatInt(v.AsInt(), 10))
	case TagDouble:
		b.WriteString(strconv.FormatFloat(v.AsDouble(), 'g', -1, 64))
	case TagBool:
		if v.AsBool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case TagID:
		b.WriteString(v.IdentifierName())
	case TagString:
		b.WriteByte('"')
		b.WriteString(v.AsString())
		b.WriteByte('"')
	case TagList:
		b.WriteByte('(')
		first := true
		for cur := v; cur.Tag() == TagList; cur = cur.Cdr() {
			if !first {
				b.WriteByte(' ')
			}
			first = false
			it.print(b, cur.Car())
		}
		b.WriteByte(')')
	case TagQuote:
		b.WriteByte('\'')
		it.print(b, v.Inner())
	case TagBackquote:
		b.WriteByte('`')
		it.print(b, v.Inner())
	case TagComma:
		b.WriteByte(',')
		it.print(b, v.Inner())
	case TagSplice:
		b.WriteString(",@")
		it.print(b, v.Inner())
	case TagFunc:
		fmt.Fprintf(b, "#<func %s>", v.obj.(*funcObj).name)
	case TagExtFunc:
		fmt.Fprintf(b, "#<ext-func %s>", v.obj.(*extFuncObj).name)
	case TagSpecialForm:
		fmt.Fprintf(b, "#<special-form %s>", v.obj.(*specialFormObj).name)
	case TagEnv:
		b.WriteString("#<env>")
	case TagTypeCode:
		fmt.Fprintf(b, "#<type %d>", v.AsTypeCode())
	case TagErrorCode:
		fmt.Fprintf(b, "#<error %s>", it.codeName(v.AsErrorCode()))
	default:
		if printer, ok := it.types.Printer(v.Tag()); ok {
			b.WriteString(printer(v))
			return
		}
		b.WriteString("#<user-ptr>")
	}
}
