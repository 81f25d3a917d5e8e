package lispcore

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// ErrCode is a stable, non-zero interpreter error code (spec §7). User
// codes registered through RegisterErrorCode begin at errUser0.
type ErrCode int32

const ErrNone ErrCode = 0

const (
	ErrRead ErrCode = iota + 1
	ErrEOF
	ErrLex
	ErrEval
	ErrNoSym
	ErrStack
	ErrType
	ErrMatch
	ErrNil
	ErrDivZero
	ErrReadOnly
	ErrWriteOnly
	ErrValue
	ErrOverflow
	ErrAPI
	ErrIO
	ErrNoMem
	ErrExist
	ErrStatic
	ErrIndex

	errUser0 // sentinel: user-registered codes begin here
)

var builtinCodeNames = map[ErrCode]string{
	ErrRead:      "READ",
	ErrEOF:       "EOF",
	ErrLex:       "LEX",
	ErrEval:      "EVAL",
	ErrNoSym:     "NOSYM",
	ErrStack:     "STACK",
	ErrType:      "TYPE",
	ErrMatch:     "MATCH",
	ErrNil:       "NIL",
	ErrDivZero:   "DIVZERO",
	ErrReadOnly:  "READONLY",
	ErrWriteOnly: "WRITEONLY",
	ErrValue:     "VALUE",
	ErrOverflow:  "OVERFLOW",
	ErrAPI:       "API",
	ErrIO:        "IO",
	ErrNoMem:     "NOMEM",
	ErrExist:     "EXIST",
	ErrStatic:    "STATIC",
	ErrIndex:     "INDEX",
}

var sortedBuiltinCodes = func() []ErrCode {
	out := make([]ErrCode, 0, len(builtinCodeNames))
	for c := range builtinCodeNames {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}()

var errOutOfMemory = errors.New("lispcore: allocation would exceed mem-limit")
var errHashTableFull = errors.New("lispcore: hash table exceeded its capacity ceiling")
var errCastFailed = errors.New("lispcore: no cast registered for target type")

// codeName looks a built-in code up by binary search over the sorted
// table, falling back to the per-instance user-registered names table
// beyond errUser0, as described in spec §4.9.
func (it *Interp) codeName(c ErrCode) string {
	if c < errUser0 {
		i := sort.Search(len(sortedBuiltinCodes), func(i int) bool { return sortedBuiltinCodes[i] >= c })
		if i < len(sortedBuiltinCodes) && sortedBuiltinCodes[i] == c {
			return builtinCodeNames[c]
		}
		return "UNKNOWN"
	}
	if name, ok := it.userCodeNames[c]; ok {
		return name
	}
	return "USER-UNKNOWN"
}

// RegisterErrorCode reserves a new user error code under the given
// name (spec §6 register-error-code).
func (it *Interp) RegisterErrorCode(name string) ErrCode {
	code := it.nextUserCode
	it.nextUserCode++
	it.userCodeNames[code] = name
	return code
}

// Location is reader/LOCATION-attribute position information: file,
// byte offset, and line (spec §4.6).
type Location struct {
	File   string
	Offset int
	Line   int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Offset)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Offset)
}

// Frame is one entry in the backtrace ring buffer.
type Frame struct {
	Location Location
	Form     string
}

// Backtrace is a fixed-capacity ring buffer of source-annotated frame
// summaries (spec §4.9).
type Backtrace struct {
	frames []Frame
	limit  int
}

const defaultBacktraceLimit = 32

func newBacktrace(limit int) *Backtrace {
	if limit <= 0 {
		limit = defaultBacktraceLimit
	}
	return &Backtrace{limit: limit}
}

func (b *Backtrace) Push(f Frame) {
	if len(b.frames) < b.limit {
		b.frames = append(b.frames, f)
		return
	}
	copy(b.frames, b.frames[1:])
	b.frames[len(b.frames)-1] = f
}

func (b *Backtrace) Frames() []Frame {
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}

func (b *Backtrace) Clear() { b.frames = b.frames[:0] }

// Throw sets the interpreter's error state. Every evaluator step and
// builtin checks HasError after any call and short-circuits -- see
// eval.go and unpack.go. The return value is always NilValue, so
// callers can write `return it.Throw(...)` directly.
func (it *Interp) Throw(code ErrCode, msg string) Value {
	it.errCode = code
	it.errMsg = msg
	// Allocating the STRING mirror can itself drive gc.register, which
	// throws ErrNoMem on arena exhaustion -- guard against that nested
	// Throw re-entering here and recursing forever.
	if !it.settingErrMsgValue {
		it.settingErrMsgValue = true
		it.errMsgValue = it.NewString(msg)
		it.settingErrMsgValue = false
	}
	if it.logger != nil && it.cfg.GetBool(OptGenDebugInfo) {
		it.logger.Debugw("thrown", "code", it.codeName(code), "message", msg)
	}
	return NilValue
}

// newGoErr is the Go-error-returning sibling of Throw, used by
// constructors and other call sites that are more naturally expressed
// with a returned error than with the global error-state convention.
// It also sets the interpreter's error state so a subsequent HasError
// check after an internal call still short-circuits correctly.
func (it *Interp) newGoErr(code ErrCode, msg string) error {
	it.Throw(code, msg)
	return errors.Errorf("%s: %s", it.codeName(code), msg)
}

func (it *Interp) HasError() bool { return it.errCode != ErrNone }

func (it *Interp) ClearError() {
	it.errCode = ErrNone
	it.errMsg = ""
	it.errMsgValue = Value{}
}

func (it *Interp) Errno() ErrCode       { return it.errCode }
func (it *Interp) ErrorMessage() string { return it.errMsg }

// PError prints "prefix: message [CODENAME]" the way spec §7 requires.
func (it *Interp) PError(prefix string) {
	if !it.HasError() {
		return
	}
	fmt.Fprintf(it.stderr, "%s: %s [%s]\n", prefix, it.errMsg, it.codeName(it.errCode))
}

func (it *Interp) pushFrame(form Value, loc Location) {
	it.backtrace.Push(Frame{Location: loc, Form: it.Print(form)})
}
