package lispcore

import "fmt"

// unpackError carries the precise ErrCode spec §4.12 mandates: MATCH
// for an arity mismatch, TYPE for a wrong-shaped slot.
type unpackError struct {
	code ErrCode
	msg  string
}

func (e *unpackError) Error() string { return e.msg }

// unpackSlot is one parsed position of an unpack format string (spec
// §4.12): a set of acceptable type letters (more than one only for a
// bracketed alternative like "[id]"), an optional quantifier
// modifier, and whether `!` requested raw-identifier extraction.
type unpackSlot struct {
	chars []byte
	mod   byte // 0, '?', '+', '*'
	bang  bool
}

// parseUnpackFormat compiles a format string into its slot sequence.
// Case only distinguishes evaluate-first (lowercase) from
// pass-through (uppercase) in the original C design; since Unpack
// here always receives already-evaluated argument Values (builtins
// never see raw forms -- special forms handle their own unevaluated
// positions directly, as specialforms.go does), both cases accept the
// same Value shape and the distinction is cosmetic. This is
// documented in DESIGN.md as the one deliberate simplification C12
// makes relative to the embedding-C original.
func parseUnpackFormat(format string) ([]unpackSlot, error) {
	var slots []unpackSlot
	i := 0
	for i < len(format) {
		c := format[i]
		var slot unpackSlot
		if c == '[' {
			j := i + 1
			for j < len(format) && format[j] != ']' {
				slot.chars = append(slot.chars, format[j])
				j++
			}
			if j >= len(format) {
				return nil, fmt.Errorf("unpack: unterminated '[' group in format %q", format)
			}
			i = j + 1
		} else if c == '?' || c == '+' || c == '*' || c == '!' {
			// A bare quantifier/bang with no preceding type letter
			// names an untyped catch-all slot, the same as leading
			// with "." -- don't consume c here, the modifier scan
			// below still needs to see it.
			slot.chars = []byte{'.'}
		} else {
			slot.chars = []byte{c}
			i++
		}
		for i < len(format) {
			switch format[i] {
			case '?', '+', '*':
				if slot.mod != 0 {
					return nil, fmt.Errorf("unpack: slot already has modifier %q", slot.mod)
				}
				slot.mod = format[i]
				i++
				continue
			case '!':
				slot.bang = true
				i++
				continue
			}
			break
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// slotAccepts reports whether v's tag is one of the alternatives slot
// names, per the format alphabet in spec §4.12. Alias types (spec
// §4.8's register-type) are resolved to their base before matching, so
// a FILE-tagged USER-PTR still satisfies an "f" slot.
func (it *Interp) slotAccepts(slot unpackSlot, v Value) bool {
	if base, err := it.types.ResolveBase(v.Tag()); err == nil && base != v.Tag() {
		v = Value{tag: base, imm: v.imm, obj: v.obj}
	}
	return slotAccepts(slot, v)
}

func slotAccepts(slot unpackSlot, v Value) bool {
	for _, c := range slot.chars {
		switch c {
		case 'i', 'I':
			if v.Tag() == TagInt {
				return true
			}
		case 'd', 'D':
			if v.Tag() == TagDouble {
				return true
			}
		case 'b', 'B':
			if v.Tag() == TagBool {
				return true
			}
		case 'n', 'N':
			if v.Tag() == TagID {
				return true
			}
		case 's', 'S':
			if v.Tag() == TagString {
				return true
			}
		case 'c', 'C':
			if v.Tag() == TagNil || v.Tag() == TagList {
				return true
			}
		case 'l', 'L':
			if v.Tag() == TagFunc {
				return true
			}
		case 'p', 'P':
			if v.Tag() == TagExtFunc {
				return true
			}
		case 'e', 'E':
			if v.Tag() == TagEnv {
				return true
			}
		case 'f', 'F':
			if v.Tag() == TagUserPtr {
				return true
			}
		case 'x', 'X':
			if v.Tag() == TagErrorCode {
				return true
			}
		case '#':
			if v.Tag() == TagInt || v.Tag() == TagDouble {
				return true
			}
		case '.', '_':
			return true
		}
	}
	return false
}

// applyBang extracts an identifier's raw name as a STRING value when
// `!` was given, per spec §4.12's "for identifiers extracts the raw
// name pointer instead of the value".
func (it *Interp) applyBang(slot unpackSlot, v Value) Value {
	if slot.bang && v.Tag() == TagID {
		return it.NewString(v.IdentifierName())
	}
	return v
}

// Unpack validates and converts args against format, returning one
// Value per slot: an unmodified slot's Value, NilValue for an unmet
// `?` slot, or a LIST for a `+`/`*` slot. Every consumed value is
// pinned via Ref for the duration of the call and released before
// returning, per spec §4.12/§5's "protect host code's arguments from
// collection" guarantee.
func (it *Interp) Unpack(args []Value, format string) ([]Value, error) {
	slots, err := parseUnpackFormat(format)
	if err != nil {
		return nil, err
	}

	handles := make([]RefHandle, len(args))
	for i, a := range args {
		handles[i] = it.Ref(a)
	}
	defer func() {
		for _, h := range handles {
			it.Unref(h)
		}
	}()

	results := make([]Value, len(slots))
	idx := 0
	for i, slot := range slots {
		switch slot.mod {
		case '+', '*':
			var collected []Value
			for idx < len(args) && it.slotAccepts(slot, args[idx]) {
				collected = append(collected, it.applyBang(slot, args[idx]))
				idx++
			}
			if slot.mod == '+' && len(collected) == 0 {
				return nil, &unpackError{ErrMatch, fmt.Sprintf("unpack: slot %d requires one or more matching arguments", i)}
			}
			results[i] = it.SliceToList(collected)

		case '?':
			if idx < len(args) && it.slotAccepts(slot, args[idx]) {
				results[i] = it.applyBang(slot, args[idx])
				idx++
			} else {
				results[i] = NilValue
			}

		default:
			if idx >= len(args) {
				return nil, &unpackError{ErrMatch, fmt.Sprintf("unpack: too few arguments, expected at least %d", i+1)}
			}
			if !it.slotAccepts(slot, args[idx]) {
				return nil, &unpackError{ErrType, fmt.Sprintf("unpack: argument %d has the wrong type for format %q", idx, string(slot.chars))}
			}
			results[i] = it.applyBang(slot, args[idx])
			idx++
		}
	}
	if idx != len(args) {
		return nil, &unpackError{ErrMatch, fmt.Sprintf("unpack: too many arguments, expected %d, got %d", idx, len(args))}
	}
	return results, nil
}

// UnpackOrThrow is the builtin-facing convenience wrapper: a failure
// sets the interpreter's error state with the code spec §4.12
// mandates (MATCH for arity, TYPE for a wrong-shaped slot) and returns
// ok=false, so callers can write `vs, ok := it.UnpackOrThrow(...); if
// !ok { return NilValue }`.
func (it *Interp) UnpackOrThrow(args []Value, format string) ([]Value, bool) {
	vs, err := it.Unpack(args, format)
	if err == nil {
		return vs, true
	}
	code := ErrType
	if ue, ok := err.(*unpackError); ok {
		code = ue.code
	}
	it.Throw(code, err.Error())
	return nil, false
}
