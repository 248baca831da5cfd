// Package outlining implements the instruction-outlining optimization
// pass: it finds recurring instruction sequences across a module's
// functions, extracts each into one shared function, and replaces every
// occurrence with a direct call.
package outlining

import (
	"fmt"
	"strings"

	"github.com/kestrel-vm/outlining/ir"
)

// LiteralOperand records one literal operand's position in an
// instruction's operand list, part of an InstructionKey.
type LiteralOperand struct {
	Index int
	Lit   *ir.Literal
}

// InstructionKey is the equality/hash contract the Tokenizer uses to
// assign legal tokens: same opcode variety, same operand count, and the
// same literal operands at the same positions. Non-literal operands are
// deliberately ignored — structural equivalence of those is
// InstructionNumbering's job, not this one's.
//
// Positional indices are part of the key itself, grounded on
// other_examples/cloudwego-frugal__pass_comsubexpr.go's _VID/vid()
// structural-key idiom (adapted here to a typed struct plus a canonical
// string form rather than a formatted string built ad hoc per call
// site), with one deliberate departure from that model: _VID
// canonicalizes commutative operand order for some ops, but this key
// never does, since spec.md §4.1 is explicit that `mul a,b` and `mul
// b,a` must not collide unless structurally identical.
type InstructionKey struct {
	Variety      ir.Variety
	ArithKind    ir.ArithOp
	IsArith      bool
	OperandCount int
	Literals     []LiteralOperand
}

// KeyOf computes inst's InstructionKey.
func KeyOf(inst ir.Instruction) InstructionKey {
	ops := inst.Operands()
	var lits []LiteralOperand
	for i, o := range ops {
		if o.Kind == ir.OpndLiteral {
			lits = append(lits, LiteralOperand{Index: i, Lit: o.Literal})
		}
	}
	k := InstructionKey{Variety: inst.Variety(), OperandCount: len(ops), Literals: lits}
	if arithKind, ok := ir.ArithKind(inst); ok {
		k.ArithKind, k.IsArith = arithKind, true
	}
	return k
}

// Equal reports whether two keys describe token-equal instructions.
func (k InstructionKey) Equal(other InstructionKey) bool {
	if k.Variety != other.Variety || k.OperandCount != other.OperandCount {
		return false
	}
	if k.IsArith != other.IsArith || (k.IsArith && k.ArithKind != other.ArithKind) {
		return false
	}
	if len(k.Literals) != len(other.Literals) {
		return false
	}
	for i := range k.Literals {
		if k.Literals[i].Index != other.Literals[i].Index || k.Literals[i].Lit != other.Literals[i].Lit {
			return false
		}
	}
	return true
}

// canonical returns a string that two keys map to identically iff
// Equal reports true for them — used as the map key when interning
// tokens, since a slice-bearing struct cannot itself be a Go map key.
func (k InstructionKey) canonical() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d", k.Variety, k.OperandCount, k.ArithKind)
	for _, l := range k.Literals {
		fmt.Fprintf(&b, "|%d:%p", l.Index, l.Lit)
	}
	return b.String()
}
