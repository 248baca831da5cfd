// Package numbering implements InstructionNumbering (spec.md §3, §6): it
// walks a fixed range of one basic block and emits one Expression per
// instruction, classifying every operand as a reference to an earlier
// in-range instruction (Internal), a value defined outside the range
// (External, numbered densely in first-appearance order), or a literal/
// variable/stack-slot value carried verbatim (Value).
//
// The zip + takewhile-equal comparison Design Notes §9 asks for is
// Expression.Equal: two independently-constructed Expressions compare
// equal iff they have the same opcode variety and element-wise-equal
// classified operands, which is strictly finer than
// outlining.InstructionKey's token equality (it also demands identical
// Internal/External shape, not just identical literals).
package numbering

import (
	"github.com/kestrel-vm/outlining/ir"
)

// OperandKind classifies one Expression operand.
type OperandKind int

const (
	// Internal refers to the Index-th earlier Value in the same range.
	Internal OperandKind = iota
	// External refers to a value defined outside the range, numbered
	// densely from 0 in first-appearance order.
	External
	// Val carries a non-instruction operand (literal, variable, or
	// stack slot) verbatim.
	Val
)

// Operand is one classified operand of an Expression.
type Operand struct {
	Kind OperandKind
	// Index is meaningful for Internal/External.
	Index int
	// Raw is the original ir.Operand, populated for every operand except
	// a Param reference classified as Val because IncludeParameters is
	// false. For Val it is the authoritative payload (Literal/Var/Slot/
	// Func); for Internal/External it is kept for provenance.
	Raw ir.Operand
	// SourceIndex is this operand's index in the underlying
	// instruction's own Operands() list. Design Notes §9's open
	// question — whether an expression operand corresponds 1:1 to an
	// underlying instruction operand — is resolved by carrying this
	// explicitly rather than requiring callers to count.
	SourceIndex int
}

// Equal reports whether two operands classify the same way. Val
// operands compare their Raw payload by the same identity rule
// outlining.InstructionKey uses (pointer equality of the interned
// Literal/Variable/StackSlot, or of the callee Function).
func (o Operand) Equal(other Operand) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case Internal, External:
		return o.Index == other.Index
	case Val:
		return rawEqual(o.Raw, other.Raw)
	default:
		return false
	}
}

func rawEqual(a, b ir.Operand) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case ir.OpndLiteral:
		return a.Literal == b.Literal
	case ir.OpndVariable:
		return a.Var == b.Var
	case ir.OpndStackSlot:
		return a.Slot == b.Slot
	case ir.OpndFunction:
		return a.Func == b.Func
	default:
		return false
	}
}

// Expression is the canonical representation of one instruction inside
// a numbered range.
type Expression struct {
	Instr     ir.Instruction
	Variety   ir.Variety
	ArithKind ir.ArithOp
	IsArith   bool
	Operands  []Operand
}

// Equal reports whether two expressions have the same shape: same
// opcode variety (and, for arithmetic ops, the same ir.ArithKind, since
// Variety alone collapses add/sub/mul/... to one value) and element-
// wise-equal operands. It does not compare the underlying Instr
// pointers.
func (e Expression) Equal(other Expression) bool {
	if e.Variety != other.Variety || len(e.Operands) != len(other.Operands) {
		return false
	}
	if e.IsArith != other.IsArith || (e.IsArith && e.ArithKind != other.ArithKind) {
		return false
	}
	for i := range e.Operands {
		if !e.Operands[i].Equal(other.Operands[i]) {
			return false
		}
	}
	return true
}

// Flags mirrors spec.md §6's construction flags. Both are honored by
// this implementation: IncludeInstructions gates whether an
// Expression's underlying instruction is retained for provenance versus
// nil; IncludeParameters gates whether references to the function's own
// Params are numbered as Externals (if false, a Param reference is
// still classified, but as a Val carrying no Raw payload — callers that
// don't want Params to influence parameter counting can then filter it
// out with SourceIndex/Kind inspection). The Target and
// FunctionSynthesizer of this module always construct with both flags
// true.
type Flags struct {
	IncludeInstructions bool
	IncludeParameters   bool
}

// Numbering streams Expressions for one fixed range [start, start+length)
// of block.
type Numbering struct {
	block  *ir.BasicBlock
	start  int
	length int
	flags  Flags

	pos int // instruction position within [0, length) already produced

	internalIndex map[ir.Value]int
	internalNext  int

	externalIndex map[ir.Value]int
	externalNext  int
}

// New constructs a Numbering over block.Instrs[start : start+length].
func New(block *ir.BasicBlock, start, length int, flags Flags) *Numbering {
	if length <= 0 {
		panic("numbering: empty range")
	}
	if start < 0 || start+length > len(block.Instrs) {
		panic("numbering: range out of bounds")
	}
	return &Numbering{
		block:         block,
		start:         start,
		length:        length,
		flags:         flags,
		internalIndex: make(map[ir.Value]int),
		externalIndex: make(map[ir.Value]int),
	}
}

// Len returns the number of instructions the range covers.
func (n *Numbering) Len() int { return n.length }

// Next produces the next Expression, or ok=false once the range is
// exhausted.
func (n *Numbering) Next() (expr Expression, ok bool) {
	if n.pos >= n.length {
		return Expression{}, false
	}
	inst := n.block.Instrs[n.start+n.pos]
	rawOps := inst.Operands()
	ops := make([]Operand, len(rawOps))
	for i, raw := range rawOps {
		ops[i] = n.classify(raw, i)
	}
	expr = Expression{Variety: inst.Variety(), Operands: ops}
	if arithKind, ok := ir.ArithKind(inst); ok {
		expr.ArithKind, expr.IsArith = arithKind, true
	}
	if n.flags.IncludeInstructions {
		expr.Instr = inst
	}
	if v, isVal := inst.(ir.Value); isVal {
		n.internalIndex[v] = n.internalNext
		n.internalNext++
	}
	n.pos++
	return expr, true
}

func (n *Numbering) classify(raw ir.Operand, sourceIndex int) Operand {
	if raw.Kind != ir.OpndInstruction {
		return Operand{Kind: Val, Raw: raw, SourceIndex: sourceIndex}
	}
	v := raw.Value
	if _, isParam := v.(*ir.Param); isParam && !n.flags.IncludeParameters {
		return Operand{Kind: Val, SourceIndex: sourceIndex}
	}
	if idx, ok := n.internalIndex[v]; ok {
		return Operand{Kind: Internal, Index: idx, Raw: raw, SourceIndex: sourceIndex}
	}
	idx, ok := n.externalIndex[v]
	if !ok {
		idx = n.externalNext
		n.externalNext++
		n.externalIndex[v] = idx
	}
	return Operand{Kind: External, Index: idx, Raw: raw, SourceIndex: sourceIndex}
}

// ExternalCount returns the number of distinct External indices
// numbered so far — spec.md §4.3 step 4's P, dense from 0 by
// construction so this is just the running counter.
func (n *Numbering) ExternalCount() int { return n.externalNext }

// All drains the Numbering into a slice, a convenience for callers that
// want to run it to completion (Target's lockstep comparison instead
// steps two Numberings by hand so it can stop at first divergence).
func All(n *Numbering) []Expression {
	var out []Expression
	for {
		e, ok := n.Next()
		if !ok {
			return out
		}
		out = append(out, e)
	}
}
