package outlining

import (
	"github.com/kestrel-vm/outlining/escape"
	"github.com/kestrel-vm/outlining/ir"
	"github.com/kestrel-vm/outlining/numbering"
)

// CallRewriter implements spec.md §4.5: it replaces one candidate's
// occurrence with a direct call to the already-synthesized function.
type CallRewriter struct {
	Stream   TokenStream
	Builder  *ir.Builder
	Settings OutliningSettings
	Stats    StatsSink
}

// Rewrite splices a call to fn in place of cand's range. It returns
// false, leaving the IR untouched, if cand's enclosing function's
// strict-mode flag disagrees with fn's (spec.md §4.5 step 2) — this is
// an ordinary negative outcome, not a contract violation.
func (cr *CallRewriter) Rewrite(cand *Candidate, fn *ir.Function) bool {
	r := RangeOf(cr.Stream, cand.Start, cand.Length)
	callerFn := r.Block.Func

	if callerFn.Strict != fn.Strict {
		return false
	}

	verify := escape.New()
	verify.AddRange(r)
	res := verify.LongestPrefix()
	if res.Length != cand.Length {
		panic("outlining: Rewrite: commonLen mismatch on re-verification")
	}

	n := numbering.New(r.Block, r.Start, r.Length, numberingFlags())
	var args []ir.Operand
	var escapeInst ir.Instruction
	pos := 0
	for {
		expr, ok := n.Next()
		if !ok {
			break
		}
		for _, op := range expr.Operands {
			if op.Kind == numbering.External && op.Index == len(args) {
				args = append(args, op.Raw)
			}
		}
		if pos == res.Offset {
			escapeInst = expr.Instr
		}
		pos++
	}

	instrs := make([]ir.Instruction, r.Length)
	copy(instrs, r.Block.Instrs[r.Start:r.Start+r.Length])

	cr.Builder.SetInsertionPoint(callerFn, r.Block, instrs[0])
	thisOperand := ir.Operand{Kind: ir.OpndLiteral, Literal: cr.Builder.Mod.UndefinedLit()}
	call := cr.Builder.CreateDirectCall(fn, thisOperand, args, instrs[0].Loc())

	if escapeInst != nil {
		v, ok := escapeInst.(ir.Value)
		if !ok {
			panic("outlining: Rewrite: escape offset does not name a value-producing instruction")
		}
		ir.ReplaceUses(v, call)
	}

	for i := len(instrs) - 1; i >= 0; i-- {
		if v, ok := instrs[i].(ir.Value); ok && len(v.UsedBy()) != 0 {
			panic("outlining: Rewrite: erase of instruction with remaining uses")
		}
		cr.Builder.EraseInstruction(instrs[i])
	}

	if cr.Stats != nil {
		cr.Stats.AddCandidateOutlined()
	}
	return true
}
