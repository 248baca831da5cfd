package outlining

import (
	"fmt"

	"github.com/kestrel-vm/outlining/escape"
	"github.com/kestrel-vm/outlining/ir"
	"github.com/kestrel-vm/outlining/numbering"
)

// FunctionSynthesizer implements spec.md §4.4: given a descriptor, it
// builds one new ir.Function from the descriptor's prototype candidate.
type FunctionSynthesizer struct {
	Stream   TokenStream
	Builder  *ir.Builder
	Settings OutliningSettings
	Stats    StatsSink
}

// Synthesize builds and returns the descriptor's outlined function.
func (fs *FunctionSynthesizer) Synthesize(desc *OutlinedFunction) *ir.Function {
	proto := firstAlive(desc.Candidates)
	if proto == nil {
		panic("outlining: Synthesize: descriptor has no live candidate")
	}

	r := RangeOf(fs.Stream, proto.Start, proto.Length)
	verify := escape.New()
	verify.AddRange(r)
	res := verify.LongestPrefix()
	if res.Length != proto.Length {
		panic("outlining: Synthesize: commonLen mismatch on re-verification")
	}

	protoInst := fs.Stream.Instructions[proto.Start]
	callerFn := protoInst.Block().Func

	name := fmt.Sprintf("OUTLINED_FUNCTION_%d", len(fs.Builder.Mod.Funcs))
	newFn := fs.Builder.CreateFunction(name, callerFn.Strict)
	if fs.Settings.PlaceNearCaller {
		fs.Builder.PlaceFunctionBefore(newFn, callerFn)
	}
	blk := fs.Builder.CreateBasicBlock(newFn)
	fs.Builder.SetInsertionBlock(newFn, blk)

	n := numbering.New(r.Block, r.Start, r.Length, numberingFlags())
	cloned := make([]ir.Instruction, 0, proto.Length)
	var params []*ir.Param

	for {
		expr, ok := n.Next()
		if !ok {
			break
		}
		newOps := make([]ir.Operand, len(expr.Operands))
		for i, op := range expr.Operands {
			switch op.Kind {
			case numbering.Internal:
				if op.Index >= len(cloned) {
					panic("outlining: Synthesize: use-before-definition of Internal operand")
				}
				v, ok := cloned[op.Index].(ir.Value)
				if !ok {
					panic("outlining: Synthesize: Internal operand does not name a value")
				}
				newOps[i] = ir.Operand{Kind: ir.OpndInstruction, Value: v}
			case numbering.External:
				if op.Index > len(params) {
					panic("outlining: Synthesize: skipped an External operand index")
				}
				if op.Index == len(params) {
					params = append(params, fs.Builder.CreateParameter(newFn, fmt.Sprintf("p%d", op.Index)))
				}
				newOps[i] = ir.Operand{Kind: ir.OpndInstruction, Value: params[op.Index]}
			case numbering.Val:
				newOps[i] = op.Raw
			default:
				panic("outlining: Synthesize: unknown operand kind")
			}
		}
		c := fs.Builder.CloneInst(expr.Instr, newOps)
		fs.Builder.Append(c)
		ir.LinkUses(c)
		cloned = append(cloned, c)
	}

	fs.Builder.CreateParameter(newFn, "this")

	if res.Offset >= 0 {
		v, ok := cloned[res.Offset].(ir.Value)
		if !ok {
			panic("outlining: Synthesize: escape offset does not name a value-producing instruction")
		}
		fs.Builder.CreateReturnInst(v, protoInst.Loc())
	} else {
		fs.Builder.CreateReturnOperand(ir.Operand{Kind: ir.OpndLiteral, Literal: fs.Builder.GetLiteralUndefined()}, protoInst.Loc())
	}

	if fs.Stats != nil {
		fs.Stats.AddFunctionCreated()
	}
	return newFn
}

func firstAlive(cands []*Candidate) *Candidate {
	for _, c := range cands {
		if !c.Deleted {
			return c
		}
	}
	return nil
}
