package outlining_test

import (
	"github.com/kestrel-vm/outlining/ir"
)

// buildArithFunc appends the six-instruction, zero-external-operand
// sequence `loadlit 1; loadlit 2; add; loadlit 3; mul; sub` to a fresh
// function named name, terminated by a Return of the final subtraction,
// and adds it to mod. It is the shared fixture spec.md §8's "three
// occurrences, zero parameters" scenario needs across target/
// synthesizer/rewriter/driver tests.
func buildArithFunc(mod *ir.Module, name string, strict bool) (*ir.Function, *ir.BasicBlock) {
	fn := &ir.Function{Name: name, Strict: strict}
	blk := &ir.BasicBlock{Num: 0, Func: fn}
	fn.Blocks = []*ir.BasicBlock{blk}
	mod.AddFunc(fn)

	b := ir.NewBuilder(mod)
	b.SetInsertionBlock(fn, blk)

	one := b.Append(&ir.LoadLiteral{Lit: mod.NumberLit(1)}).(ir.Value)
	two := b.Append(&ir.LoadLiteral{Lit: mod.NumberLit(2)}).(ir.Value)
	sum := b.Append(&ir.Op{Kind: ir.Add, Args: []ir.Operand{
		{Kind: ir.OpndInstruction, Value: one},
		{Kind: ir.OpndInstruction, Value: two},
	}}).(ir.Value)
	three := b.Append(&ir.LoadLiteral{Lit: mod.NumberLit(3)}).(ir.Value)
	product := b.Append(&ir.Op{Kind: ir.Mul, Args: []ir.Operand{
		{Kind: ir.OpndInstruction, Value: sum},
		{Kind: ir.OpndInstruction, Value: three},
	}}).(ir.Value)
	diff := b.Append(&ir.Op{Kind: ir.Sub, Args: []ir.Operand{
		{Kind: ir.OpndInstruction, Value: product},
		{Kind: ir.OpndInstruction, Value: one},
	}}).(ir.Value)
	ir.LinkUses(sum.(ir.Instruction))
	ir.LinkUses(product.(ir.Instruction))
	ir.LinkUses(diff.(ir.Instruction))

	ret := &ir.Return{Value: &ir.Operand{Kind: ir.OpndInstruction, Value: diff}}
	b.Append(ret)
	ir.LinkUses(ret)

	return fn, blk
}
