package ir_test

import (
	"testing"

	"github.com/kestrel-vm/outlining/ir"
)

// checkModuleInvariants is this module's analogue of
// flowgraph_test.go's checkFuncInvariants: every instruction lives in
// exactly the block it claims to, is reachable via BasicBlock.IndexOf,
// and every Value it Uses() lists it back in UsedBy().
func checkModuleInvariants(t *testing.T, mod *ir.Module) {
	t.Helper()
	for _, fn := range mod.Funcs {
		for _, blk := range fn.Blocks {
			seen := make(map[ir.Instruction]bool)
			for _, inst := range blk.Instrs {
				if inst.Deleted() {
					t.Errorf("%s: deleted instruction %s still present in Instrs", fn.Name, inst)
				}
				if inst.Block() != blk {
					t.Errorf("%s: instruction %s has Block() != its containing block", fn.Name, inst)
				}
				if blk.IndexOf(inst) < 0 {
					t.Errorf("%s: IndexOf failed to find %s in its own block", fn.Name, inst)
				}
				seen[inst] = true
			}
			for _, inst := range blk.Instrs {
				for _, used := range inst.Uses() {
					found := false
					for _, user := range used.UsedBy() {
						if user == inst {
							found = true
							break
						}
					}
					if !found {
						t.Errorf("%s: %s uses x%d but is not in its UsedBy()", fn.Name, inst, used.Num())
					}
				}
			}
		}
	}
}

func buildSimpleFunc(mod *ir.Module, name string) (fn *ir.Function, blk *ir.BasicBlock, a, b, sum ir.Value) {
	fn = &ir.Function{Name: name}
	blk = &ir.BasicBlock{Num: 0, Func: fn}
	fn.Blocks = []*ir.BasicBlock{blk}
	mod.AddFunc(fn)

	bld := ir.NewBuilder(mod)
	bld.SetInsertionBlock(fn, blk)

	a = bld.Append(&ir.LoadLiteral{Lit: mod.NumberLit(1)}).(ir.Value)
	b = bld.Append(&ir.LoadLiteral{Lit: mod.NumberLit(2)}).(ir.Value)
	sumInst := bld.Append(&ir.Op{Kind: ir.Add, Args: []ir.Operand{
		{Kind: ir.OpndInstruction, Value: a},
		{Kind: ir.OpndInstruction, Value: b},
	}})
	ir.LinkUses(sumInst)
	sum = sumInst.(ir.Value)

	ret := &ir.Return{Value: &ir.Operand{Kind: ir.OpndInstruction, Value: sum}}
	bld.Append(ret)
	ir.LinkUses(ret)
	return fn, blk, a, b, sum
}

func TestBuilderProducesConsistentModule(t *testing.T) {
	mod := ir.NewModule("t")
	buildSimpleFunc(mod, "f")
	checkModuleInvariants(t, mod)
}

func TestInternLiteralIsIdentityStable(t *testing.T) {
	mod := ir.NewModule("t")
	a := mod.NumberLit(1)
	b := mod.NumberLit(1)
	if a != b {
		t.Fatalf("NumberLit(1) returned distinct pointers: %p != %p", a, b)
	}
	c := mod.NumberLit(2)
	if a == c {
		t.Fatalf("NumberLit(1) and NumberLit(2) returned the same pointer")
	}
}

func TestEraseInstructionRemovesFromBlockAndUseLists(t *testing.T) {
	mod := ir.NewModule("t")
	_, blk, a, _, sum := buildSimpleFunc(mod, "f")

	bld := ir.NewBuilder(mod)
	// The Return still uses sum, so erasing sum directly would violate
	// the zero-uses contract CallRewriter relies on; erase the tail of
	// the block in reverse order instead, as outlining.CallRewriter does.
	ret := blk.Instrs[len(blk.Instrs)-1]
	bld.EraseInstruction(ret)
	if len(sum.(ir.Instruction).Uses()) == 0 {
		t.Fatal("sanity: sum should still use a and b")
	}
	sumInst := sum.(ir.Instruction)
	bld.EraseInstruction(sumInst)

	for _, inst := range blk.Instrs {
		if inst == sumInst || inst == ret {
			t.Fatalf("erased instruction still present in block")
		}
	}
	for _, user := range a.UsedBy() {
		if user == sumInst {
			t.Fatalf("erased instruction still listed in a's UsedBy()")
		}
	}
}

func TestEraseInstructionPanicsOnDoubleErase(t *testing.T) {
	mod := ir.NewModule("t")
	_, blk, _, _, _ := buildSimpleFunc(mod, "f")
	bld := ir.NewBuilder(mod)
	ret := blk.Instrs[len(blk.Instrs)-1]
	sum := blk.Instrs[len(blk.Instrs)-2]
	bld.EraseInstruction(ret)
	bld.EraseInstruction(sum)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic erasing an already-deleted instruction")
		}
	}()
	bld.EraseInstruction(sum)
}

func TestReplaceUsesRewritesEveryUser(t *testing.T) {
	mod := ir.NewModule("t")
	_, _, _, _, sum := buildSimpleFunc(mod, "f")

	blk := sum.(ir.Instruction).Block()
	ret := blk.Instrs[len(blk.Instrs)-1]

	repl := &ir.LoadLiteral{Lit: mod.NumberLit(99)}
	bld := ir.NewBuilder(mod)
	bld.SetInsertionPoint(blk.Func, blk, ret)
	bld.Append(repl)

	ir.ReplaceUses(sum, repl)

	for _, blk := range sum.(ir.Instruction).Block().Func.Blocks {
		for _, inst := range blk.Instrs {
			for _, v := range inst.Uses() {
				if v == sum {
					t.Fatalf("%s still uses the replaced value", inst)
				}
			}
		}
	}
	found := false
	for _, user := range repl.UsedBy() {
		if _, ok := user.(*ir.Return); ok {
			found = true
		}
	}
	if !found {
		t.Fatal("Return was not registered as a user of the replacement value")
	}
}
