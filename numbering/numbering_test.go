package numbering_test

import (
	"testing"

	"github.com/kestrel-vm/outlining/ir"
	"github.com/kestrel-vm/outlining/numbering"
)

// buildRange builds one block: an External-referencing Op followed by a
// chain of Internal-referencing Ops, and returns the block plus the
// External value's own defining instruction (outside the range).
func buildRange(mod *ir.Module) (blk *ir.BasicBlock, ext ir.Value, rangeStart int) {
	fn := &ir.Function{Name: "f"}
	blk = &ir.BasicBlock{Num: 0, Func: fn}
	fn.Blocks = []*ir.BasicBlock{blk}
	mod.AddFunc(fn)

	b := ir.NewBuilder(mod)
	b.SetInsertionBlock(fn, blk)

	ext = b.Append(&ir.LoadLiteral{Lit: mod.NumberLit(7)}).(ir.Value) // outside the range
	rangeStart = 1

	one := b.Append(&ir.LoadLiteral{Lit: mod.NumberLit(1)}).(ir.Value)
	sumInst := b.Append(&ir.Op{Kind: ir.Add, Args: []ir.Operand{
		{Kind: ir.OpndInstruction, Value: ext},
		{Kind: ir.OpndInstruction, Value: one},
	}})
	ir.LinkUses(sumInst)
	sum := sumInst.(ir.Value)
	prodInst := b.Append(&ir.Op{Kind: ir.Mul, Args: []ir.Operand{
		{Kind: ir.OpndInstruction, Value: sum},
		{Kind: ir.OpndInstruction, Value: sum},
	}})
	ir.LinkUses(prodInst)
	return blk, ext, rangeStart
}

func TestClassifiesInternalExternalAndVal(t *testing.T) {
	mod := ir.NewModule("t")
	blk, _, start := buildRange(mod)

	n := numbering.New(blk, start, 3, numbering.Flags{IncludeInstructions: true, IncludeParameters: true})
	exprs := numbering.All(n)
	if len(exprs) != 3 {
		t.Fatalf("got %d expressions, want 3", len(exprs))
	}

	// exprs[0] is `one = loadlit 1`: a single Val operand.
	if len(exprs[0].Operands) != 1 || exprs[0].Operands[0].Kind != numbering.Val {
		t.Fatalf("exprs[0] operand: got %+v, want a single Val", exprs[0].Operands)
	}

	// exprs[1] is `sum = add ext, one`: External then Internal.
	if got := exprs[1].Operands[0].Kind; got != numbering.External {
		t.Fatalf("exprs[1].Operands[0].Kind = %v, want External", got)
	}
	if got := exprs[1].Operands[0].Index; got != 0 {
		t.Fatalf("exprs[1].Operands[0].Index = %d, want 0 (first external)", got)
	}
	if got := exprs[1].Operands[1].Kind; got != numbering.Internal {
		t.Fatalf("exprs[1].Operands[1].Kind = %v, want Internal", got)
	}
	if got := exprs[1].Operands[1].Index; got != 0 {
		t.Fatalf("exprs[1].Operands[1].Index = %d, want 0 (the first instruction in range)", got)
	}

	// exprs[2] is `prod = mul sum, sum`: both Internal, same index.
	if exprs[2].Operands[0].Kind != numbering.Internal || exprs[2].Operands[1].Kind != numbering.Internal {
		t.Fatalf("exprs[2] operands: got %+v, want both Internal", exprs[2].Operands)
	}
	if exprs[2].Operands[0].Index != exprs[2].Operands[1].Index {
		t.Fatalf("exprs[2] operands reference the same value but got different indices: %+v", exprs[2].Operands)
	}

	if n.ExternalCount() != 1 {
		t.Fatalf("ExternalCount() = %d, want 1", n.ExternalCount())
	}
}

func TestExpressionEqualIgnoresInstrIdentity(t *testing.T) {
	mod := ir.NewModule("t")
	blk1, _, start1 := buildRange(mod)
	blk2, _, start2 := buildRange(mod)

	n1 := numbering.New(blk1, start1, 3, numbering.Flags{IncludeInstructions: true, IncludeParameters: true})
	n2 := numbering.New(blk2, start2, 3, numbering.Flags{IncludeInstructions: true, IncludeParameters: true})
	e1 := numbering.All(n1)
	e2 := numbering.All(n2)

	if len(e1) != len(e2) {
		t.Fatalf("different lengths: %d vs %d", len(e1), len(e2))
	}
	for i := range e1 {
		if !e1[i].Equal(e2[i]) {
			t.Errorf("expression %d: %+v not Equal to %+v", i, e1[i], e2[i])
		}
		if e1[i].Instr == e2[i].Instr {
			t.Errorf("expression %d: Equal compared distinct Instr pointers as identical", i)
		}
	}
}

func TestExpressionEqualDetectsShapeDivergence(t *testing.T) {
	mod := ir.NewModule("t")
	blk, ext, start := buildRange(mod)
	n := numbering.New(blk, start, 3, numbering.Flags{IncludeInstructions: true, IncludeParameters: true})
	base := numbering.All(n)

	// Replace the second range instruction's second operand with the
	// External value instead of the Internal one: same variety and
	// operand count, but a divergent operand classification.
	diverged := Expression2(base[1], numbering.Operand{Kind: numbering.External, Index: 0, Raw: ir.Operand{Kind: ir.OpndInstruction, Value: ext}})
	if base[1].Equal(diverged) {
		t.Fatal("Equal reported two structurally different expressions as equal")
	}
}

// Expression2 returns a copy of e with its second operand replaced,
// isolating the operand-shape comparison without rebuilding an entire
// second range.
func Expression2(e numbering.Expression, second numbering.Operand) numbering.Expression {
	out := e
	out.Operands = append([]numbering.Operand{}, e.Operands...)
	out.Operands[1] = second
	return out
}

func TestNewPanicsOnEmptyRange(t *testing.T) {
	mod := ir.NewModule("t")
	blk, _, _ := buildRange(mod)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic constructing an empty range")
		}
	}()
	numbering.New(blk, 0, 0, numbering.Flags{})
}

func TestNewPanicsOnOutOfBoundsRange(t *testing.T) {
	mod := ir.NewModule("t")
	blk, _, _ := buildRange(mod)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic constructing an out-of-bounds range")
		}
	}()
	numbering.New(blk, 0, len(blk.Instrs)+1, numbering.Flags{})
}
