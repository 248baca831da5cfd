package ir

import (
	"github.com/kestrel-vm/outlining/loc"
)

// Builder constructs and mutates a Module, following the split pea's
// flowgraph/build.go uses between a module-level builder and a
// per-block insertion cursor — trimmed to just the mechanical
// operations spec.md §6 lists as consumed by FunctionSynthesizer and
// CallRewriter: create a function, create a block, position an
// insertion point, append/clone instructions, create a parameter, and
// close a block with a call or a return.
type Builder struct {
	Mod *Module

	fn    *Function
	block *BasicBlock
	at    int // insertion index within block.Instrs; -1 means append
}

// NewBuilder returns a Builder that will insert new functions into mod.
func NewBuilder(mod *Module) *Builder {
	return &Builder{Mod: mod}
}

// CreateFunction creates a new, block-less function named name and adds
// it to the module. strict is copied from the prototype candidate's
// enclosing function, per spec.md §4.4 step 4.
func (b *Builder) CreateFunction(name string, strict bool) *Function {
	f := &Function{Name: name, Strict: strict}
	b.Mod.AddFunc(f)
	return f
}

// PlaceFunctionBefore moves f to immediately precede target in the
// module's function list (spec.md §4.4's placeNearCaller option).
func (b *Builder) PlaceFunctionBefore(f, target *Function) {
	for i, existing := range b.Mod.Funcs {
		if existing == f {
			b.Mod.Funcs = append(b.Mod.Funcs[:i], b.Mod.Funcs[i+1:]...)
			break
		}
	}
	b.Mod.InsertFuncBefore(f, target)
}

// CreateBasicBlock appends a new, empty basic block to f.
func (b *Builder) CreateBasicBlock(f *Function) *BasicBlock {
	bb := &BasicBlock{Num: len(f.Blocks), Func: f}
	f.Blocks = append(f.Blocks, bb)
	return bb
}

// CreateParameter appends a new parameter to f and returns it.
func (b *Builder) CreateParameter(f *Function, name string) *Param {
	return f.AddParam(name)
}

// SetInsertionBlock points the builder at the end of block: subsequent
// Append calls add instructions there.
func (b *Builder) SetInsertionBlock(fn *Function, block *BasicBlock) {
	b.fn = fn
	b.block = block
	b.at = -1
}

// SetInsertionPoint points the builder just before existing instruction
// at in its block, so subsequent Append calls insert immediately before
// it. Used by CallRewriter to splice a call in before the first
// instruction of a candidate range (spec.md §4.5 step 5).
func (b *Builder) SetInsertionPoint(fn *Function, block *BasicBlock, at Instruction) {
	b.fn = fn
	b.block = block
	b.at = block.IndexOf(at)
	if b.at < 0 {
		panic("ir: SetInsertionPoint: instruction not found in block")
	}
}

// Append inserts inst at the builder's current position and returns it.
func (b *Builder) Append(inst Instruction) Instruction {
	inst.setBlock(b.block)
	if v, ok := inst.(Value); ok {
		v.setNum(b.nextNum())
	}
	if b.at < 0 {
		b.block.Instrs = append(b.block.Instrs, inst)
		return inst
	}
	b.block.Instrs = append(b.block.Instrs, nil)
	copy(b.block.Instrs[b.at+1:], b.block.Instrs[b.at:])
	b.block.Instrs[b.at] = inst
	b.at++
	return inst
}

func (b *Builder) nextNum() int {
	n := 0
	for _, bb := range b.fn.Blocks {
		n += len(bb.Instrs)
	}
	return n
}

// CloneInst clones src's shape (the concrete Go type, its ArithOp/name/
// literal fields, its Loc and Comment) but installs newOperands in
// place of its old operand list, matching spec.md §4.4 step 6's clone
// contract. src is not mutated; the clone is not yet inserted anywhere
// and starts with an empty use-list of its own.
func (b *Builder) CloneInst(src Instruction, newOperands []Operand) Instruction {
	c := src.shallowCopy()
	if v, ok := c.(Value); ok {
		v.setNum(0)
		if r, ok := v.(interface{ resetUsers() }); ok {
			r.resetUsers()
		}
	}
	setOperands(c, newOperands)
	return c
}

// resetUsers drops a freshly shallow-copied value's use-list, which
// still aliases the source instruction's.
func (v *valueBase) resetUsers() { v.users = nil }

// setOperands overwrites c's operand list in place, in operand order.
// It mirrors each concrete type's own field layout, since Instruction
// has no generic "SetOperands" — only Operands() (read) — the same
// asymmetry pea's flowgraph has between Uses() and per-type fields.
func setOperands(c Instruction, ops []Operand) {
	switch v := c.(type) {
	case *Op:
		v.Args = append([]Operand{}, ops...)
	case *LoadLiteral:
		if len(ops) != 1 || ops[0].Kind != OpndLiteral {
			panic("ir: CloneInst: LoadLiteral needs exactly one literal operand")
		}
		v.Lit = ops[0].Literal
	case *GetProp:
		if len(ops) != 2 {
			panic("ir: CloneInst: GetProp needs exactly two operands")
		}
		v.Base = ops[0]
		v.Name = ops[1].Literal
	case *SetProp:
		if len(ops) != 3 {
			panic("ir: CloneInst: SetProp needs exactly three operands")
		}
		v.Base = ops[0]
		v.Name = ops[1].Literal
		v.Src = ops[2]
	case *NewObject:
		// no operands
	case *Call:
		if len(ops) < 2 {
			panic("ir: CloneInst: Call needs at least callee and this")
		}
		v.Callee = ops[0]
		v.This = ops[1]
		v.Args = append([]Operand{}, ops[2:]...)
	case *LoadVar:
		if len(ops) != 1 || ops[0].Kind != OpndVariable {
			panic("ir: CloneInst: LoadVar needs exactly one variable operand")
		}
		v.Var = ops[0].Var
	case *StoreVar:
		if len(ops) != 2 {
			panic("ir: CloneInst: StoreVar needs exactly two operands")
		}
		v.Var = ops[0].Var
		v.Src = ops[1]
	case *CreateArguments:
		// no operands
	case *StackSlotAlloc:
		if len(ops) != 1 || ops[0].Kind != OpndStackSlot {
			panic("ir: CloneInst: StackSlotAlloc needs exactly one stack-slot operand")
		}
		v.Slot = ops[0].Slot
	case *StackSlotLoad:
		if len(ops) != 1 || ops[0].Kind != OpndStackSlot {
			panic("ir: CloneInst: StackSlotLoad needs exactly one stack-slot operand")
		}
		v.Slot = ops[0].Slot
	case *StackSlotStore:
		if len(ops) != 2 {
			panic("ir: CloneInst: StackSlotStore needs exactly two operands")
		}
		v.Slot = ops[0].Slot
		v.Src = ops[1]
	default:
		panic("ir: CloneInst: unsupported instruction type for outlining")
	}
}

// EraseInstruction physically removes inst from its block's Instrs,
// after marking it deleted and dropping it from the use-list of every
// Value it referenced. Unlike flowgraph's rmDeletes (which nils out
// instructions and lets a separate compaction pass find them later),
// this removes it immediately: the outlining pass tokenizes fresh at
// the top of every round (spec.md §4.6), so nothing needs to tolerate
// a block whose Instrs contains dead entries, and keeping Instrs
// always exactly the live sequence is what lets a candidate's flat
// stream position map directly onto a contiguous ir.BasicBlock.Instrs
// slice with no separate liveness bookkeeping.
func (b *Builder) EraseInstruction(inst Instruction) {
	if inst.Deleted() {
		panic("ir: EraseInstruction: already deleted")
	}
	for _, used := range inst.Uses() {
		used.rmUser(inst)
	}
	blk := inst.Block()
	idx := blk.IndexOf(inst)
	if idx < 0 {
		panic("ir: EraseInstruction: instruction not found in its own block")
	}
	inst.Delete()
	blk.Instrs = append(blk.Instrs[:idx], blk.Instrs[idx+1:]...)
}

// CreateReturnInst appends a Return of value at the current insertion
// point. Passing nil creates a bare `return;`.
func (b *Builder) CreateReturnInst(value Value, l loc.Loc) *Return {
	var opnd *Operand
	if value != nil {
		opnd = &Operand{Kind: OpndInstruction, Value: value}
	}
	return b.createReturn(opnd, l)
}

// CreateReturnOperand appends a Return of an arbitrary operand, such as
// a literal, at the current insertion point. FunctionSynthesizer uses
// this to return the literal `undefined` directly (spec.md §4.4 step 8)
// without materializing a LoadLiteral instruction nobody else needs.
func (b *Builder) CreateReturnOperand(op Operand, l loc.Loc) *Return {
	o := op
	return b.createReturn(&o, l)
}

func (b *Builder) createReturn(opnd *Operand, l loc.Loc) *Return {
	r := &Return{Value: opnd}
	r.loc = l
	b.Append(r)
	LinkUses(r)
	return r
}

// CreateDirectCall appends a Call of callee with the given this-value
// and arguments, returning the new instruction's Value. The callee is
// carried inline as an OpndFunction operand rather than a preceding
// value-producing instruction, so the call site is exactly one
// instruction where a candidate range used to be — matching
// createHBCCallDirectInst's inline Function* callee.
func (b *Builder) CreateDirectCall(callee *Function, this Operand, args []Operand, l loc.Loc) *Call {
	c := &Call{Callee: Operand{Kind: OpndFunction, Func: callee}, This: this, Args: append([]Operand{}, args...)}
	c.loc = l
	b.Append(c)
	LinkUses(c)
	return c
}

// LinkUses registers inst as a user of every Value it directly
// references via Uses(). Instruction.Value's addUser is unexported, so
// callers outside package ir — FunctionSynthesizer, most notably, after
// cloning an instruction with a freshly built operand list — need this
// to keep use-lists consistent.
func LinkUses(inst Instruction) {
	for _, v := range inst.Uses() {
		v.addUser(inst)
	}
}

// ReplaceUses rewrites every instruction that uses old so that it uses
// repl instead, then updates both values' use-lists to match. This is
// CallRewriter's "replace all uses of escapeInst with the call's result
// value" (spec.md §4.5 step 6), the exported counterpart of subValues
// since a plain map[Value]Value substitution needs addUser/rmUser
// bookkeeping only package ir can perform directly.
func ReplaceUses(old, repl Value) {
	for _, user := range old.UsedBy() {
		user.subValues(map[Value]Value{old: repl})
		old.rmUser(user)
		repl.addUser(user)
	}
}

// GetLiteralUndefined returns the module's canonical `undefined`
// literal, for FunctionSynthesizer's fallback return value (spec.md
// §4.4 step 8).
func (b *Builder) GetLiteralUndefined() *Literal {
	return b.Mod.UndefinedLit()
}

