package ir

import "strconv"

// This file defines one concrete Go type per opcode variety, following
// github.com/eaburns/pea/flowgraph's pattern of a distinct struct per
// instruction kind (Store, Copy, Call, If, Jump, ...) rather than one
// generic tagged struct. Each type embeds instrBase or valueBase for
// the shared bookkeeping and implements Operands/Uses/shallowCopy/
// subValues for its own shape.

// Op is a generic arithmetic/logical/comparison instruction. It is
// legal to outline: its variety is not in spec.md §4.2's illegal list,
// and its operands are ordinary Values or literals, never Variables.
type Op struct {
	valueBase
	Kind ArithOp
	Args []Operand
}

func (o *Op) Variety() Variety    { return VArithmetic }

// ArithKind reports inst's ArithOp when it is an *Op, since Variety()
// deliberately collapses every arithmetic/logical/comparison op to one
// VArithmetic value (spec.md §4.2's illegal-variety list only ever
// needs that coarse grouping) — callers that must tell `add` from `sub`
// (InstructionKey, numbering.Expression) use this instead of Variety().
func ArithKind(inst Instruction) (ArithOp, bool) {
	op, ok := inst.(*Op)
	if !ok {
		return 0, false
	}
	return op.Kind, true
}

func (o *Op) Operands() []Operand { return o.Args }
func (o *Op) Uses() []Value       { return usesOf(o.Args) }
func (o *Op) String() string {
	s := "x" + strconv.Itoa(o.num) + " = " + o.Kind.String()
	for _, a := range o.Args {
		s += " " + a.String()
	}
	return s
}
func (o *Op) shallowCopy() Instruction {
	shallowCopyUsers(&o.valueBase)
	c := *o
	c.Args = append([]Operand{}, o.Args...)
	return &c
}
func (o *Op) subValues(sub map[Value]Value) { subOperands(o.Args, sub) }

// LoadLiteral materializes an interned literal as a value.
type LoadLiteral struct {
	valueBase
	Lit *Literal
}

func (l *LoadLiteral) Variety() Variety  { return VLoadLiteral }
func (l *LoadLiteral) Operands() []Operand {
	return []Operand{{Kind: OpndLiteral, Literal: l.Lit}}
}
func (l *LoadLiteral) Uses() []Value { return nil }
func (l *LoadLiteral) String() string {
	return "x" + strconv.Itoa(l.num) + " = loadlit " + l.Lit.String()
}
func (l *LoadLiteral) shallowCopy() Instruction {
	shallowCopyUsers(&l.valueBase)
	c := *l
	return &c
}
func (l *LoadLiteral) subValues(map[Value]Value) {}

// GetProp reads a named property off Base. The name is carried as an
// interned string literal operand, not a bare field, so InstructionKey
// picks it up as a positional literal the way spec.md §4.1 requires.
type GetProp struct {
	valueBase
	Base Operand
	Name *Literal
}

func (g *GetProp) Variety() Variety { return VGetProp }
func (g *GetProp) Operands() []Operand {
	return []Operand{g.Base, {Kind: OpndLiteral, Literal: g.Name}}
}
func (g *GetProp) Uses() []Value { return usesOf(g.Operands()) }
func (g *GetProp) String() string {
	return "x" + strconv.Itoa(g.num) + " = getprop " + g.Base.String() + " " + g.Name.String()
}
func (g *GetProp) shallowCopy() Instruction {
	shallowCopyUsers(&g.valueBase)
	c := *g
	return &c
}
func (g *GetProp) subValues(sub map[Value]Value) {
	if g.Base.Kind == OpndInstruction {
		if s, ok := sub[g.Base.Value]; ok {
			g.Base.Value = s
		}
	}
}

// SetProp writes Src into a named property of Base. It has no result.
type SetProp struct {
	instrBase
	Base Operand
	Name *Literal
	Src  Operand
}

func (s *SetProp) Variety() Variety { return VSetProp }
func (s *SetProp) Operands() []Operand {
	return []Operand{s.Base, {Kind: OpndLiteral, Literal: s.Name}, s.Src}
}
func (s *SetProp) Uses() []Value { return usesOf(s.Operands()) }
func (s *SetProp) String() string {
	return "setprop " + s.Base.String() + " " + s.Name.String() + " " + s.Src.String()
}
func (s *SetProp) shallowCopy() Instruction { c := *s; return &c }
func (s *SetProp) subValues(sub map[Value]Value) {
	if s.Base.Kind == OpndInstruction {
		if v, ok := sub[s.Base.Value]; ok {
			s.Base.Value = v
		}
	}
	if s.Src.Kind == OpndInstruction {
		if v, ok := sub[s.Src.Value]; ok {
			s.Src.Value = v
		}
	}
}

// NewObject allocates a fresh, empty object.
type NewObject struct {
	valueBase
}

func (n *NewObject) Variety() Variety      { return VNewObject }
func (n *NewObject) Operands() []Operand   { return nil }
func (n *NewObject) Uses() []Value         { return nil }
func (n *NewObject) String() string        { return "x" + strconv.Itoa(n.num) + " = newobject" }
func (n *NewObject) shallowCopy() Instruction {
	shallowCopyUsers(&n.valueBase)
	c := *n
	return &c
}
func (n *NewObject) subValues(map[Value]Value) {}

// Call is a direct or indirect function call. It is legal to outline —
// this is what lets a synthesized outlined function's own call sites
// participate in a later round (spec.md §4.6).
type Call struct {
	valueBase
	Callee Operand
	This   Operand
	Args   []Operand
}

func (c *Call) Variety() Variety { return VCall }
func (c *Call) Operands() []Operand {
	ops := make([]Operand, 0, len(c.Args)+2)
	ops = append(ops, c.Callee, c.This)
	ops = append(ops, c.Args...)
	return ops
}
func (c *Call) Uses() []Value { return usesOf(c.Operands()) }
func (c *Call) String() string {
	s := "x" + strconv.Itoa(c.num) + " = call " + c.Callee.String() + " this=" + c.This.String()
	for _, a := range c.Args {
		s += " " + a.String()
	}
	return s
}
func (c *Call) shallowCopy() Instruction {
	shallowCopyUsers(&c.valueBase)
	cp := *c
	cp.Args = append([]Operand{}, c.Args...)
	return &cp
}
func (c *Call) subValues(sub map[Value]Value) {
	// Callee is OpndFunction, a direct reference to the target Function
	// rather than a use of some preceding value-producing instruction, so
	// it never participates in value substitution.
	if c.This.Kind == OpndInstruction {
		if v, ok := sub[c.This.Value]; ok {
			c.This.Value = v
		}
	}
	subOperands(c.Args, sub)
}

// LoadVar reads a captured variable. Its Variable operand makes it
// illegal to outline (spec.md §4.2).
type LoadVar struct {
	valueBase
	Var *Variable
}

func (l *LoadVar) Variety() Variety { return VLoadVar }
func (l *LoadVar) Operands() []Operand {
	return []Operand{{Kind: OpndVariable, Var: l.Var}}
}
func (l *LoadVar) Uses() []Value { return nil }
func (l *LoadVar) String() string {
	return "x" + strconv.Itoa(l.num) + " = loadvar $" + l.Var.Name
}
func (l *LoadVar) shallowCopy() Instruction {
	shallowCopyUsers(&l.valueBase)
	c := *l
	return &c
}
func (l *LoadVar) subValues(map[Value]Value) {}

// StoreVar writes Src into a captured variable. Illegal to outline for
// the same reason as LoadVar.
type StoreVar struct {
	instrBase
	Var *Variable
	Src Operand
}

func (s *StoreVar) Variety() Variety { return VStoreVar }
func (s *StoreVar) Operands() []Operand {
	return []Operand{{Kind: OpndVariable, Var: s.Var}, s.Src}
}
func (s *StoreVar) Uses() []Value { return usesOf(s.Operands()) }
func (s *StoreVar) String() string {
	return "storevar $" + s.Var.Name + " " + s.Src.String()
}
func (s *StoreVar) shallowCopy() Instruction { c := *s; return &c }
func (s *StoreVar) subValues(sub map[Value]Value) {
	if s.Src.Kind == OpndInstruction {
		if v, ok := sub[s.Src.Value]; ok {
			s.Src.Value = v
		}
	}
}

// PhiEdge is one incoming value of a Phi, paired with the predecessor
// block it arrives from.
type PhiEdge struct {
	Block *BasicBlock
	Value Operand
}

// Phi merges values from multiple predecessors. Always illegal to
// outline (spec.md §4.2's illegal-variety list).
type Phi struct {
	valueBase
	Incoming []PhiEdge
}

func (p *Phi) Variety() Variety { return VPhi }
func (p *Phi) Operands() []Operand {
	ops := make([]Operand, len(p.Incoming))
	for i, e := range p.Incoming {
		ops[i] = e.Value
	}
	return ops
}
func (p *Phi) Uses() []Value { return usesOf(p.Operands()) }
func (p *Phi) String() string {
	s := "x" + strconv.Itoa(p.num) + " = phi"
	for _, e := range p.Incoming {
		s += " [" + strconv.Itoa(e.Block.Num) + ": " + e.Value.String() + "]"
	}
	return s
}
func (p *Phi) shallowCopy() Instruction {
	shallowCopyUsers(&p.valueBase)
	c := *p
	c.Incoming = append([]PhiEdge{}, p.Incoming...)
	return &c
}
func (p *Phi) subValues(sub map[Value]Value) {
	for i := range p.Incoming {
		if p.Incoming[i].Value.Kind == OpndInstruction {
			if v, ok := sub[p.Incoming[i].Value.Value]; ok {
				p.Incoming[i].Value.Value = v
			}
		}
	}
}
func (p *Phi) subBlocks(sub map[*BasicBlock]*BasicBlock) {
	for i := range p.Incoming {
		p.Incoming[i].Block = subBlock(p.Incoming[i].Block, sub)
	}
}

// Jump is an unconditional terminator. Always illegal to outline.
type Jump struct {
	instrBase
	Target *BasicBlock
}

func (j *Jump) Variety() Variety      { return VJump }
func (j *Jump) Operands() []Operand   { return nil }
func (j *Jump) Uses() []Value         { return nil }
func (j *Jump) Out() []*BasicBlock    { return []*BasicBlock{j.Target} }
func (j *Jump) String() string        { return "jump b" + strconv.Itoa(j.Target.Num) }
func (j *Jump) shallowCopy() Instruction { c := *j; return &c }
func (j *Jump) subValues(map[Value]Value) {}
func (j *Jump) subBlocks(sub map[*BasicBlock]*BasicBlock) { j.Target = subBlock(j.Target, sub) }

// Branch is a conditional terminator. Always illegal to outline.
type Branch struct {
	instrBase
	Cond        Operand
	True, False *BasicBlock
}

func (b *Branch) Variety() Variety    { return VBranch }
func (b *Branch) Operands() []Operand { return []Operand{b.Cond} }
func (b *Branch) Uses() []Value       { return usesOf(b.Operands()) }
func (b *Branch) Out() []*BasicBlock  { return []*BasicBlock{b.True, b.False} }
func (b *Branch) String() string {
	return "branch " + b.Cond.String() + " b" + strconv.Itoa(b.True.Num) + " b" + strconv.Itoa(b.False.Num)
}
func (b *Branch) shallowCopy() Instruction { c := *b; return &c }
func (b *Branch) subValues(sub map[Value]Value) {
	if b.Cond.Kind == OpndInstruction {
		if v, ok := sub[b.Cond.Value]; ok {
			b.Cond.Value = v
		}
	}
}
func (b *Branch) subBlocks(sub map[*BasicBlock]*BasicBlock) {
	b.True = subBlock(b.True, sub)
	b.False = subBlock(b.False, sub)
}

// Return is the function-exit terminator. Always illegal to outline
// (spec.md §4.2); a synthesized outlined function's own Return is
// created directly by FunctionSynthesizer, never by extracting one.
type Return struct {
	instrBase
	Value *Operand // nil for a bare `return;`
}

func (r *Return) Variety() Variety { return VReturn }
func (r *Return) Operands() []Operand {
	if r.Value == nil {
		return nil
	}
	return []Operand{*r.Value}
}
func (r *Return) Uses() []Value      { return usesOf(r.Operands()) }
func (r *Return) Out() []*BasicBlock { return nil }
func (r *Return) String() string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.String()
}
func (r *Return) shallowCopy() Instruction {
	c := *r
	if r.Value != nil {
		v := *r.Value
		c.Value = &v
	}
	return &c
}
func (r *Return) subValues(sub map[Value]Value) {
	if r.Value != nil && r.Value.Kind == OpndInstruction {
		if v, ok := sub[r.Value.Value]; ok {
			r.Value.Value = v
		}
	}
}
func (r *Return) subBlocks(map[*BasicBlock]*BasicBlock) {}

// CreateArguments materializes the `arguments` object. Always illegal
// to outline (spec.md §4.2): the arguments object's identity is tied to
// its enclosing call frame and cannot be handed across a call boundary.
type CreateArguments struct {
	valueBase
}

func (c *CreateArguments) Variety() Variety      { return VCreateArguments }
func (c *CreateArguments) Operands() []Operand   { return nil }
func (c *CreateArguments) Uses() []Value         { return nil }
func (c *CreateArguments) String() string        { return "x" + strconv.Itoa(c.num) + " = createarguments" }
func (c *CreateArguments) shallowCopy() Instruction {
	shallowCopyUsers(&c.valueBase)
	cp := *c
	return &cp
}
func (c *CreateArguments) subValues(map[Value]Value) {}

// StackSlotAlloc reserves a stack slot. Always illegal to outline: the
// slot's lifetime is scoped to one physical call frame.
type StackSlotAlloc struct {
	valueBase
	Slot *StackSlot
}

func (s *StackSlotAlloc) Variety() Variety    { return VStackSlotAlloc }
func (s *StackSlotAlloc) Operands() []Operand { return []Operand{{Kind: OpndStackSlot, Slot: s.Slot}} }
func (s *StackSlotAlloc) Uses() []Value       { return nil }
func (s *StackSlotAlloc) String() string      { return "x" + strconv.Itoa(s.num) + " = stackslot.alloc #" + s.Slot.Name }
func (s *StackSlotAlloc) shallowCopy() Instruction {
	shallowCopyUsers(&s.valueBase)
	c := *s
	return &c
}
func (s *StackSlotAlloc) subValues(map[Value]Value) {}

// StackSlotLoad reads a stack slot. Always illegal to outline.
type StackSlotLoad struct {
	valueBase
	Slot *StackSlot
}

func (s *StackSlotLoad) Variety() Variety    { return VStackSlotLoad }
func (s *StackSlotLoad) Operands() []Operand { return []Operand{{Kind: OpndStackSlot, Slot: s.Slot}} }
func (s *StackSlotLoad) Uses() []Value       { return nil }
func (s *StackSlotLoad) String() string      { return "x" + strconv.Itoa(s.num) + " = stackslot.load #" + s.Slot.Name }
func (s *StackSlotLoad) shallowCopy() Instruction {
	shallowCopyUsers(&s.valueBase)
	c := *s
	return &c
}
func (s *StackSlotLoad) subValues(map[Value]Value) {}

// StackSlotStore writes a stack slot. Always illegal to outline.
type StackSlotStore struct {
	instrBase
	Slot *StackSlot
	Src  Operand
}

func (s *StackSlotStore) Variety() Variety { return VStackSlotStore }
func (s *StackSlotStore) Operands() []Operand {
	return []Operand{{Kind: OpndStackSlot, Slot: s.Slot}, s.Src}
}
func (s *StackSlotStore) Uses() []Value { return usesOf(s.Operands()) }
func (s *StackSlotStore) String() string {
	return "stackslot.store #" + s.Slot.Name + " " + s.Src.String()
}
func (s *StackSlotStore) shallowCopy() Instruction { c := *s; return &c }
func (s *StackSlotStore) subValues(sub map[Value]Value) {
	if s.Src.Kind == OpndInstruction {
		if v, ok := sub[s.Src.Value]; ok {
			s.Src.Value = v
		}
	}
}

func subBlock(old *BasicBlock, sub map[*BasicBlock]*BasicBlock) *BasicBlock {
	if b, ok := sub[old]; ok {
		return b
	}
	panic("ir: no substitution for block")
}
