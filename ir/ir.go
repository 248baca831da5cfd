// Package ir models the host virtual-machine intermediate representation
// that the outlining pass rewrites: modules of SSA-style functions built
// from basic blocks of instructions.
//
// The type shapes here are adapted from
// github.com/eaburns/pea/flowgraph: an instruction/value split via
// embeddable base structs, explicit use-lists maintained by
// addUser/rmUser, and a shallowCopy/subValues pair used by anything that
// clones instructions across a substitution map. The opcode set itself
// (arithmetic ops, property access, calls, phis, stack slots) belongs to
// this module's JS-VM domain rather than pea's.
package ir

import (
	"fmt"

	"github.com/kestrel-vm/outlining/loc"
)

// Variety enumerates the opcode varieties an Instruction can have.
type Variety int

const (
	VArithmetic Variety = iota
	VLoadLiteral
	VGetProp
	VSetProp
	VNewObject
	VCall
	VLoadVar
	VStoreVar
	VPhi
	VJump
	VBranch
	VReturn
	VCreateArguments
	VStackSlotAlloc
	VStackSlotLoad
	VStackSlotStore
)

func (v Variety) String() string {
	switch v {
	case VArithmetic:
		return "arith"
	case VLoadLiteral:
		return "loadlit"
	case VGetProp:
		return "getprop"
	case VSetProp:
		return "setprop"
	case VNewObject:
		return "newobject"
	case VCall:
		return "call"
	case VLoadVar:
		return "loadvar"
	case VStoreVar:
		return "storevar"
	case VPhi:
		return "phi"
	case VJump:
		return "jump"
	case VBranch:
		return "branch"
	case VReturn:
		return "return"
	case VCreateArguments:
		return "createarguments"
	case VStackSlotAlloc:
		return "stackslot.alloc"
	case VStackSlotLoad:
		return "stackslot.load"
	case VStackSlotStore:
		return "stackslot.store"
	default:
		return "unknown"
	}
}

// IsTerminator reports whether v ends a basic block.
func (v Variety) IsTerminator() bool {
	switch v {
	case VJump, VBranch, VReturn:
		return true
	default:
		return false
	}
}

// ArithOp enumerates the concrete operation an Op instruction performs.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	Shl
	Shr
	Eq
	Neq
	Less
	LessEq
	Greater
	GreaterEq
	Not
	Neg
)

func (o ArithOp) String() string {
	names := [...]string{
		"add", "sub", "mul", "div", "mod",
		"bitand", "bitor", "bitxor", "shl", "shr",
		"eq", "neq", "less", "lesseq", "greater", "greatereq",
		"not", "neg",
	}
	if int(o) < 0 || int(o) >= len(names) {
		return "op?"
	}
	return names[o]
}

// LiteralKind enumerates the JS literal kinds a Literal can hold.
type LiteralKind int

const (
	LitNumber LiteralKind = iota
	LitString
	LitBool
	LitUndefined
	LitNull
)

// Literal is a JS literal value, interned per Module so that two
// occurrences of the same literal compare equal by pointer identity —
// InstructionKey (spec.md §4.1) relies on exactly this.
type Literal struct {
	Kind LiteralKind
	Num  float64
	Str  string
	Bool bool
}

func (l *Literal) String() string {
	switch l.Kind {
	case LitNumber:
		return fmt.Sprintf("%g", l.Num)
	case LitString:
		return fmt.Sprintf("%q", l.Str)
	case LitBool:
		return fmt.Sprintf("%t", l.Bool)
	case LitUndefined:
		return "undefined"
	case LitNull:
		return "null"
	default:
		return "lit?"
	}
}

type literalKey struct {
	kind LiteralKind
	num  float64
	str  string
	b    bool
}

// Variable is a captured binding (a closed-over local). Per spec.md
// §4.2, any instruction with a Variable operand is illegal to outline.
type Variable struct {
	Name string
}

// StackSlot is the target of a StackSlotAlloc/Load/Store instruction.
type StackSlot struct {
	Name string
}

// OperandKind enumerates the operand shapes: a reference to another
// instruction's result, an interned literal, a captured variable, a
// stack slot, or a direct-call callee function.
type OperandKind int

const (
	OpndInstruction OperandKind = iota
	OpndLiteral
	OpndVariable
	OpndStackSlot
	// OpndFunction carries a direct-call callee inline, the way a Call
	// instruction names its target: not as a use of some preceding
	// value-producing instruction, but as a plain reference to a
	// Function, so that a direct call is exactly one instruction (spec.md
	// §8 rewriter-property 1) rather than a FuncLit-then-Call pair.
	OpndFunction
)

// Operand is one entry in an instruction's ordered operand list.
type Operand struct {
	Kind    OperandKind
	Value   Value      // set when Kind == OpndInstruction
	Literal *Literal   // set when Kind == OpndLiteral
	Var     *Variable  // set when Kind == OpndVariable
	Slot    *StackSlot // set when Kind == OpndStackSlot
	Func    *Function  // set when Kind == OpndFunction
}

func (o Operand) String() string {
	switch o.Kind {
	case OpndInstruction:
		if o.Value == nil {
			return "<nil>"
		}
		return fmt.Sprintf("x%d", o.Value.Num())
	case OpndLiteral:
		return o.Literal.String()
	case OpndVariable:
		return "$" + o.Var.Name
	case OpndStackSlot:
		return "#" + o.Slot.Name
	case OpndFunction:
		return "func " + o.Func.Name
	default:
		return "?"
	}
}

// eq reports whether two operands are the same literal (by identity),
// the same variable/slot/function (by identity), or the same
// instruction pointer. It never compares two OpndInstruction operands as
// structurally equal merely because they share shape — that
// determination belongs to the numbering package, not here.
func (o Operand) eq(other Operand) bool {
	if o.Kind != other.Kind {
		return false
	}
	switch o.Kind {
	case OpndInstruction:
		return o.Value == other.Value
	case OpndLiteral:
		return o.Literal == other.Literal
	case OpndVariable:
		return o.Var == other.Var
	case OpndStackSlot:
		return o.Slot == other.Slot
	case OpndFunction:
		return o.Func == other.Func
	default:
		return false
	}
}

// Instruction is any node in a basic block: a computation, a store, or
// a terminator. Values (see below) are the subset of instructions that
// produce a usable result.
type Instruction interface {
	Variety() Variety
	Operands() []Operand
	// Uses returns the Values this instruction directly depends on
	// (the OpndInstruction operands' targets), the set that must have
	// this instruction removed from its use-list on deletion.
	Uses() []Value
	Block() *BasicBlock
	Loc() loc.Loc
	Comment() string
	SetComment(format string, args ...interface{})
	Delete()
	Deleted() bool
	String() string

	shallowCopy() Instruction
	subValues(map[Value]Value)
	setBlock(*BasicBlock)
}

// Value is an Instruction that produces a result other instructions can
// reference as an operand.
type Value interface {
	Instruction
	Num() int
	setNum(int)
	UsedBy() []Instruction
	addUser(Instruction)
	rmUser(Instruction)
	subUsers(map[Instruction]Instruction)
}

// Terminal is a terminator instruction: it ends a basic block and names
// its successor blocks.
type Terminal interface {
	Out() []*BasicBlock
	subBlocks(map[*BasicBlock]*BasicBlock)
}

type instrBase struct {
	comment string
	deleted bool
	loc     loc.Loc
	block   *BasicBlock
}

func (b *instrBase) Block() *BasicBlock                        { return b.block }
func (b *instrBase) setBlock(bb *BasicBlock)                   { b.block = bb }
func (b *instrBase) Loc() loc.Loc                               { return b.loc }
func (b *instrBase) Comment() string                            { return b.comment }
func (b *instrBase) SetComment(f string, vs ...interface{})     { b.comment = fmt.Sprintf(f, vs...) }
func (b *instrBase) Delete()                                    { b.deleted = true }
func (b *instrBase) Deleted() bool                              { return b.deleted }

type valueBase struct {
	instrBase
	num   int
	users []Instruction
}

func (v *valueBase) Num() int     { return v.num }
func (v *valueBase) setNum(n int) { v.num = n }

func (v *valueBase) UsedBy() []Instruction {
	return append([]Instruction{}, v.users...)
}

func (v *valueBase) addUser(user Instruction) {
	for _, u := range v.users {
		if u == user {
			return
		}
	}
	v.users = append(v.users, user)
}

func (v *valueBase) rmUser(user Instruction) {
	var n int
	for _, u := range v.users {
		if u != user {
			v.users[n] = u
			n++
		}
	}
	v.users = v.users[:n]
}

func (v *valueBase) subUsers(sub map[Instruction]Instruction) {
	for i, u := range v.users {
		if s, ok := sub[u]; ok {
			v.users[i] = s
		}
	}
}

func shallowCopyUsers(v *valueBase) {
	v.users = append([]Instruction{}, v.users...)
}

// usesOf collects the Value targets of every OpndInstruction operand in
// ops, the common implementation of Instruction.Uses.
func usesOf(ops []Operand) []Value {
	var uses []Value
	for _, o := range ops {
		if o.Kind == OpndInstruction && o.Value != nil {
			uses = append(uses, o.Value)
		}
	}
	return uses
}

func subOperands(ops []Operand, sub map[Value]Value) {
	for i, o := range ops {
		if o.Kind == OpndInstruction {
			if s, ok := sub[o.Value]; ok {
				ops[i].Value = s
			}
		}
	}
}

// Param is a function parameter. Parameters are not instructions inside
// a block; they are named, numbered Values available to every block in
// the function, matching InstructionNumbering's IncludeParameters flag
// (spec.md §6) which treats them as a class distinct from in-block
// instructions.
type Param struct {
	valueBase
	Name string
}

func (p *Param) Variety() Variety      { return VArithmetic } // parameters carry no opcode; never appears in a token stream
func (p *Param) Operands() []Operand   { return nil }
func (p *Param) Uses() []Value         { return nil }
func (p *Param) String() string        { return fmt.Sprintf("x%d = param %s", p.num, p.Name) }
func (p *Param) shallowCopy() Instruction {
	shallowCopyUsers(&p.valueBase)
	c := *p
	return &c
}
func (p *Param) subValues(map[Value]Value) {}

// BasicBlock is a straight-line sequence of instructions ending in a
// terminator (or, for a still-under-construction block, nothing).
type BasicBlock struct {
	Num    int
	Func   *Function
	Instrs []Instruction
	in     []*BasicBlock
}

func (b *BasicBlock) addIn(in *BasicBlock) {
	for _, x := range b.in {
		if x == in {
			return
		}
	}
	b.in = append(b.in, in)
}

func (b *BasicBlock) rmIn(in *BasicBlock) {
	var n int
	for _, x := range b.in {
		if x != in {
			b.in[n] = x
			n++
		}
	}
	b.in = b.in[:n]
}

// In returns the blocks with an edge into b.
func (b *BasicBlock) In() []*BasicBlock { return append([]*BasicBlock{}, b.in...) }

// Out returns the blocks b's terminator can transfer control to.
func (b *BasicBlock) Out() []*BasicBlock {
	if len(b.Instrs) == 0 {
		return nil
	}
	if t, ok := b.Instrs[len(b.Instrs)-1].(Terminal); ok {
		return t.Out()
	}
	return nil
}

// IndexOf returns the position of inst within b.Instrs, or -1.
func (b *BasicBlock) IndexOf(inst Instruction) int {
	for i, r := range b.Instrs {
		if r == inst {
			return i
		}
	}
	return -1
}

// Function is a named, single-basic-block-graph function: a receiver
// convention placeholder ("this", appended by FunctionSynthesizer),
// declared parameters, and a body of basic blocks.
type Function struct {
	Name   string
	Strict bool
	Params []*Param
	Blocks []*BasicBlock
	Loc    loc.Loc
}

// AddParam appends and returns a new parameter.
func (f *Function) AddParam(name string) *Param {
	p := &Param{Name: name}
	p.num = len(f.Params)
	f.Params = append(f.Params, p)
	return p
}

// Module is the outlining pass's root: a set of functions sharing one
// literal-interning table.
type Module struct {
	Name     string
	Funcs    []*Function
	literals map[literalKey]*Literal
}

// NewModule returns an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name, literals: make(map[literalKey]*Literal)}
}

// InternLiteral returns the module's canonical *Literal for the given
// value, allocating one on first use. Two calls with equal values
// always return the same pointer, which is what lets InstructionKey
// (spec.md §4.1) compare literal operands by identity.
func (m *Module) InternLiteral(kind LiteralKind, num float64, str string, b bool) *Literal {
	k := literalKey{kind: kind, num: num, str: str, b: b}
	if l, ok := m.literals[k]; ok {
		return l
	}
	l := &Literal{Kind: kind, Num: num, Str: str, Bool: b}
	m.literals[k] = l
	return l
}

// NumberLit interns a numeric literal.
func (m *Module) NumberLit(n float64) *Literal { return m.InternLiteral(LitNumber, n, "", false) }

// StringLit interns a string literal.
func (m *Module) StringLit(s string) *Literal { return m.InternLiteral(LitString, 0, s, false) }

// BoolLit interns a boolean literal.
func (m *Module) BoolLit(b bool) *Literal { return m.InternLiteral(LitBool, 0, "", b) }

// UndefinedLit returns the module's interned `undefined` literal.
func (m *Module) UndefinedLit() *Literal { return m.InternLiteral(LitUndefined, 0, "", false) }

// NullLit returns the module's interned `null` literal.
func (m *Module) NullLit() *Literal { return m.InternLiteral(LitNull, 0, "", false) }

// AddFunc appends f to the module.
func (m *Module) AddFunc(f *Function) { m.Funcs = append(m.Funcs, f) }

// InsertFuncBefore inserts f immediately before target in m.Funcs,
// used when OutliningSettings.PlaceNearCaller is set (spec.md §4.4).
func (m *Module) InsertFuncBefore(f, target *Function) {
	for i, existing := range m.Funcs {
		if existing == target {
			m.Funcs = append(m.Funcs, nil)
			copy(m.Funcs[i+1:], m.Funcs[i:])
			m.Funcs[i] = f
			return
		}
	}
	m.Funcs = append(m.Funcs, f)
}
