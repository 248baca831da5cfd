package outlining

import "github.com/kestrel-vm/outlining/ir"

// legalTombstone and legalEmpty are the two high sentinel values
// downstream hash structures (the repeat finder's suffix array) reserve
// for empty/tombstone slots; the tokenizer must never emit them.
const (
	legalTombstone uint32 = ^uint32(0)
	legalEmpty     uint32 = ^uint32(0) - 1
	illegalStart   uint32 = ^uint32(0) - 2
)

// TokenStream is a Tokenize result: parallel tokens/instructions arrays
// covering every basic block with at least settings.MinLength live
// instructions.
type TokenStream struct {
	Tokens       []uint32
	Instructions []ir.Instruction
}

// legalToOutline is spec.md §4.2's legality predicate: an instruction is
// illegal if its variety is a phi, a terminator, create-arguments, or
// any of the three stack-slot varieties, or if any of its operands is a
// captured Variable.
func legalToOutline(inst ir.Instruction) bool {
	switch inst.Variety() {
	case ir.VPhi, ir.VJump, ir.VBranch, ir.VReturn,
		ir.VCreateArguments, ir.VStackSlotAlloc, ir.VStackSlotLoad, ir.VStackSlotStore:
		return false
	}
	for _, o := range inst.Operands() {
		if o.Kind == ir.OpndVariable {
			return false
		}
	}
	return true
}

// liveInstrs returns blk's non-deleted instructions.
func liveInstrs(blk *ir.BasicBlock) []ir.Instruction {
	var out []ir.Instruction
	for _, inst := range blk.Instrs {
		if !inst.Deleted() {
			out = append(out, inst)
		}
	}
	return out
}

// Tokenize linearizes mod into a TokenStream per spec.md §4.2. Blocks
// declaration order and function declaration order are followed, both
// of which are observable and load-bearing for determinism (spec.md
// §5). lastWasIllegal resets to true at the start of every function
// (not every block, and not just once globally): the spec's own
// rationale — "so that illegal separators never lead off a function's
// contribution" — names the function, and a per-block reset would let
// a real separator get silently coalesced away at a block boundary
// while a global-only reset would let two functions' streams butt an
// illegal token against a legal one with no separator at all when the
// prior function's last emitted token happened to be illegal.
func Tokenize(mod *ir.Module, minLength int) TokenStream {
	var ts TokenStream
	legalKeys := make(map[string]uint32)
	var nextLegal uint32
	nextIllegal := illegalStart

	for _, fn := range mod.Funcs {
		lastWasIllegal := true
		for _, blk := range fn.Blocks {
			live := liveInstrs(blk)
			if len(live) < minLength {
				continue
			}
			for _, inst := range live {
				if legalToOutline(inst) {
					k := KeyOf(inst).canonical()
					tok, ok := legalKeys[k]
					if !ok {
						tok = nextLegal
						nextLegal++
						legalKeys[k] = tok
					}
					ts.Tokens = append(ts.Tokens, tok)
					ts.Instructions = append(ts.Instructions, inst)
					lastWasIllegal = false
				} else if !lastWasIllegal {
					ts.Tokens = append(ts.Tokens, nextIllegal)
					ts.Instructions = append(ts.Instructions, inst)
					nextIllegal--
					lastWasIllegal = true
				}
				if nextLegal >= nextIllegal {
					panic("outlining: legal/illegal token-space collision")
				}
			}
			// A block's last live instruction is never itself
			// dereferenced for this synthetic entry — only its identity
			// as a placeholder keeps ts.Tokens/ts.Instructions parallel.
			// Without this, a block ending in an unbroken run of legal
			// instructions would butt directly against the next block's
			// (or, at a function's last block, the next function's)
			// first instruction in the flat stream with nothing between
			// them, letting the repeat finder treat the two as one
			// contiguous candidate that spans a block boundary — a
			// direct violation of outlining only ever replacing
			// instructions within a single basic block.
			if !lastWasIllegal {
				ts.Tokens = append(ts.Tokens, nextIllegal)
				ts.Instructions = append(ts.Instructions, live[len(live)-1])
				nextIllegal--
				lastWasIllegal = true
			}
			if nextLegal >= nextIllegal {
				panic("outlining: legal/illegal token-space collision")
			}
		}
	}
	return ts
}
