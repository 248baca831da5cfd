// Package escape implements InstructionEscapeAnalysis (spec.md §3, §6):
// given one or more equal-length instruction ranges believed to be
// occurrences of the same repeated sequence, find the longest common
// prefix of those ranges across which at most one value defined inside
// escapes — is used by an instruction outside the range.
//
// A range's escape points depend on the prefix length under test: a
// value escapes if it has a use at or past the end of that prefix, so
// shrinking the prefix can turn an in-range use into an escape, and
// every candidate length is re-scanned. At a given length: if a range
// has zero escaping values, that length is safe; if it has exactly one,
// that length is still safe and that value's position becomes the
// offset; if it has two or more, the search retries at the prefix up to
// (but excluding) the second escaping position. Accumulating several ranges further
// requires them to agree on the same relative offset — one range's
// escape at position 2 and another's at position 4 cannot both feed a
// single synthesized function's single return statement — so
// LongestPrefix shrinks the combined length until every range's
// escaping position (if it has one within the shrunk length) matches.
package escape

import "github.com/kestrel-vm/outlining/ir"

// Range is one occurrence under consideration: length instructions of
// block starting at start.
type Range struct {
	Block  *ir.BasicBlock
	Start  int
	Length int
}

// Result is the answer LongestPrefix reports.
type Result struct {
	// Length is the longest safe common prefix length, in instructions.
	Length int
	// Offset is the in-range index of the single escaping instruction,
	// or -1 if no value defined in the safe prefix escapes.
	Offset int
}

// Analysis accumulates ranges and answers LongestPrefix over all of
// them at once.
type Analysis struct {
	ranges []Range
}

// New returns an empty Analysis.
func New() *Analysis { return &Analysis{} }

// AddRange adds one occurrence to the accumulator.
func (a *Analysis) AddRange(r Range) {
	a.ranges = append(a.ranges, r)
}

// RemoveLastRange undoes the most recent AddRange, letting Target back
// out of a tentative extension (spec.md §4.3 step 8) without rebuilding
// the whole accumulator.
func (a *Analysis) RemoveLastRange() {
	if len(a.ranges) == 0 {
		panic("escape: RemoveLastRange on empty Analysis")
	}
	a.ranges = a.ranges[:len(a.ranges)-1]
}

// Ranges returns the accumulated ranges, most recently added last.
func (a *Analysis) Ranges() []Range { return append([]Range{}, a.ranges...) }

// LongestPrefix computes the longest common safe prefix across every
// accumulated range.
func (a *Analysis) LongestPrefix() Result {
	if len(a.ranges) == 0 {
		return Result{Length: 0, Offset: -1}
	}
	length := a.ranges[0].Length
	for _, r := range a.ranges[1:] {
		if r.Length < length {
			length = r.Length
		}
	}

	for length > 0 {
		offset := -1
		consistent := true
		shrinkTo := length

		for _, r := range a.ranges {
			positions := escapingPositions(r, length)
			switch len(positions) {
			case 0:
				// no constraint from this occurrence
			case 1:
				p := positions[0]
				if offset == -1 {
					offset = p
				} else if offset != p {
					consistent = false
					if p < shrinkTo {
						shrinkTo = p
					}
					if offset < shrinkTo {
						shrinkTo = offset
					}
				}
			default:
				consistent = false
				if positions[1] < shrinkTo {
					shrinkTo = positions[1]
				}
			}
		}

		if consistent {
			return Result{Length: length, Offset: offset}
		}
		if shrinkTo >= length {
			shrinkTo = length - 1
		}
		length = shrinkTo
	}
	return Result{Length: 0, Offset: -1}
}

// escapingPositions returns, in increasing order, the in-range
// positions p in [0, length) at which r.Block.Instrs[r.Start+p] is a
// Value with at least one use outside [r.Start, r.Start+length) — a
// use in a different block always counts, since SSA use-before-def is
// impossible within one block, any in-block use of a value defined at
// r.Start+p necessarily sits at a higher index, so "outside the range"
// and "after the range" coincide.
func escapingPositions(r Range, length int) []int {
	var out []int
	for p := 0; p < length; p++ {
		v, ok := r.Block.Instrs[r.Start+p].(ir.Value)
		if !ok {
			continue
		}
		if hasEscapingUse(v, r, length) {
			out = append(out, p)
		}
	}
	return out
}

func hasEscapingUse(v ir.Value, r Range, length int) bool {
	for _, user := range v.UsedBy() {
		if user.Block() != r.Block {
			return true
		}
		idx := r.Block.IndexOf(user)
		if idx < 0 || idx >= r.Start+length {
			return true
		}
	}
	return false
}
