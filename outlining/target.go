package outlining

import (
	"github.com/kestrel-vm/outlining/escape"
	"github.com/kestrel-vm/outlining/ir"
	"github.com/kestrel-vm/outlining/numbering"
)

// Candidate is one occurrence accepted into an OutlinedFunction
// descriptor: a start index into the round's TokenStream.Instructions
// and how many instructions from there belong to it.
type Candidate struct {
	Start        int
	Length       int
	CallOverhead int
	Deleted      bool
}

// OutlinedFunction is a descriptor of one shared function to synthesize
// and the sites that should call it.
type OutlinedFunction struct {
	Candidates    []*Candidate
	SequenceSize  int
	FrameOverhead int
}

// AliveCandidates counts non-deleted candidates.
func (d *OutlinedFunction) AliveCandidates() int {
	n := 0
	for _, c := range d.Candidates {
		if !c.Deleted {
			n++
		}
	}
	return n
}

// Benefit computes spec.md §4.3/§4.6's benefit formula over the
// currently-alive candidates only.
func (d *OutlinedFunction) Benefit() int {
	alive := d.AliveCandidates()
	overhead := 0
	for _, c := range d.Candidates {
		if !c.Deleted {
			overhead += c.CallOverhead
		}
	}
	return d.SequenceSize*(alive-1) - d.FrameOverhead - overhead
}

// Target implements repeatfinder.Target: it receives raw candidate
// groups from the repeat finder and runs spec.md §4.3's greedy
// prefix-peeling loop over each one, accumulating accepted descriptors.
type Target struct {
	Settings    OutliningSettings
	Stream      TokenStream
	Descriptors []*OutlinedFunction
}

// NewTarget returns a Target ready to receive raw groups over stream.
func NewTarget(stream TokenStream, settings OutliningSettings) *Target {
	return &Target{Settings: settings, Stream: stream}
}

// MinCandidateLength implements repeatfinder.Target.
func (t *Target) MinCandidateLength() int { return t.Settings.MinLength }

// CreateOutlinedFunctions implements repeatfinder.Target: it runs the
// greedy prefix-peeling loop of spec.md §4.3 over one raw group.
func (t *Target) CreateOutlinedFunctions(starts []int, length int) {
	offset := 0
	for offset <= length-t.Settings.MinLength {
		remaining := length - offset
		s0 := starts[0] + offset
		s1 := starts[1] + offset

		commonLen0 := t.lockstepCommon(s0, s1, remaining)

		var an *escape.Analysis
		commonLen := 0
		if commonLen0 > 0 {
			an = escape.New()
			an.AddRange(t.rangeOf(s0, commonLen0))
			an.AddRange(t.rangeOf(s1, commonLen0))
			commonLen = an.LongestPrefix().Length
		}

		if commonLen < t.Settings.MinLength {
			offset++
			continue
		}

		p := t.externalCount(s0, commonLen)
		if p < t.Settings.MinParameters || p > t.Settings.MaxParameters {
			offset += commonLen + 1
			continue
		}

		callOverhead := 2 + p
		frameOverhead := 5 + p
		desc := &OutlinedFunction{SequenceSize: commonLen, FrameOverhead: frameOverhead}
		desc.Candidates = append(desc.Candidates,
			&Candidate{Start: s0, Length: commonLen, CallOverhead: callOverhead},
			&Candidate{Start: s1, Length: commonLen, CallOverhead: callOverhead},
		)

		for i := 2; i < len(starts); i++ {
			si := starts[i] + offset
			if si+commonLen0 > len(t.Stream.Instructions) {
				continue
			}
			if !t.expressionsEqual(s0, si, commonLen) {
				continue
			}
			an.AddRange(t.rangeOf(si, commonLen0))
			if an.LongestPrefix().Length != commonLen {
				an.RemoveLastRange()
				continue
			}
			desc.Candidates = append(desc.Candidates,
				&Candidate{Start: si, Length: commonLen, CallOverhead: callOverhead})
		}

		t.Descriptors = append(t.Descriptors, desc)
		offset += commonLen + 1
	}
}

// RangeOf resolves a flat stream index/length pair into the escape
// package's block-relative Range, asserting that the flat entries are
// in fact a physically contiguous run within one basic block — true by
// construction of Tokenize (see tokenizer.go's doc comment) as long as
// erasure always physically removes instructions (ir.Builder's
// EraseInstruction does), checked here because a violation would
// silently corrupt every candidate built from it. Shared by Target,
// FunctionSynthesizer, and CallRewriter, all three of which resolve a
// Candidate's flat position into a real block range.
func RangeOf(stream TokenStream, flatStart, length int) escape.Range {
	inst := stream.Instructions[flatStart]
	blk := inst.Block()
	local := blk.IndexOf(inst)
	if local < 0 || local+length > len(blk.Instrs) {
		panic("outlining: candidate range out of block bounds")
	}
	for k := 1; k < length; k++ {
		if blk.Instrs[local+k] != stream.Instructions[flatStart+k] {
			panic("outlining: candidate range is not contiguous within its block")
		}
	}
	return escape.Range{Block: blk, Start: local, Length: length}
}

func (t *Target) rangeOf(flatStart, length int) escape.Range {
	return RangeOf(t.Stream, flatStart, length)
}

func numberingFlags() numbering.Flags {
	return numbering.Flags{IncludeInstructions: true, IncludeParameters: true}
}

// lockstepCommon zips two Numbering streams and returns the length of
// their common Equal-comparing prefix, stopping at the first divergent
// position or whichever stream runs out first — the "zip + takewhile-
// equal" of spec.md Design Notes §9.
func (t *Target) lockstepCommon(s0, s1, maxLen int) int {
	r0 := t.rangeOf(s0, maxLen)
	r1 := t.rangeOf(s1, maxLen)
	n0 := numbering.New(r0.Block, r0.Start, r0.Length, numberingFlags())
	n1 := numbering.New(r1.Block, r1.Start, r1.Length, numberingFlags())
	count := 0
	for {
		e0, ok0 := n0.Next()
		e1, ok1 := n1.Next()
		if !ok0 || !ok1 || !e0.Equal(e1) {
			return count
		}
		count++
	}
}

// expressionsEqual reports whether the length-instruction ranges
// starting at a and b are element-wise Expression-equal.
func (t *Target) expressionsEqual(a, b, length int) bool {
	return t.lockstepCommon(a, b, length) == length
}

// externalCount runs a full Numbering over one range and returns the
// number of distinct External operand indices observed — spec.md
// §4.3 step 4's P.
func (t *Target) externalCount(start, length int) int {
	r := t.rangeOf(start, length)
	n := numbering.New(r.Block, r.Start, r.Length, numberingFlags())
	numbering.All(n)
	return n.ExternalCount()
}

// InstructionAt returns the instruction backing flat stream position
// idx.
func InstructionAt(stream TokenStream, idx int) ir.Instruction {
	return stream.Instructions[idx]
}
