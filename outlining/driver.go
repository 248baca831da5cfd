package outlining

import (
	"github.com/kestrel-vm/outlining/ir"
	"github.com/kestrel-vm/outlining/repeatfinder"
)

// Driver implements spec.md §4.6: it repeatedly tokenizes the module,
// asks the repeat finder for raw candidate groups, has Target turn
// those into descriptors, and synthesizes/rewrites every descriptor
// clearing the benefit gate, until a round makes no change or
// settings.MaxRounds is reached.
//
// If the pass is disabled (MaxRounds <= 0), Run reports no change
// immediately (spec.md §7's "if the outlining pass is disabled in
// configuration, the driver returns 'no change' immediately").
type Driver struct {
	Mod      *ir.Module
	Settings OutliningSettings
	Stats    StatsSink
}

// NewDriver returns a Driver over mod configured by opts, with a fresh
// *Stats sink.
func NewDriver(mod *ir.Module, opts ...Option) *Driver {
	return &Driver{Mod: mod, Settings: NewSettings(opts...), Stats: &Stats{}}
}

// Run executes the round loop and returns whether any round changed
// the module.
func (d *Driver) Run() bool {
	if d.Settings.MaxRounds <= 0 {
		return false
	}
	if d.Stats == nil {
		d.Stats = noopStats{}
	}
	anyChange := false
	for round := 0; round < d.Settings.MaxRounds; round++ {
		d.Settings.tracef("outlining: round %d", round)
		changed := d.runRound()
		if changed {
			anyChange = true
			d.Stats.AddRound()
		} else {
			break
		}
	}
	return anyChange
}

func (d *Driver) runRound() bool {
	stream := Tokenize(d.Mod, d.Settings.MinLength)
	target := NewTarget(stream, d.Settings)
	repeatfinder.Find(stream.Tokens, target)

	builder := ir.NewBuilder(d.Mod)
	roundChanged := false

	// claimed tracks, over this round's fixed flat stream, which
	// positions an earlier descriptor has already erased. Different
	// suffix-tree branching nodes can report overlapping occurrences at
	// different shared lengths (e.g. a length-4 repeat and a length-3
	// repeat that both cover the same stretch of tokens); descriptors
	// are visited longest-shared-length-first, so once the longer one
	// consumes a stretch, any shorter candidate still naming part of it
	// is stale and must be dropped rather than handed to RangeOf.
	claimed := make([]bool, len(stream.Instructions))

	for _, desc := range target.Descriptors {
		// Prune candidates a higher-priority descriptor already claimed
		// before gating on Benefit(), which reads AliveCandidates(): a
		// descriptor that looked worth outlining before pruning can be
		// whittled down to one surviving site, at which point outlining
		// it would only cost a frame and a call for no reuse.
		for _, cand := range desc.Candidates {
			if !cand.Deleted && rangeClaimed(claimed, cand.Start, cand.Length) {
				cand.Deleted = true
			}
		}
		if desc.Benefit() < 1 {
			continue
		}
		synth := &FunctionSynthesizer{Stream: stream, Builder: builder, Settings: d.Settings, Stats: d.Stats}
		rewriter := &CallRewriter{Stream: stream, Builder: builder, Settings: d.Settings, Stats: d.Stats}

		var fn *ir.Function
		for _, cand := range desc.Candidates {
			if cand.Deleted {
				continue
			}
			if fn == nil {
				fn = synth.Synthesize(desc)
			}
			if rewriter.Rewrite(cand, fn) {
				roundChanged = true
				claimRange(claimed, cand.Start, cand.Length)
			} else {
				cand.Deleted = true
			}
		}
		if fn != nil && desc.AliveCandidates() >= 2 {
			d.Stats.AddInstructionsSaved((desc.AliveCandidates() - 1) * desc.SequenceSize)
		}
	}
	return roundChanged
}

// rangeClaimed reports whether any position in [start, start+length) has
// already been erased by an earlier, higher-priority descriptor this
// round.
func rangeClaimed(claimed []bool, start, length int) bool {
	for i := start; i < start+length; i++ {
		if claimed[i] {
			return true
		}
	}
	return false
}

// claimRange marks [start, start+length) erased for the rest of the
// round.
func claimRange(claimed []bool, start, length int) {
	for i := start; i < start+length; i++ {
		claimed[i] = true
	}
}
