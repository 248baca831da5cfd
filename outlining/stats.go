package outlining

// StatsSink receives the pass's counters. Design Notes §9 flags the
// source's use of process-global mutable counters and asks for a
// counter sink injected into the driver instead — StatsSink is that
// seam; *Stats is the default, ordinary (non-atomic) implementation, a
// fair substitution given spec.md §5's single-threaded scheduling
// model leaves no concurrent writer to guard against.
type StatsSink interface {
	AddCandidateOutlined()
	AddFunctionCreated()
	AddInstructionsSaved(n int)
	AddRound()
}

// Stats is the default StatsSink: spec.md §6's four counters.
type Stats struct {
	CandidatesOutlined int
	FunctionsCreated   int
	InstructionsSaved  int
	Rounds             int
}

func (s *Stats) AddCandidateOutlined()          { s.CandidatesOutlined++ }
func (s *Stats) AddFunctionCreated()            { s.FunctionsCreated++ }
func (s *Stats) AddInstructionsSaved(n int)     { s.InstructionsSaved += n }
func (s *Stats) AddRound()                      { s.Rounds++ }

// noopStats discards every counter update, used when a Driver is
// constructed without an explicit StatsSink.
type noopStats struct{}

func (noopStats) AddCandidateOutlined()      {}
func (noopStats) AddFunctionCreated()        {}
func (noopStats) AddInstructionsSaved(int)   {}
func (noopStats) AddRound()                  {}
