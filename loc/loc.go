// Package loc tracks source-file locations for IR instructions.
//
// The outlining pass never inspects a Loc; it only threads it through
// clones, calls, and returns so that a synthesized function's
// instructions still point back at the JS source that produced them.
package loc

// Loc compactly identifies a span of JS source across a set of files.
// The zero value indicates no location.
type Loc [2]int
