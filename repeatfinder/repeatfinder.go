// Package repeatfinder is the concrete stand-in for spec.md §1's "generic
// suffix-tree-based repeat finder" external collaborator. It builds a
// suffix array over a token stream with the classic doubling algorithm,
// derives the LCP array with Kasai's algorithm, and folds the LCP array
// into the branching-node set of the (virtual) suffix tree with a single
// monotonic-stack sweep — every internal node whose string depth is at
// least the target's minimum candidate length becomes one raw candidate
// group, exactly as §6 describes: `getFunctionsToOutline(outDescriptors,
// tokens, target)` invoking `target.createOutlinedFunctions(starts,
// length)` once per group.
//
// No corpus example implements generalized repeat-finding over an
// integer alphabet — this is a self-contained algorithmic component
// grounded in the classic suffix-array/LCP-array construction, not a
// "reach for a library" concern (see DESIGN.md).
package repeatfinder

import "sort"

// Target is what a raw candidate group is reported to. It mirrors
// spec.md §6's `target` parameter: `minCandidateLength()` bounds which
// suffix-tree nodes are worth reporting at all, and
// `createOutlinedFunctions` receives one maximal group at a time. The
// out-parameter vector spec.md's C++-shaped interface threads through
// every call (`outDescriptors`) is instead accumulated by the Target
// implementation itself across calls — Go has no natural out-parameter
// idiom, and accumulating on the receiver is exactly what
// outlining.Target's own Descriptors field does.
type Target interface {
	MinCandidateLength() int
	CreateOutlinedFunctions(starts []int, length int)
}

// Find walks tokens once, discovers every group of two or more equal-
// length equal-token occurrences of length ≥ target.MinCandidateLength(),
// and reports each to target in a deterministic order (longest shared
// length first, then by ascending first start index).
func Find(tokens []uint32, target Target) {
	n := len(tokens)
	minLen := target.MinCandidateLength()
	if n < 2 || minLen <= 0 {
		return
	}

	sa := buildSuffixArray(tokens)
	lcp := kasaiLCP(tokens, sa)

	groups := suffixTreeGroups(sa, lcp, minLen)
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].length != groups[j].length {
			return groups[i].length > groups[j].length
		}
		return groups[i].starts[0] < groups[j].starts[0]
	})

	for _, g := range groups {
		target.CreateOutlinedFunctions(g.starts, g.length)
	}
}

type rawGroup struct {
	starts []int
	length int
}

// suffixTreeGroups recovers every branching internal node of the
// virtual suffix tree with string depth ≥ minLen from the LCP array,
// using the standard Cartesian-tree-over-LCP-array sweep: a stack of
// frames, each holding the leaves (suffix start positions) collapsed
// under it so far and the height (string depth) that frame represents.
// Popping a frame because a shorter LCP was seen closes off that
// suffix-tree node — its leaf set is exactly the raw candidate group's
// start indices, and its height is the group's common token length.
func suffixTreeGroups(sa, lcp []int, minLen int) []rawGroup {
	n := len(sa)
	if n == 0 {
		return nil
	}

	type frame struct {
		height int
		leaves []int
	}
	var groups []rawGroup
	stack := []frame{{height: 0, leaves: []int{sa[0]}}}

	emit := func(f frame) {
		if f.height >= minLen && len(f.leaves) >= 2 {
			starts := append([]int{}, f.leaves...)
			sort.Ints(starts)
			groups = append(groups, rawGroup{starts: starts, length: f.height})
		}
	}

	for i := 1; i < n; i++ {
		h := lcp[i]
		var carried []int
		for len(stack) > 0 && stack[len(stack)-1].height > h {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			top.leaves = append(top.leaves, carried...)
			emit(top)
			carried = top.leaves
		}
		last := len(stack) - 1
		if stack[last].height == h {
			stack[last].leaves = append(append(stack[last].leaves, carried...), sa[i])
		} else {
			if carried == nil {
				// sa[i-1] is the top frame's last leaf and shares h tokens with sa[i].
				leaves := stack[last].leaves
				carried = []int{leaves[len(leaves)-1]}
				stack[last].leaves = leaves[:len(leaves)-1]
			}
			stack = append(stack, frame{height: h, leaves: append(carried, sa[i])})
		}
	}
	var carried []int
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		top.leaves = append(top.leaves, carried...)
		emit(top)
		carried = top.leaves
	}
	return groups
}

// buildSuffixArray computes the suffix array of tokens via the
// prefix-doubling rank algorithm.
func buildSuffixArray(tokens []uint32) []int {
	n := len(tokens)
	sa := make([]int, n)
	rank := make([]int, n)
	next := make([]int, n)
	for i := range sa {
		sa[i] = i
		rank[i] = int(tokens[i])
	}

	rankAt := func(i, k int) int {
		if i+k < n {
			return rank[i+k]
		}
		return -1
	}
	less := func(a, b, k int) bool {
		if rank[a] != rank[b] {
			return rank[a] < rank[b]
		}
		return rankAt(a, k) < rankAt(b, k)
	}

	for k := 1; k <= n; k *= 2 {
		sort.Slice(sa, func(i, j int) bool { return less(sa[i], sa[j], k) })
		next[sa[0]] = 0
		for i := 1; i < n; i++ {
			next[sa[i]] = next[sa[i-1]]
			if less(sa[i-1], sa[i], k) {
				next[sa[i]]++
			}
		}
		copy(rank, next)
		if rank[sa[n-1]] == n-1 {
			break
		}
	}
	return sa
}

// kasaiLCP computes, for each i in [1,n), the length of the common
// prefix shared by the suffixes at sa[i-1] and sa[i]. lcp[0] is unused
// (left 0) since there is no predecessor to sa[0].
func kasaiLCP(tokens []uint32, sa []int) []int {
	n := len(tokens)
	rankOf := make([]int, n)
	for i, s := range sa {
		rankOf[s] = i
	}
	lcp := make([]int, n)
	h := 0
	for i := 0; i < n; i++ {
		if rankOf[i] == 0 {
			h = 0
			continue
		}
		j := sa[rankOf[i]-1]
		for i+h < n && j+h < n && tokens[i+h] == tokens[j+h] {
			h++
		}
		lcp[rankOf[i]] = h
		if h > 0 {
			h--
		}
	}
	return lcp
}
