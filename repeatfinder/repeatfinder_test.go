package repeatfinder_test

import (
	"reflect"
	"testing"

	"github.com/kestrel-vm/outlining/repeatfinder"
)

type call struct {
	starts []int
	length int
}

type fakeTarget struct {
	min   int
	calls []call
}

func (f *fakeTarget) MinCandidateLength() int { return f.min }
func (f *fakeTarget) CreateOutlinedFunctions(starts []int, length int) {
	f.calls = append(f.calls, call{starts: append([]int{}, starts...), length: length})
}

func TestFindReportsThreeWayRepeat(t *testing.T) {
	// "1,2,3" occurs at 0, 4, 8, separated by distinct tokens (100, 101)
	// so no other length-3-or-more repeat exists in the stream.
	tokens := []uint32{1, 2, 3, 100, 1, 2, 3, 101, 1, 2, 3}
	ft := &fakeTarget{min: 3}
	repeatfinder.Find(tokens, ft)

	if len(ft.calls) != 1 {
		t.Fatalf("got %d calls, want 1: %+v", len(ft.calls), ft.calls)
	}
	got := ft.calls[0]
	if got.length != 3 || !reflect.DeepEqual(got.starts, []int{0, 4, 8}) {
		t.Fatalf("got %+v, want {starts:[0 4 8] length:3}", got)
	}
}

func TestFindOrdersLongestGroupFirst(t *testing.T) {
	// A four-token pattern [1,2,3,4] occurs at 0 and 9; a three-token
	// pattern [7,8,9] occurs at 5 and 14. Distinct separator values
	// (900..902) keep the two patterns' own separators from bleeding
	// into each other, though shifted-by-one substrings of the
	// four-token pattern (e.g. "2,3,4") are legitimately their own,
	// shorter repeat groups too — so this only asserts the two repeats
	// this test cares about are both found, and that groups come back
	// longest-length-first (ties broken by ascending starting index),
	// rather than pinning down the complete group set.
	tokens := []uint32{
		1, 2, 3, 4, 900,
		7, 8, 9, 901,
		1, 2, 3, 4, 902,
		7, 8, 9,
	}
	ft := &fakeTarget{min: 3}
	repeatfinder.Find(tokens, ft)

	for i := 1; i < len(ft.calls); i++ {
		prev, cur := ft.calls[i-1], ft.calls[i]
		if prev.length < cur.length {
			t.Fatalf("calls not sorted by descending length: %+v then %+v", prev, cur)
		}
		if prev.length == cur.length && prev.starts[0] > cur.starts[0] {
			t.Fatalf("same-length calls not sorted by ascending start: %+v then %+v", prev, cur)
		}
	}
	if !containsCall(ft.calls, call{starts: []int{0, 9}, length: 4}) {
		t.Fatalf("missing the four-token repeat: %+v", ft.calls)
	}
	if !containsCall(ft.calls, call{starts: []int{5, 14}, length: 3}) {
		t.Fatalf("missing the three-token repeat: %+v", ft.calls)
	}
	if ft.calls[0].length != 4 {
		t.Fatalf("first-reported call has length %d, want the longest group (4) first: %+v", ft.calls[0].length, ft.calls)
	}
}

func containsCall(calls []call, want call) bool {
	for _, c := range calls {
		if c.length == want.length && reflect.DeepEqual(c.starts, want.starts) {
			return true
		}
	}
	return false
}

func TestFindHonorsMinCandidateLength(t *testing.T) {
	tokens := []uint32{1, 2, 100, 1, 2, 101, 1, 2}
	ft := &fakeTarget{min: 3}
	repeatfinder.Find(tokens, ft)
	if len(ft.calls) != 0 {
		t.Fatalf("got %d calls for a length-2 repeat under MinCandidateLength=3: %+v", len(ft.calls), ft.calls)
	}
}

func TestFindOnEmptyOrTinyStream(t *testing.T) {
	ft := &fakeTarget{min: 3}
	repeatfinder.Find(nil, ft)
	repeatfinder.Find([]uint32{1}, ft)
	if len(ft.calls) != 0 {
		t.Fatalf("got %d calls on empty/singleton streams, want 0", len(ft.calls))
	}
}
