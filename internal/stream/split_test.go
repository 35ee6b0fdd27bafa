package stream

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSplitterBasic(t *testing.T) {
	s := NewSplitter([]string{"\n"})
	got := s.Push([]byte("motor speed: 200 rpm\nhello world\nmotor"))
	want := []string{"motor speed: 200 rpm", "hello world"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Push() fragments mismatch (-want +got):\n%s", diff)
	}
	if pending := s.Pending(); pending != "motor" {
		t.Errorf("Pending() = %q, want %q", pending, "motor")
	}

	got = s.Push([]byte(" speed: 199 rpm\n"))
	want = []string{"motor speed: 199 rpm"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("second Push() mismatch (-want +got):\n%s", diff)
	}
	if pending := s.Pending(); pending != "" {
		t.Errorf("Pending() = %q, want empty", pending)
	}
}

func TestSplitterEarliestDelimiterWins(t *testing.T) {
	s := NewSplitter([]string{";", "\n"})
	got := s.Push([]byte("a;b\nc;"))
	want := []string{"a", "b", "c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitterLongestDelimiterOnTie(t *testing.T) {
	// Both "\r" and "\r\n" match at position 1. The longer one must win so
	// the "\n" is not left behind as a phantom fragment boundary.
	s := NewSplitter([]string{"\r", "\r\n"})
	got := s.Push([]byte("a\r\nb\rc\r"))
	want := []string{"a", "b"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
	// The trailing "\r" may still be the start of "\r\n", so "c" stays
	// buffered until the next chunk disambiguates.
	if pending := s.Pending(); pending != "c\r" {
		t.Errorf("Pending() = %q, want %q", pending, "c\r")
	}

	got = s.Push([]byte("d\r\n"))
	want = []string{"c", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("follow-up fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitterDeferredSplitAcrossChunks(t *testing.T) {
	s := NewSplitter([]string{"END", "E"})
	if got := s.Push([]byte("xE")); got != nil {
		// "E" matches but could be the start of "END".
		t.Errorf("Push(%q) = %v, want no fragments yet", "xE", got)
	}
	got := s.Push([]byte("NDy"))
	want := []string{"x"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
	if pending := s.Pending(); pending != "y" {
		t.Errorf("Pending() = %q, want %q", pending, "y")
	}
}

func TestSplitterIgnoresEmptyDelimiters(t *testing.T) {
	s := NewSplitter([]string{"", "\n"})
	got := s.Push([]byte("a\nb"))
	want := []string{"a"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitterReset(t *testing.T) {
	s := NewSplitter([]string{"\n"})
	s.Push([]byte("partial fragment"))
	s.Reset()
	if pending := s.Pending(); pending != "" {
		t.Errorf("Pending() after Reset = %q, want empty", pending)
	}
	got := s.Push([]byte("fresh\n"))
	want := []string{"fresh"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragments after Reset mismatch (-want +got):\n%s", diff)
	}
}
