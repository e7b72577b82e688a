package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	if got := Truncate("pusing ringan", 6); got != "pusing..." {
		t.Errorf("got %s", got)
	}
	if got := Truncate("héllo", 2); got != "hé..." {
		t.Errorf("multi-byte runes must not be split: got %q", got)
	}
}
