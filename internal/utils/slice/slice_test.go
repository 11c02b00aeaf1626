package slice

import "testing"

func TestContains(t *testing.T) {
	items := []string{"sha256", "sha384"}
	if !Contains(items, "sha256") {
		t.Error("expected to find sha256")
	}
	if Contains(items, "md5") {
		t.Error("did not expect to find md5")
	}
	if Contains(nil, "anything") {
		t.Error("nil slice should contain nothing")
	}
}

func TestDedupPreservesOrder(t *testing.T) {
	got := Dedup([]string{"b", "a", "b", "c", "a"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestDedupEmpty(t *testing.T) {
	if got := Dedup(nil); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}
}
