package contenthash

import "testing"

func TestSum_KnownDigest(t *testing.T) {
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := SumString("abc"); got != want {
		t.Fatalf("SumString(abc) = %s, want %s", got, want)
	}
	if got := Sum([]byte("abc")); got != want {
		t.Fatalf("Sum(abc) = %s, want %s", got, want)
	}
}

func TestSum_Deterministic(t *testing.T) {
	content := []byte(`{"id":"a1","role":"X"}`)
	first := Sum(content)
	for i := 0; i < 10; i++ {
		if got := Sum(content); got != first {
			t.Fatalf("iteration %d: Sum changed from %s to %s", i, first, got)
		}
	}
	if len(first) != Size {
		t.Errorf("len(Sum) = %d, want %d", len(first), Size)
	}
}

func TestSum_DistinguishesContent(t *testing.T) {
	a := Sum([]byte(`{"role":"X"}`))
	b := Sum([]byte(`{"role":"Y"}`))
	if a == b {
		t.Fatalf("different content produced the same digest %s", a)
	}
}

func TestVerify(t *testing.T) {
	content := []byte("payload")
	digest := Sum(content)
	if !Verify(content, digest) {
		t.Error("Verify() = false for matching digest")
	}
	if Verify([]byte("payload2"), digest) {
		t.Error("Verify() = true for modified content")
	}
	if Verify(content, "") {
		t.Error("Verify() = true for empty digest")
	}
}
