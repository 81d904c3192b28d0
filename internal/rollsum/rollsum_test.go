package rollsum

import (
	"math/rand"
	"testing"
)

func TestInitialSumMatchesFreshWindow(t *testing.T) {
	data := make([]byte, WindowSize)
	rng := rand.New(rand.NewSource(1))
	rng.Read(data)

	r := New()
	for _, b := range data {
		r.Input(b)
	}

	want := Of(data)
	if got := r.Sum64(); got != want {
		t.Fatalf("Sum64() = %x, want %x", got, want)
	}
}

func TestRollingEquivalence(t *testing.T) {
	data := make([]byte, WindowSize*3+137)
	rng := rand.New(rand.NewSource(2))
	rng.Read(data)

	r := New()
	for i, b := range data {
		r.Input(b)
		if i < WindowSize-1 {
			continue
		}
		from := i + 1 - WindowSize
		want := Of(data[from : i+1])
		if got := r.Sum64(); got != want {
			t.Fatalf("at i=%d: Sum64() = %x, want %x (window [%d:%d])", i, got, want, from, i+1)
		}
	}
}

func TestWriteMatchesInput(t *testing.T) {
	data := make([]byte, WindowSize+500)
	rng := rand.New(rand.NewSource(3))
	rng.Read(data)

	byInput := New()
	for _, b := range data {
		byInput.Input(b)
	}

	byWrite := New()
	byWrite.Write(data)

	if byInput.Sum64() != byWrite.Sum64() {
		t.Fatalf("Write() diverged from Input(): %x vs %x", byWrite.Sum64(), byInput.Sum64())
	}
}

func TestRollAliasesInput(t *testing.T) {
	a, b := New(), New()
	for i := 0; i < WindowSize+10; i++ {
		v := byte(i * 7)
		a.Input(v)
		b.Roll(v)
	}
	if a.Sum64() != b.Sum64() {
		t.Fatalf("Roll diverged from Input: %x vs %x", b.Sum64(), a.Sum64())
	}
}

func TestHash64Interface(t *testing.T) {
	var r interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
		Reset()
		Size() int
		BlockSize() int
		Sum64() uint64
	} = New()
	r.Write([]byte("hello"))
	if r.Size() != 8 || r.BlockSize() != WindowSize {
		t.Fatalf("unexpected Size/BlockSize: %d/%d", r.Size(), r.BlockSize())
	}
}
