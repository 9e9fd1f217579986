package workaround

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestEnableAndQuery(t *testing.T) {
	r := NewRegistry(uuid.New())
	if r.IsEnabled(SurfaceOfLinearExtrusion) {
		t.Fatal("fresh registry should have nothing enabled")
	}
	if err := r.Enable(SurfaceOfLinearExtrusion); err != nil {
		t.Fatalf("Enable: %v", err)
	}
	if err := r.Enable(SurfaceOfLinearExtrusion); err != nil {
		t.Fatalf("second Enable should be a no-op: %v", err)
	}
	if !r.IsEnabled(SurfaceOfLinearExtrusion) {
		t.Fatal("expected workaround to be enabled")
	}
	if got := r.Names(); len(got) != 1 {
		t.Fatalf("Names = %v", got)
	}
}

func TestUnknownIdentifierAccepted(t *testing.T) {
	r := NewRegistry(uuid.New())
	if err := r.Enable("#SomeFutureWorkaround"); err != nil {
		t.Fatalf("unknown identifiers should be accepted: %v", err)
	}
	if err := r.Enable(""); err == nil {
		t.Fatal("empty identifier should be rejected")
	}
}

func TestSealRejectsEnable(t *testing.T) {
	r := NewRegistry(uuid.New())
	r.Seal()
	err := r.Enable(PolylineTrimLengthOne)
	if !errors.Is(err, ErrSealed) {
		t.Fatalf("expected ErrSealed, got %v", err)
	}
	c := r.Clone()
	if c.Sealed() {
		t.Fatal("clone should be unsealed")
	}
	if c.ModelID() != r.ModelID() {
		t.Fatal("clone should keep the model id")
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	if r.IsEnabled(BridgeWireGaps) {
		t.Fatal("nil registry should report nothing enabled")
	}
	if r.Names() != nil {
		t.Fatal("nil registry should have no names")
	}
}

func TestConcurrentReads(t *testing.T) {
	r := NewRegistry(uuid.New())
	_ = r.Enable(TrimSpansFullPeriod)
	r.Seal()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !r.IsEnabled(TrimSpansFullPeriod) {
				t.Error("expected enabled")
			}
		}()
	}
	wg.Wait()
}
