package layer_test

import (
	"errors"
	"testing"

	"github.com/blockcast/go-dissect/layer"
)

func TestRegisterDefaults(t *testing.T) {
	layer.ResetRegistry()
	defer layer.ResetRegistry()

	if err := layer.RegisterDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := layer.RegisterDefaults(); err != nil {
		t.Fatalf("second RegisterDefaults: unexpected error: %v", err)
	}
	if !layer.Frozen() {
		t.Errorf("registry not frozen after RegisterDefaults")
	}

	create, ok := layer.LookupNextHeader(layer.IPProtoICMPv6)
	if !ok {
		t.Fatalf("no creator registered for next header %d", layer.IPProtoICMPv6)
	}
	a, b := create(), create()
	if a == b {
		t.Errorf("creator returned the same instance twice")
	}
	if a.Name() != "ICMPV6" || a.ShortName() != "icmpv6" {
		t.Errorf("unexpected names: %q %q", a.Name(), a.ShortName())
	}

	if _, ok := layer.LookupNextHeader(6); ok {
		t.Errorf("unexpected creator for next header 6")
	}
}

func TestRegisterNextHeaderErrors(t *testing.T) {
	layer.ResetRegistry()
	defer layer.ResetRegistry()

	if err := layer.RegisterNextHeader(200, layer.NewICMPv6); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := layer.RegisterNextHeader(200, layer.NewICMPv6)
	if !errors.Is(err, layer.ErrAlreadyRegistered) {
		t.Errorf("expected ErrAlreadyRegistered, got %v", err)
	}

	layer.Freeze()
	err = layer.RegisterNextHeader(201, layer.NewICMPv6)
	if !errors.Is(err, layer.ErrRegistryFrozen) {
		t.Errorf("expected ErrRegistryFrozen, got %v", err)
	}
	if _, ok := layer.LookupNextHeader(201); ok {
		t.Errorf("frozen registry accepted a new creator")
	}
}
