package resource

import "testing"

func TestClaimAndRelease(t *testing.T) {
	r := NewRegistry()
	if err := r.Claim(LineMux, "display"); err != nil {
		t.Fatalf("first claim should succeed: %v", err)
	}
	if err := r.Claim(LineMux, "led"); err == nil {
		t.Fatalf("second owner's claim should fail while held")
	}
	r.Release(LineMux, "display")
	if err := r.Claim(LineMux, "led"); err != nil {
		t.Fatalf("claim after release should succeed: %v", err)
	}
	if got := r.OwnerOf(LineMux); got != "led" {
		t.Fatalf("OwnerOf = %q, want %q", got, "led")
	}
}

func TestReleaseByNonOwnerIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Claim(LineEinkPower, "display")
	r.Release(LineEinkPower, "someone-else")
	if got := r.OwnerOf(LineEinkPower); got != "display" {
		t.Fatalf("OwnerOf = %q, want %q (release by non-owner must be a no-op)", got, "display")
	}
}

func TestReclaimBySameOwnerIsIdempotent(t *testing.T) {
	r := NewRegistry()
	if err := r.Claim(BusEinkSPI, "display"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Claim(BusEinkSPI, "display"); err != nil {
		t.Fatalf("re-claim by same owner should be a no-op success: %v", err)
	}
}
