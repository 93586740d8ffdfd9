package catalog

import "testing"

func TestDeriveCacheIdentityFormat(t *testing.T) {
	got := DeriveCacheIdentity(1, 23, "Arm/chair")
	if got != "00000001-00000023-Armchair" {
		t.Fatalf("unexpected identity %q", got)
	}
}

func TestDeriveCacheIdentityIsDeterministic(t *testing.T) {
	a := DeriveCacheIdentity(4, 5, "椅子")
	b := DeriveCacheIdentity(4, 5, "椅子")
	if a != b {
		t.Fatalf("identities differ for identical input: %q vs %q", a, b)
	}
}

func TestDeriveCacheIdentityChangesWithEachInput(t *testing.T) {
	base := DeriveCacheIdentity(4, 5, "Chair")
	variants := []CacheIdentity{
		DeriveCacheIdentity(40, 5, "Chair"),
		DeriveCacheIdentity(4, 50, "Chair"),
		DeriveCacheIdentity(4, 5, "Chairs"),
	}
	for _, v := range variants {
		if v == base {
			t.Fatalf("expected %q to differ from %q", v, base)
		}
	}
}

func TestDeriveCacheIdentityDegenerateName(t *testing.T) {
	got := DeriveCacheIdentity(0, 0, `<>:"/\|?*`)
	if got != "00000000-00000000-" {
		t.Fatalf("unexpected identity for unsafe-only name: %q", got)
	}
}

func TestDeriveCacheIdentitySanitizerCollision(t *testing.T) {
	// Documented limitation: names that only differ by stripped characters collide.
	if DeriveCacheIdentity(1, 1, "a:b") != DeriveCacheIdentity(1, 1, "ab") {
		t.Fatalf("expected sanitized names to collide")
	}
}
