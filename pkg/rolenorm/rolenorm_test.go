package rolenorm

import "testing"

func TestNormalizeSynonyms(t *testing.T) {
	cases := map[string]Role{
		"admin":                "admin",
		"Administrator":        "admin",
		"  ADMINISTRATOR  ":    "admin",
		"super user":           "superuser",
		"super_user":           "superuser",
		"manager":              "manager",
		"Manager - Production": "manager",
		"quality engineer":     "quality_engineer",
		"qe":                   "quality_engineer",
		"auditor":              "auditor",
		"something unknown":    "viewer",
		"":                     "viewer",
	}
	for input, want := range cases {
		if got := Normalize(input); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestNormalizeAllPrefersRolesList(t *testing.T) {
	set := NormalizeAll([]string{"Administrator", "admin", "auditor"}, "manager")

	if len(set) != 2 {
		t.Fatalf("expected deduplicated set of 2, got %d", len(set))
	}
	if !set.Has(Admin) || !set.Has(Auditor) {
		t.Fatalf("unexpected set contents: %v", set)
	}
	if set.Has(Manager) {
		t.Fatalf("fallback role must be ignored when roles list is present")
	}
}

func TestNormalizeAllFallback(t *testing.T) {
	set := NormalizeAll(nil, "super user")
	if !set.Has(Superuser) {
		t.Fatalf("expected fallback normalization, got %v", set)
	}

	empty := NormalizeAll(nil, "")
	if len(empty) != 0 {
		t.Fatalf("expected empty set, got %v", empty)
	}
}

func TestIsPrivileged(t *testing.T) {
	if !NormalizeAll([]string{"manager"}, "").IsPrivileged() {
		t.Fatalf("manager should be privileged")
	}
	if NormalizeAll([]string{"auditor", "viewer"}, "").IsPrivileged() {
		t.Fatalf("auditor/viewer should not be privileged")
	}
}
