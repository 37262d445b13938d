package auth

import "testing"

func TestParseRole(t *testing.T) {
	for _, raw := range []string{"super_admin", "admin", "editor", "viewer"} {
		role, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if string(role) != raw {
			t.Fatalf("ParseRole(%q) = %q", raw, role)
		}
	}
	for _, raw := range []string{"", "root", "SUPER_ADMIN", "Admin", "moderator"} {
		if _, err := ParseRole(raw); err == nil {
			t.Errorf("ParseRole(%q) accepted an unknown role", raw)
		}
	}
}

func TestRoleRankOrdering(t *testing.T) {
	if !(RoleSuperAdmin.Rank() > RoleAdmin.Rank() &&
		RoleAdmin.Rank() > RoleEditor.Rank() &&
		RoleEditor.Rank() > RoleViewer.Rank() &&
		RoleViewer.Rank() > Role("").Rank()) {
		t.Fatal("role ranks out of order")
	}
}

func TestAtLeast(t *testing.T) {
	if !AtLeast(RoleAdmin, RoleEditor) {
		t.Fatal("admin should satisfy editor requirement")
	}
	if AtLeast(RoleViewer, RoleEditor) {
		t.Fatal("viewer must not satisfy editor requirement")
	}
	if AtLeast(Role("bogus"), RoleViewer) {
		t.Fatal("unknown role must never satisfy a requirement")
	}
	if !AtLeast(RoleEditor, RoleEditor) {
		t.Fatal("a role satisfies itself")
	}
}

func TestCapabilities(t *testing.T) {
	if !CanManageUsers(RoleSuperAdmin) || CanManageUsers(RoleAdmin) {
		t.Fatal("only super_admin manages users")
	}
	if !CanManageVestigingen(RoleAdmin) || CanManageVestigingen(RoleEditor) {
		t.Fatal("vestiging management stops at admin")
	}
	if !CanEditContent(RoleEditor) || CanEditContent(RoleViewer) {
		t.Fatal("content editing stops at editor")
	}
}
