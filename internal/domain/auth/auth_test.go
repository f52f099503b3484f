package auth

import (
	"testing"
	"time"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("S3cret!pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword(hash, "S3cret!pass"); err != nil {
		t.Fatalf("expected password to verify: %v", err)
	}
	if err := CheckPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch for wrong password")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("test-secret", Claims{UserID: "u1", EmployeeID: "e1", RoleName: RoleSupervisor}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != "u1" || claims.EmployeeID != "e1" || claims.RoleName != RoleSupervisor {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("test-secret", Claims{UserID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseToken("other-secret", token); err == nil {
		t.Fatal("expected parse failure with wrong secret")
	}
}

func TestRolePermissionsCoverCatalog(t *testing.T) {
	known := map[string]bool{}
	for _, perm := range DefaultPermissions {
		known[perm] = true
	}
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if !known[perm] {
				t.Fatalf("role %s grants unknown permission %s", role, perm)
			}
		}
	}
	if hasPerm(RoleReviewer, PermAppraisalsWrite) {
		t.Fatal("reviewers act through approve/reject only, never line writes")
	}
}

func hasPerm(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
