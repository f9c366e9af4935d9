package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestCanAct(t *testing.T) {
	template := StepTemplate{AllowedRoles: []Role{RoleOffice, RoleInstaller}}

	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleOffice, true},
		{RoleInstaller, true},
		{RoleAgent, false},
		{RoleCustomer, false},
		{Role("unknown"), false},
	}

	for _, tc := range tests {
		if got := CanAct(tc.role, template); got != tc.want {
			t.Errorf("CanAct(%q) = %v, want %v", tc.role, got, tc.want)
		}
	}
}

func TestCanUpload(t *testing.T) {
	customerID := uuid.New()
	linked := Lead{CustomerAccountID: &customerID}
	unlinked := Lead{}
	uploadable := StepTemplate{AllowedRoles: []Role{RoleOffice}, CustomerUpload: true}
	staffOnly := StepTemplate{AllowedRoles: []Role{RoleOffice}}

	if !CanUpload(RoleCustomer, uploadable, linked, customerID) {
		t.Error("linked customer should upload to customer-upload step")
	}
	if CanUpload(RoleCustomer, uploadable, linked, uuid.New()) {
		t.Error("other customer must not upload")
	}
	if CanUpload(RoleCustomer, uploadable, unlinked, customerID) {
		t.Error("customer must not upload to unlinked lead")
	}
	if CanUpload(RoleCustomer, staffOnly, linked, customerID) {
		t.Error("customer must not upload to staff-only step")
	}
	if !CanUpload(RoleOffice, staffOnly, unlinked, uuid.New()) {
		t.Error("allowed role should upload")
	}
}

func TestLifecycleRoles(t *testing.T) {
	if !CanClose(RoleOffice) || !CanClose(RoleAdmin) || CanClose(RoleAgent) {
		t.Error("only office and admin may close")
	}
	if !CanReopen(RoleAdmin) || CanReopen(RoleOffice) {
		t.Error("only admin may reopen")
	}
	if CanManageTemplates(RoleOffice) {
		t.Error("only admin manages templates")
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole(" Office "); !ok || role != RoleOffice {
		t.Fatalf("ParseRole = %q, %v", role, ok)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatal("unknown role accepted")
	}
}
