package domain

import "github.com/google/uuid"

// CanAct reports whether a user with role may act on steps of the template.
// Admins may act on every step.
func CanAct(role Role, template StepTemplate) bool {
	return role == RoleAdmin || template.AllowsRole(role)
}

// CanUpload reports whether the user may attach documents to a step. Besides
// everyone who CanAct, a customer may upload to customer-upload steps of a
// lead linked to their own account.
func CanUpload(role Role, template StepTemplate, lead Lead, userID uuid.UUID) bool {
	if CanAct(role, template) {
		return true
	}
	return role == RoleCustomer && template.CustomerUpload && lead.IsLinkedTo(userID)
}

// CanManageTemplates reports whether role may edit the template registry.
func CanManageTemplates(role Role) bool {
	return role == RoleAdmin
}

// CanClose reports whether role may close a lead.
func CanClose(role Role) bool {
	return role == RoleAdmin || role == RoleOffice
}

// CanReopen reports whether role may reopen a closed lead.
func CanReopen(role Role) bool {
	return role == RoleAdmin
}

// CanCreateLead reports whether role may register a lead through intake.
func CanCreateLead(role Role) bool {
	switch role {
	case RoleAdmin, RoleOffice, RoleAgent:
		return true
	}
	return false
}

// CanViewLead reports whether the user may read a lead and its timeline.
// Staff roles see every lead; installers see leads assigned to them and
// customers see leads linked to their account.
func CanViewLead(role Role, lead Lead, userID uuid.UUID) bool {
	switch role {
	case RoleAdmin, RoleOffice, RoleAgent:
		return true
	case RoleInstaller:
		return lead.InstallerID != nil && *lead.InstallerID == userID
	case RoleCustomer:
		return lead.IsLinkedTo(userID)
	}
	return false
}
