package activity

// Action constants identify what happened.
const (
	ActionCreateLead       = "create_lead"
	ActionInitTimeline     = "initialize_timeline"
	ActionCompleteStep     = "complete_step"
	ActionEnableStep       = "enable_step"
	ActionOverrideStep     = "override_step"
	ActionUploadDocument   = "upload_document"
	ActionUpdateLeadStatus = "update_lead_status"
	ActionCloseProject     = "close_project"
	ActionReopenProject    = "reopen_project"
	ActionLinkCustomer     = "link_customer"
	ActionCreateTemplate   = "create_step_template"
	ActionUpdateTemplate   = "update_step_template"
	ActionReorderTemplate  = "reorder_step_template"
	ActionRenumberTemplate = "renumber_step_templates"
)

// EntityType constants identify what the action touched.
const (
	EntityLead         = "lead"
	EntityLeadStep     = "lead_step"
	EntityStepTemplate = "step_template"
)
