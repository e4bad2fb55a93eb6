package organizations

// OrganizationsHandler manages the organizations a user can select as
// tenant scope for their provider credentials.
type OrganizationsHandler struct{}
