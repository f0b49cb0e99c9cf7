package upstream

import "time"

// AuditFields are the server-assigned attribution fields shared by every
// resource record. The console never fills these in; they come back from the
// platform after a successful mutation.
type AuditFields struct {
	CreatedBy      string     `json:"createdBy,omitempty"`
	CreatedDate    *time.Time `json:"createdDate,omitempty"`
	LastModifiedBy string     `json:"lastModifiedBy,omitempty"`
}

// Role is a named set of page permissions within a domain
type Role struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AuditFields
}

// Page is a console page registered with the platform
type Page struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Icon     string `json:"icon,omitempty"`
	IsActive bool   `json:"isActive"`
	AuditFields
}

// PermissionType is a grantable permission kind (READ, WRITE, DELETE, ...)
type PermissionType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	AuditFields
}

// Domain is a tenant/business-unit scope
type Domain struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
	AuditFields
}

// Connection is an integration endpoint configured on the platform
type Connection struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Endpoint string `json:"endpoint"`
	IsActive bool   `json:"isActive"`
	AuditFields
}

// HolidayCalendar is a named calendar of non-working days
type HolidayCalendar struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
	Year    int    `json:"year"`
	AuditFields
}

// UIMetadata is presentational configuration for a console page
type UIMetadata struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	PagePath string `json:"pagePath"`
	Content  string `json:"content,omitempty"`
	AuditFields
}

// RolePagePermission is one cell of the permission grid: a grant of a
// permission type to a role on a page
type RolePagePermission struct {
	PageID           int64  `json:"pageId"`
	RoleName         string `json:"roleName"`
	PermissionTypeID int64  `json:"permissionTypeId"`
	IsGranted        bool   `json:"isGranted"`
}
