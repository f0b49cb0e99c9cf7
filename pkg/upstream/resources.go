package upstream

import (
	"context"
	"fmt"
	"net/http"
)

// ResourceClient is a typed client for one collection endpoint. All resource
// endpoints follow the same REST conventions, so the per-resource clients are
// instantiations of this one type.
type ResourceClient[T any] struct {
	client *Client
	// path is the collection path, e.g. "/api/roles"
	path string
	// name labels metrics and errors
	name string
}

// NewResourceClient creates a typed client for a collection endpoint
func NewResourceClient[T any](client *Client, path, name string) *ResourceClient[T] {
	return &ResourceClient[T]{client: client, path: path, name: name}
}

// Name returns the resource name
func (rc *ResourceClient[T]) Name() string {
	return rc.name
}

// List fetches every record, scoped to the domain when domainID is non-zero
func (rc *ResourceClient[T]) List(ctx context.Context, token string, domainID int64) ([]T, error) {
	var out []T
	err := rc.client.Get(ctx, rc.path, token, &out, CallOpts{Resource: rc.name, Operation: "list", DomainID: domainID})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches a single record by id
func (rc *ResourceClient[T]) Get(ctx context.Context, token string, id int64) (*T, error) {
	var out T
	err := rc.client.Get(ctx, fmt.Sprintf("%s/%d", rc.path, id), token, &out, CallOpts{Resource: rc.name, Operation: "get"})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates a record and returns it with server-assigned fields
func (rc *ResourceClient[T]) Create(ctx context.Context, token string, domainID int64, rec T) (*T, error) {
	var out T
	err := rc.client.Post(ctx, rc.path, token, rec, &out, CallOpts{Resource: rc.name, Operation: "create", DomainID: domainID})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a record and returns the stored version
func (rc *ResourceClient[T]) Update(ctx context.Context, token string, id int64, rec T) (*T, error) {
	var out T
	err := rc.client.Put(ctx, fmt.Sprintf("%s/%d", rc.path, id), token, rec, &out, CallOpts{Resource: rc.name, Operation: "update"})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record
func (rc *ResourceClient[T]) Delete(ctx context.Context, token string, id int64) error {
	return rc.client.Delete(ctx, fmt.Sprintf("%s/%d", rc.path, id), token, CallOpts{Resource: rc.name, Operation: "delete"})
}

// SetActive activates or deactivates a record on upstreams that support it
func (rc *ResourceClient[T]) SetActive(ctx context.Context, token string, id int64, active bool) error {
	verb := "deactivate"
	if active {
		verb = "activate"
	}
	return rc.client.Do(ctx, http.MethodPut, fmt.Sprintf("%s/%d/%s", rc.path, id, verb), token, nil, nil,
		CallOpts{Resource: rc.name, Operation: verb})
}

// Clients bundles every per-resource client over one base client
type Clients struct {
	Roles            *ResourceClient[Role]
	Pages            *ResourceClient[Page]
	PermissionTypes  *ResourceClient[PermissionType]
	Domains          *ResourceClient[Domain]
	Connections      *ResourceClient[Connection]
	HolidayCalendars *ResourceClient[HolidayCalendar]
	UIMetadata       *ResourceClient[UIMetadata]

	// role-page-permissions are edited as a grid, not row by row
	Permissions *PermissionGridClient
}

// NewClients creates the full client set
func NewClients(base *Client) *Clients {
	return &Clients{
		Roles:            NewResourceClient[Role](base, "/api/roles", "roles"),
		Pages:            NewResourceClient[Page](base, "/api/pages", "pages"),
		PermissionTypes:  NewResourceClient[PermissionType](base, "/api/permission-types", "permission_types"),
		Domains:          NewResourceClient[Domain](base, "/api/domains", "domains"),
		Connections:      NewResourceClient[Connection](base, "/api/connections", "connections"),
		HolidayCalendars: NewResourceClient[HolidayCalendar](base, "/api/holiday-calendars", "holiday_calendars"),
		UIMetadata:       NewResourceClient[UIMetadata](base, "/api/ui-metadata", "ui_metadata"),
		Permissions:      NewPermissionGridClient(base),
	}
}

// PermissionGridClient edits role-page-permissions as a bulk grid. Persisting
// is a full replace-for-page operation.
type PermissionGridClient struct {
	client *Client
}

// NewPermissionGridClient creates a permission grid client
func NewPermissionGridClient(client *Client) *PermissionGridClient {
	return &PermissionGridClient{client: client}
}

// GetForPage fetches the permission grid rows for one page
func (pc *PermissionGridClient) GetForPage(ctx context.Context, token string, domainID, pageID int64) ([]RolePagePermission, error) {
	var out []RolePagePermission
	err := pc.client.Get(ctx, fmt.Sprintf("/api/role-page-permissions/page/%d", pageID), token, &out,
		CallOpts{Resource: "role_page_permissions", Operation: "get_for_page", DomainID: domainID})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReplaceForPage persists the full grid for one page, replacing whatever the
// platform had before.
func (pc *PermissionGridClient) ReplaceForPage(ctx context.Context, token string, domainID, pageID int64, grid []RolePagePermission) error {
	return pc.client.Put(ctx, fmt.Sprintf("/api/role-page-permissions/page/%d", pageID), token, grid, nil,
		CallOpts{Resource: "role_page_permissions", Operation: "replace_for_page", DomainID: domainID})
}
