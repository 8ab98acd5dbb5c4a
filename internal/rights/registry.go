// Package rights holds the advisory catalog of known right strings. The
// catalog exists to populate selection UIs and carries no authority: a
// grant may reference a right that is absent here and the decision engine
// evaluates it all the same.
package rights

import "sort"

// Backoffice rights.
const (
	BackofficeAll             = "backoffice:*"
	BackofficeDashboardAccess = "backoffice:dashboard:access"
)

// Admin panel rights, grouped per managed surface.
const (
	AdminUsersRead  = "admin_panel__users:read"
	AdminUsersWrite = "admin_panel__users:write"

	AdminOrgsRead  = "admin_panel__organizations:read"
	AdminOrgsWrite = "admin_panel__organizations:write"

	AdminRolesRead  = "admin_panel__roles:read"
	AdminRolesWrite = "admin_panel__roles:write"

	AdminGroupsRead  = "admin_panel__groups:read"
	AdminGroupsWrite = "admin_panel__groups:write"

	AdminGrantsRead  = "admin_panel__grants:read"
	AdminGrantsWrite = "admin_panel__grants:write"

	AdminNotificationsRead  = "admin_panel__notifications:read"
	AdminNotificationsWrite = "admin_panel__notifications:write"

	AdminBlogRead  = "admin_panel__blog:read"
	AdminBlogWrite = "admin_panel__blog:write"

	AdminSeoRead  = "admin_panel__seo:read"
	AdminSeoWrite = "admin_panel__seo:write"

	AdminCronRead  = "admin_panel__cron:read"
	AdminCronWrite = "admin_panel__cron:write"

	AdminWebhooksRead  = "admin_panel__webhooks:read"
	AdminWebhooksWrite = "admin_panel__webhooks:write"

	AdminFilesRead  = "admin_panel__files:read"
	AdminFilesWrite = "admin_panel__files:write"

	AdminAuditRead = "admin_panel__audit:read"
)

// List returns the catalog sorted and deduplicated. Pure and static; no
// I/O, no failure mode.
func List() []string {
	catalog := []string{
		BackofficeAll,
		BackofficeDashboardAccess,
		AdminUsersRead,
		AdminUsersWrite,
		AdminOrgsRead,
		AdminOrgsWrite,
		AdminRolesRead,
		AdminRolesWrite,
		AdminGroupsRead,
		AdminGroupsWrite,
		AdminGrantsRead,
		AdminGrantsWrite,
		AdminNotificationsRead,
		AdminNotificationsWrite,
		AdminBlogRead,
		AdminBlogWrite,
		AdminSeoRead,
		AdminSeoWrite,
		AdminCronRead,
		AdminCronWrite,
		AdminWebhooksRead,
		AdminWebhooksWrite,
		AdminFilesRead,
		AdminFilesWrite,
		AdminAuditRead,
	}
	unique := make(map[string]struct{}, len(catalog))
	out := make([]string, 0, len(catalog))
	for _, right := range catalog {
		if _, seen := unique[right]; seen {
			continue
		}
		unique[right] = struct{}{}
		out = append(out, right)
	}
	sort.Strings(out)
	return out
}
