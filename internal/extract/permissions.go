package extract

import (
	"fmt"
	"strings"
)

// PermissionName is the fine-grained token permission an endpoint requires.
type PermissionName string

// Permissions named in warnings.
const (
	PermissionMetadata PermissionName = "Metadata"
	PermissionWebhooks PermissionName = "Webhooks"
	PermissionMembers  PermissionName = "Members"
)

// PermissionCategory groups permissions the way the token settings page does.
type PermissionCategory string

// Permission categories.
const (
	CategoryRepository   PermissionCategory = "repository"
	CategoryOrganization PermissionCategory = "organization"
)

// permissionGap describes a sub-resource the token may not be allowed to read.
type permissionGap struct {
	endpoint string
	item     string
	name     PermissionName
	category PermissionCategory
	role     string
}

func (g permissionGap) message() string {
	role := g.role
	if role == "" {
		role = "read"
	}

	category := string(g.category)
	if category != "" {
		category = strings.ToUpper(category[:1]) + category[1:]
	}

	return fmt.Sprintf("Current token cannot access %s permissions for %s. "+
		"Fine-grained access tokens must include the %q %s permissions (%s)",
		g.endpoint, g.item, string(g.name), category, role)
}
