package enums

import "fmt"

// UserRole represents a platform-level identity role.
type UserRole string

const (
	UserRoleAdmin           UserRole = "admin"
	UserRoleBusinessOwner   UserRole = "business_owner"
	UserRoleBusinessManager UserRole = "business_manager"
	UserRoleConsumer        UserRole = "consumer"
	UserRoleOperations      UserRole = "operations"
	UserRoleSocialMedia     UserRole = "social_media"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleBusinessOwner,
	UserRoleBusinessManager,
	UserRoleConsumer,
	UserRoleOperations,
	UserRoleSocialMedia,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
