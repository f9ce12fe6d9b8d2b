package enums

import "fmt"

// ProfileRole distinguishes what capacity a customer profile operates in.
type ProfileRole string

const (
	ProfileRoleOwner    ProfileRole = "OWNER"
	ProfileRoleManager  ProfileRole = "MANAGER"
	ProfileRoleConsumer ProfileRole = "CONSUMER"
)

var validProfileRoles = []ProfileRole{
	ProfileRoleOwner,
	ProfileRoleManager,
	ProfileRoleConsumer,
}

// String implements fmt.Stringer.
func (p ProfileRole) String() string {
	return string(p)
}

// IsValid reports whether the value matches a known ProfileRole.
func (p ProfileRole) IsValid() bool {
	for _, candidate := range validProfileRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProfileRole converts raw input into a ProfileRole.
func ParseProfileRole(value string) (ProfileRole, error) {
	for _, candidate := range validProfileRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid profile role %q", value)
}
