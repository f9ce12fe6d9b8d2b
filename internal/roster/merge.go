package roster

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Source marks which side of the reconciliation produced an entry.
type Source string

const (
	SourceProfile     Source = "profile"
	SourceApplication Source = "application"
)

// PendingSetupBusinessName is the display name used when a manager was
// proposed against a business application that has not been approved yet.
const PendingSetupBusinessName = "Pending Setup"

// Entry is one deduplicated roster row.
type Entry struct {
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	Phone         string     `json:"phone,omitempty"`
	ManagerUserID *uuid.UUID `json:"managerUserId,omitempty"`
	ApplicationID *uuid.UUID `json:"applicationId,omitempty"`
	BusinessID    *uuid.UUID `json:"businessId,omitempty"`
	BusinessName  string     `json:"businessName"`
	Status        string     `json:"status"`
	Source        Source     `json:"source"`
}

// Merge combines application-sourced and profile-sourced rows into one
// deduplicated roster. Rows collide on lowercase email; the profile row wins
// because it reflects the manager's live account rather than the request that
// created it. Output is sorted by email for stable presentation.
func Merge(applicationRows, profileRows []Entry) []Entry {
	merged := make(map[string]Entry, len(applicationRows)+len(profileRows))
	for _, row := range applicationRows {
		merged[normalizeEmail(row.Email)] = row
	}
	for _, row := range profileRows {
		merged[normalizeEmail(row.Email)] = row
	}

	result := make([]Entry, 0, len(merged))
	for _, row := range merged {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		return normalizeEmail(result[i].Email) < normalizeEmail(result[j].Email)
	})
	return result
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
