package domain

import (
	"fmt"
	"strings"
	"time"
)

// TripMember is a participant in a trip. UserID is an opaque identifier
// issued by the auth system.
type TripMember struct {
	UserID   string
	Role     MemberRole
	Nickname string
	JoinedAt time.Time
}

// NewTripMember validates the user ID and role.
func NewTripMember(userID string, role MemberRole, nickname string, joinedAt time.Time) (TripMember, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return TripMember{}, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if role != RoleAdmin && role != RoleMember {
		return TripMember{}, fmt.Errorf("%w: unknown member role %q", ErrValidation, role)
	}
	return TripMember{UserID: userID, Role: role, Nickname: strings.TrimSpace(nickname), JoinedAt: joinedAt}, nil
}

func (m TripMember) IsAdmin() bool { return m.Role == RoleAdmin }

// DisplayName is the nickname when set, else the user ID.
func (m TripMember) DisplayName() string {
	if m.Nickname != "" {
		return m.Nickname
	}
	return m.UserID
}
