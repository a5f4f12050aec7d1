package usecase

import "mentor-booking/internal/data/entity"

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID int64
	Role   entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.RoleAdmin
}

// owns reports whether the actor is mentorID or an admin.
func (a Actor) owns(mentorID int64) bool {
	return a.IsAdmin() || a.UserID == mentorID
}
