package entity

type UserRole string

const (
	RoleMentee UserRole = "mentee"
	RoleMentor UserRole = "mentor"
	RoleAdmin  UserRole = "admin"
)

// User is the slice of a marketplace account the booking core reads:
// identity, role and a notification address.
type User struct {
	ID       int64    `db:"id"`
	FullName string   `db:"full_name"`
	Email    string   `db:"email"`
	Role     UserRole `db:"role"`
}
