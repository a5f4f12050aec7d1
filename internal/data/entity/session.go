package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session maps an opaque bearer token to a user. Sessions are issued
// elsewhere; this service only reads them.
type Session struct {
	ID        uuid.UUID  `db:"id"`
	UserID    int64      `db:"user_id"`
	Role      UserRole   `db:"role"`
	Token     uuid.UUID  `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}
