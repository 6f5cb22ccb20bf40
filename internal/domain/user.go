package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the effective role of an account, derived from its two
// permission flags. Superuser implies the staff capabilities.
type Role string

const (
	RoleJogger    Role = "jogger"
	RoleStaff     Role = "staff"
	RoleSuperuser Role = "superuser"
)

// RoleOf derives the effective role from the raw permission flags.
// This is the single place the flag pair is interpreted; everything
// else (access policy, filter tokens, JWT claims) goes through it.
func RoleOf(isStaff, isSuperuser bool) Role {
	switch {
	case isSuperuser:
		return RoleSuperuser
	case isStaff:
		return RoleStaff
	default:
		return RoleJogger
	}
}

// User represents an account. Joggers own sessions; staff manage
// joggers; superusers manage everything.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // Unique
	PasswordHash string             `bson:"passwordHash" json:"-"`    // Never expose this via JSON
	IsStaff      bool               `bson:"isStaff" json:"isStaff"`
	IsSuperuser  bool               `bson:"isSuperuser" json:"isSuperuser"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) Role() Role {
	return RoleOf(u.IsStaff, u.IsSuperuser)
}
