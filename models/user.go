package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an account with a bcrypt-hashed password.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	Username     string    `bun:"username,notnull,unique" json:"username"`
	Password     string    `bun:"hashed_password,notnull" json:"-"`
	IsActive     bool      `bun:"is_active,notnull,default:true" json:"isActive"`
	IsAdmin      bool      `bun:"is_admin,notnull,default:false" json:"isAdmin"`
	IsSuperadmin bool      `bun:"is_superadmin,notnull,default:false" json:"isSuperadmin"`
	CreatedAt    time.Time `bun:"created_at,notnull,nullzero,default:current_timestamp" json:"createdAt"`
}
