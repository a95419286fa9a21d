package domain

import "time"

type PersonalAccessToken struct {
	ID        int64
	TokenHash string
	UserID    int64
	Role      string
	Abilities string
	ExpiresAt *time.Time
}
