package models

import "time"

// User represents a registered user in the system. The scheduling engine only
// ever reads users; all writes go through the CRUD API.
type User struct {
	ID        int       `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Birthday  string    `json:"birthday" db:"birthday"` // civil YYYY-MM-DD; only month/day drive recurrence
	Timezone  string    `json:"timezone" db:"timezone"` // IANA zone identifier
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	if u.FirstName != "" && u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.LastName != "" {
		return u.LastName
	}
	return "there"
}

// BirthdayMonthDay returns the MM and DD components of the birthday anchor.
// The string is compared textually so that a Feb 29 anchor simply never
// matches on non-leap years instead of shifting.
func (u *User) BirthdayMonthDay() (month, day string, ok bool) {
	if len(u.Birthday) != 10 || u.Birthday[4] != '-' || u.Birthday[7] != '-' {
		return "", "", false
	}
	return u.Birthday[5:7], u.Birthday[8:10], true
}
