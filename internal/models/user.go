package models

import "strings"

// UserRole represents the two access levels of the dashboard.
type UserRole string

const (
	RoleAdmin UserRole = "Admin"
	RoleUser  UserRole = "User"
)

// User is an authorized account. Passwords are stored and compared in
// plaintext; the tool runs inside a closed internal network and the
// original system behaves the same way.
type User struct {
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Role     UserRole `json:"role"`
	Password string   `json:"password,omitempty"`
}

// DefaultAuthorizedUsers seeds the fixed account list. Remote data may
// update passwords for these emails but can never introduce new accounts.
var DefaultAuthorizedUsers = []User{
	{Email: "admin@jne.co.id", Name: "Administrator", Role: RoleAdmin, Password: "admin123"},
	{Email: "ops1@jne.co.id", Name: "Ops Staff 1", Role: RoleUser, Password: "jne2024"},
	{Email: "ops2@jne.co.id", Name: "Ops Staff 2", Role: RoleUser, Password: "jne2024"},
	{Email: "spv@jne.co.id", Name: "Supervisor", Role: RoleUser, Password: "jne2024"},
}

// MergeUsers reconciles a remote user list against the static known set.
// The result contains exactly the known emails; each entry takes the
// remote password whenever that email appears remotely and keeps the
// known password otherwise. Name and role always come from the known set,
// so a corrupted remote payload cannot rewrite the account mapping.
func MergeUsers(known, remote []User) []User {
	merged := make([]User, len(known))
	for i, base := range known {
		merged[i] = base
		for _, r := range remote {
			if strings.EqualFold(r.Email, base.Email) {
				merged[i].Password = r.Password
				break
			}
		}
	}
	return merged
}

// FindUser returns the user with the given email, case-insensitively.
func FindUser(users []User, email string) (User, bool) {
	for _, u := range users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}
