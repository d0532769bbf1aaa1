package model

import "time"

// User is a record managed through the admin user list.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Company   string    `json:"company,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserInput is the body of create/update user calls. Password is a pointer so
// that an unset password is dropped from the JSON body entirely; an empty Role
// is dropped too.
type UserInput struct {
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Password *string `json:"password,omitempty" masq:"secret"`
	Role     Role    `json:"role,omitempty"`
	Company  string  `json:"company,omitempty"`
	Phone    string  `json:"phone,omitempty"`
}

// UserPage is one page of the user list.
type UserPage struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// UserFilter drives the list users query. Empty Search and Role are omitted
// from the request.
type UserFilter struct {
	Page   int
	Limit  int
	Search string
	Role   Role
}

// PushNotification is sent to a single user's devices.
type PushNotification struct {
	UserID string            `json:"userId"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}
