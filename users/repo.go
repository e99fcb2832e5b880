package users

type UserRepo interface {
	// Create assigns the next ID. Usernames and emails are unique.
	Create(user *User) error
	Update(user *User) error
	GetByID(id int) (*User, error)
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	SetVerified(id int, verified bool) error
}
