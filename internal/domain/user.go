package domain

import "time"

// User is a staff account allowed to mutate reservations for a restaurant.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string // bcrypt, never returned by the API
	RestaurantID string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	IsActive     bool
}

// UserRepository defines data access for staff accounts.
type UserRepository interface {
	Create(user *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	GetByUsername(username string) (*User, error)
	Update(user *User) error
	Delete(id string) error
	ListByRestaurant(restaurantID string) ([]*User, error)
}
