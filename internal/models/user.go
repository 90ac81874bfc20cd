package models

import "time"

// Roles a user can register with.
const (
	RoleFarmer = "farmer"
	RoleBuyer  = "buyer"
)

// User represents a marketplace account, either a farmer selling animals
// or a buyer ordering them.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password  string    `json:"-" gorm:"type:varchar(255)" validate:"required,min=6"` // bcrypt hash, never serialized
	Role      string    `json:"role" gorm:"type:varchar(16)" validate:"required,oneof=farmer buyer"`
	Name      string    `json:"name" validate:"required,min=2,max=100"`
	Phone     string    `json:"phone" validate:"omitempty,max=20"`
	Location  string    `json:"location" validate:"omitempty,max=100"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FarmerContact is the farmer snapshot attached to populated order items.
type FarmerContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Contact returns the subset of user fields exposed to buyers.
func (u *User) Contact() FarmerContact {
	return FarmerContact{Name: u.Name, Phone: u.Phone}
}
