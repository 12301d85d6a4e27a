package models

import "time"

// Account is a customer account. The password hash is never serialized to clients.
type Account struct {
	ID           string    `json:"id" bson:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email" gorm:"uniqueIndex;type:varchar(255)"`
	PasswordHash string    `json:"-" bson:"password_hash" gorm:"type:varchar(255)"`
	Phone        string    `json:"phone" bson:"phone"`
	Address      *Address  `json:"address,omitempty" bson:"address,omitempty" gorm:"serializer:json;type:text"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a deep copy of the account.
func (a Account) Clone() Account {
	if a.Address != nil {
		addr := *a.Address
		a.Address = &addr
	}
	return a
}
