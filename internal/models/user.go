package models

import "time"

// User is an end customer of the marketplace
type User struct {
	ID           string         `json:"id" gorm:"primaryKey" bson:"_id"`
	Name         string         `json:"name" bson:"name"`
	Email        string         `json:"email" gorm:"uniqueIndex:idx_users_email,where:email <> ''" bson:"email"`
	Mobile       string         `json:"mobile" gorm:"uniqueIndex;not null" bson:"mobile"`
	Address      string         `json:"address,omitempty" bson:"address,omitempty"`
	ProfileImage string         `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	Login        LoginChallenge `json:"-" gorm:"embedded;embeddedPrefix:login_" bson:"login"`
	CreatedAt    time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) GetID() string               { return u.ID }
func (u *User) ActorKind() ActorKind        { return KindUser }
func (u *User) LoginState() *LoginChallenge { return &u.Login }

func (u *User) ContactInfo() Contacts {
	return Contacts{Mobile: u.Mobile, Email: u.Email}
}

func (u *User) Identify(id string, at time.Time) {
	u.ID = id
	u.CreatedAt = at
	u.UpdatedAt = at
}

func (u *User) Touch(at time.Time) { u.UpdatedAt = at }

// UserUpdate is a partial profile update; nil means unchanged
type UserUpdate struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Mobile  *string `json:"mobile"`
	Address *string `json:"address"`
}
