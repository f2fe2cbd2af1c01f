package models

import "time"

// Account is a directory record. Secret holds the password digest and is
// never serialized.
type Account struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Firstname string    `json:"firstname" gorm:"type:varchar(10);not null"`
	Lastname  string    `json:"lastname" gorm:"type:varchar(10);not null"`
	Birthday  Date      `json:"birthday" gorm:"type:date"`
	Mail      string    `json:"mail,omitempty" gorm:"type:varchar(255)"`
	Phone     string    `json:"phone,omitempty" gorm:"type:varchar(20)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(10);not null"`
	Secret    string    `json:"-" gorm:"column:password_hash;type:varchar(255);not null"`
	Roles     RoleSet   `json:"roles" gorm:"type:varchar(64)"`
	PetID     *string   `json:"petId,omitempty" gorm:"type:varchar(36);index"`
	Pet       *Pet      `json:"pet,omitempty" gorm:"foreignKey:PetID;constraint:OnDelete:SET NULL"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Clone returns a deep copy so cached records cannot be mutated through
// returned values.
func (a Account) Clone() Account {
	c := a
	c.Roles = a.Roles.Clone()
	if a.PetID != nil {
		id := *a.PetID
		c.PetID = &id
	}
	if a.Pet != nil {
		p := a.Pet.Clone()
		c.Pet = &p
	}
	return c
}

// HasPet reports whether the account references a pet.
func (a Account) HasPet() bool {
	return a.PetID != nil && *a.PetID != ""
}

// AccountRequest is the inbound shape of an account. Password is write-only:
// it is accepted here and never appears on Account's JSON.
type AccountRequest struct {
	ID        string  `json:"id"`
	Firstname string  `json:"firstname" validate:"required,min=3,max=10"`
	Lastname  string  `json:"lastname" validate:"required,min=3,max=10"`
	Birthday  Date    `json:"birthday" validate:"required,past"`
	Mail      string  `json:"mail" validate:"omitempty,email"`
	Phone     string  `json:"phone" validate:"omitempty,phone"`
	Username  string  `json:"username" validate:"required,min=4,max=10"`
	Password  string  `json:"password" validate:"required,min=4,max=10"`
	Roles     RoleSet `json:"roles" validate:"roles"`
	PetID     *string `json:"petId"`
}

// ToAccount copies the request into an Account. Secret carries the plaintext
// password until the service replaces it with a digest.
func (r AccountRequest) ToAccount() Account {
	acc := Account{
		ID:        r.ID,
		Firstname: r.Firstname,
		Lastname:  r.Lastname,
		Birthday:  r.Birthday,
		Mail:      r.Mail,
		Phone:     r.Phone,
		Username:  r.Username,
		Secret:    r.Password,
		Roles:     r.Roles.Clone(),
	}
	if acc.Roles == nil {
		acc.Roles = RoleSet{}
	}
	if r.PetID != nil && *r.PetID != "" {
		id := *r.PetID
		acc.PetID = &id
	}
	return acc
}
