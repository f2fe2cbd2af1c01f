package models

import "time"

// Pet is the companion record an account may reference.
type Pet struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"type:varchar(30);not null"`
	Species   string    `json:"species" gorm:"type:varchar(30)"`
	Sex       string    `json:"sex,omitempty" gorm:"type:varchar(10)"`
	Age       int       `json:"age"`
	Image     []byte    `json:"image,omitempty"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Clone returns a deep copy of the pet.
func (p Pet) Clone() Pet {
	c := p
	if p.Image != nil {
		c.Image = append([]byte(nil), p.Image...)
	}
	return c
}

// PetRequest is the inbound shape of a pet.
type PetRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name" validate:"required,max=30"`
	Species string `json:"species" validate:"required,max=30"`
	Sex     string `json:"sex" validate:"omitempty,max=10"`
	Age     int    `json:"age" validate:"gte=0"`
	Image   []byte `json:"image"`
}

// ToPet copies the request into a Pet.
func (r PetRequest) ToPet() Pet {
	return Pet{
		ID:      r.ID,
		Name:    r.Name,
		Species: r.Species,
		Sex:     r.Sex,
		Age:     r.Age,
		Image:   r.Image,
	}
}
