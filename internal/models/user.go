package models

import (
	"time"
)

type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Password  string     `json:"-"` // El "-" evita que se serialice en JSON
	Name      string     `json:"name"`
	IsGuest   bool       `json:"is_guest"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"` // Solo para cuentas de invitado
	CreatedAt time.Time  `json:"created_at"`
}
