package domain

import (
	"encoding/json"
	"time"
)

// UserProfile es el email que entrega el proveedor OAuth. Entrada no
// confiable: debe validarse antes de usar el email como clave.
type UserProfile struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// UserRecord es la entidad persistida por email. Progress es un blob
// opaco de la aplicación y se transporta sin inspeccionarlo.
type UserRecord struct {
	ID           string          `json:"id"`
	IdentityHash string          `json:"identity_hash"`
	Profile      UserProfile     `json:"profile"`
	Progress     json.RawMessage `json:"progress"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DefaultUser devuelve el registro centinela para lookups sin match.
func DefaultUser() UserRecord {
	return UserRecord{}
}

// IsZero indica si el registro es el centinela vacío.
func (u UserRecord) IsZero() bool {
	return u.IdentityHash == "" && u.Profile.Email == ""
}

// EmptyProgress devuelve el estado de progreso inicial de un usuario nuevo.
func EmptyProgress() json.RawMessage {
	return json.RawMessage("{}")
}
