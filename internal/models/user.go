package models

// Role values stored in usuarios.rol.
const (
	RoleSupport = "soporte"
	RoleAdmin   = "admin"
)

// UserAccount is a row of the usuarios table. The password column holds
// cleartext, inherited from the legacy database; nothing in this core reads
// it for authentication and it must not be treated as a secure credential
// store.
type UserAccount struct {
	ID          int64  `json:"id" db:"id"`
	Username    string `json:"username" db:"username"`
	Password    string `json:"-" db:"password"`
	DisplayName string `json:"nombre" db:"nombre"`
	Role        string `json:"rol" db:"rol"`
	Email       string `json:"email" db:"email"`
}
