package repository

import (
	"context"
	"time"
)

// UserStatus estado de un usuario.
type UserStatus string

const (
	UserActive  UserStatus = "active"
	UserBlocked UserStatus = "blocked"
	UserPending UserStatus = "pending"
)

// User es un principal dentro de un pool. Username/Email/Phone son
// opcionales pero cada uno es único dentro del pool cuando no es nil;
// se espera al menos un identificador para poder hacer login.
type User struct {
	ID            string
	UserPoolID    string
	Username      *string
	Email         *string
	Phone         *string
	Nickname      string
	AvatarURL     string
	Profile       map[string]any
	EmailVerified bool
	PhoneVerified bool
	Status        UserStatus
	LastLoginAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CredentialType tipo cerrado de factor de autenticación.
type CredentialType string

const (
	CredentialPassword CredentialType = "password"
	CredentialSocial   CredentialType = "social"
	CredentialMFA      CredentialType = "mfa"
)

// Valid reporta si el tipo es uno de los conocidos.
func (t CredentialType) Valid() bool {
	switch t {
	case CredentialPassword, CredentialSocial, CredentialMFA:
		return true
	}
	return false
}

// Credential es un factor de autenticación ligado a un usuario.
// (user_id, type, identifier) es único. El diseño asume a lo sumo una
// credencial password activa por usuario.
type Credential struct {
	ID         string
	UserID     string
	Type       CredentialType
	Identifier string // Lo que se asierta al autenticar (username/email/...)
	Secret     string // Hash o token opaco, nunca el valor en claro
	Salt       string
	Provider   string // Proveedor third-party para social
	ExpiresAt  *time.Time
	CreatedAt  time.Time
}

// UpdateUserInput campos actualizables de un usuario. Nil = sin cambio.
type UpdateUserInput struct {
	Username  *string
	Email     *string
	Phone     *string
	Nickname  *string
	AvatarURL *string
	Profile   map[string]any
	Status    *UserStatus
}

// ListUsersFilter opciones para listar usuarios de un pool.
type ListUsersFilter struct {
	Status  UserStatus // Vacío = todos
	Keyword string     // Busca en username/email/phone/nickname
	Page    int        // 1-based
	PerPage int
}

// UserRepository define operaciones sobre usuarios y sus credenciales.
type UserRepository interface {
	// CreateUser crea un usuario y, si creds no está vacío, sus
	// credenciales, en un solo scope transaccional: o ambos commitean
	// o ninguno. Retorna ErrConflict si algún identificador ya existe
	// dentro del pool.
	CreateUser(ctx context.Context, user *User, creds []Credential) error

	// GetUser busca un usuario por ID. Retorna ErrNotFound si no existe.
	GetUser(ctx context.Context, id string) (*User, error)

	// FindByIdentifier busca dentro del pool por username, email o phone.
	// Retorna ErrNotFound si ninguno coincide.
	FindByIdentifier(ctx context.Context, poolID, identifier string) (*User, error)

	// UpdateUser aplica los campos no-nil. Retorna ErrConflict si un
	// identificador nuevo colisiona dentro del pool.
	UpdateUser(ctx context.Context, id string, input UpdateUserInput) (*User, error)

	// ListUsers lista usuarios de un pool. Retorna items y total.
	ListUsers(ctx context.Context, poolID string, filter ListUsersFilter) ([]User, int, error)

	// SetLastLogin estampa last_login_at.
	SetLastLogin(ctx context.Context, userID string, at time.Time) error

	// GetCredential busca la credencial (user, type). Retorna ErrNotFound
	// si el usuario no tiene ese factor.
	GetCredential(ctx context.Context, userID string, typ CredentialType) (*Credential, error)

	// UpsertCredential crea o reemplaza la credencial (user, type, identifier).
	UpsertCredential(ctx context.Context, cred *Credential) error
}
