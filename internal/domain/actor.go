package domain

// Role роль участника, инициирующего действие
type Role string

const (
	RoleClient   Role = "client"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
	RoleSystem   Role = "system"
)

// IsValid returns true for a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleClient, RoleProvider, RoleAdmin, RoleSystem:
		return true
	}
	return false
}

// Actor участник действия. Для провайдера UserID совпадает с ProviderID.
type Actor struct {
	UserID int64
	Role   Role
}

// SystemActor актор фоновых задач
var SystemActor = Actor{Role: RoleSystem}

// IsPrivileged returns true for admin and system actors
func (a Actor) IsPrivileged() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

// IsParty returns true if the actor is the booking's client or provider
func (a Actor) IsParty(b *Booking) bool {
	switch a.Role {
	case RoleClient:
		return b.ClientID == a.UserID
	case RoleProvider:
		return b.ProviderID == a.UserID
	}
	return false
}

// CanView returns true if the actor may read the booking
func (a Actor) CanView(b *Booking) bool {
	return a.IsPrivileged() || a.IsParty(b)
}
