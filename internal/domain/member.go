package domain

import "context"

// Storage limits of the members table. Client input is truncated to these
// before any other processing.
const (
	MaxNameLength        = 100
	MaxSecondaryIDLength = 20
)

// Member represents a registered member of the organization.
// swagger:model Member
type Member struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	UOID          string `json:"uo_id,omitempty"`
	Email         string `json:"email"`
	RoleName      string `json:"role_name"`
	WorkplaceName string `json:"workplace_name"`
}

// MemberIdentity is the minimal member view returned to anonymous callers.
type MemberIdentity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Identity returns the minimal public view of m.
func (m *Member) Identity() MemberIdentity {
	return MemberIdentity{ID: m.ID, Name: m.Name}
}

// MemberRepository defines read access to member records.
type MemberRepository interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	GetByEmail(ctx context.Context, email string) (*Member, error)
	// ListByNormalizedName returns at most limit members whose name, with
	// whitespace collapsed and compared case-insensitively, equals name.
	ListByNormalizedName(ctx context.Context, name string, limit int) ([]*Member, error)
}
