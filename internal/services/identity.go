package services

import (
	"context"
	"log/slog"

	"flockmanager/internal/domain"
)

// nameMatchLimit bounds how many rows a name lookup may return. Two are enough
// to detect ambiguity.
const nameMatchLimit = 2

// IdentityResolver maps a typed name, and optionally a secondary id, to exactly
// one registered member.
type IdentityResolver struct {
	members domain.MemberRepository
	logger  *slog.Logger
}

func NewIdentityResolver(members domain.MemberRepository, logger *slog.Logger) *IdentityResolver {
	return &IdentityResolver{members: members, logger: logger}
}

// FindForCheckIn returns the single member whose normalized name equals the
// normalized rawName. A differing secondary id is logged but does not fail
// the lookup. Zero or several matches yield domain.ErrMemberNotFound.
func (r *IdentityResolver) FindForCheckIn(ctx context.Context, rawName, rawSecondaryID string) (*domain.Member, error) {
	name := normalizeName(rawName, domain.MaxNameLength)
	if name == "" {
		return nil, domain.NewValidationError("Name is required")
	}
	secondaryID := normalizeName(rawSecondaryID, domain.MaxSecondaryIDLength)

	matches, err := r.members.ListByNormalizedName(ctx, name, nameMatchLimit)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, domain.ErrMemberNotFound
	case 1:
	default:
		r.logger.WarnContext(ctx, "ambiguous member name on check-in", "matches", len(matches))
		return nil, domain.ErrMemberNotFound
	}

	member := matches[0]
	if secondaryID != "" && member.UOID != "" && member.UOID != secondaryID {
		r.logger.WarnContext(ctx, "secondary id mismatch on check-in",
			"member_id", member.ID,
			"provided_uo_id", secondaryID,
		)
	}
	return member, nil
}
