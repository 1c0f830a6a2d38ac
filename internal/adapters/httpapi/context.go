package httpapi

import (
	"context"

	"github.com/luxeladies/community-api/internal/domain"
)

type memberKey struct{}

func WithMemberID(ctx context.Context, id domain.MemberID) context.Context {
	return context.WithValue(ctx, memberKey{}, id)
}

func MemberIDFromContext(ctx context.Context) (domain.MemberID, bool) {
	v, ok := ctx.Value(memberKey{}).(domain.MemberID)
	return v, ok && v != ""
}
