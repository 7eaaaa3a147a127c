package service

import (
	"context"

	"github.com/linkupapp/linkup/types"
)

func (svc *Service) User(ctx context.Context, in types.RetrieveUser) (types.User, error) {
	var out types.User

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Cockroach.User(ctx, in.UserID)
}
