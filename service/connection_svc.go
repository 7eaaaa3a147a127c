package service

import (
	"context"

	"github.com/linkupapp/linkup/auth"
	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/events"
	"github.com/linkupapp/linkup/types"
)

func (svc *Service) Connection(ctx context.Context, in types.RetrieveConnection) (types.Connection, error) {
	var out types.Connection

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	out, err := svc.Cockroach.Connection(ctx, in.ConnectionID)
	if err != nil {
		return out, err
	}

	if !out.Party(loggedInUser.ID) {
		return types.Connection{}, errs.NotConnectionParty
	}

	return out, nil
}

func (svc *Service) RespondToConnection(ctx context.Context, in types.RespondToConnection) (types.Connection, error) {
	var out types.Connection

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	out, err := svc.Cockroach.RespondToConnection(ctx, in)
	if err != nil {
		return out, err
	}

	conn := out
	svc.background(func(ctx context.Context) error {
		return svc.Events.Publish(events.SubjectConnectionResponded, conn)
	})

	return out, nil
}

func (svc *Service) Connections(ctx context.Context, in types.ListConnections) (types.Page[types.Connection], error) {
	var out types.Page[types.Connection]

	if err := in.Validate(); err != nil {
		return out, err
	}

	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Cockroach.Connections(ctx, in)
}

func (svc *Service) PendingConnections(ctx context.Context, in types.ListPendingConnections) (types.Page[types.Connection], error) {
	var out types.Page[types.Connection]

	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Cockroach.PendingConnections(ctx, in)
}

func (svc *Service) SendMessage(ctx context.Context, in types.SendMessage) (types.Message, error) {
	var out types.Message

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	out, err := svc.Cockroach.CreateMessage(ctx, in)
	if err != nil {
		return out, err
	}

	messagesSent.Inc()

	msg := out
	svc.background(func(ctx context.Context) error {
		return svc.Events.Publish(events.SubjectConnectionMessage, msg)
	})

	return out, nil
}

func (svc *Service) Messages(ctx context.Context, in types.ListMessages) (types.Page[types.Message], error) {
	var out types.Page[types.Message]

	if err := in.Validate(); err != nil {
		return out, err
	}

	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Cockroach.Messages(ctx, in)
}
