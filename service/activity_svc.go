package service

import (
	"context"

	"github.com/linkupapp/linkup/auth"
	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/events"
	"github.com/linkupapp/linkup/types"
)

func (svc *Service) CreateActivity(ctx context.Context, in types.CreateActivity) (types.Activity, error) {
	var out types.Activity

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	// Unknown identities are created lazily so first-time callers
	// do not trip the owner foreign key.
	ensure := types.EnsureUser{UserID: loggedInUser.ID}
	if err := ensure.Validate(); err != nil {
		return out, err
	}

	if _, err := svc.Cockroach.EnsureUser(ctx, ensure); err != nil {
		return out, err
	}

	out, err := svc.Cockroach.CreateActivity(ctx, in)
	if err != nil {
		return out, err
	}

	activitiesCreated.Inc()

	activity := out
	svc.background(func(ctx context.Context) error {
		return svc.Events.Publish(events.SubjectActivityCreated, activity)
	})

	return out, nil
}

func (svc *Service) Activity(ctx context.Context, in types.RetrieveActivity) (types.Activity, error) {
	var out types.Activity

	if err := in.Validate(); err != nil {
		return out, err
	}

	return svc.Cockroach.Activity(ctx, in.ActivityID)
}

func (svc *Service) Activities(ctx context.Context, in types.ListActivities) (types.Page[types.Activity], error) {
	var out types.Page[types.Activity]

	if err := in.Validate(); err != nil {
		return out, err
	}

	if err := in.PageArgs.Validate(); err != nil {
		return out, err
	}

	return svc.Cockroach.Activities(ctx, in)
}

func (svc *Service) UpdateActivity(ctx context.Context, in types.UpdateActivity) (types.Activity, error) {
	var out types.Activity

	if err := in.Validate(); err != nil {
		return out, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return out, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	return svc.Cockroach.UpdateActivity(ctx, in)
}

func (svc *Service) CancelActivity(ctx context.Context, in types.CancelActivity) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	cancelled, err := svc.Cockroach.CancelActivity(ctx, in)
	if err != nil {
		return err
	}

	if !cancelled {
		return errs.NotActivityOwner
	}

	return nil
}

// JoinActivity adds the caller to the activity and surfaces the
// pending connection created (or reused) with the owner. Both happen
// in one store transaction: a join never half-succeeds.
func (svc *Service) JoinActivity(ctx context.Context, in types.JoinActivity) (types.Activity, types.Connection, error) {
	var outActivity types.Activity
	var outConnection types.Connection

	if err := in.Validate(); err != nil {
		return outActivity, outConnection, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return outActivity, outConnection, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	ensure := types.EnsureUser{UserID: loggedInUser.ID}
	if err := ensure.Validate(); err != nil {
		return outActivity, outConnection, err
	}

	if _, err := svc.Cockroach.EnsureUser(ctx, ensure); err != nil {
		return outActivity, outConnection, err
	}

	outActivity, outConnection, err := svc.Cockroach.JoinActivity(ctx, in)
	if err != nil {
		return outActivity, outConnection, err
	}

	activitiesJoined.Inc()

	activity, conn := outActivity, outConnection
	svc.background(func(ctx context.Context) error {
		if err := svc.Events.Publish(events.SubjectActivityJoined, activity); err != nil {
			return err
		}
		return svc.Events.Publish(events.SubjectConnectionRequested, conn)
	})

	return outActivity, outConnection, nil
}

func (svc *Service) LeaveActivity(ctx context.Context, in types.LeaveActivity) error {
	if err := in.Validate(); err != nil {
		return err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	left, err := svc.Cockroach.LeaveActivity(ctx, in)
	if err != nil {
		return err
	}

	if !left {
		return errs.NotParticipant
	}

	return nil
}

func (svc *Service) Participants(ctx context.Context, in types.RetrieveActivity) ([]types.Participant, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	out, err := svc.Cockroach.Participants(ctx, in.ActivityID)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []types.Participant{}
	}

	return out, nil
}

func (svc *Service) ActivityStats(ctx context.Context) (types.ActivityStats, error) {
	return svc.Cockroach.ActivityStats(ctx)
}

// SweepExpired bulk-completes overdue activities. Callers may invoke
// it concurrently; the store's conditional update keeps the count
// exact.
func (svc *Service) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := svc.Cockroach.SweepExpired(ctx)
	if err != nil {
		return 0, err
	}

	activitiesSwept.Add(float64(swept))

	return swept, nil
}
