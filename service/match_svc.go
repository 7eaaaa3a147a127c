package service

import (
	"cmp"
	"context"
	"slices"

	"github.com/linkupapp/linkup/auth"
	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/types"
)

// NearbyActivities is the wide-net discovery query. The spatial index
// returns candidates in approximate distance order; the exact
// ordering is recomputed here with the haversine formula, ties broken
// by creation time.
func (svc *Service) NearbyActivities(ctx context.Context, in types.NearbyActivities) ([]types.NearbyActivity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	activities, err := svc.Cockroach.NearbyActivities(ctx, in)
	if err != nil {
		return nil, err
	}

	return nearbyByDistance(in.Lat, in.Lon, activities), nil
}

// nearbyByDistance annotates and orders results by great-circle
// distance from the center, ties broken by creation time. The sort
// uses the raw distance; only the annotation is rounded, so two
// activities meters apart still order correctly.
func nearbyByDistance(lat, lon float64, activities []types.Activity) []types.NearbyActivity {
	out := make([]types.NearbyActivity, len(activities))
	for i, a := range activities {
		out[i] = types.NearbyActivity{
			Activity:   a,
			DistanceKm: haversine(lat, lon, a.Lat, a.Lon),
		}
	}

	slices.SortStableFunc(out, func(a, b types.NearbyActivity) int {
		if c := cmp.Compare(a.DistanceKm, b.DistanceKm); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	for i := range out {
		out[i].DistanceKm = roundKm(out[i].DistanceKm)
	}

	return out
}

// MatchActivities is the narrow "who else is doing X near me right
// now" query. It always excludes the caller's own activities and only
// surfaces ones with room available.
func (svc *Service) MatchActivities(ctx context.Context, in types.MatchActivities) ([]types.Activity, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	loggedInUser, loggedIn := auth.UserFromContext(ctx)
	if !loggedIn {
		return nil, errs.Unauthenticated
	}

	in.SetLoggedInUserID(loggedInUser.ID)

	out, err := svc.Cockroach.MatchActivities(ctx, in)
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []types.Activity{}
	}

	return out, nil
}
