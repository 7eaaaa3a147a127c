package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/ptr"
	"github.com/linkupapp/linkup/types"
)

// Ordering must follow the raw great-circle distance, not the rounded
// annotation: two activities meters apart both report 0.00 km yet the
// closer one still sorts first.
func Test_nearbyByDistance(t *testing.T) {
	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

	// ~4.4 m out but created first, vs ~2.2 m out created later.
	farOlder := types.Activity{ID: "far", Lat: 0.00004, Lon: 0, CreatedAt: base}
	nearNewer := types.Activity{ID: "near", Lat: 0.00002, Lon: 0, CreatedAt: base.Add(time.Minute)}

	got := nearbyByDistance(0, 0, []types.Activity{farOlder, nearNewer})

	if got[0].ID != "near" || got[1].ID != "far" {
		t.Errorf("order = [%s %s], want [near far]", got[0].ID, got[1].ID)
	}
	for _, a := range got {
		if a.DistanceKm != 0 {
			t.Errorf("DistanceKm for %s = %v, want rounded to 0", a.ID, a.DistanceKm)
		}
	}

	// Identical coordinates fall back to creation order.
	twinA := types.Activity{ID: "twin_a", Lat: 0.001, Lon: 0.001, CreatedAt: base}
	twinB := types.Activity{ID: "twin_b", Lat: 0.001, Lon: 0.001, CreatedAt: base.Add(time.Second)}

	got = nearbyByDistance(0, 0, []types.Activity{twinB, twinA})
	if got[0].ID != "twin_a" || got[1].ID != "twin_b" {
		t.Errorf("tie order = [%s %s], want [twin_a twin_b]", got[0].ID, got[1].ID)
	}
}

func TestService_NearbyActivities(t *testing.T) {
	svc := newTestService(t)

	// A remote patch of ocean keeps activities from other tests out
	// of range.
	const baseLat, baseLon = -47.15, -126.72

	near, err := svc.CreateActivity(asUser(uniq("alice")), types.CreateActivity{
		Category: types.CategoryCafe,
		Lat:      baseLat,
		Lon:      baseLon,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Roughly 2.2 km north.
	farther, err := svc.CreateActivity(asUser(uniq("bob")), types.CreateActivity{
		Category: types.CategoryGym,
		Lat:      baseLat + 0.02,
		Lon:      baseLon,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Roughly 11 km north, outside the default 5 km radius.
	outside, err := svc.CreateActivity(asUser(uniq("carol")), types.CreateActivity{
		Category: types.CategoryCafe,
		Lat:      baseLat + 0.1,
		Lon:      baseLon,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Private activities never surface in discovery.
	private, err := svc.CreateActivity(asUser(uniq("dave")), types.CreateActivity{
		Category: types.CategoryCafe,
		Lat:      baseLat,
		Lon:      baseLon,
		IsPublic: ptr.From(false),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	out, err := svc.NearbyActivities(context.Background(), types.NearbyActivities{
		Lat: baseLat,
		Lon: baseLon,
	})
	if err != nil {
		t.Fatalf("NearbyActivities() error = %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2: %+v", len(out), out)
	}
	if out[0].ID != near.ID || out[1].ID != farther.ID {
		t.Errorf("order = %q, %q, want nearest first (%q, %q)", out[0].ID, out[1].ID, near.ID, farther.ID)
	}
	for _, a := range out {
		if a.ID == outside.ID {
			t.Errorf("activity %q outside the radius surfaced", outside.ID)
		}
		if a.ID == private.ID {
			t.Errorf("private activity %q surfaced", private.ID)
		}
	}

	if out[0].DistanceKm != 0 {
		t.Errorf("DistanceKm = %v at the search center, want 0", out[0].DistanceKm)
	}
	if out[1].DistanceKm < 2 || out[1].DistanceKm > 2.5 {
		t.Errorf("DistanceKm = %v, want about 2.2", out[1].DistanceKm)
	}
}

func TestService_NearbyActivities_filters(t *testing.T) {
	svc := newTestService(t)
	const baseLat, baseLon = -44.3, -131.5
	alice := uniq("alice")

	cafe, err := svc.CreateActivity(asUser(alice), types.CreateActivity{
		Category: types.CategoryCafe,
		Lat:      baseLat,
		Lon:      baseLon,
		Mood:     ptr.From(types.MoodChill),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	gym, err := svc.CreateActivity(asUser(uniq("bob")), types.CreateActivity{
		Category: types.CategoryGym,
		Lat:      baseLat,
		Lon:      baseLon,
		Mood:     ptr.From(types.MoodSocial),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	out, err := svc.NearbyActivities(context.Background(), types.NearbyActivities{
		Lat:      baseLat,
		Lon:      baseLon,
		Category: ptr.From(types.CategoryCafe),
	})
	if err != nil {
		t.Fatalf("NearbyActivities() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != cafe.ID {
		t.Errorf("category filter = %+v, want only %q", out, cafe.ID)
	}

	out, err = svc.NearbyActivities(context.Background(), types.NearbyActivities{
		Lat:  baseLat,
		Lon:  baseLon,
		Mood: ptr.From(types.MoodSocial),
	})
	if err != nil {
		t.Fatalf("NearbyActivities() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != gym.ID {
		t.Errorf("mood filter = %+v, want only %q", out, gym.ID)
	}

	out, err = svc.NearbyActivities(context.Background(), types.NearbyActivities{
		Lat:           baseLat,
		Lon:           baseLon,
		ExcludeUserID: &alice,
	})
	if err != nil {
		t.Fatalf("NearbyActivities() error = %v", err)
	}
	for _, a := range out {
		if a.UserID == alice {
			t.Errorf("excluded user %q still surfaced", alice)
		}
	}
}

func TestService_MatchActivities(t *testing.T) {
	svc := newTestService(t)
	const baseLat, baseLon = -41.8, -135.2
	caller := uniq("alice")

	candidate, err := svc.CreateActivity(asUser(uniq("bob")), types.CreateActivity{
		Category: types.CategoryCoworking,
		Lat:      baseLat,
		Lon:      baseLon,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// The caller's own activity never matches.
	if _, err := svc.CreateActivity(asUser(caller), types.CreateActivity{
		Category: types.CategoryCoworking,
		Lat:      baseLat,
		Lon:      baseLon,
	}); err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Wrong category.
	if _, err := svc.CreateActivity(asUser(uniq("carol")), types.CreateActivity{
		Category: types.CategoryGym,
		Lat:      baseLat,
		Lon:      baseLon,
	}); err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Scheduled well past the window.
	if _, err := svc.CreateActivity(asUser(uniq("dave")), types.CreateActivity{
		Category:      types.CategoryCoworking,
		Lat:           baseLat,
		Lon:           baseLon,
		ScheduledTime: ptr.From(time.Now().Add(12 * time.Hour)),
	}); err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Full activities have no room to match into.
	full, err := svc.CreateActivity(asUser(uniq("erin")), types.CreateActivity{
		Category:        types.CategoryCoworking,
		Lat:             baseLat,
		Lon:             baseLon,
		MaxParticipants: ptr.From(int32(2)),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}
	if _, _, err := svc.JoinActivity(asUser(uniq("frank")), types.JoinActivity{ActivityID: full.ID}); err != nil {
		t.Fatalf("JoinActivity() error = %v", err)
	}

	out, err := svc.MatchActivities(asUser(caller), types.MatchActivities{
		Lat:      baseLat,
		Lon:      baseLon,
		Category: types.CategoryCoworking,
	})
	if err != nil {
		t.Fatalf("MatchActivities() error = %v", err)
	}

	if len(out) != 1 || out[0].ID != candidate.ID {
		t.Errorf("MatchActivities() = %+v, want only %q", out, candidate.ID)
	}
}

func TestService_MatchActivities_unauthenticated(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.MatchActivities(context.Background(), types.MatchActivities{
		Lat:      0,
		Lon:      0,
		Category: types.CategoryCafe,
	})
	if !errors.Is(err, errs.Unauthenticated) {
		t.Errorf("MatchActivities() error = %v, want unauthenticated", err)
	}
}
