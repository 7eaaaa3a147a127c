package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linkupapp/linkup/errs"
	"github.com/linkupapp/linkup/id"
	"github.com/linkupapp/linkup/ptr"
	"github.com/linkupapp/linkup/types"
	"github.com/linkupapp/linkup/validator"
)

// uniq namespaces user IDs so tests sharing the database do not
// interfere with each other.
func uniq(name string) string {
	return name + "_" + id.Generate()
}

func TestService_CreateActivity(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	before := time.Now()
	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category:  types.CategoryCafe,
		Lat:       40.4168,
		Lon:       -3.7038,
		PlaceName: ptr.From("Café Central"),
		Mood:      ptr.From(types.MoodChill),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if activity.UserID != owner {
		t.Errorf("UserID = %q, want %q", activity.UserID, owner)
	}
	if activity.Status != types.ActivityStatusActive {
		t.Errorf("Status = %q, want active", activity.Status)
	}
	if activity.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want 1 (the creator)", activity.ParticipantCount)
	}
	if activity.MaxParticipants != types.DefaultMaxParticipants {
		t.Errorf("MaxParticipants = %d, want default %d", activity.MaxParticipants, types.DefaultMaxParticipants)
	}
	if !activity.IsPublic {
		t.Error("IsPublic = false, want public by default")
	}
	if got := activity.ExpiresAt.Sub(activity.ScheduledTime); got != types.ActivityDuration {
		t.Errorf("ExpiresAt - ScheduledTime = %v, want %v", got, types.ActivityDuration)
	}
	if activity.ScheduledTime.Before(before.Add(-time.Minute)) {
		t.Errorf("ScheduledTime = %v, want defaulted to now", activity.ScheduledTime)
	}

	participants, err := svc.Participants(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Participants() error = %v", err)
	}
	if len(participants) != 1 || participants[0].UserID != owner || !participants[0].IsOwner {
		t.Errorf("Participants() = %+v, want just the owner", participants)
	}
}

func TestService_CreateActivity_unauthenticated(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateActivity(context.Background(), types.CreateActivity{
		Category: types.CategoryCafe,
	})
	if !errors.Is(err, errs.Unauthenticated) {
		t.Errorf("CreateActivity() error = %v, want unauthenticated", err)
	}
}

// Identity validation happens before the store upsert, so no database
// is needed to exercise it.
func TestService_CreateActivity_userIDTooLong(t *testing.T) {
	svc := New(&Config{
		BaseCtx:           context.Background(),
		BackgroundTimeout: time.Second,
	})
	t.Cleanup(func() { svc.Close() })

	_, err := svc.CreateActivity(asUser(strings.Repeat("x", 129)), types.CreateActivity{
		Category: types.CategoryCafe,
		Lat:      40.4168,
		Lon:      -3.7038,
	})

	var v *validator.Validator
	if !errors.As(err, &v) {
		t.Fatalf("CreateActivity() error = %v, want validation error", err)
	}
	if got := v.First("UserID"); got == "" {
		t.Error("expected a UserID validation message")
	}
}

func TestService_JoinActivity(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")
	joiner := uniq("bob")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryGym,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	joined, conn, err := svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("JoinActivity() error = %v", err)
	}

	if joined.ParticipantCount != 2 {
		t.Errorf("ParticipantCount = %d, want 2", joined.ParticipantCount)
	}
	if conn.RequesterID != joiner || conn.RecipientID != owner {
		t.Errorf("connection parties = %q -> %q, want %q -> %q", conn.RequesterID, conn.RecipientID, joiner, owner)
	}
	if conn.ActivityID != activity.ID {
		t.Errorf("connection ActivityID = %q, want %q", conn.ActivityID, activity.ID)
	}
	if conn.Status != types.ConnectionStatusPending {
		t.Errorf("connection Status = %q, want pending", conn.Status)
	}
	if conn.ChatEnabled {
		t.Error("ChatEnabled = true, want false until accepted")
	}

	// A second join from the same user is rejected without touching
	// the count.
	_, _, err = svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.AlreadyJoined) {
		t.Errorf("rejoin error = %v, want already joined", err)
	}

	// The creator is a participant from the start.
	_, _, err = svc.JoinActivity(asUser(owner), types.JoinActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.AlreadyJoined) {
		t.Errorf("owner self-join error = %v, want already joined", err)
	}
}

func TestService_JoinActivity_full(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category:        types.CategoryMovie,
		Lat:             40.4168,
		Lon:             -3.7038,
		MaxParticipants: ptr.From(int32(2)),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if _, _, err := svc.JoinActivity(asUser(uniq("bob")), types.JoinActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("JoinActivity() error = %v", err)
	}

	_, _, err = svc.JoinActivity(asUser(uniq("carol")), types.JoinActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.ActivityFull) {
		t.Errorf("JoinActivity() error = %v, want activity full", err)
	}
}

func TestService_JoinActivity_concurrent(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	// One free slot, five racing joiners. Exactly one wins.
	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category:        types.CategoryEvent,
		Lat:             40.4168,
		Lon:             -3.7038,
		MaxParticipants: ptr.From(int32(2)),
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	const racers = 5
	errsCh := make(chan error, racers)

	var wg sync.WaitGroup
	for i := range racers {
		joiner := uniq(fmt.Sprintf("racer%d", i))
		wg.Go(func() {
			_, _, err := svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID})
			errsCh <- err
		})
	}
	wg.Wait()
	close(errsCh)

	var wins, fulls int
	for err := range errsCh {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, errs.ActivityFull):
			fulls++
		default:
			t.Errorf("JoinActivity() unexpected error = %v", err)
		}
	}

	if wins != 1 {
		t.Errorf("successful joins = %d, want exactly 1", wins)
	}
	if fulls != racers-1 {
		t.Errorf("activity-full rejections = %d, want %d", fulls, racers-1)
	}

	got, err := svc.Activity(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if got.ParticipantCount != got.MaxParticipants {
		t.Errorf("ParticipantCount = %d, want %d", got.ParticipantCount, got.MaxParticipants)
	}
}

func TestService_JoinActivity_cancelled(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryGarden,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if err := svc.CancelActivity(asUser(owner), types.CancelActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("CancelActivity() error = %v", err)
	}

	_, _, err = svc.JoinActivity(asUser(uniq("bob")), types.JoinActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.ActivityNotActive) {
		t.Errorf("JoinActivity() error = %v, want activity not active", err)
	}
}

func TestService_LeaveActivity(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")
	joiner := uniq("bob")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryLibrary,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if _, _, err := svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("JoinActivity() error = %v", err)
	}

	if err := svc.LeaveActivity(asUser(joiner), types.LeaveActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("LeaveActivity() error = %v", err)
	}

	got, err := svc.Activity(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if got.ParticipantCount != 1 {
		t.Errorf("ParticipantCount = %d, want 1 after leave", got.ParticipantCount)
	}

	err = svc.LeaveActivity(asUser(joiner), types.LeaveActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.NotParticipant) {
		t.Errorf("second leave error = %v, want not participant", err)
	}

	err = svc.LeaveActivity(asUser(owner), types.LeaveActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.CreatorCannotLeave) {
		t.Errorf("owner leave error = %v, want creator cannot leave", err)
	}
}

// Leaving and rejoining reuses the existing connection rather than
// creating a second one for the same pair and activity.
func TestService_JoinActivity_rejoinReusesConnection(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")
	joiner := uniq("bob")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryCoworking,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	_, firstConn, err := svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("JoinActivity() error = %v", err)
	}

	if err := svc.LeaveActivity(asUser(joiner), types.LeaveActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("LeaveActivity() error = %v", err)
	}

	_, secondConn, err := svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("rejoin error = %v", err)
	}

	if firstConn.ID != secondConn.ID {
		t.Errorf("connection IDs differ across rejoin: %q vs %q", firstConn.ID, secondConn.ID)
	}
}

func TestService_UpdateActivity(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryRestaurant,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	newTime := time.Now().Add(time.Hour).Truncate(time.Second).UTC()
	updated, err := svc.UpdateActivity(asUser(owner), types.UpdateActivity{
		ActivityID:    activity.ID,
		PlaceName:     ptr.From("La Tasquita"),
		ScheduledTime: &newTime,
	})
	if err != nil {
		t.Fatalf("UpdateActivity() error = %v", err)
	}

	if updated.PlaceName == nil || *updated.PlaceName != "La Tasquita" {
		t.Errorf("PlaceName = %v, want La Tasquita", updated.PlaceName)
	}
	if !updated.ScheduledTime.Equal(newTime) {
		t.Errorf("ScheduledTime = %v, want %v", updated.ScheduledTime, newTime)
	}
	// Rescheduling moves the expiry with it.
	if got := updated.ExpiresAt.Sub(updated.ScheduledTime); got != types.ActivityDuration {
		t.Errorf("ExpiresAt - ScheduledTime = %v, want %v", got, types.ActivityDuration)
	}

	// Non-owners cannot tell whether the activity exists.
	_, err = svc.UpdateActivity(asUser(uniq("mallory")), types.UpdateActivity{
		ActivityID: activity.ID,
		PlaceName:  ptr.From("hijacked"),
	})
	if !errors.Is(err, errs.NotActivityOwner) {
		t.Errorf("UpdateActivity() by stranger error = %v, want not activity owner", err)
	}
}

// Terminal activities are frozen: no field edits, and no resurrecting
// them by writing status back to active.
func TestService_UpdateActivity_terminal(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryRestaurant,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	if err := svc.CancelActivity(asUser(owner), types.CancelActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("CancelActivity() error = %v", err)
	}

	_, err = svc.UpdateActivity(asUser(owner), types.UpdateActivity{
		ActivityID: activity.ID,
		PlaceName:  ptr.From("new place"),
	})
	if !errors.Is(err, errs.ActivityNotActive) {
		t.Errorf("field update on cancelled activity error = %v, want activity not active", err)
	}

	_, err = svc.UpdateActivity(asUser(owner), types.UpdateActivity{
		ActivityID: activity.ID,
		Status:     ptr.From(types.ActivityStatusActive),
	})
	if !errors.Is(err, errs.ActivityNotActive) {
		t.Errorf("reactivation attempt error = %v, want activity not active", err)
	}

	got, err := svc.Activity(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if got.Status != types.ActivityStatusCancelled {
		t.Errorf("Status = %q, want still cancelled", got.Status)
	}

	_, _, err = svc.JoinActivity(asUser(uniq("bob")), types.JoinActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.ActivityNotActive) {
		t.Errorf("join after reactivation attempt error = %v, want activity not active", err)
	}
}

func TestService_UpdateActivity_maxBelowCount(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryEvent,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	for _, joiner := range []string{uniq("bob"), uniq("carol")} {
		if _, _, err := svc.JoinActivity(asUser(joiner), types.JoinActivity{ActivityID: activity.ID}); err != nil {
			t.Fatalf("JoinActivity() error = %v", err)
		}
	}

	// Three in, so the cap cannot drop to two.
	_, err = svc.UpdateActivity(asUser(owner), types.UpdateActivity{
		ActivityID:      activity.ID,
		MaxParticipants: ptr.From(int32(2)),
	})
	if !errors.Is(err, errs.MaxParticipantsTooLow) {
		t.Errorf("UpdateActivity() error = %v, want max participants too low", err)
	}

	got, err := svc.Activity(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if got.MaxParticipants != types.DefaultMaxParticipants {
		t.Errorf("MaxParticipants = %d, want unchanged %d", got.MaxParticipants, types.DefaultMaxParticipants)
	}
}

func TestService_CancelActivity_notOwner(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryMall,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	err = svc.CancelActivity(asUser(uniq("mallory")), types.CancelActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.NotActivityOwner) {
		t.Errorf("CancelActivity() by stranger error = %v, want not activity owner", err)
	}

	if err := svc.CancelActivity(asUser(owner), types.CancelActivity{ActivityID: activity.ID}); err != nil {
		t.Fatalf("CancelActivity() error = %v", err)
	}

	got, err := svc.Activity(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if got.Status != types.ActivityStatusCancelled {
		t.Errorf("Status = %q, want cancelled", got.Status)
	}

	// Cancelling twice is an error: the conditional update no longer
	// matches.
	err = svc.CancelActivity(asUser(owner), types.CancelActivity{ActivityID: activity.ID})
	if !errors.Is(err, errs.NotActivityOwner) {
		t.Errorf("second cancel error = %v, want not activity owner", err)
	}
}

func TestService_SweepExpired(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	activity, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
		Category: types.CategoryOther,
		Lat:      40.4168,
		Lon:      -3.7038,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}

	// Force the activity past its expiry.
	_, err = testDB.Exec(context.Background(), `
		UPDATE activities SET expires_at = now() - INTERVAL '1 hour' WHERE id = $1
	`, activity.ID)
	if err != nil {
		t.Fatalf("backdate expiry: %v", err)
	}

	swept, err := svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if swept < 1 {
		t.Errorf("SweepExpired() = %d, want at least 1", swept)
	}

	got, err := svc.Activity(context.Background(), types.RetrieveActivity{ActivityID: activity.ID})
	if err != nil {
		t.Fatalf("Activity() error = %v", err)
	}
	if got.Status != types.ActivityStatusCompleted {
		t.Errorf("Status = %q, want completed", got.Status)
	}

	// The sweep only matches active rows, so running it again finds
	// nothing new.
	swept, err = svc.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("second SweepExpired() error = %v", err)
	}
	if swept != 0 {
		t.Errorf("second SweepExpired() = %d, want 0", swept)
	}
}

func TestService_Activities_pagination(t *testing.T) {
	svc := newTestService(t)
	owner := uniq("alice")

	for range 3 {
		_, err := svc.CreateActivity(asUser(owner), types.CreateActivity{
			Category: types.CategoryCafe,
			Lat:      40.4168,
			Lon:      -3.7038,
		})
		if err != nil {
			t.Fatalf("CreateActivity() error = %v", err)
		}
	}

	first := uint(2)
	page, err := svc.Activities(context.Background(), types.ListActivities{
		UserID:   owner,
		PageArgs: types.PageArgs{First: &first},
	})
	if err != nil {
		t.Fatalf("Activities() error = %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(page.Items))
	}
	if !page.PageInfo.HasNextPage {
		t.Error("HasNextPage = false, want true")
	}

	rest, err := svc.Activities(context.Background(), types.ListActivities{
		UserID:   owner,
		PageArgs: types.PageArgs{First: &first, After: page.PageInfo.EndCursor},
	})
	if err != nil {
		t.Fatalf("Activities() second page error = %v", err)
	}
	if len(rest.Items) != 1 {
		t.Errorf("len(second page) = %d, want 1", len(rest.Items))
	}
	if rest.PageInfo.HasNextPage {
		t.Error("second page HasNextPage = true, want false")
	}

	for _, a := range append(page.Items, rest.Items...) {
		if a.UserID != owner {
			t.Errorf("listed activity owned by %q, want %q", a.UserID, owner)
		}
	}
}
