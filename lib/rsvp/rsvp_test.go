// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package rsvp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/schedule"
	"github.com/greendale-community/greendale/lib/store"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

const owner schedule.UserID = 1

type fixture struct {
	store   *store.Store
	manager *Manager
	clock   *clock.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	s, err := store.Open(store.Config{
		Path:     filepath.Join(t.TempDir(), "greendale.db"),
		PoolSize: 2,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	fake := clock.Fake(epoch)
	manager, err := NewManager(Config{Store: s, Friends: s, Clock: fake, Logger: logger})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return &fixture{store: s, manager: manager, clock: fake}
}

// event creates a live event owned by owner, who is accepted.
func (f *fixture) event(t *testing.T, maxCapacity *int, privacy schedule.Privacy) schedule.EventID {
	t.Helper()
	event := schedule.Event{
		OwnerID:     owner,
		Name:        "Pottery night",
		Start:       epoch.Add(24 * time.Hour),
		End:         epoch.Add(26 * time.Hour),
		Privacy:     privacy,
		MaxCapacity: maxCapacity,
		Color:       schedule.DefaultColor,
		CreatedAt:   epoch,
	}
	err := f.store.Write(context.Background(), func(tx *store.Tx) error {
		if err := tx.InsertEvent(&event); err != nil {
			return err
		}
		if err := tx.AddAdmin(event.ID, owner); err != nil {
			return err
		}
		return tx.SetRSVPStatus(event.ID, owner, schedule.Accepted, epoch)
	})
	if err != nil {
		t.Fatalf("creating event: %v", err)
	}
	return event.ID
}

func (f *fixture) status(t *testing.T, event schedule.EventID, user schedule.UserID) (schedule.RSVPStatus, bool) {
	t.Helper()
	var (
		rsvp  schedule.RSVP
		found bool
	)
	err := f.store.Read(context.Background(), func(tx *store.Tx) (err error) {
		rsvp, found, err = tx.RSVP(event, user)
		return err
	})
	if err != nil {
		t.Fatalf("RSVP: %v", err)
	}
	return rsvp.Status, found
}

func limit(n int) *int { return &n }

// failInvitesOf installs a trigger that makes inserting an RSVP for
// user fail with the given RAISE action (ABORT or ROLLBACK).
func (f *fixture) failInvitesOf(t *testing.T, user schedule.UserID, action string) {
	t.Helper()
	trigger := fmt.Sprintf(`
		CREATE TRIGGER fail_invite BEFORE INSERT ON rsvps
		WHEN NEW.user_id = %d
		BEGIN SELECT RAISE(%s, 'invite rejected'); END`, user, action)
	err := f.store.Pool().Write(context.Background(), func(conn *sqlite.Conn) error {
		return sqlitex.ExecuteTransient(conn, trigger, nil)
	})
	if err != nil {
		t.Fatalf("creating trigger: %v", err)
	}
}

func TestInviteUpToCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, limit(5), schedule.Public)

	// Owner occupies one seat; one pending invite occupies another.
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2}); err != nil {
		t.Fatalf("first invite: %v", err)
	}

	_, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{3, 4, 5, 6})
	var capErr *schedule.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("over-capacity invite error = %v, want *CapacityError", err)
	}
	if capErr.Attending != 1 || capErr.Pending != 1 || capErr.Requested != 4 {
		t.Fatalf("CapacityError = %+v", capErr)
	}
	for _, user := range []schedule.UserID{3, 4, 5, 6} {
		if _, found := f.status(t, event, user); found {
			t.Fatalf("rejected batch created an RSVP for user %d", user)
		}
	}

	report, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{3, 4, 5})
	if err != nil {
		t.Fatalf("invite filling the event exactly: %v", err)
	}
	if report.Invited != 3 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v, want 3 invited", report)
	}
}

func TestInviteSkipsOwnerAndDuplicates(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, limit(3), schedule.Public)
	report, err := f.manager.CreateInvites(context.Background(), owner, event, []schedule.UserID{owner, 2, 2, 0, 3})
	if err != nil {
		t.Fatalf("CreateInvites: %v", err)
	}
	if report.Invited != 2 {
		t.Fatalf("invited %d, want 2", report.Invited)
	}
	if status, _ := f.status(t, event, owner); status != schedule.Accepted {
		t.Fatalf("owner status = %s, want accepted", status)
	}
}

func TestInviteRequiresManager(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, nil, schedule.Public)
	_, err := f.manager.CreateInvites(context.Background(), 9, event, []schedule.UserID{2})
	if !errors.Is(err, schedule.ErrPermission) {
		t.Fatalf("stranger invite error = %v, want ErrPermission", err)
	}
}

func TestInviteMissingEvent(t *testing.T) {
	f := newFixture(t)
	_, err := f.manager.CreateInvites(context.Background(), owner, 404, []schedule.UserID{2})
	if !errors.Is(err, schedule.ErrNotFound) {
		t.Fatalf("invite to missing event error = %v, want ErrNotFound", err)
	}
}

func TestReinviteDeclinedResetsToPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil, schedule.Public)

	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := f.manager.UpdateRSVP(ctx, event, 2, schedule.Declined); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if status, _ := f.status(t, event, 2); status != schedule.Declined {
		t.Fatalf("status after decline = %s", status)
	}
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2}); err != nil {
		t.Fatalf("re-invite: %v", err)
	}
	if status, _ := f.status(t, event, 2); status != schedule.Pending {
		t.Fatalf("status after re-invite = %s, want pending", status)
	}
}

func TestDeleteInviteOnlyPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil, schedule.Public)
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2, 3}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := f.manager.UpdateRSVP(ctx, event, 2, schedule.Accepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := f.manager.DeleteInvite(ctx, owner, event, 2); !errors.Is(err, schedule.ErrNotFound) {
		t.Fatalf("cancelling accepted invite error = %v, want ErrNotFound", err)
	}
	if status, _ := f.status(t, event, 2); status != schedule.Accepted {
		t.Fatalf("accepted invite changed to %s", status)
	}

	if err := f.manager.DeleteInvite(ctx, owner, event, 3); err != nil {
		t.Fatalf("cancelling pending invite: %v", err)
	}
	if _, found := f.status(t, event, 3); found {
		t.Fatal("pending invite still present after cancel")
	}
	if err := f.manager.DeleteInvite(ctx, owner, event, 3); !errors.Is(err, schedule.ErrNotFound) {
		t.Fatalf("second cancel error = %v, want ErrNotFound", err)
	}
}

func TestUpdateRSVPValidation(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, nil, schedule.Public)
	_, err := f.manager.UpdateRSVP(context.Background(), event, 2, schedule.Pending)
	if !errors.Is(err, schedule.ErrValidation) {
		t.Fatalf("UpdateRSVP(pending) error = %v, want ErrValidation", err)
	}
}

func TestAcceptDoesNotRecheckCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, limit(2), schedule.Public)
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	for _, user := range []schedule.UserID{2, 3} {
		if _, err := f.manager.UpdateRSVP(ctx, event, user, schedule.Accepted); err != nil {
			t.Fatalf("accept by user %d: %v", user, err)
		}
	}
	info, err := f.manager.Info(ctx, event)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Attending != 3 {
		t.Fatalf("attending = %d, want 3 (acceptance is not capacity-gated)", info.Attending)
	}
}

func TestFriendsOnlyRSVP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, nil, schedule.FriendsOnly)
	if err := f.store.AddFriendship(ctx, owner, 2); err != nil {
		t.Fatalf("AddFriendship: %v", err)
	}

	if _, err := f.manager.UpdateRSVP(ctx, event, 2, schedule.Accepted); err != nil {
		t.Fatalf("friend accepting: %v", err)
	}
	if _, err := f.manager.UpdateRSVP(ctx, event, 3, schedule.Accepted); !errors.Is(err, schedule.ErrNotFound) {
		t.Fatalf("stranger accepting friends-only event error = %v, want ErrNotFound", err)
	}
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{3}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	if _, err := f.manager.UpdateRSVP(ctx, event, 3, schedule.Accepted); err != nil {
		t.Fatalf("invited stranger accepting: %v", err)
	}
}

func TestInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, limit(10), schedule.Public)
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2, 3, 4}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	f.clock.Advance(time.Minute)
	if _, err := f.manager.UpdateRSVP(ctx, event, 4, schedule.Declined); err != nil {
		t.Fatalf("decline: %v", err)
	}

	info, err := f.manager.Info(ctx, event)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.Attending != 1 || info.Pending != 2 || info.Invited() != 3 || len(info.Invitees) != 4 {
		t.Fatalf("Info = %+v", info)
	}
	if info.MaxCapacity == nil || *info.MaxCapacity != 10 {
		t.Fatalf("MaxCapacity = %v, want 10", info.MaxCapacity)
	}
	if last := info.Invitees[len(info.Invitees)-1]; last.UserID != 4 || last.Status != schedule.Declined {
		t.Fatalf("most recent change = %+v, want user 4 declined", last)
	}
}

func TestInviteFailureIsPerUser(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, nil, schedule.Public)
	f.failInvitesOf(t, 3, "ABORT")

	report, err := f.manager.CreateInvites(context.Background(), owner, event, []schedule.UserID{2, 3, 4})
	if err != nil {
		t.Fatalf("CreateInvites: %v", err)
	}
	if report.Invited != 2 || len(report.Failed) != 1 || report.Failed[0] != 3 {
		t.Fatalf("report = %+v, want 2 invited and user 3 failed", report)
	}
	for _, user := range []schedule.UserID{2, 4} {
		if status, found := f.status(t, event, user); !found || status != schedule.Pending {
			t.Fatalf("user %d: status %q found %v, want pending", user, status, found)
		}
	}
	if _, found := f.status(t, event, 3); found {
		t.Fatal("failed invite left an RSVP row")
	}
}

func TestInviteRollbackFailsWholeBatch(t *testing.T) {
	f := newFixture(t)
	event := f.event(t, nil, schedule.Public)
	f.failInvitesOf(t, 3, "ROLLBACK")

	report, err := f.manager.CreateInvites(context.Background(), owner, event, []schedule.UserID{2, 3, 4})
	if !errors.Is(err, store.ErrRolledBack) {
		t.Fatalf("CreateInvites error = %v, want ErrRolledBack", err)
	}
	if report.Invited != 0 || len(report.Failed) != 0 {
		t.Fatalf("report = %+v, want empty on failure", report)
	}
	for _, user := range []schedule.UserID{2, 3, 4} {
		if _, found := f.status(t, event, user); found {
			t.Fatalf("user %d has an RSVP after the batch was rolled back", user)
		}
	}
	if status, _ := f.status(t, event, owner); status != schedule.Accepted {
		t.Fatalf("owner status = %s, want accepted", status)
	}
}

func TestReinvitePendingCountsAsNewSeat(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	event := f.event(t, limit(2), schedule.Public)
	if _, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	_, err := f.manager.CreateInvites(ctx, owner, event, []schedule.UserID{2})
	if !errors.Is(err, schedule.ErrCapacity) {
		t.Fatalf("re-inviting pending user to a full event error = %v, want ErrCapacity", err)
	}
	if status, _ := f.status(t, event, 2); status != schedule.Pending {
		t.Fatalf("status = %s, want pending", status)
	}
}
