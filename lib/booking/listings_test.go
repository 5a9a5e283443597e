// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/greendale-community/greendale/lib/recurrence"
	"github.com/greendale-community/greendale/lib/schedule"
	"github.com/greendale-community/greendale/lib/store"
)

func ids(listings []schedule.Listing) []schedule.EventID {
	out := make([]schedule.EventID, len(listings))
	for i, l := range listings {
		out[i] = l.ID
	}
	return out
}

func requireIDs(t *testing.T, what string, listings []schedule.Listing, want ...schedule.EventID) {
	t.Helper()
	got := ids(listings)
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s = %v, want %v", what, got, want)
		}
	}
}

// accept records user's acceptance of event directly in the store.
func (f *fixture) accept(t *testing.T, event schedule.EventID, user schedule.UserID) {
	t.Helper()
	err := f.store.Write(context.Background(), func(tx *store.Tx) error {
		return tx.SetRSVPStatus(event, user, schedule.Accepted, epoch)
	})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
}

func TestListRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Ends exactly where the range starts.
	f.create(t, draft(bob, schedule.NoRoom, at(0, 22), at(1, 0)))
	public := f.create(t, draft(alice, f.hall.ID, at(1, 10), at(1, 11)))
	hidden := draft(alice, schedule.NoRoom, at(1, 12), at(1, 13))
	hidden.Privacy = schedule.FriendsOnly
	private := f.create(t, hidden)
	late := f.create(t, draft(bob, schedule.NoRoom, at(1, 23), at(2, 1)))
	f.create(t, draft(bob, schedule.NoRoom, at(2, 10), at(2, 11)))

	cancelled := f.create(t, draft(carol, schedule.NoRoom, at(1, 14), at(1, 15)))
	if _, err := f.booker.Update(ctx, carol, cancelled.ID, Changes{
		Details:   Details{Name: "Book club", Start: at(1, 14), End: at(1, 15)},
		Cancelled: true,
	}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	deleted := f.create(t, draft(carol, schedule.NoRoom, at(1, 16), at(1, 17)))
	if err := f.booker.Delete(ctx, carol, deleted.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	day := schedule.Interval{Start: at(1, 0), End: at(2, 0)}
	listings, err := f.booker.List(ctx, carol, day)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	requireIDs(t, "stranger's day", listings, public.ID, late.ID)

	if err := f.store.AddFriendship(ctx, alice, carol); err != nil {
		t.Fatalf("AddFriendship: %v", err)
	}
	listings, err = f.booker.List(ctx, carol, day)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	requireIDs(t, "friend's day", listings, public.ID, private.ID, late.ID)

	listings, err = f.booker.List(ctx, alice, day)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !listings[0].Managed || listings[0].Status != schedule.Accepted || listings[0].Attending != 1 {
		t.Errorf("owner's view of own event = %+v", listings[0])
	}
	if listings[2].Managed || listings[2].Status != "" {
		t.Errorf("owner's view of another event = %+v", listings[2])
	}
}

func TestListValidation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name  string
		iv    schedule.Interval
		field string
	}{
		{"missing from", schedule.Interval{End: at(1, 0)}, "from"},
		{"missing to", schedule.Interval{Start: at(1, 0)}, "to"},
		{"empty range", schedule.Interval{Start: at(1, 0), End: at(1, 0)}, "to"},
		{"too wide", schedule.Interval{Start: at(0, 0), End: at(400, 0)}, "to"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := f.booker.List(context.Background(), alice, test.iv)
			var validation *schedule.ValidationError
			if !errors.As(err, &validation) || validation.Field != test.field {
				t.Fatalf("List error = %v, want validation of %s", err, test.field)
			}
		})
	}
}

func TestListingsSkipHiddenPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// More hidden events than one page holds, all before the visible ones.
	series := draft(alice, schedule.NoRoom, at(1, 10), at(1, 11))
	series.Privacy = schedule.FriendsOnly
	series.Recurrence = recurrence.Rule{Kind: recurrence.Daily, Until: at(pageSize+10, 0)}
	result, err := f.booker.Create(ctx, series)
	if err != nil {
		t.Fatalf("Create series: %v", err)
	}
	if len(result.Events) <= pageSize {
		t.Fatalf("series has %d events, want more than %d", len(result.Events), pageSize)
	}
	first := f.create(t, draft(bob, schedule.NoRoom, at(pageSize+20, 10), at(pageSize+20, 11)))
	second := f.create(t, draft(bob, schedule.NoRoom, at(pageSize+21, 10), at(pageSize+21, 11)))
	third := f.create(t, draft(bob, schedule.NoRoom, at(pageSize+22, 10), at(pageSize+22, 11)))

	listings, err := f.booker.List(ctx, carol, schedule.Interval{Start: at(0, 0), End: at(pageSize+30, 0)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	requireIDs(t, "range past hidden events", listings, first.ID, second.ID, third.ID)

	upcoming, err := f.booker.Upcoming(ctx, carol, 2)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	requireIDs(t, "limited upcoming", upcoming, first.ID, second.ID)

	listings, err = f.booker.List(ctx, alice, schedule.Interval{Start: at(0, 0), End: at(pageSize+30, 0)})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(listings) != len(result.Events)+3 {
		t.Fatalf("owner sees %d events, want %d", len(listings), len(result.Events)+3)
	}
}

func TestUpcoming(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.create(t, draft(alice, schedule.NoRoom, at(-1, 10), at(-1, 11)))
	clash := f.create(t, draft(alice, f.hall.ID, at(2, 10), at(2, 12)))
	free := f.create(t, draft(alice, f.hall.ID, at(3, 10), at(3, 12)))
	own := f.create(t, draft(bob, schedule.NoRoom, at(2, 11), at(2, 13)))

	upcoming, err := f.booker.Upcoming(ctx, bob, 0)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	requireIDs(t, "upcoming", upcoming, clash.ID, free.ID)
	if !upcoming[0].TimeConflict || upcoming[1].TimeConflict {
		t.Errorf("TimeConflict = %v, %v; want true, false", upcoming[0].TimeConflict, upcoming[1].TimeConflict)
	}

	// An accepted event leaves the upcoming view.
	f.accept(t, free.ID, bob)
	upcoming, err = f.booker.Upcoming(ctx, bob, 0)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	requireIDs(t, "upcoming after accepting", upcoming, clash.ID)

	attending, err := f.booker.Attending(ctx, bob, 0)
	if err != nil {
		t.Fatalf("Attending: %v", err)
	}
	requireIDs(t, "attending", attending, own.ID, free.ID)
}

func TestManagedAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	limited := draft(alice, schedule.NoRoom, at(1, 10), at(1, 12))
	two := 2
	limited.MaxCapacity = &two
	owned := f.create(t, limited)
	administered := f.create(t, draft(carol, schedule.NoRoom, at(2, 10), at(2, 12)))
	err := f.store.Write(ctx, func(tx *store.Tx) error {
		return tx.AddAdmin(administered.ID, alice)
	})
	if err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	f.accept(t, owned.ID, bob)

	managed, err := f.booker.Managed(ctx, alice, 0)
	if err != nil {
		t.Fatalf("Managed: %v", err)
	}
	requireIDs(t, "managed", managed, owned.ID, administered.ID)
	if managed[0].Attending != 2 || !managed[0].Full() || !managed[1].Managed {
		t.Errorf("managed = %+v", managed)
	}

	history, err := f.booker.History(ctx, bob, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	requireIDs(t, "history before the event", history)

	f.clock.Advance(3 * 24 * time.Hour)
	history, err = f.booker.History(ctx, bob, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	requireIDs(t, "history after the event", history, owned.ID)
	if history[0].Status != schedule.Accepted {
		t.Errorf("history status = %q, want accepted", history[0].Status)
	}
	attending, err := f.booker.Attending(ctx, bob, 0)
	if err != nil {
		t.Fatalf("Attending: %v", err)
	}
	requireIDs(t, "attending after the event", attending)
}
