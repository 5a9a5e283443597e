// Copyright 2026 The Greendale Authors
// SPDX-License-Identifier: Apache-2.0

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/greendale-community/greendale/lib/booking"
	"github.com/greendale-community/greendale/lib/clock"
	"github.com/greendale-community/greendale/lib/lifecycle"
	"github.com/greendale-community/greendale/lib/lock"
	"github.com/greendale-community/greendale/lib/rsvp"
	"github.com/greendale-community/greendale/lib/schedule"
	"github.com/greendale-community/greendale/lib/store"
)

var epoch = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *store.Store
	clock   *clock.FakeClock
	handler http.Handler
	hall    schedule.Room
}

func newFixture(t *testing.T, allowSweeps bool) *fixture {
	t.Helper()
	ctx := context.Background()
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
	hall, err := s.PutRoom(ctx, schedule.Room{Name: "Main hall", Capacity: 3})
	if err != nil {
		t.Fatalf("PutRoom: %v", err)
	}

	fake := clock.Fake(epoch)
	orchestrator, err := booking.New(booking.Config{Store: s, Rooms: s, Friends: s, Clock: fake, Logger: logger})
	if err != nil {
		t.Fatalf("booking.New: %v", err)
	}
	manager, err := rsvp.NewManager(rsvp.Config{Store: s, Friends: s, Clock: fake, Logger: logger})
	if err != nil {
		t.Fatalf("rsvp.NewManager: %v", err)
	}
	sweeper, err := lifecycle.NewSweeper(lifecycle.SweepConfig{
		Store: s, Locker: lock.NewMemory(), Holder: "test", Clock: fake, Logger: logger,
	})
	if err != nil {
		t.Fatalf("NewSweeper: %v", err)
	}
	router, err := NewRouter(Config{
		Booking:          orchestrator,
		RSVP:             manager,
		Sweeper:          sweeper,
		History:          s,
		AllowManualSweep: allowSweeps,
		Logger:           logger,
	})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &fixture{store: s, clock: fake, handler: router, hall: hall}
}

// do sends a request as user (0 for anonymous) and decodes a JSON
// response into out when out is non-nil.
func (f *fixture) do(t *testing.T, user schedule.UserID, method, path string, body any, out any) int {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	if user != 0 {
		req.Header.Set(UserHeader, strconv.FormatInt(int64(user), 10))
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s %s: decoding %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

func eventBody(start time.Time, room schedule.RoomID) map[string]any {
	body := map[string]any{
		"name":       "Choir practice",
		"start_time": start.Format(time.RFC3339),
		"end_time":   start.Add(2 * time.Hour).Format(time.RFC3339),
	}
	if room != schedule.NoRoom {
		body["room_id"] = room
	}
	return body
}

type createResponse struct {
	Events []eventJSON `json:"events"`
}

func (f *fixture) createEvent(t *testing.T, owner schedule.UserID, body map[string]any) eventJSON {
	t.Helper()
	var created createResponse
	if code := f.do(t, owner, http.MethodPost, "/events", body, &created); code != http.StatusCreated {
		t.Fatalf("POST /events = %d, want 201", code)
	}
	if len(created.Events) != 1 {
		t.Fatalf("created %d events, want 1", len(created.Events))
	}
	return created.Events[0]
}

func TestRequiresUserHeader(t *testing.T) {
	f := newFixture(t, true)
	if code := f.do(t, 0, http.MethodPost, "/events", eventBody(epoch, schedule.NoRoom), nil); code != http.StatusUnauthorized {
		t.Errorf("anonymous POST /events = %d, want 401", code)
	}
	req := httptest.NewRequest(http.MethodGet, "/events/1", nil)
	req.Header.Set(UserHeader, "alice")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("non-numeric user = %d, want 401", rec.Code)
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	f := newFixture(t, true)
	created := f.createEvent(t, 1, eventBody(epoch.Add(24*time.Hour), f.hall.ID))
	if created.MaxCapacity == nil || *created.MaxCapacity != 3 {
		t.Errorf("max_capacity = %v, want room capacity 3", created.MaxCapacity)
	}
	if created.RoomID == nil || *created.RoomID != f.hall.ID {
		t.Errorf("room_id = %v, want %d", created.RoomID, f.hall.ID)
	}

	var got eventJSON
	path := "/events/" + strconv.FormatInt(int64(created.ID), 10)
	if code := f.do(t, 2, http.MethodGet, path, nil, &got); code != http.StatusOK {
		t.Fatalf("GET %s = %d, want 200", path, code)
	}
	if got.Name != "Choir practice" || !got.Start.Equal(created.Start) {
		t.Errorf("GET returned %+v, want %+v", got, created)
	}

	if code := f.do(t, 2, http.MethodGet, "/events/999", nil, nil); code != http.StatusNotFound {
		t.Errorf("GET missing event = %d, want 404", code)
	}
	if code := f.do(t, 2, http.MethodGet, "/events/abc", nil, nil); code != http.StatusBadRequest {
		t.Errorf("GET /events/abc = %d, want 400", code)
	}
}

func TestCreateRecurringConflict(t *testing.T) {
	f := newFixture(t, true)
	f.createEvent(t, 2, eventBody(epoch.AddDate(0, 0, 2), f.hall.ID))

	body := eventBody(epoch, f.hall.ID)
	body["recurrence_type"] = "daily"
	body["recurrence_end_date"] = epoch.AddDate(0, 0, 4).Format(time.DateOnly)
	var conflict conflictBody
	if code := f.do(t, 1, http.MethodPost, "/events", body, &conflict); code != http.StatusConflict {
		t.Fatalf("POST recurring = %d, want 409", code)
	}
	if len(conflict.Conflicts) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(conflict.Conflicts), conflict)
	}
	if c := conflict.Conflicts[0]; c.Kind != schedule.RoomConflict || c.Occurrence != 2 || c.Message == "" {
		t.Errorf("conflict = %+v, want a described room conflict on occurrence 2", c)
	}

	body["room_id"] = nil
	var created createResponse
	if code := f.do(t, 1, http.MethodPost, "/events", body, &created); code != http.StatusCreated {
		t.Fatalf("POST roomless recurring = %d, want 201", code)
	}
	if len(created.Events) != 5 {
		t.Errorf("created %d occurrences, want 5", len(created.Events))
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, true)
	tests := []struct {
		name   string
		mutate func(map[string]any)
		field  string
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }, "name"},
		{"end before start", func(b map[string]any) { b["end_time"] = epoch.Add(-time.Hour).Format(time.RFC3339) }, "end"},
		{"capacity over room", func(b map[string]any) { b["max_capacity"] = 4 }, "max_capacity"},
		{"unknown recurrence", func(b map[string]any) { b["recurrence_type"] = "hourly" }, "recurrence_type"},
		{"bad recurrence date", func(b map[string]any) {
			b["recurrence_type"] = "weekly"
			b["recurrence_end_date"] = "next week"
		}, "recurrence_end_date"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			body := eventBody(epoch, f.hall.ID)
			test.mutate(body)
			var out errorBody
			if code := f.do(t, 1, http.MethodPost, "/events", body, &out); code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%+v)", code, out)
			}
			if out.Field != test.field {
				t.Errorf("field = %q, want %q", out.Field, test.field)
			}
		})
	}

	body := eventBody(epoch, f.hall.ID)
	body["surprise"] = true
	if code := f.do(t, 1, http.MethodPost, "/events", body, nil); code != http.StatusBadRequest {
		t.Errorf("unknown field = %d, want 400", code)
	}
}

func TestUpdateDeleteRestore(t *testing.T) {
	f := newFixture(t, true)
	created := f.createEvent(t, 1, eventBody(epoch, f.hall.ID))
	path := "/events/" + strconv.FormatInt(int64(created.ID), 10)

	update := eventBody(epoch.Add(time.Hour), f.hall.ID)
	update["name"] = "Choir rehearsal"
	if code := f.do(t, 2, http.MethodPut, path, update, nil); code != http.StatusForbidden {
		t.Errorf("PUT by stranger = %d, want 403", code)
	}
	var updated eventJSON
	if code := f.do(t, 1, http.MethodPut, path, update, &updated); code != http.StatusOK {
		t.Fatalf("PUT = %d, want 200", code)
	}
	if updated.Name != "Choir rehearsal" {
		t.Errorf("name = %q after update", updated.Name)
	}

	if code := f.do(t, 2, http.MethodDelete, path, nil, nil); code != http.StatusForbidden {
		t.Errorf("DELETE by stranger = %d, want 403", code)
	}
	if code := f.do(t, 1, http.MethodDelete, path, nil, nil); code != http.StatusNoContent {
		t.Fatalf("DELETE = %d, want 204", code)
	}
	if code := f.do(t, 1, http.MethodGet, path, nil, nil); code != http.StatusNotFound {
		t.Errorf("GET deleted = %d, want 404", code)
	}

	var deleted []deletedEventJSON
	if code := f.do(t, 1, http.MethodGet, "/events/deleted", nil, &deleted); code != http.StatusOK {
		t.Fatalf("GET /events/deleted = %d, want 200", code)
	}
	if len(deleted) != 1 || deleted[0].ID != created.ID || !deleted[0].Owned || deleted[0].DeletedAt == nil {
		t.Fatalf("deleted = %+v, want the owned event", deleted)
	}

	if code := f.do(t, 1, http.MethodPost, path+"/restore", nil, nil); code != http.StatusNoContent {
		t.Fatalf("restore = %d, want 204", code)
	}
	if code := f.do(t, 1, http.MethodPost, path+"/restore", nil, nil); code != http.StatusNotFound {
		t.Errorf("second restore = %d, want 404", code)
	}
	if code := f.do(t, 1, http.MethodGet, path, nil, nil); code != http.StatusOK {
		t.Errorf("GET restored = %d, want 200", code)
	}
}

func TestInvitesAndRSVP(t *testing.T) {
	f := newFixture(t, true)
	created := f.createEvent(t, 1, eventBody(epoch, f.hall.ID))
	path := "/events/" + strconv.FormatInt(int64(created.ID), 10)

	// Capacity 3 with the owner attending leaves room for two.
	var full capacityBody
	if code := f.do(t, 1, http.MethodPost, path+"/invites", inviteRequest{UserIDs: []schedule.UserID{2, 3, 4}}, &full); code != http.StatusConflict {
		t.Fatalf("over-capacity invite = %d, want 409", code)
	}
	if full.Remaining != 2 || full.Requested != 3 {
		t.Errorf("capacity body = %+v, want 2 remaining of 3 requested", full)
	}

	var report inviteReportJSON
	if code := f.do(t, 1, http.MethodPost, path+"/invites", inviteRequest{UserIDs: []schedule.UserID{2, 3}}, &report); code != http.StatusOK {
		t.Fatalf("invite = %d, want 200", code)
	}
	if report.Invited != 2 || len(report.Failed) != 0 {
		t.Errorf("report = %+v, want 2 invited", report)
	}
	if code := f.do(t, 2, http.MethodPost, path+"/invites", inviteRequest{UserIDs: []schedule.UserID{5}}, nil); code != http.StatusForbidden {
		t.Errorf("invite by non-manager = %d, want 403", code)
	}

	var row rsvpJSON
	if code := f.do(t, 2, http.MethodPost, path+"/rsvp", rsvpRequest{Status: schedule.Accepted}, &row); code != http.StatusOK {
		t.Fatalf("accept = %d, want 200", code)
	}
	if row.Status != schedule.Accepted || row.InvitedBy == nil || *row.InvitedBy != 1 {
		t.Errorf("rsvp = %+v, want accepted, invited by 1", row)
	}
	if code := f.do(t, 2, http.MethodPost, path+"/rsvp", rsvpRequest{Status: schedule.Pending}, nil); code != http.StatusBadRequest {
		t.Errorf("rsvp pending = %d, want 400", code)
	}

	if code := f.do(t, 1, http.MethodDelete, path+"/invites/2", nil, nil); code != http.StatusNotFound {
		t.Errorf("cancel accepted invite = %d, want 404", code)
	}
	if code := f.do(t, 1, http.MethodDelete, path+"/invites/3", nil, nil); code != http.StatusNoContent {
		t.Errorf("cancel pending invite = %d, want 204", code)
	}

	var info inviteInfoJSON
	if code := f.do(t, 2, http.MethodGet, path+"/invites", nil, &info); code != http.StatusOK {
		t.Fatalf("invite info = %d, want 200", code)
	}
	if info.Attending != 2 || info.Pending != 0 || info.Invited != 2 || len(info.Invitees) != 2 {
		t.Errorf("info = %+v, want 2 attending", info)
	}
}

func TestManualSweep(t *testing.T) {
	f := newFixture(t, true)
	created := f.createEvent(t, 1, eventBody(epoch, schedule.NoRoom))
	path := "/events/" + strconv.FormatInt(int64(created.ID), 10)
	if code := f.do(t, 1, http.MethodDelete, path, nil, nil); code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", code)
	}
	f.clock.Advance(31 * 24 * time.Hour)

	var result sweepResultJSON
	if code := f.do(t, 0, http.MethodPost, "/admin/sweep", nil, &result); code != http.StatusOK {
		t.Fatalf("POST /admin/sweep = %d, want 200", code)
	}
	if !result.Success || result.DeletedCount != 1 {
		t.Errorf("result = %+v, want one deletion", result)
	}

	var runs []sweepRunJSON
	if code := f.do(t, 0, http.MethodGet, "/admin/sweeps", nil, &runs); code != http.StatusOK {
		t.Fatalf("GET /admin/sweeps = %d, want 200", code)
	}
	if len(runs) != 1 || runs[0].ID != result.RunID || len(runs[0].Deleted) != 1 {
		t.Errorf("runs = %+v, want the one sweep", runs)
	}
}

func TestManualSweepForbidden(t *testing.T) {
	f := newFixture(t, false)
	if code := f.do(t, 1, http.MethodPost, "/admin/sweep", nil, nil); code != http.StatusForbidden {
		t.Errorf("POST /admin/sweep = %d, want 403", code)
	}
	if code := f.do(t, 1, http.MethodGet, "/admin/sweeps", nil, nil); code != http.StatusForbidden {
		t.Errorf("GET /admin/sweeps = %d, want 403", code)
	}
}

func TestListingViews(t *testing.T) {
	f := newFixture(t, true)
	public := f.createEvent(t, 1, eventBody(epoch.Add(24*time.Hour), f.hall.ID))
	hidden := eventBody(epoch.Add(48*time.Hour), schedule.NoRoom)
	hidden["privacy_type"] = "friends_only"
	private := f.createEvent(t, 1, hidden)

	list := func(user schedule.UserID, path string) []listingJSON {
		t.Helper()
		var listings []listingJSON
		if code := f.do(t, user, http.MethodGet, path, nil, &listings); code != http.StatusOK {
			t.Fatalf("GET %s = %d, want 200", path, code)
		}
		return listings
	}

	day := list(2, "/events?date=2026-03-03")
	if len(day) != 1 || day[0].ID != public.ID || day[0].Attending != 1 || day[0].Managed {
		t.Fatalf("day view = %+v", day)
	}

	span := "/events?from=2026-03-03T00:00:00Z&to=2026-03-05T00:00:00Z"
	if got := list(2, span); len(got) != 1 {
		t.Errorf("stranger range view has %d events, want 1", len(got))
	}
	owned := list(1, span)
	if len(owned) != 2 || owned[1].ID != private.ID || !owned[1].Managed || owned[1].Status != schedule.Accepted {
		t.Errorf("owner range view = %+v", owned)
	}

	if got := list(2, "/events/upcoming"); len(got) != 1 || got[0].ID != public.ID {
		t.Errorf("upcoming = %+v", got)
	}
	if got := list(1, "/events/managed?limit=1"); len(got) != 1 || got[0].ID != public.ID {
		t.Errorf("managed = %+v", got)
	}
	if got := list(1, "/events/attending"); len(got) != 2 {
		t.Errorf("attending has %d events, want 2", len(got))
	}
	if got := list(1, "/events/history"); len(got) != 0 {
		t.Errorf("history = %+v, want none", got)
	}

	for path, field := range map[string]string{
		"/events":                  "from",
		"/events?date=tomorrow":    "date",
		"/events?from=yesterday":   "from",
		"/events/upcoming?limit=0": "limit",
	} {
		var body errorBody
		if code := f.do(t, 1, http.MethodGet, path, nil, &body); code != http.StatusBadRequest || body.Field != field {
			t.Errorf("GET %s = %d %+v, want 400 on %s", path, code, body, field)
		}
	}
}
