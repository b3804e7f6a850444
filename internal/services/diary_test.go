package services

import (
	"context"
	"testing"

	"couple-diary-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type diaryFixture struct {
	svc      *DiaryService
	entries  *fakeDiaryStore
	notifier *fakeNotifier
}

func newDiaryFixture(t *testing.T) *diaryFixture {
	t.Helper()

	profiles := newFakeProfileStore()
	require.NoError(t, profiles.Create(context.Background(), &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"}, "x"))
	require.NoError(t, profiles.Create(context.Background(), &models.Profile{ID: "ben", Email: "ben@example.com", Name: "Ben"}, "x"))
	require.NoError(t, profiles.Create(context.Background(), &models.Profile{ID: "cara", Email: "cara@example.com", Name: "Cara"}, "x"))
	require.NoError(t, profiles.LinkPartners(context.Background(), "anna", "ben"))

	entries := newFakeDiaryStore()
	notifier := &fakeNotifier{}
	return &diaryFixture{
		svc:      NewDiaryService(entries, profiles, notifier),
		entries:  entries,
		notifier: notifier,
	}
}

func validEntry() EntryRequest {
	return EntryRequest{
		Date:    "2026-08-31",
		Title:   "Picnic by the river",
		Content: "We found the perfect spot.",
		Mood:    models.MoodHappy,
	}
}

func TestDiaryService_Create(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	entry, err := f.svc.Create(ctx, "anna", validEntry())
	require.NoError(t, err)
	assert.Equal(t, "anna", entry.OwnerID)
	assert.NotEmpty(t, entry.ID)
	assert.NotNil(t, entry.Photos, "photos default to an empty slice")

	// The partner hears about a shared entry.
	events := f.notifier.sent()
	require.Len(t, events, 1)
	assert.Equal(t, "ben", events[0].UserID)
	assert.Equal(t, EventEntryCreated, events[0].Event.Type)
}

func TestDiaryService_Create_PrivateSkipsNotification(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	req := validEntry()
	req.IsPrivate = true
	_, err := f.svc.Create(ctx, "anna", req)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.sent())
}

func TestDiaryService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	tests := []struct {
		name   string
		mutate func(*EntryRequest)
	}{
		{"empty title", func(r *EntryRequest) { r.Title = "  " }},
		{"empty content", func(r *EntryRequest) { r.Content = "" }},
		{"bad date", func(r *EntryRequest) { r.Date = "31.08.2026" }},
		{"unknown mood", func(r *EntryRequest) { r.Mood = "hangry" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validEntry()
			tt.mutate(&req)
			_, err := f.svc.Create(ctx, "anna", req)
			var verr ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestDiaryService_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	shared, err := f.svc.Create(ctx, "anna", validEntry())
	require.NoError(t, err)

	privReq := validEntry()
	privReq.IsPrivate = true
	private, err := f.svc.Create(ctx, "anna", privReq)
	require.NoError(t, err)

	// The owner sees both.
	_, err = f.svc.Get(ctx, "anna", shared.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, "anna", private.ID)
	require.NoError(t, err)

	// The partner sees only the shared one.
	_, err = f.svc.Get(ctx, "ben", shared.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, "ben", private.ID)
	assert.ErrorIs(t, err, ErrNotVisible)

	// A stranger sees neither.
	_, err = f.svc.Get(ctx, "cara", shared.ID)
	assert.ErrorIs(t, err, ErrNotVisible)
}

func TestDiaryService_List(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	_, err := f.svc.Create(ctx, "anna", validEntry())
	require.NoError(t, err)

	privReq := validEntry()
	privReq.IsPrivate = true
	privReq.Title = "Secret thoughts"
	_, err = f.svc.Create(ctx, "anna", privReq)
	require.NoError(t, err)

	benReq := validEntry()
	benReq.Title = "Ben's entry"
	_, err = f.svc.Create(ctx, "ben", benReq)
	require.NoError(t, err)

	// Anna lists her two entries plus Ben's shared one.
	annaList, err := f.svc.List(ctx, "anna")
	require.NoError(t, err)
	assert.Len(t, annaList, 3)

	// Ben does not see Anna's private entry.
	benList, err := f.svc.List(ctx, "ben")
	require.NoError(t, err)
	assert.Len(t, benList, 2)
}

func TestDiaryService_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	req := validEntry()
	req.Photos = []string{"photos/a.jpg", "photos/b.jpg"}
	created, err := f.svc.Create(ctx, "anna", req)
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, "anna", created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got, "entry reads back field for field, photo order included")
}

func TestDiaryService_EditKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	older := validEntry()
	older.Date = "2026-08-20"
	older.Title = "Older entry"
	_, err := f.svc.Create(ctx, "anna", older)
	require.NoError(t, err)

	entry, err := f.svc.Create(ctx, "anna", validEntry())
	require.NoError(t, err)

	list, err := f.svc.List(ctx, "anna")
	require.NoError(t, err)
	require.NotEmpty(t, list)
	assert.Equal(t, entry.ID, list[0].ID, "newest entry sorts first")

	req := validEntry()
	req.Title = "Renamed"
	updated, err := f.svc.Update(ctx, "anna", entry.ID, req)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, updated.ID)
	assert.Equal(t, entry.Date, updated.Date)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestDiaryService_Update_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	entry, err := f.svc.Create(ctx, "anna", validEntry())
	require.NoError(t, err)

	req := validEntry()
	req.Title = "Edited title"
	updated, err := f.svc.Update(ctx, "anna", entry.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Edited title", updated.Title)

	_, err = f.svc.Update(ctx, "ben", entry.ID, req)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDiaryService_Delete_OwnerOnly(t *testing.T) {
	ctx := context.Background()
	f := newDiaryFixture(t)

	entry, err := f.svc.Create(ctx, "anna", validEntry())
	require.NoError(t, err)

	err = f.svc.Delete(ctx, "ben", entry.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	require.NoError(t, f.svc.Delete(ctx, "anna", entry.ID))

	_, err = f.svc.Get(ctx, "anna", entry.ID)
	assert.Error(t, err)
}
