package services

import (
	"context"
	"testing"

	"couple-diary-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileFixture struct {
	svc      *ProfileService
	profiles *fakeProfileStore
	cache    *fakeCache
	notifier *fakeNotifier
}

func newProfileFixture(t *testing.T, users ...*models.Profile) *profileFixture {
	t.Helper()

	profiles := newFakeProfileStore()
	cache := newFakeCache()
	notifier := &fakeNotifier{}
	for _, u := range users {
		require.NoError(t, profiles.Create(context.Background(), u, "x"))
	}
	return &profileFixture{
		svc:      NewProfileService(profiles, cache, notifier),
		profiles: profiles,
		cache:    cache,
		notifier: notifier,
	}
}

func TestProfileService_Get_CachesProfile(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})

	p, err := f.svc.Get(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna", p.Name)

	// The second read is served from the cache: a direct store
	// write is invisible until the entry is busted.
	stale, _ := f.profiles.GetByID(ctx, "anna")
	stale.Name = "Changed Behind The Cache"
	require.NoError(t, f.profiles.Update(ctx, stale))

	cached, err := f.svc.Get(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna", cached.Name)
}

func TestProfileService_Update_BustsCache(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})

	_, err := f.svc.Get(ctx, "anna") // warm the cache
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, "anna", UpdateRequest{Name: "Anna B."})
	require.NoError(t, err)
	assert.Equal(t, "Anna B.", updated.Name)

	p, err := f.svc.Get(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "Anna B.", p.Name)
}

func TestProfileService_Update_EmptyName(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})

	_, err := f.svc.Update(ctx, "anna", UpdateRequest{Name: "   "})
	var verr ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestProfileService_GetPartner_NoPartner(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})

	_, err := f.svc.GetPartner(ctx, "anna")
	assert.ErrorIs(t, err, ErrNoPartner)
}

func TestProfileService_LinkPartner(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t,
		&models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"},
		&models.Profile{ID: "ben", Email: "ben@example.com", Name: "Ben"},
	)

	partner, err := f.svc.LinkPartner(ctx, "anna", "Ben@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "ben", partner.ID)

	// The link is mutual.
	annasPartner, err := f.svc.GetPartner(ctx, "anna")
	require.NoError(t, err)
	assert.Equal(t, "ben", annasPartner.ID)
	bensPartner, err := f.svc.GetPartner(ctx, "ben")
	require.NoError(t, err)
	assert.Equal(t, "anna", bensPartner.ID)

	// The other half is told.
	events := f.notifier.sent()
	require.Len(t, events, 1)
	assert.Equal(t, "ben", events[0].UserID)
	assert.Equal(t, EventPartnerLinked, events[0].Event.Type)
}

func TestProfileService_LinkPartner_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("self link", func(t *testing.T) {
		f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})
		_, err := f.svc.LinkPartner(ctx, "anna", "anna@example.com")
		assert.ErrorIs(t, err, ErrSelfLink)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})
		_, err := f.svc.LinkPartner(ctx, "anna", "nobody@example.com")
		assert.ErrorIs(t, err, ErrPartnerNotFound)
	})

	t.Run("partner already taken", func(t *testing.T) {
		f := newProfileFixture(t,
			&models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"},
			&models.Profile{ID: "ben", Email: "ben@example.com", Name: "Ben"},
			&models.Profile{ID: "cara", Email: "cara@example.com", Name: "Cara"},
		)
		_, err := f.svc.LinkPartner(ctx, "ben", "cara@example.com")
		require.NoError(t, err)

		_, err = f.svc.LinkPartner(ctx, "anna", "ben@example.com")
		assert.ErrorIs(t, err, ErrPartnerTaken)
	})

	t.Run("requester already taken", func(t *testing.T) {
		f := newProfileFixture(t,
			&models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"},
			&models.Profile{ID: "ben", Email: "ben@example.com", Name: "Ben"},
			&models.Profile{ID: "cara", Email: "cara@example.com", Name: "Cara"},
		)
		_, err := f.svc.LinkPartner(ctx, "anna", "ben@example.com")
		require.NoError(t, err)

		_, err = f.svc.LinkPartner(ctx, "anna", "cara@example.com")
		assert.ErrorIs(t, err, ErrPartnerTaken)
	})
}

func TestProfileService_LinkPartner_RelinkIsNoop(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t,
		&models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"},
		&models.Profile{ID: "ben", Email: "ben@example.com", Name: "Ben"},
	)

	_, err := f.svc.LinkPartner(ctx, "anna", "ben@example.com")
	require.NoError(t, err)

	// Linking the same couple again succeeds without another
	// notification.
	partner, err := f.svc.LinkPartner(ctx, "anna", "ben@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ben", partner.ID)
	assert.Len(t, f.notifier.sent(), 1)
}

func TestProfileService_UnlinkPartner(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t,
		&models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"},
		&models.Profile{ID: "ben", Email: "ben@example.com", Name: "Ben"},
	)

	_, err := f.svc.LinkPartner(ctx, "anna", "ben@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.UnlinkPartner(ctx, "ben"))

	// Both halves are free again.
	_, err = f.svc.GetPartner(ctx, "anna")
	assert.ErrorIs(t, err, ErrNoPartner)
	_, err = f.svc.GetPartner(ctx, "ben")
	assert.ErrorIs(t, err, ErrNoPartner)
}

func TestProfileService_UnlinkPartner_NotLinked(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, &models.Profile{ID: "anna", Email: "anna@example.com", Name: "Anna"})

	err := f.svc.UnlinkPartner(ctx, "anna")
	assert.ErrorIs(t, err, ErrNoPartner)
}
