package usecases

import (
	"context"
	"sync"
	"testing"

	"project_outreach/internal/apperrors"
	"project_outreach/internal/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestAccountResolver_ResolveIsIdempotent(t *testing.T) {
	store := &fakeAccounts{}
	r := NewAccountResolver(store, zaptest.NewLogger(t))

	first, err := r.Resolve(context.Background(), "u1", entities.VerticalVenue, "")
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), "u1", entities.VerticalVenue, "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, store.creates)
	assert.Equal(t, "Venue CRM", first.DisplayName)
	assert.Equal(t, entities.PlanFree, first.Plan)
	assert.Empty(t, first.SenderNumber)
}

func TestAccountResolver_OneAccountPerVertical(t *testing.T) {
	store := &fakeAccounts{}
	r := NewAccountResolver(store, zaptest.NewLogger(t))

	creator, err := r.Resolve(context.Background(), "u1", entities.VerticalCreator, "")
	require.NoError(t, err)
	ent, err := r.Resolve(context.Background(), "u1", entities.VerticalEntertainer, "")
	require.NoError(t, err)

	assert.NotEqual(t, creator.ID, ent.ID)
	assert.Equal(t, "Creator workspace", creator.DisplayName)
	assert.Equal(t, "Entertainer CRM", ent.DisplayName)
}

func TestAccountResolver_ForeignOrBadIDFallsThrough(t *testing.T) {
	store := &fakeAccounts{}
	r := NewAccountResolver(store, zaptest.NewLogger(t))

	theirs, err := r.Resolve(context.Background(), "mallory-target", entities.VerticalCreator, "")
	require.NoError(t, err)
	mine, err := r.Resolve(context.Background(), "u1", entities.VerticalCreator, "")
	require.NoError(t, err)

	for _, id := range []string{theirs.ID, "not-a-uuid", uuid.NewString()} {
		got, err := r.Resolve(context.Background(), "u1", entities.VerticalCreator, id)
		require.NoError(t, err, id)
		assert.Equal(t, mine.ID, got.ID, id)
	}

	got, err := r.Resolve(context.Background(), "u1", entities.VerticalCreator, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)
}

func TestAccountResolver_RequestedIDMustMatchVertical(t *testing.T) {
	store := &fakeAccounts{}
	r := NewAccountResolver(store, zaptest.NewLogger(t))

	venue, _, err := r.Ensure(context.Background(), "u1", entities.VerticalVenue)
	require.NoError(t, err)

	_, err = r.Lookup(context.Background(), "u1", entities.VerticalCreator, venue.ID)
	assert.Equal(t, apperrors.ErrCodeAuth, apperrors.CodeOf(err))
}

func TestAccountResolver_LookupNeverCreates(t *testing.T) {
	store := &fakeAccounts{}
	r := NewAccountResolver(store, zaptest.NewLogger(t))

	_, err := r.Lookup(context.Background(), "u1", entities.VerticalCreator, "")
	assert.Equal(t, apperrors.ErrCodeAuth, apperrors.CodeOf(err))
	assert.Equal(t, "Not found", err.(*apperrors.Error).Message)
	assert.Zero(t, store.creates)

	_, err = r.Lookup(context.Background(), "", entities.VerticalCreator, "")
	assert.Equal(t, apperrors.ErrCodeAuth, apperrors.CodeOf(err))
}

func TestAccountResolver_ConcurrentEnsure(t *testing.T) {
	store := &fakeAccounts{}
	r := NewAccountResolver(store, zaptest.NewLogger(t))

	const n = 16
	ids := make([]string, n)
	created := make([]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc, c, err := r.Ensure(context.Background(), "u1", entities.VerticalCreator)
			assert.NoError(t, err)
			if acc != nil {
				ids[i] = acc.ID
			}
			created[i] = c
		}()
	}
	wg.Wait()

	wins := 0
	for i := range ids {
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			wins++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, store.creates)
}
