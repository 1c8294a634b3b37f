package models

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUpsertOfferIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "creator")
	seedUser(t, db, 2, "helper")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	first, created, err := UpsertOffer(db, s.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, first.Confirmed)

	second, created, err := UpsertOffer(db, s.ID, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&HelperOffer{}).Where("signal_id = ?", s.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestUpsertOfferConcurrent(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "creator")
	seedUser(t, db, 2, "helper")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := UpsertOffer(db, s.ID, 2)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&HelperOffer{}).Where("signal_id = ? AND user_id = ?", s.ID, 2).Count(&count).Error)
	assert.EqualValues(t, 1, count, "exactly one offer per (signal, user) pair under concurrency")
}

func TestDistinctUsersGetDistinctOffers(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "creator")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	for id := uint(2); id <= 4; id++ {
		_, created, err := UpsertOffer(db, s.ID, id)
		require.NoError(t, err)
		assert.True(t, created)
	}

	offers, err := ListOffersBySignal(db, s.ID)
	require.NoError(t, err)
	assert.Len(t, offers, 3)
}

func TestListOffersOrderedByArrival(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "creator")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	base := time.Now().Add(-time.Hour)
	// 故意乱序插入，验证排序来自 created_at 而不是插入顺序
	rows := []HelperOffer{
		{SignalID: s.ID, UserID: 4, CreatedAt: base.Add(3 * time.Minute)},
		{SignalID: s.ID, UserID: 2, CreatedAt: base.Add(1 * time.Minute)},
		{SignalID: s.ID, UserID: 3, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	offers, err := ListOffersBySignal(db, s.ID)
	require.NoError(t, err)
	require.Len(t, offers, 3)
	assert.Equal(t, uint(2), offers[0].UserID)
	assert.Equal(t, uint(3), offers[1].UserID)
	assert.Equal(t, uint(4), offers[2].UserID)
}

func TestDeleteOffer(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "creator")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	_, _, err := UpsertOffer(db, s.ID, 2)
	require.NoError(t, err)

	require.NoError(t, DeleteOffer(db, s.ID, 2))
	err = DeleteOffer(db, s.ID, 2)
	require.Error(t, err)
}

func TestReplaceConfirmedSet(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "creator")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	for id := uint(2); id <= 4; id++ {
		_, _, err := UpsertOffer(db, s.ID, id)
		require.NoError(t, err)
	}

	require.NoError(t, ReplaceConfirmedSet(db, s.ID, []uint{2, 3}))
	confirmed := confirmedUserIDs(t, db, s.ID)
	assert.ElementsMatch(t, []uint{2, 3}, confirmed)

	// 集合替换：再确认 {2}，3 回到未确认
	require.NoError(t, ReplaceConfirmedSet(db, s.ID, []uint{2}))
	confirmed = confirmedUserIDs(t, db, s.ID)
	assert.ElementsMatch(t, []uint{2}, confirmed)

	// 空集合清掉全部确认
	require.NoError(t, ReplaceConfirmedSet(db, s.ID, nil))
	assert.Empty(t, confirmedUserIDs(t, db, s.ID))
}

func confirmedUserIDs(t *testing.T, db *gorm.DB, signalID uint) []uint {
	t.Helper()
	offers, err := ListOffersBySignal(db, signalID)
	require.NoError(t, err)
	var ids []uint
	for _, o := range offers {
		if o.Confirmed {
			ids = append(ids, o.UserID)
		}
	}
	return ids
}
