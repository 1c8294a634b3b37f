package models

import (
	"testing"
	"time"

	"MagnoliaSOS/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSignal(creatorID uint) *SosSignal {
	return &SosSignal{
		CreatorID: creatorID,
		Latitude:  55.75,
		Longitude: 37.62,
		Address:   "Red Square",
		Title:     "Need help",
	}
}

func TestCreateSignalValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SosSignal)
	}{
		{"missing creator", func(s *SosSignal) { s.CreatorID = 0 }},
		{"missing location", func(s *SosSignal) { s.Latitude = 0; s.Longitude = 0 }},
		{"latitude out of range", func(s *SosSignal) { s.Latitude = 91 }},
		{"longitude out of range", func(s *SosSignal) { s.Longitude = -181 }},
		{"empty title", func(s *SosSignal) { s.Title = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSignal(1)
			tt.mutate(s)
			err := ValidateNewSignal(s)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeValidation))
		})
	}
}

func TestCreateSignalDefaults(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "u1")

	s := validSignal(1)
	s.Status = "resolved" // 调用方传什么都会被覆盖
	require.NoError(t, CreateSignal(db, s))

	assert.Equal(t, SignalStatusOpen, s.Status)
	assert.NotZero(t, s.ID)
	assert.NotEmpty(t, s.ShortCode)
	assert.Nil(t, s.CancellationReasonID)

	stored, err := GetSignal(db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ShortCode, stored.ShortCode)
	assert.Equal(t, 55.75, stored.Latitude)
}

func TestGetSignalNotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetSignal(db, 12345)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestTransitionStatusCompareAndSwap(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "u1")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	won, err := TransitionStatus(db, s.ID, SignalStatusOpen, SignalStatusResolved, nil)
	require.NoError(t, err)
	assert.True(t, won)

	// 第二个迁移拿不到行，状态不动
	reason := "false_alarm"
	won, err = TransitionStatus(db, s.ID, SignalStatusOpen, SignalStatusCancelled, &reason)
	require.NoError(t, err)
	assert.False(t, won)

	stored, err := GetSignal(db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, SignalStatusResolved, stored.Status)
	assert.Nil(t, stored.CancellationReasonID)
}

func TestTransitionStatusSetsCancellationReason(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "u1")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	reason := "photo_unclear"
	won, err := TransitionStatus(db, s.ID, SignalStatusOpen, SignalStatusCancelled, &reason)
	require.NoError(t, err)
	require.True(t, won)

	stored, err := GetSignal(db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, SignalStatusCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReasonID)
	assert.Equal(t, "photo_unclear", *stored.CancellationReasonID)
}

func TestPatchSignalFieldsOnlyWhileOpen(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "u1")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	title := "Updated title"
	updated, err := PatchSignalFields(db, s.ID, SignalPatch{Title: &title})
	require.NoError(t, err)
	assert.True(t, updated)

	_, err = TransitionStatus(db, s.ID, SignalStatusOpen, SignalStatusResolved, nil)
	require.NoError(t, err)

	other := "Too late"
	updated, err = PatchSignalFields(db, s.ID, SignalPatch{Title: &other})
	require.NoError(t, err)
	assert.False(t, updated)

	stored, err := GetSignal(db, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Updated title", stored.Title)
}

func TestPatchSignalFieldsRejectsEmptyPatch(t *testing.T) {
	db := newTestDB(t)
	_, err := PatchSignalFields(db, 1, SignalPatch{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))

	empty := ""
	_, err = PatchSignalFields(db, 1, SignalPatch{Title: &empty})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestHasOpenSignal(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "u1")

	has, err := HasOpenSignal(db, 1)
	require.NoError(t, err)
	assert.False(t, has)

	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	has, err = HasOpenSignal(db, 1)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = TransitionStatus(db, s.ID, SignalStatusOpen, SignalStatusResolved, nil)
	require.NoError(t, err)

	has, err = HasOpenSignal(db, 1)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestListOpenSignalsOlderThan(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, 1, "u1")
	s := validSignal(1)
	require.NoError(t, CreateSignal(db, s))

	stale, err := ListOpenSignalsOlderThan(db, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stale)

	stale, err = ListOpenSignalsOlderThan(db, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, s.ID, stale[0].ID)
}
