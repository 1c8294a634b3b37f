package sos

import (
	"context"
	"sync"
	"testing"

	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/errors"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestController(t *testing.T) (*Controller, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库钉在单连接上
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.SosSignal{}, &models.HelperOffer{},
		&models.CancellationReason{}, &models.SosTag{},
	))
	require.NoError(t, models.SeedLookups(db))

	for id, name := range map[uint]string{1: "u1", 2: "u2", 3: "u3"} {
		require.NoError(t, db.Create(&models.User{ID: id, Username: name, DisplayName: name}).Error)
	}
	return NewController(db), db
}

func validInput() CreateInput {
	return CreateInput{
		Latitude:  55.75,
		Longitude: 37.62,
		Address:   "Red Square",
		Title:     "Need help",
		Tags:      []uint{1},
	}
}

func TestCreateSignal(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)
	assert.Equal(t, models.SignalStatusOpen, signal.Status)
	assert.Equal(t, uint(1), signal.CreatorID)
	assert.NotEmpty(t, signal.ShortCode)
}

// 场景C：已有 open 信号时第二次创建被访问策略拒绝
func TestCreateDeniedWhileOpenSignalExists(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	_, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	_, err = ctl.Create(ctx, 1, validInput())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))

	// 关闭后可以再次创建
	signals, err := ctl.ListMine(ctx, 1)
	require.NoError(t, err)
	_, err = ctl.Resolve(ctx, signals[0].ID, 1)
	require.NoError(t, err)

	_, err = ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)
}

func TestCreateDeniedForSuspendedUser(t *testing.T) {
	ctl, db := newTestController(t)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", 1).Update("suspended", true).Error)

	_, err := ctl.Create(context.Background(), 1, validInput())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
}

func TestAccessPolicyIsPureQuery(t *testing.T) {
	ctl, db := newTestController(t)
	ctx := context.Background()

	decision, err := ctl.Policy().CanCreateSignal(ctx, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	var count int64
	require.NoError(t, db.Model(&models.SosSignal{}).Count(&count).Error)
	assert.Zero(t, count)
}

// 场景A：创建 → 响应 → 确认 → 解决 → 后续 offer 被拒
func TestScenarioFullLifecycle(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	offer, created, err := ctl.Offer(ctx, signal.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, offer.Confirmed)

	views, err := ctl.ConfirmHelpers(ctx, signal.ID, 1, []uint{2})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].Confirmed)
	require.NotNil(t, views[0].User)
	assert.Equal(t, "u2", views[0].User.Username)

	resolved, err := ctl.Resolve(ctx, signal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SignalStatusResolved, resolved.Status)

	_, _, err = ctl.Offer(ctx, signal.ID, 3)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidState))
}

// 场景B：取消带原因，重复取消 409 且状态不变
func TestScenarioCancelTwice(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	cancelled, err := ctl.Cancel(ctx, signal.ID, 1, "photo_unclear")
	require.NoError(t, err)
	assert.Equal(t, models.SignalStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReasonID)
	assert.Equal(t, "photo_unclear", *cancelled.CancellationReasonID)

	_, err = ctl.Cancel(ctx, signal.ID, 1, "photo_unclear")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidTransition))

	after, err := ctl.Get(ctx, signal.ID)
	require.NoError(t, err)
	assert.Equal(t, *cancelled, *after)
}

func TestCancelRequiresKnownReason(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	_, err = ctl.Cancel(ctx, signal.ID, 1, "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))

	_, err = ctl.Cancel(ctx, signal.ID, 1, "made_up_reason")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

// 终态后 confirm / cancel / update 全部被拒，存储不变
func TestTerminalStateIsImmutable(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)
	_, _, err = ctl.Offer(ctx, signal.ID, 2)
	require.NoError(t, err)
	resolved, err := ctl.Resolve(ctx, signal.ID, 1)
	require.NoError(t, err)

	_, err = ctl.ConfirmHelpers(ctx, signal.ID, 1, []uint{2})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidState))

	_, err = ctl.Cancel(ctx, signal.ID, 1, "false_alarm")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidTransition))

	title := "edited"
	_, err = ctl.UpdateDetails(ctx, signal.ID, 1, models.SignalPatch{Title: &title})
	assert.True(t, errors.IsCode(err, errors.CodeInvalidState))

	after, err := ctl.Get(ctx, signal.ID)
	require.NoError(t, err)
	assert.Equal(t, *resolved, *after)

	views, err := ctl.ListHelpers(ctx, signal.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.False(t, views[0].Confirmed)
}

// 确认是集合替换，不是累加
func TestConfirmIsSetReplacement(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)
	_, _, err = ctl.Offer(ctx, signal.ID, 2)
	require.NoError(t, err)
	_, _, err = ctl.Offer(ctx, signal.ID, 3)
	require.NoError(t, err)

	views, err := ctl.ConfirmHelpers(ctx, signal.ID, 1, []uint{2, 3})
	require.NoError(t, err)
	assert.True(t, views[0].Confirmed)
	assert.True(t, views[1].Confirmed)

	views, err = ctl.ConfirmHelpers(ctx, signal.ID, 1, []uint{2})
	require.NoError(t, err)
	for _, v := range views {
		assert.Equal(t, v.UserID == 2, v.Confirmed)
	}

	// 幂等：同一集合再来一遍结果不变
	again, err := ctl.ConfirmHelpers(ctx, signal.ID, 1, []uint{2})
	require.NoError(t, err)
	assert.Equal(t, views, again)
}

// 非创建者的 cancel / confirm 一律 Forbidden，与状态无关
func TestOwnershipEnforcement(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	_, err = ctl.Cancel(ctx, signal.ID, 2, "false_alarm")
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
	_, err = ctl.Resolve(ctx, signal.ID, 2)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
	_, err = ctl.ConfirmHelpers(ctx, signal.ID, 2, []uint{2})
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))

	_, err = ctl.Resolve(ctx, signal.ID, 1)
	require.NoError(t, err)

	// 终态下仍然是 Forbidden 优先于 InvalidTransition
	_, err = ctl.Cancel(ctx, signal.ID, 2, "false_alarm")
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
	_, err = ctl.ConfirmHelpers(ctx, signal.ID, 2, nil)
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
}

func TestOfferIdempotentAtControllerLevel(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	first, created, err := ctl.Offer(ctx, signal.ID, 2)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := ctl.Offer(ctx, signal.ID, 2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestOfferUnknownSignal(t *testing.T) {
	ctl, _ := newTestController(t)
	_, _, err := ctl.Offer(context.Background(), 999, 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestWithdraw(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)
	_, _, err = ctl.Offer(ctx, signal.ID, 2)
	require.NoError(t, err)

	// open 状态下撤回成功
	require.NoError(t, ctl.Withdraw(ctx, signal.ID, 2))
	views, err := ctl.ListHelpers(ctx, signal.ID)
	require.NoError(t, err)
	assert.Empty(t, views)

	// 关闭后的意向不可撤回
	_, _, err = ctl.Offer(ctx, signal.ID, 3)
	require.NoError(t, err)
	_, err = ctl.Resolve(ctx, signal.ID, 1)
	require.NoError(t, err)

	err = ctl.Withdraw(ctx, signal.ID, 3)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidState))
}

func TestWithdrawWithoutOffer(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	err = ctl.Withdraw(ctx, signal.ID, 2)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

// cancel 与 resolve 竞争：恰好一个赢家，输家拿 InvalidTransition
func TestConcurrentCancelResolveSingleWinner(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := ctl.Cancel(ctx, signal.ID, 1, "false_alarm")
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := ctl.Resolve(ctx, signal.ID, 1)
		results <- err
	}()
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.True(t, errors.IsCode(err, errors.CodeInvalidTransition))
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, losses)

	after, err := ctl.Get(ctx, signal.ID)
	require.NoError(t, err)
	assert.Contains(t, []string{models.SignalStatusResolved, models.SignalStatusCancelled}, after.Status)
}

func TestResolveWithoutAnyHelpers(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	// 无人响应也可以解决
	resolved, err := ctl.Resolve(ctx, signal.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.SignalStatusResolved, resolved.Status)
}

func TestUpdateDetails(t *testing.T) {
	ctl, _ := newTestController(t)
	ctx := context.Background()

	signal, err := ctl.Create(ctx, 1, validInput())
	require.NoError(t, err)

	title := "Lost dog near the park"
	tags := []uint{3}
	updated, err := ctl.UpdateDetails(ctx, signal.ID, 1, models.SignalPatch{Title: &title, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, tags, updated.Tags)

	// 位置在创建后不可变：patch 结构里根本没有位置字段
	assert.Equal(t, 55.75, updated.Latitude)

	_, err = ctl.UpdateDetails(ctx, signal.ID, 2, models.SignalPatch{Title: &title})
	assert.True(t, errors.IsCode(err, errors.CodeForbidden))
}
