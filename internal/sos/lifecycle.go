package sos

import (
	"context"

	"MagnoliaSOS/internal/models"
	"MagnoliaSOS/pkg/errors"
	"MagnoliaSOS/pkg/metrics"
	"MagnoliaSOS/pkg/util"

	"gorm.io/gorm"
)

// Controller 生命周期控制器。所有对 SosSignal / HelperOffer 的变更都从
// 这里走：先校验，再在事务里落库，最后对外发事件。违规在写入前被
// 拒绝，客户端看不到半成品状态。
type Controller struct {
	db     *gorm.DB
	policy *AccessPolicy
}

func NewController(db *gorm.DB) *Controller {
	return &Controller{db: db, policy: NewAccessPolicy(db)}
}

// Policy 暴露访问策略（handlers 的预检端点用）
func (ctl *Controller) Policy() *AccessPolicy { return ctl.policy }

// CreateInput 创建信号的入参
type CreateInput struct {
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Address     string   `json:"address"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []uint   `json:"tags"`
	Photos      []string `json:"photos"`
}

// Create 走访问策略后落库。策略检查和写入放进同一个事务，
// 缩小“一人一信号”检查与插入之间的竞态窗口。
func (ctl *Controller) Create(ctx context.Context, creatorID uint, in CreateInput) (*models.SosSignal, error) {
	signal := &models.SosSignal{
		CreatorID:   creatorID,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Photos:      in.Photos,
	}
	if err := models.ValidateNewSignal(signal); err != nil {
		return nil, err
	}

	err := ctl.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		decision, err := NewAccessPolicy(tx).CanCreateSignal(ctx, creatorID)
		if err != nil {
			return err
		}
		if !decision.Allowed {
			return errors.Forbidden("cannot create signal: %s", decision.Reason)
		}
		return models.CreateSignal(tx, signal)
	})
	if err != nil {
		return nil, err
	}

	metrics.SignalsCreated.Inc()
	util.Sig().Emit(models.SigSosCreated, signal)
	return signal, nil
}

// Get 读取单个信号
func (ctl *Controller) Get(ctx context.Context, id uint) (*models.SosSignal, error) {
	return models.GetSignal(ctl.db.WithContext(ctx), id)
}

// ListMine 创建者自己的信号列表
func (ctl *Controller) ListMine(ctx context.Context, userID uint) ([]models.SosSignal, error) {
	return models.ListSignalsByUser(ctl.db.WithContext(ctx), userID)
}

// UpdateDetails 创建者在 open 状态下修改描述性字段
func (ctl *Controller) UpdateDetails(ctx context.Context, id, requesterID uint, patch models.SignalPatch) (*models.SosSignal, error) {
	db := ctl.db.WithContext(ctx)

	signal, err := models.GetSignal(db, id)
	if err != nil {
		return nil, err
	}
	if signal.CreatorID != requesterID {
		return nil, errors.Forbidden("only the creator may edit the signal")
	}

	updated, err := models.PatchSignalFields(db, id, patch)
	if err != nil {
		return nil, err
	}
	if !updated {
		// 条件更新没命中行：信号已离开 open
		return nil, errors.InvalidState("signal is not open")
	}
	return models.GetSignal(db, id)
}

// Cancel 状态迁移 open → cancelled，只有创建者可触发，
// reasonID 必须在固定枚举里。条件更新保证与并发的 resolve 只有一个赢家。
func (ctl *Controller) Cancel(ctx context.Context, id, requesterID uint, reasonID string) (*models.SosSignal, error) {
	db := ctl.db.WithContext(ctx)

	signal, err := models.GetSignal(db, id)
	if err != nil {
		return nil, err
	}
	if signal.CreatorID != requesterID {
		metrics.RecordTransition(models.SignalStatusCancelled, "forbidden")
		return nil, errors.Forbidden("only the creator may cancel the signal")
	}
	if reasonID == "" {
		return nil, errors.Validation("cancellationReasonId is required")
	}
	ok, err := models.CancellationReasonExists(db, reasonID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Validation("unknown cancellation reason %q", reasonID)
	}

	won, err := models.TransitionStatus(db, id, models.SignalStatusOpen, models.SignalStatusCancelled, &reasonID)
	if err != nil {
		return nil, err
	}
	if !won {
		metrics.RecordTransition(models.SignalStatusCancelled, "invalid_transition")
		return nil, errors.InvalidTransition("signal is not open")
	}

	metrics.RecordTransition(models.SignalStatusCancelled, "ok")
	signal, err = models.GetSignal(db, id)
	if err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigSosCancelled, signal)
	return signal, nil
}

// Resolve 状态迁移 open → resolved。解决不要求有确认过的援助者，
// 无人响应的信号创建者照样可以标记解决。
func (ctl *Controller) Resolve(ctx context.Context, id, requesterID uint) (*models.SosSignal, error) {
	db := ctl.db.WithContext(ctx)

	signal, err := models.GetSignal(db, id)
	if err != nil {
		return nil, err
	}
	if signal.CreatorID != requesterID {
		metrics.RecordTransition(models.SignalStatusResolved, "forbidden")
		return nil, errors.Forbidden("only the creator may resolve the signal")
	}

	won, err := models.TransitionStatus(db, id, models.SignalStatusOpen, models.SignalStatusResolved, nil)
	if err != nil {
		return nil, err
	}
	if !won {
		metrics.RecordTransition(models.SignalStatusResolved, "invalid_transition")
		return nil, errors.InvalidTransition("signal is not open")
	}

	metrics.RecordTransition(models.SignalStatusResolved, "ok")
	signal, err = models.GetSignal(db, id)
	if err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigSosResolved, signal)
	return signal, nil
}

// Offer 登记援助意向。唯一索引兜底并发重复；插入后在同一事务里
// 复查信号状态，信号已关闭则整体回滚，客户端拿到 InvalidState。
func (ctl *Controller) Offer(ctx context.Context, signalID, userID uint) (*models.HelperOffer, bool, error) {
	var (
		offer   *models.HelperOffer
		created bool
	)
	err := ctl.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		signal, err := models.GetSignal(tx, signalID)
		if err != nil {
			return err
		}
		if signal.Status != models.SignalStatusOpen {
			return errors.InvalidState("signal is not open")
		}

		offer, created, err = models.UpsertOffer(tx, signalID, userID)
		if err != nil {
			return err
		}

		// 与并发 cancel/resolve 的竞态复查
		signal, err = models.GetSignal(tx, signalID)
		if err != nil {
			return err
		}
		if signal.Status != models.SignalStatusOpen {
			return errors.InvalidState("signal is not open")
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.OffersRecorded.Inc()
		util.Sig().Emit(models.SigSosOffer, offer)
	}
	return offer, created, nil
}

// Withdraw 撤回自己的意向。终态信号上的意向是不可变的历史记录。
func (ctl *Controller) Withdraw(ctx context.Context, signalID, userID uint) error {
	err := ctl.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		signal, err := models.GetSignal(tx, signalID)
		if err != nil {
			return err
		}
		offer, err := models.GetOffer(tx, signalID, userID)
		if err != nil {
			return err
		}
		if signal.Status != models.SignalStatusOpen {
			return errors.InvalidState("offers on a closed signal are immutable")
		}
		return models.DeleteOffer(tx, signalID, offer.UserID)
	})
	if err != nil {
		return err
	}

	util.Sig().Emit(models.SigSosOfferWithdrawn, &models.HelperOffer{SignalID: signalID, UserID: userID})
	return nil
}

// ListHelpers 创建者视角的意向列表，带响应者档案，按到达时间升序
func (ctl *Controller) ListHelpers(ctx context.Context, signalID uint) ([]models.HelperOfferView, error) {
	db := ctl.db.WithContext(ctx)

	if _, err := models.GetSignal(db, signalID); err != nil {
		return nil, err
	}
	offers, err := models.ListOffersBySignal(db, signalID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(offers))
	for _, o := range offers {
		ids = append(ids, o.UserID)
	}
	users, err := models.GetUsersByIDs(db, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.HelperOfferView, 0, len(offers))
	for _, o := range offers {
		view := models.HelperOfferView{HelperOffer: o}
		if u, ok := users[o.UserID]; ok {
			view.User = &u
		}
		views = append(views, view)
	}
	return views, nil
}

// ConfirmHelpers 集合替换式确认：userIDs 里的意向置 true，其余置 false。
// 幂等；确认读到的快照之后才到的新 offer 不参与本轮，留待下次确认。
func (ctl *Controller) ConfirmHelpers(ctx context.Context, signalID, requesterID uint, userIDs []uint) ([]models.HelperOfferView, error) {
	err := ctl.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		signal, err := models.GetSignal(tx, signalID)
		if err != nil {
			return err
		}
		if signal.CreatorID != requesterID {
			return errors.Forbidden("only the creator may confirm helpers")
		}
		if signal.Status != models.SignalStatusOpen {
			return errors.InvalidState("signal is not open")
		}
		return models.ReplaceConfirmedSet(tx, signalID, userIDs)
	})
	if err != nil {
		return nil, err
	}

	views, err := ctl.ListHelpers(ctx, signalID)
	if err != nil {
		return nil, err
	}
	util.Sig().Emit(models.SigSosConfirmed, &models.SosSignal{ID: signalID}, userIDs)
	return views, nil
}
