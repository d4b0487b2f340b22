package redemptions

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ecosort/ecosort-backend/internal/ledger"
	"github.com/ecosort/ecosort-backend/internal/notifications"
	"github.com/ecosort/ecosort-backend/internal/rewards"
	"github.com/ecosort/ecosort-backend/pkg/db/models"
	"github.com/ecosort/ecosort-backend/pkg/enums"
	pkgerrors "github.com/ecosort/ecosort-backend/pkg/errors"
	"github.com/ecosort/ecosort-backend/pkg/outbox"
	"github.com/ecosort/ecosort-backend/pkg/security"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type redemptionsFixture struct {
	conn    *gorm.DB
	svc     Service
	rewards rewards.Service
}

func newRedemptionsFixture(t *testing.T) *redemptionsFixture {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:redeem_%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&models.User{},
		&models.Reward{},
		&models.Redemption{},
		&models.PointTransaction{},
		&models.Notification{},
		&models.OutboxEvent{},
	))

	runner := testTxRunner{db: conn}
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), nil)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), runner, outboxSvc)
	require.NoError(t, err)
	notifSvc, err := notifications.NewService(notifications.NewRepository(conn))
	require.NoError(t, err)
	rewardsSvc, err := rewards.NewService(rewards.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(NewRepository(conn), runner, rewardsSvc, ledgerSvc, notifSvc, outboxSvc, 8)
	require.NoError(t, err)

	return &redemptionsFixture{conn: conn, svc: svc, rewards: rewardsSvc}
}

func (f *redemptionsFixture) mustCreateUser(t *testing.T, points int) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        fmt.Sprintf("eco_test_%s@example.com", uuid.NewString()),
		PasswordHash: "hash",
		DisplayName:  "Redemption Tester",
		Role:         enums.UserRoleResident,
		TotalPoints:  points,
		IsActive:     true,
	}
	require.NoError(t, f.conn.Create(user).Error)
	return user
}

func (f *redemptionsFixture) mustCreateReward(t *testing.T, cost, stock int) *models.Reward {
	t.Helper()
	reward, err := f.rewards.Create(context.Background(), rewards.CreateRewardInput{
		Name:        fmt.Sprintf("Reward %s", uuid.NewString()[:8]),
		Description: "test reward",
		Cost:        cost,
		Stock:       stock,
		Category:    "vouchers",
	})
	require.NoError(t, err)
	return reward
}

func (f *redemptionsFixture) userPoints(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var user models.User
	require.NoError(t, f.conn.First(&user, "id = ?", id).Error)
	return user.TotalPoints
}

func (f *redemptionsFixture) rewardStock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	var reward models.Reward
	require.NoError(t, f.conn.First(&reward, "id = ?", id).Error)
	return reward.Stock
}

func TestCreateSpendsAtCreation(t *testing.T) {
	f := newRedemptionsFixture(t)
	user := f.mustCreateUser(t, 200)
	reward := f.mustCreateReward(t, 150, 3)

	created, err := f.svc.Create(context.Background(), CreateRedemptionInput{
		UserID:   user.ID,
		RewardID: reward.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.RedemptionStatusPending, created.Status)
	assert.Equal(t, 150, created.PointCost)
	assert.Len(t, created.RedemptionCode, 8)
	for _, ch := range created.RedemptionCode {
		assert.Contains(t, security.CodeCharset, string(ch))
	}

	assert.Equal(t, 50, f.userPoints(t, user.ID))
	assert.Equal(t, 2, f.rewardStock(t, reward.ID))

	var reloadedReward models.Reward
	require.NoError(t, f.conn.First(&reloadedReward, "id = ?", reward.ID).Error)
	assert.Equal(t, 1, reloadedReward.Popularity)

	var txn models.PointTransaction
	require.NoError(t, f.conn.First(&txn, "user_id = ?", user.ID).Error)
	assert.Equal(t, -150, txn.Points)
	assert.Equal(t, enums.TransactionTypePointsRedeemed, txn.Type)

	var notif models.Notification
	require.NoError(t, f.conn.First(&notif, "user_id = ?", user.ID).Error)
	assert.Contains(t, notif.Message, created.RedemptionCode)

	var eventCount int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventRedemptionCreated, created.ID).
		Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount)
}

func TestCreateInsufficientPointsRollsBackStock(t *testing.T) {
	f := newRedemptionsFixture(t)
	user := f.mustCreateUser(t, 100)
	reward := f.mustCreateReward(t, 150, 3)

	_, err := f.svc.Create(context.Background(), CreateRedemptionInput{
		UserID:   user.ID,
		RewardID: reward.ID,
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "insufficient points")

	assert.Equal(t, 100, f.userPoints(t, user.ID))
	assert.Equal(t, 3, f.rewardStock(t, reward.ID))

	var count int64
	require.NoError(t, f.conn.Model(&models.Redemption{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateOutOfStock(t *testing.T) {
	f := newRedemptionsFixture(t)
	first := f.mustCreateUser(t, 500)
	second := f.mustCreateUser(t, 500)
	reward := f.mustCreateReward(t, 100, 1)

	_, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: first.ID, RewardID: reward.ID})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), CreateRedemptionInput{UserID: second.ID, RewardID: reward.ID})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	assert.Contains(t, typed.Message(), "out of stock")

	assert.Equal(t, 500, f.userPoints(t, second.ID))
}

func TestClaimIsStatusFlipOnly(t *testing.T) {
	f := newRedemptionsFixture(t)
	user := f.mustCreateUser(t, 300)
	admin := f.mustCreateUser(t, 0)
	reward := f.mustCreateReward(t, 100, 2)

	created, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: user.ID, RewardID: reward.ID})
	require.NoError(t, err)
	pointsAfterCreate := f.userPoints(t, user.ID)

	claimed, err := f.svc.Claim(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  admin.ID,
		ActorRole:    string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusClaimed, claimed.Status)
	require.NotNil(t, claimed.ClaimedAt)
	assert.Equal(t, pointsAfterCreate, f.userPoints(t, user.ID))

	_, err = f.svc.Claim(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  admin.ID,
		ActorRole:    string(enums.UserRoleAdmin),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = f.svc.Cancel(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  user.ID,
		ActorRole:    string(enums.UserRoleResident),
	})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestClaimRejectsCorruptCost(t *testing.T) {
	f := newRedemptionsFixture(t)
	user := f.mustCreateUser(t, 300)
	admin := f.mustCreateUser(t, 0)
	reward := f.mustCreateReward(t, 100, 1)

	created, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: user.ID, RewardID: reward.ID})
	require.NoError(t, err)

	require.NoError(t, f.conn.Model(&models.Redemption{}).
		Where("id = ?", created.ID).
		UpdateColumn("point_cost", 0).Error)

	_, err = f.svc.Claim(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  admin.ID,
		ActorRole:    string(enums.UserRoleAdmin),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	var reloaded models.Redemption
	require.NoError(t, f.conn.First(&reloaded, "id = ?", created.ID).Error)
	assert.Equal(t, enums.RedemptionStatusPending, reloaded.Status)
}

func TestCancelRefundsExactly(t *testing.T) {
	f := newRedemptionsFixture(t)
	user := f.mustCreateUser(t, 200)
	reward := f.mustCreateReward(t, 150, 1)

	created, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: user.ID, RewardID: reward.ID})
	require.NoError(t, err)

	// re-pricing the reward must not change the refund
	newCost := 999
	_, err = f.rewards.Update(context.Background(), reward.ID, rewards.UpdateRewardInput{Cost: &newCost})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  user.ID,
		ActorRole:    string(enums.UserRoleResident),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.RedemptionStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	assert.Equal(t, 200, f.userPoints(t, user.ID))
	assert.Equal(t, 1, f.rewardStock(t, reward.ID))

	var txns []models.PointTransaction
	require.NoError(t, f.conn.Where("user_id = ?", user.ID).Order("created_at ASC").Find(&txns).Error)
	require.Len(t, txns, 2)
	assert.Equal(t, -150, txns[0].Points)
	assert.Equal(t, 150, txns[1].Points)
	assert.Equal(t, enums.TransactionTypePointsRefunded, txns[1].Type)
}

func TestCancelOwnershipRules(t *testing.T) {
	f := newRedemptionsFixture(t)
	owner := f.mustCreateUser(t, 200)
	stranger := f.mustCreateUser(t, 200)
	admin := f.mustCreateUser(t, 0)
	reward := f.mustCreateReward(t, 50, 5)

	created, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: owner.ID, RewardID: reward.ID})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  stranger.ID,
		ActorRole:    string(enums.UserRoleResident),
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeForbidden, typed.Code())

	_, err = f.svc.Cancel(context.Background(), LifecycleInput{
		RedemptionID: created.ID,
		ActorUserID:  admin.ID,
		ActorRole:    string(enums.UserRoleAdmin),
	})
	require.NoError(t, err)
}

func TestListFiltersAndPaginates(t *testing.T) {
	f := newRedemptionsFixture(t)
	user := f.mustCreateUser(t, 1000)
	other := f.mustCreateUser(t, 1000)
	reward := f.mustCreateReward(t, 10, 10)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: user.ID, RewardID: reward.ID})
		require.NoError(t, err)
	}
	otherRedemption, err := f.svc.Create(context.Background(), CreateRedemptionInput{UserID: other.ID, RewardID: reward.ID})
	require.NoError(t, err)
	_, err = f.svc.Cancel(context.Background(), LifecycleInput{
		RedemptionID: otherRedemption.ID,
		ActorUserID:  other.ID,
		ActorRole:    string(enums.UserRoleResident),
	})
	require.NoError(t, err)

	own, _, err := f.svc.ListByUser(context.Background(), user.ID, ListParams{})
	require.NoError(t, err)
	assert.Len(t, own, 3)

	pending, _, err := f.svc.List(context.Background(), ListParams{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	cancelledRows, _, err := f.svc.List(context.Background(), ListParams{Status: "cancelled"})
	require.NoError(t, err)
	require.Len(t, cancelledRows, 1)
	assert.Equal(t, other.ID, cancelledRows[0].UserID)

	page, cursor, err := f.svc.ListByUser(context.Background(), user.ID, ListParams{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotEmpty(t, cursor)

	rest, last, err := f.svc.ListByUser(context.Background(), user.ID, ListParams{Limit: 2, Cursor: cursor})
	require.NoError(t, err)
	assert.Len(t, rest, 1)
	assert.Empty(t, last)
}

type collidingCodeRepo struct {
	Repository
	collisions int
	calls      int
}

func (r *collidingCodeRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.calls++
	if r.calls <= r.collisions {
		return true, nil
	}
	return false, nil
}

func TestUniqueCodeRetriesPastCollisions(t *testing.T) {
	svc := &service{codeLength: 8}
	repo := &collidingCodeRepo{collisions: 2}

	code, err := svc.uniqueCode(context.Background(), repo)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, security.CodeCharset, string(r))
	}
	assert.Equal(t, 3, repo.calls)
}

func TestUniqueCodeGivesUpAfterMaxAttempts(t *testing.T) {
	svc := &service{codeLength: 8}
	repo := &collidingCodeRepo{collisions: codeAttempts}

	_, err := svc.uniqueCode(context.Background(), repo)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
	assert.Equal(t, codeAttempts, repo.calls)
}
