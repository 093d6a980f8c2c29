package service

import (
	"context"
	"errors"
	"testing"

	"webhook-dispatcher/internal/core/domain"
	"webhook-dispatcher/internal/core/ports/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func sub(endpointID uuid.UUID, pattern string) domain.WebhookSubscription {
	return domain.WebhookSubscription{ID: uuid.New(), EndpointID: endpointID, EventPattern: pattern, IsActive: true}
}

func TestSelectSubscriptions_OrderAndDedupe(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	event := newTestEvent("order.created")

	candidates := []domain.WebhookSubscription{
		sub(a, "*"),
		sub(b, "order.*"),
		sub(a, "order.created"),
		sub(c, "*"),
		sub(b, "invoice.*"),
	}
	got := SelectSubscriptions(candidates, event)

	require.Len(t, got, 3)
	assert.Equal(t, "order.created", got[0].EventPattern)
	assert.Equal(t, a, got[0].EndpointID)
	assert.Equal(t, "order.*", got[1].EventPattern)
	assert.Equal(t, c, got[2].EndpointID)
}

func TestSelectSubscriptions_ConditionsAndContext(t *testing.T) {
	tenant := uuid.New()
	event := newTestEvent("order.created")
	event.ContextID = &tenant

	bigOrders := sub(uuid.New(), "order.created")
	bigOrders.Conditions = []domain.FieldCondition{{Field: "total", Operator: domain.OpGreaterThan, Value: 1000}}

	otherTenant := sub(uuid.New(), "order.*")
	otherTenant.ContextFilters = []uuid.UUID{uuid.New()}

	sameTenant := sub(uuid.New(), "*")
	sameTenant.ContextFilters = []uuid.UUID{tenant}

	inactive := sub(uuid.New(), "order.created")
	inactive.IsActive = false

	got := SelectSubscriptions([]domain.WebhookSubscription{bigOrders, otherTenant, sameTenant, inactive}, event)
	require.Len(t, got, 1)
	assert.Equal(t, sameTenant.ID, got[0].ID)
}

func TestSubscriptionResolver_CacheHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSubscriptionRepository(ctrl)
	cache := mocks.NewMockSubscriptionCache(ctrl)
	r := NewSubscriptionResolver(repo, cache, newTestLogger())

	event := newTestEvent("order.created")
	cached := []domain.WebhookSubscription{sub(uuid.New(), "order.created")}
	cache.EXPECT().Get(gomock.Any(), "order.created", event.ContextID).Return(cached, true, nil)

	got, err := r.Resolve(context.Background(), event)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSubscriptionResolver_CacheMissFillsCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSubscriptionRepository(ctrl)
	cache := mocks.NewMockSubscriptionCache(ctrl)
	r := NewSubscriptionResolver(repo, cache, newTestLogger())

	event := newTestEvent("order.created")
	stored := []domain.WebhookSubscription{sub(uuid.New(), "order.*")}

	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), "order.created", gomock.Nil()).Return(nil, false, nil),
		repo.EXPECT().GetMatching(gomock.Any(), "order.created", gomock.Nil()).Return(stored, nil),
		cache.EXPECT().Set(gomock.Any(), "order.created", gomock.Nil(), stored).Return(nil),
	)

	got, err := r.Resolve(context.Background(), event)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSubscriptionResolver_CacheFailureFallsBackToStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSubscriptionRepository(ctrl)
	cache := mocks.NewMockSubscriptionCache(ctrl)
	r := NewSubscriptionResolver(repo, cache, newTestLogger())

	event := newTestEvent("order.created")
	cache.EXPECT().Get(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, false, errors.New("redis: connection refused"))
	repo.EXPECT().GetMatching(gomock.Any(), "order.created", gomock.Any()).Return([]domain.WebhookSubscription{sub(uuid.New(), "*")}, nil)
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis: connection refused"))

	got, err := r.Resolve(context.Background(), event)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSubscriptionResolver_StoreErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockSubscriptionRepository(ctrl)
	r := NewSubscriptionResolver(repo, nil, newTestLogger())

	repo.EXPECT().GetMatching(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

	_, err := r.Resolve(context.Background(), newTestEvent("order.created"))
	assert.Error(t, err)

	n, err := r.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubscriptionResolver_Invalidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	cache := mocks.NewMockSubscriptionCache(ctrl)
	r := NewSubscriptionResolver(mocks.NewMockSubscriptionRepository(ctrl), cache, newTestLogger())

	cache.EXPECT().Invalidate(gomock.Any()).Return(int64(7), nil)

	n, err := r.Invalidate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
