package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"restaurant-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrderService(f *fakeStore) *OrderService {
	return NewOrderService(f, NewAuditor(nil), 8)
}

func seedDiningRoom(f *fakeStore) (*models.Zone, *models.Table) {
	piso := f.seedFloor("Primer Piso")
	zona := f.seedZone(piso.ID, "Salón Principal", 40)
	mesa := f.seedTable(zona.ID, "M-01", 4)
	return zona, mesa
}

func TestCreateOrderOccupiesTable(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	assert.Equal(t, models.OrderPending, order.Estado)
	assert.Len(t, order.Numero, 8)
	assert.Equal(t, 1, order.NumComensales)

	got, err := f.GetTable(ctx, mesa.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, got.Estado)
}

func TestCreateOrderRejectsOccupiedTable(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 8})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))
}

func TestConcurrentOrdersOnSameTable(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)
	ctx := context.Background()

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: int64(i + 1)})
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.True(t, IsKind(err, KindValidation))
		}
	}
	assert.Equal(t, 1, won, "exactly one request should win the table")
}

func TestCreateOrderCapacityCheck(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)

	_, err := svc.CreateOrder(context.Background(),
		&CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7, NumComensales: 5})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindValidation))

	// The failed request must not leave the table occupied.
	got, _ := f.GetTable(context.Background(), mesa.ID)
	assert.Equal(t, models.TableAvailable, got.Estado)
}

func TestTakeawayOrderNeedsNoTable(t *testing.T) {
	f := newFakeStore()
	svc := newTestOrderService(f)

	order, err := svc.CreateOrder(context.Background(),
		&CreateOrderRequest{MozoID: 7, Tipo: models.OrderTypeTakeaway})
	require.NoError(t, err)
	assert.Nil(t, order.MesaID)
}

func TestAddItemConfirmsOrderAndTotals(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	ceviche := f.seedProduct("Ceviche", 7.50, models.StationCold)
	chicha := f.seedProduct("Chicha Morada", 5.00, models.StationDrinks)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	item, err := svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: ceviche.ID, Cantidad: 2})
	require.NoError(t, err)
	assert.Equal(t, models.ItemQueued, item.Estado)
	assert.Equal(t, models.StationCold, item.Estacion)
	assert.Equal(t, 7.50, item.PrecioUnitario)

	_, err = svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: chicha.ID, Cantidad: 1})
	require.NoError(t, err)

	got, _, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, got.Estado)
	assert.Equal(t, 20.00, got.MontoTotal)
}

func TestTotalMultipliedPerDiner(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	menu := f.seedProduct("Menú del Día", 10.00, models.StationHot)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx,
		&CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7, NumComensales: 3})
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: menu.ID, Cantidad: 1})
	require.NoError(t, err)

	got, _, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.00, got.MontoTotal)
}

func TestEditItemAndDeleteRecomputeTotal(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	ceviche := f.seedProduct("Ceviche", 7.50, models.StationCold)
	chicha := f.seedProduct("Chicha Morada", 5.00, models.StationDrinks)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	item1, err := svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: ceviche.ID, Cantidad: 1})
	require.NoError(t, err)
	item2, err := svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: chicha.ID, Cantidad: 2})
	require.NoError(t, err)

	tres := 3
	_, err = svc.EditItem(ctx, item1.ID, &EditItemRequest{Cantidad: &tres})
	require.NoError(t, err)

	got, _, _ := svc.GetOrder(ctx, order.ID)
	assert.Equal(t, 3*7.50+2*5.00, got.MontoTotal)

	require.NoError(t, svc.DeleteItem(ctx, item2.ID))
	got, _, _ = svc.GetOrder(ctx, order.ID)
	assert.Equal(t, 3*7.50, got.MontoTotal)
}

func TestDeleteLastItemRevertsOrderToPending(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	ceviche := f.seedProduct("Ceviche", 7.50, models.StationCold)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: ceviche.ID, Cantidad: 1})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteItem(ctx, item.ID))

	got, _, _ := svc.GetOrder(ctx, order.ID)
	assert.Equal(t, models.OrderPending, got.Estado)
	assert.Equal(t, 0.0, got.MontoTotal)
}

func TestOrderTransitionGuard(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	ceviche := f.seedProduct("Ceviche", 7.50, models.StationCold)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: ceviche.ID, Cantidad: 1})
	require.NoError(t, err)

	// confirmada -> servida skips preparando and lista.
	_, err = svc.TransitionOrder(ctx, order.ID, models.OrderServed)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBusinessLogic))

	// The legal path works step by step.
	for _, estado := range []string{models.OrderPreparing, models.OrderReady, models.OrderServed} {
		_, err = svc.TransitionOrder(ctx, order.ID, estado)
		require.NoError(t, err)
	}

	// servida -> preparando is a backward move.
	_, err = svc.TransitionOrder(ctx, order.ID, models.OrderPreparing)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBusinessLogic))
}

func TestItemsReadyPromotesOrder(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	ceviche := f.seedProduct("Ceviche", 7.50, models.StationCold)
	lomo := f.seedProduct("Lomo Saltado", 12.00, models.StationHot)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)
	item1, err := svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: ceviche.ID, Cantidad: 1})
	require.NoError(t, err)
	item2, err := svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: lomo.ID, Cantidad: 1})
	require.NoError(t, err)

	_, err = svc.UpdateItemState(ctx, item1.ID, models.ItemReady)
	require.NoError(t, err)

	got, _, _ := svc.GetOrder(ctx, order.ID)
	assert.Equal(t, models.OrderConfirmed, got.Estado, "one pending item keeps the order where it is")

	_, err = svc.UpdateItemState(ctx, item2.ID, models.ItemReady)
	require.NoError(t, err)

	got, _, _ = svc.GetOrder(ctx, order.ID)
	assert.Equal(t, models.OrderReady, got.Estado)

	// Serving both items promotes the order to servida.
	_, err = svc.UpdateItemState(ctx, item1.ID, models.ItemServed)
	require.NoError(t, err)
	_, err = svc.UpdateItemState(ctx, item2.ID, models.ItemServed)
	require.NoError(t, err)

	got, _, _ = svc.GetOrder(ctx, order.ID)
	assert.Equal(t, models.OrderServed, got.Estado)
}

func TestCancelOrderReleasesTable(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)

	got, _ := f.GetTable(ctx, mesa.ID)
	assert.Equal(t, models.TableAvailable, got.Estado)

	// The freed table can be seated again immediately.
	_, err = svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 9})
	require.NoError(t, err)
}

func TestAddItemFailureLeavesOrderUntouched(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	lomo := f.seedProduct("Lomo Saltado", 12.00, models.StationHot)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	f.orderCascadeErr = errors.New("deadlock detected")
	_, err = svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: lomo.ID, Cantidad: 2})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInternal))

	// The rolled-back write leaves no item, no total and no promotion.
	items, err := f.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
	got, err := f.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, got.Estado)
	assert.Zero(t, got.MontoTotal)

	f.orderCascadeErr = nil
	_, err = svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: lomo.ID, Cantidad: 2})
	require.NoError(t, err)
	got, err = f.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderConfirmed, got.Estado)
	assert.Equal(t, 24.00, got.MontoTotal)
}

func TestCancelFailureKeepsTableOccupied(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)

	f.orderCascadeErr = errors.New("connection reset")
	_, err = svc.CancelOrder(ctx, order.ID)
	require.Error(t, err)

	// Order and table stay consistent with each other: neither side of the
	// failed cancellation may land alone.
	gotOrder, _ := f.GetOrder(ctx, order.ID)
	assert.Equal(t, models.OrderPending, gotOrder.Estado)
	gotMesa, _ := f.GetTable(ctx, mesa.ID)
	assert.Equal(t, models.TableOccupied, gotMesa.Estado)

	f.orderCascadeErr = nil
	_, err = svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	gotOrder, _ = f.GetOrder(ctx, order.ID)
	assert.Equal(t, models.OrderCancelled, gotOrder.Estado)
	gotMesa, _ = f.GetTable(ctx, mesa.ID)
	assert.Equal(t, models.TableAvailable, gotMesa.Estado)
}

func TestCancelPaidOrderRejected(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)
	require.NoError(t, f.UpdateOrderState(ctx, order.ID, models.OrderPaid))

	_, err = svc.CancelOrder(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBusinessLogic))
}

func TestDeleteOrderRules(t *testing.T) {
	f := newFakeStore()
	_, mesa := seedDiningRoom(f)
	ceviche := f.seedProduct("Ceviche", 7.50, models.StationCold)
	svc := newTestOrderService(f)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, &CreateOrderRequest{MesaID: &mesa.ID, MozoID: 7})
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, order.ID, &AddItemRequest{ProductoID: ceviche.ID, Cantidad: 1})
	require.NoError(t, err)

	// confirmada orders cannot be deleted.
	err = svc.DeleteOrder(ctx, order.ID)
	require.Error(t, err)
	assert.True(t, IsKind(err, KindBusinessLogic))

	_, err = svc.CancelOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	_, _, err = svc.GetOrder(ctx, order.ID)
	assert.True(t, IsKind(err, KindNotFound))
}

func TestComputeOrderTotal(t *testing.T) {
	items := []models.OrderItem{
		{Cantidad: 2, PrecioUnitario: 7.50},
		{Cantidad: 1, PrecioUnitario: 5.00},
	}

	assert.Equal(t, 20.00, computeOrderTotal(items, 1))
	assert.Equal(t, 40.00, computeOrderTotal(items, 2))
	assert.Equal(t, 0.0, computeOrderTotal(nil, 4))
}
