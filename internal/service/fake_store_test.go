package service

import (
	"context"
	"sync"
	"time"

	"restaurant-service/internal/models"
)

// fakeStore is an in-memory Store used by the engine tests. It honors the
// same contracts as the Postgres store, including the conditional table
// seize and the (nil, nil) absent-row convention.
type fakeStore struct {
	mu sync.Mutex

	seq          int64
	floors       map[int64]*models.Floor
	zones        map[int64]*models.Zone
	tables       map[int64]*models.Table
	products     map[int64]*models.Product
	orders       map[int64]*models.Order
	items        map[int64]*models.OrderItem
	payments     map[int64]*models.Payment
	reservations map[int64]*models.Reservation
	blocks       map[int64]*models.Block

	// orderCascadeErr makes the transactional order cascades fail without
	// mutating anything, the way a rolled-back transaction would.
	orderCascadeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		floors:       make(map[int64]*models.Floor),
		zones:        make(map[int64]*models.Zone),
		tables:       make(map[int64]*models.Table),
		products:     make(map[int64]*models.Product),
		orders:       make(map[int64]*models.Order),
		items:        make(map[int64]*models.OrderItem),
		payments:     make(map[int64]*models.Payment),
		reservations: make(map[int64]*models.Reservation),
		blocks:       make(map[int64]*models.Block),
	}
}

func (f *fakeStore) nextID() int64 {
	f.seq++
	return f.seq
}

// --- seeding helpers ---

func (f *fakeStore) seedFloor(nombre string) *models.Floor {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Floor{ID: f.nextID(), Nombre: nombre, Activo: true, CreadoEn: time.Now()}
	f.floors[p.ID] = p
	return p
}

func (f *fakeStore) seedZone(pisoID int64, nombre string, capacidad int) *models.Zone {
	f.mu.Lock()
	defer f.mu.Unlock()
	z := &models.Zone{ID: f.nextID(), Nombre: nombre, PisoID: pisoID,
		CapacidadMaxima: capacidad, Activo: true, CreadoEn: time.Now()}
	f.zones[z.ID] = z
	return z
}

func (f *fakeStore) seedTable(zonaID int64, numero string, capacidad int) *models.Table {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := &models.Table{ID: f.nextID(), Numero: numero, ZonaID: zonaID,
		Capacidad: capacidad, Estado: models.TableAvailable, Activo: true,
		CreadoEn: time.Now(), ActualizadoEn: time.Now()}
	f.tables[m.ID] = m
	return m
}

func (f *fakeStore) seedProduct(nombre string, precio float64, estacion string) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.Product{ID: f.nextID(), Nombre: nombre, Precio: precio,
		TipoEstacion: estacion, Disponible: true}
	f.products[p.ID] = p
	return p
}

// --- LayoutStore ---

func (f *fakeStore) ListFloors(ctx context.Context) ([]models.Floor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Floor
	for _, p := range f.floors {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if z, ok := f.zones[id]; ok {
		c := *z
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListZonesByFloor(ctx context.Context, pisoID int64) ([]models.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Zone
	for _, z := range f.zones {
		if z.PisoID == pisoID {
			out = append(out, *z)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTable(ctx context.Context, id int64) (*models.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.tables[id]; ok {
		c := *m
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListTablesByZone(ctx context.Context, zonaID int64) ([]models.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Table
	for _, m := range f.tables {
		if m.ZonaID == zonaID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTableIDsByZone(ctx context.Context, zonaID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, m := range f.tables {
		if m.ZonaID == zonaID {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (f *fakeStore) ListTableIDsByFloor(ctx context.Context, pisoID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []int64
	for _, m := range f.tables {
		if z, ok := f.zones[m.ZonaID]; ok && z.PisoID == pisoID {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

func (f *fakeStore) SeizeTable(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.tables[id]
	if !ok || m.Estado != models.TableAvailable {
		return false, nil
	}
	m.Estado = models.TableOccupied
	m.ActualizadoEn = time.Now()
	return true, nil
}

func (f *fakeStore) UpdateTableState(ctx context.Context, id int64, estado string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.tables[id]; ok {
		m.Estado = estado
		m.ActualizadoEn = time.Now()
	}
	return nil
}

func (f *fakeStore) UpdateTableStates(ctx context.Context, ids []int64, estado string) error {
	for _, id := range ids {
		if err := f.UpdateTableState(ctx, id, estado); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) UpdateTableQR(ctx context.Context, id int64, qr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.tables[id]; ok {
		m.QRCode = qr
	}
	return nil
}

func (f *fakeStore) CountTablesByState(ctx context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, m := range f.tables {
		counts[m.Estado]++
	}
	return counts, nil
}

// --- OrderStore ---

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.products[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) OrderNumberExists(ctx context.Context, numero string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.Numero == numero {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateOrder(ctx context.Context, order *models.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = f.nextID()
	order.CreadoEn = time.Now()
	order.ActualizadoEn = order.CreadoEn
	c := *order
	f.orders[order.ID] = &c
	return nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		c := *o
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListActiveOrders(ctx context.Context) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		for _, estado := range models.ActiveOrderStates {
			if o.Estado == estado {
				out = append(out, *o)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListOrdersByState(ctx context.Context, estado string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.Estado == estado {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeStore) GetActiveOrderByTable(ctx context.Context, mesaID int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.MesaID == nil || *o.MesaID != mesaID {
			continue
		}
		for _, estado := range models.ActiveOrderStates {
			if o.Estado == estado {
				c := *o
				return &c, nil
			}
		}
	}
	return nil, nil
}

func (f *fakeStore) ListRecentOrdersByTable(ctx context.Context, mesaID int64, limit int) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.MesaID != nil && *o.MesaID == mesaID {
			out = append(out, *o)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateOrderState(ctx context.Context, id int64, estado string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		o.Estado = estado
		o.ActualizadoEn = time.Now()
	}
	return nil
}

func (f *fakeStore) UpdateOrderInfo(ctx context.Context, id int64, clienteNombre *string, numComensales *int, total *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[id]; ok {
		if clienteNombre != nil {
			o.ClienteNombre = clienteNombre
		}
		if numComensales != nil {
			o.NumComensales = *numComensales
		}
		if total != nil {
			o.MontoTotal = *total
		}
		o.ActualizadoEn = time.Now()
	}
	return nil
}

func (f *fakeStore) SetOrderStateCascade(ctx context.Context, ordenID int64, estado string, releaseMesaID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderCascadeErr != nil {
		return f.orderCascadeErr
	}
	if o, ok := f.orders[ordenID]; ok {
		o.Estado = estado
		o.ActualizadoEn = time.Now()
	}
	if releaseMesaID != nil {
		if m, ok := f.tables[*releaseMesaID]; ok {
			m.Estado = models.TableAvailable
			m.ActualizadoEn = time.Now()
		}
	}
	return nil
}

func (f *fakeStore) DeleteOrder(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.orders, id)
	for itemID, item := range f.items {
		if item.OrdenID == id {
			delete(f.items, itemID)
		}
	}
	return nil
}

func (f *fakeStore) GetOrderStats(ctx context.Context) (*models.OrderStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.OrderStats{}
	for _, o := range f.orders {
		stats.TotalOrdenes++
		switch o.Estado {
		case models.OrderPaid:
			stats.OrdenesPagadas++
			stats.IngresosHoy += o.MontoTotal
		case models.OrderCancelled:
			stats.OrdenesCanceladas++
		default:
			stats.OrdenesActivas++
		}
	}
	return stats, nil
}

func (f *fakeStore) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	item.ID = f.nextID()
	item.CreadoEn = time.Now()
	item.ActualizadoEn = item.CreadoEn
	c := *item
	f.items[item.ID] = &c
	return nil
}

func (f *fakeStore) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if item, ok := f.items[id]; ok {
		c := *item
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListOrderItems(ctx context.Context, ordenID int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderItem
	for _, item := range f.items {
		if item.OrdenID == ordenID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateOrderItem(ctx context.Context, item *models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; ok {
		c := *item
		c.ActualizadoEn = time.Now()
		f.items[item.ID] = &c
	}
	return nil
}

func (f *fakeStore) CreateOrderItemCascade(ctx context.Context, item *models.OrderItem, total float64, nuevoEstado *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderCascadeErr != nil {
		return f.orderCascadeErr
	}
	item.ID = f.nextID()
	item.CreadoEn = time.Now()
	item.ActualizadoEn = item.CreadoEn
	c := *item
	f.items[item.ID] = &c
	f.applyOrderRow(item.OrdenID, total, nuevoEstado)
	return nil
}

func (f *fakeStore) UpdateOrderItemCascade(ctx context.Context, item *models.OrderItem, total *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderCascadeErr != nil {
		return f.orderCascadeErr
	}
	if _, ok := f.items[item.ID]; ok {
		c := *item
		c.ActualizadoEn = time.Now()
		f.items[item.ID] = &c
	}
	if total != nil {
		f.applyOrderRow(item.OrdenID, *total, nil)
	}
	return nil
}

func (f *fakeStore) DeleteOrderItemCascade(ctx context.Context, itemID, ordenID int64, total float64, nuevoEstado *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.orderCascadeErr != nil {
		return f.orderCascadeErr
	}
	delete(f.items, itemID)
	f.applyOrderRow(ordenID, total, nuevoEstado)
	return nil
}

// applyOrderRow mirrors the order-row rewrite the cascades run. Callers hold
// the mutex.
func (f *fakeStore) applyOrderRow(ordenID int64, total float64, nuevoEstado *string) {
	if o, ok := f.orders[ordenID]; ok {
		o.MontoTotal = total
		if nuevoEstado != nil {
			o.Estado = *nuevoEstado
		}
		o.ActualizadoEn = time.Now()
	}
}

func (f *fakeStore) ListItemsByStation(ctx context.Context, estacion string, estados []string) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderItem
	for _, item := range f.items {
		if item.Estacion != estacion {
			continue
		}
		for _, estado := range estados {
			if item.Estado == estado {
				out = append(out, *item)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListServedItemsSince(ctx context.Context, estacion string, since time.Time) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.OrderItem
	for _, item := range f.items {
		if item.Estacion == estacion && item.Estado == models.ItemServed &&
			item.FechaServido != nil && !item.FechaServido.Before(since) {
			out = append(out, *item)
		}
	}
	return out, nil
}

// --- PaymentStore ---

func (f *fakeStore) SettlePayment(ctx context.Context, payment *models.Payment, mesaID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	payment.ID = f.nextID()
	c := *payment
	f.payments[payment.ID] = &c
	if o, ok := f.orders[payment.OrdenID]; ok {
		o.Estado = models.OrderPaid
		o.ActualizadoEn = time.Now()
	}
	if mesaID != nil {
		if m, ok := f.tables[*mesaID]; ok {
			m.Estado = models.TableAvailable
		}
	}
	return nil
}

func (f *fakeStore) VoidPayment(ctx context.Context, paymentID, ordenID int64, mesaID *int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[paymentID]; ok {
		p.Estado = models.PaymentVoided
	}
	if o, ok := f.orders[ordenID]; ok {
		o.Estado = models.OrderServed
		o.ActualizadoEn = time.Now()
	}
	if mesaID != nil {
		if m, ok := f.tables[*mesaID]; ok {
			m.Estado = models.TableOccupied
		}
	}
	return nil
}

func (f *fakeStore) GetPayment(ctx context.Context, id int64) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.payments[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) GetPaymentStats(ctx context.Context) (*models.PaymentStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.PaymentStats{IngresosPorMetodo: make(map[string]float64)}
	for _, p := range f.payments {
		stats.TotalPagos++
		switch p.Estado {
		case models.PaymentPaid:
			stats.PagosActivos++
			stats.IngresosHoy += p.Monto
			stats.IngresosPorMetodo[p.Metodo] += p.Monto
		case models.PaymentVoided:
			stats.PagosAnulados++
		}
	}
	return stats, nil
}

// --- ReservationStore ---

func (f *fakeStore) CreateReservation(ctx context.Context, r *models.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = f.nextID()
	r.CreadoEn = time.Now()
	r.ActualizadoEn = r.CreadoEn
	c := *r
	f.reservations[r.ID] = &c
	return nil
}

func (f *fakeStore) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reservations[id]; ok {
		c := *r
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.reservations {
		if filter.Estado != "" && r.Estado != filter.Estado {
			continue
		}
		if filter.ZonaID != nil && r.ZonaID != *filter.ZonaID {
			continue
		}
		if filter.MesaID != nil && (r.MesaID == nil || *r.MesaID != *filter.MesaID) {
			continue
		}
		if filter.FechaDesde != nil && r.FechaReserva.Before(*filter.FechaDesde) {
			continue
		}
		if filter.FechaHasta != nil && r.FechaReserva.After(*filter.FechaHasta) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func (f *fakeStore) ListReservationsOnDate(ctx context.Context, fecha time.Time, estados []string) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.reservations {
		if !sameDate(r.FechaReserva, fecha) {
			continue
		}
		for _, estado := range estados {
			if r.Estado == estado {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListReservationsBetweenDates(ctx context.Context, desde, hasta time.Time, estados []string, mesaID, zonaID *int64) ([]models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reservation
	for _, r := range f.reservations {
		if r.FechaReserva.Before(desde) || r.FechaReserva.After(hasta) {
			continue
		}
		if mesaID != nil && (r.MesaID == nil || *r.MesaID != *mesaID) {
			continue
		}
		if zonaID != nil && r.ZonaID != *zonaID {
			continue
		}
		for _, estado := range estados {
			if r.Estado == estado {
				out = append(out, *r)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetConfirmedReservationForTableOnDate(ctx context.Context, mesaID int64, fecha time.Time) (*models.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.MesaID != nil && *r.MesaID == mesaID &&
			r.Estado == models.ReservationConfirmed && sameDate(r.FechaReserva, fecha) {
			c := *r
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateReservationState(ctx context.Context, id int64, estado string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reservations[id]; ok {
		r.Estado = estado
		r.ActualizadoEn = time.Now()
	}
	return nil
}

func (f *fakeStore) UpdateReservationNotas(ctx context.Context, id int64, notas string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reservations[id]; ok {
		r.Notas = &notas
	}
	return nil
}

func (f *fakeStore) DeleteReservation(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.reservations, id)
	return nil
}

// --- BlockStore ---

func (f *fakeStore) CreateBlockCascade(ctx context.Context, b *models.Block, tableIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b.ID = f.nextID()
	b.CreadoEn = time.Now()
	b.ActualizadoEn = b.CreadoEn
	c := *b
	f.blocks[b.ID] = &c
	for _, id := range tableIDs {
		if m, ok := f.tables[id]; ok {
			m.Estado = models.TableOutOfService
		}
	}
	return nil
}

func (f *fakeStore) GetBlock(ctx context.Context, id int64) (*models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[id]; ok {
		c := *b
		return &c, nil
	}
	return nil, nil
}

func (f *fakeStore) ListBlocks(ctx context.Context, filter models.BlockFilter) ([]models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Block
	for _, b := range f.blocks {
		if filter.Estado != "" && b.Estado != filter.Estado {
			continue
		}
		if filter.Tipo != "" && b.Tipo != filter.Tipo {
			continue
		}
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeStore) UpdateBlockState(ctx context.Context, id int64, estado string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[id]; ok {
		b.Estado = estado
		b.ActualizadoEn = time.Now()
	}
	return nil
}

func (f *fakeStore) SetBlockStateCascade(ctx context.Context, id int64, estado string, releaseTableIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.blocks[id]; ok {
		b.Estado = estado
		b.ActualizadoEn = time.Now()
	}
	for _, tid := range releaseTableIDs {
		if m, ok := f.tables[tid]; ok {
			m.Estado = models.TableAvailable
		}
	}
	return nil
}

func (f *fakeStore) DeleteBlockCascade(ctx context.Context, id int64, releaseTableIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocks, id)
	for _, tid := range releaseTableIDs {
		if m, ok := f.tables[tid]; ok {
			m.Estado = models.TableAvailable
		}
	}
	return nil
}

func (f *fakeStore) FindZoneBlockOverlapping(ctx context.Context, zonaID int64, desde, hasta time.Time, estados []string) (*models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	zone := f.zones[zonaID]
	for _, b := range f.blocks {
		match := false
		for _, estado := range estados {
			if b.Estado == estado {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		inScope := (b.ZonaID != nil && *b.ZonaID == zonaID) ||
			(b.PisoID != nil && zone != nil && *b.PisoID == zone.PisoID)
		if !inScope {
			continue
		}
		if b.FechaInicio.Before(hasta) && desde.Before(b.FechaFin) {
			c := *b
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListDueScheduledBlocks(ctx context.Context, now time.Time) ([]models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Block
	for _, b := range f.blocks {
		if b.Estado == models.BlockScheduled && !b.FechaInicio.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListExpiredActiveBlocks(ctx context.Context, now time.Time) ([]models.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Block
	for _, b := range f.blocks {
		if b.Estado == models.BlockActive && !b.FechaFin.After(now) {
			out = append(out, *b)
		}
	}
	return out, nil
}

var _ Store = (*fakeStore)(nil)
