package service

import (
	"context"
	"fmt"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// ReservationService manages bookings and the availability check that guards
// them against blocks and other reservations.
type ReservationService struct {
	store           Store
	auditor         *Auditor
	logger          *zap.Logger
	defaultDuration time.Duration
}

// NewReservationService creates a new reservation service. defaultDuration is
// applied when a request does not carry its own estimated duration.
func NewReservationService(store Store, auditor *Auditor, defaultDuration time.Duration) *ReservationService {
	return &ReservationService{
		store:           store,
		auditor:         auditor,
		logger:          util.GetLogger(),
		defaultDuration: defaultDuration,
	}
}

// CreateReservationRequest represents a new booking.
type CreateReservationRequest struct {
	ClienteNombre    string  `json:"cliente_nombre" binding:"required"`
	ClienteTelefono  string  `json:"cliente_telefono" binding:"required"`
	ClienteEmail     *string `json:"cliente_email"`
	FechaReserva     string  `json:"fecha_reserva" binding:"required"`
	HoraReserva      string  `json:"hora_reserva" binding:"required"`
	DuracionEstimada int     `json:"duracion_estimada"`
	NumeroPersonas   int     `json:"numero_personas" binding:"required"`
	TipoReserva      string  `json:"tipo_reserva"`
	Notas            *string `json:"notas"`
	ZonaID           int64   `json:"zona_id" binding:"required"`
	MesaID           *int64  `json:"mesa_id"`
	UsuarioID        *int64  `json:"usuario_id"`
}

// Availability is the outcome of an availability probe.
type Availability struct {
	Disponible bool   `json:"disponible"`
	Motivo     string `json:"motivo,omitempty"`
}

// reservationWindow builds the concrete [start, end) window of a reservation
// from its date, "HH:MM" time and duration in minutes.
func reservationWindow(fecha time.Time, hora string, duracionMin int) (time.Time, time.Time, error) {
	t, err := time.Parse("15:04", hora)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("hora inválida %q: %w", hora, err)
	}
	start := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), t.Hour(), t.Minute(), 0, 0, fecha.Location())
	return start, start.Add(time.Duration(duracionMin) * time.Minute), nil
}

// overlaps reports whether two half-open intervals intersect. Back-to-back
// windows (one ending exactly when the other starts) do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Create validates a booking, probes availability and inserts it as pendiente.
func (s *ReservationService) Create(ctx context.Context, req *CreateReservationRequest) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Create")
	defer span.End()

	if req.NumeroPersonas < 1 {
		return nil, ErrValidation("numero_personas", "el número de personas debe ser al menos 1")
	}
	if req.TipoReserva == "" {
		req.TipoReserva = models.ReservationNormal
	}
	if req.DuracionEstimada <= 0 {
		req.DuracionEstimada = int(s.defaultDuration.Minutes())
	}

	fecha, err := time.Parse("2006-01-02", req.FechaReserva)
	if err != nil {
		return nil, ErrValidation("fecha_reserva", "fecha inválida, se espera YYYY-MM-DD")
	}
	start, _, err := reservationWindow(fecha, req.HoraReserva, req.DuracionEstimada)
	if err != nil {
		return nil, ErrValidation("hora_reserva", "hora inválida, se espera HH:MM")
	}
	if start.Before(time.Now()) {
		return nil, ErrValidation("fecha_reserva", "no se pueden crear reservas en el pasado")
	}

	zona, err := s.store.GetZone(ctx, req.ZonaID)
	if err != nil {
		return nil, ErrInternal("consultar zona", err)
	}
	if zona == nil || !zona.Activo {
		return nil, ErrValidation("zona_id", "zona no encontrada o inactiva")
	}
	if zona.CapacidadMaxima > 0 && req.NumeroPersonas > zona.CapacidadMaxima {
		return nil, ErrBusiness("la zona %s admite hasta %d personas", zona.Nombre, zona.CapacidadMaxima)
	}

	if req.MesaID != nil {
		mesa, err := s.store.GetTable(ctx, *req.MesaID)
		if err != nil {
			return nil, ErrInternal("consultar mesa", err)
		}
		if mesa == nil {
			return nil, ErrValidation("mesa_id", "mesa no encontrada")
		}
		if mesa.ZonaID != req.ZonaID {
			return nil, ErrValidation("mesa_id", "la mesa no pertenece a la zona indicada")
		}
		if req.NumeroPersonas > mesa.Capacidad {
			return nil, ErrBusiness("la mesa %s admite hasta %d personas", mesa.Numero, mesa.Capacidad)
		}
	}

	avail, err := s.availability(ctx, req.ZonaID, req.MesaID, fecha, req.HoraReserva, req.DuracionEstimada, 0)
	if err != nil {
		return nil, err
	}
	if !avail.Disponible {
		util.ReservationConflictsTotal.Inc()
		return nil, ErrBusiness("%s", avail.Motivo)
	}

	r := &models.Reservation{
		ClienteNombre:    req.ClienteNombre,
		ClienteTelefono:  req.ClienteTelefono,
		ClienteEmail:     req.ClienteEmail,
		FechaReserva:     fecha,
		HoraReserva:      req.HoraReserva,
		DuracionEstimada: req.DuracionEstimada,
		NumeroPersonas:   req.NumeroPersonas,
		Estado:           models.ReservationPending,
		TipoReserva:      req.TipoReserva,
		Notas:            req.Notas,
		ZonaID:           req.ZonaID,
		MesaID:           req.MesaID,
		UsuarioID:        req.UsuarioID,
	}
	if err := s.store.CreateReservation(ctx, r); err != nil {
		return nil, ErrInternal("crear reserva", err)
	}

	util.ReservationsCreatedTotal.Inc()
	s.logger.Info("Reservation created",
		zap.Int64("reserva_id", r.ID),
		zap.String("cliente", r.ClienteNombre),
		zap.String("fecha", req.FechaReserva),
		zap.String("hora", req.HoraReserva))

	s.auditor.Record(ctx, req.UsuarioID, "reserva", "create", r.ID, nil,
		map[string]interface{}{"cliente": r.ClienteNombre, "fecha": req.FechaReserva, "hora": req.HoraReserva})

	return r, nil
}

// CheckAvailability probes whether a zone (or a specific table in it) is free
// for the requested window.
func (s *ReservationService) CheckAvailability(ctx context.Context, zonaID int64, mesaID *int64, fechaStr, hora string, duracionMin int) (*Availability, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.CheckAvailability")
	defer span.End()

	if duracionMin <= 0 {
		duracionMin = int(s.defaultDuration.Minutes())
	}
	fecha, err := time.Parse("2006-01-02", fechaStr)
	if err != nil {
		return nil, ErrValidation("fecha", "fecha inválida, se espera YYYY-MM-DD")
	}
	if _, _, err := reservationWindow(fecha, hora, duracionMin); err != nil {
		return nil, ErrValidation("hora", "hora inválida, se espera HH:MM")
	}
	return s.availability(ctx, zonaID, mesaID, fecha, hora, duracionMin, 0)
}

// availability runs the three-stage probe: zone blocks over the requested
// datetime window, overlapping reservations on the same date, then the table's
// own state. excludeReservaID skips a reservation being edited.
func (s *ReservationService) availability(ctx context.Context, zonaID int64, mesaID *int64, fecha time.Time, hora string, duracionMin int, excludeReservaID int64) (*Availability, error) {
	start, end, err := reservationWindow(fecha, hora, duracionMin)
	if err != nil {
		return nil, ErrValidation("hora", "hora inválida, se espera HH:MM")
	}

	block, err := s.store.FindZoneBlockOverlapping(ctx, zonaID, start, end,
		[]string{models.BlockScheduled, models.BlockActive})
	if err != nil {
		return nil, ErrInternal("consultar bloqueos", err)
	}
	if block != nil {
		return &Availability{Disponible: false,
			Motivo: fmt.Sprintf("la zona está bloqueada: %s", block.Titulo)}, nil
	}

	sameDay, err := s.store.ListReservationsOnDate(ctx, fecha,
		[]string{models.ReservationPending, models.ReservationConfirmed})
	if err != nil {
		return nil, ErrInternal("consultar reservas", err)
	}
	for _, other := range sameDay {
		if other.ID == excludeReservaID {
			continue
		}
		sameTable := mesaID != nil && other.MesaID != nil && *other.MesaID == *mesaID
		sameZone := other.ZonaID == zonaID && (mesaID == nil || other.MesaID == nil)
		if !sameTable && !sameZone {
			continue
		}
		oStart, oEnd, err := reservationWindow(other.FechaReserva, other.HoraReserva, other.DuracionEstimada)
		if err != nil {
			continue
		}
		if overlaps(start, end, oStart, oEnd) {
			return &Availability{Disponible: false,
				Motivo: fmt.Sprintf("existe una reserva de %s a las %s", other.ClienteNombre, other.HoraReserva)}, nil
		}
	}

	if mesaID != nil {
		mesa, err := s.store.GetTable(ctx, *mesaID)
		if err != nil {
			return nil, ErrInternal("consultar mesa", err)
		}
		if mesa == nil {
			return &Availability{Disponible: false, Motivo: "mesa no encontrada"}, nil
		}
		if mesa.Estado != models.TableAvailable && mesa.Estado != models.TableReserved {
			return &Availability{Disponible: false,
				Motivo: fmt.Sprintf("la mesa está en estado %s", mesa.Estado)}, nil
		}
	}

	return &Availability{Disponible: true}, nil
}

// Confirm moves a pending reservation to confirmada. When the booking pins a
// table and is for today, the table is marked reservada on the floor plan.
func (s *ReservationService) Confirm(ctx context.Context, reservaID int64, usuarioID *int64) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.Confirm")
	defer span.End()

	r, err := s.getReservation(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if r.Estado != models.ReservationPending {
		return nil, ErrBusiness("solo se pueden confirmar reservas pendientes")
	}

	if err := s.store.UpdateReservationState(ctx, reservaID, models.ReservationConfirmed); err != nil {
		return nil, ErrInternal("confirmar reserva", err)
	}
	r.Estado = models.ReservationConfirmed

	if r.MesaID != nil && isToday(r.FechaReserva) {
		if err := s.store.UpdateTableState(ctx, *r.MesaID, models.TableReserved); err != nil {
			s.logger.Error("Failed to mark table reserved",
				zap.Int64("mesa_id", *r.MesaID), zap.Error(err))
		} else {
			s.auditor.TableState(ctx, *r.MesaID, models.TableReserved)
		}
	}

	s.auditor.Record(ctx, usuarioID, "reserva", "confirmar", r.ID,
		map[string]interface{}{"estado": models.ReservationPending},
		map[string]interface{}{"estado": models.ReservationConfirmed})
	return r, nil
}

// Cancel voids a reservation and frees its table if it was being held.
func (s *ReservationService) Cancel(ctx context.Context, reservaID int64, usuarioID *int64) (*models.Reservation, error) {
	return s.close(ctx, reservaID, models.ReservationCancelled, "cancelar", usuarioID)
}

// Complete closes a reservation after the visit and frees its table.
func (s *ReservationService) Complete(ctx context.Context, reservaID int64, usuarioID *int64) (*models.Reservation, error) {
	return s.close(ctx, reservaID, models.ReservationCompleted, "completar", usuarioID)
}

func (s *ReservationService) close(ctx context.Context, reservaID int64, estado, accion string, usuarioID *int64) (*models.Reservation, error) {
	ctx, span := util.StartSpan(ctx, "ReservationService.close")
	defer span.End()

	r, err := s.getReservation(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if r.Estado == models.ReservationCancelled || r.Estado == models.ReservationCompleted {
		return nil, ErrBusiness("la reserva ya está en estado %s", r.Estado)
	}
	previo := r.Estado

	if err := s.store.UpdateReservationState(ctx, reservaID, estado); err != nil {
		return nil, ErrInternal(accion+" reserva", err)
	}
	r.Estado = estado

	// Release the held table only if this reservation is what holds it.
	if r.MesaID != nil && previo == models.ReservationConfirmed {
		mesa, err := s.store.GetTable(ctx, *r.MesaID)
		if err == nil && mesa != nil && mesa.Estado == models.TableReserved {
			if err := s.store.UpdateTableState(ctx, *r.MesaID, models.TableAvailable); err != nil {
				s.logger.Error("Failed to release reserved table",
					zap.Int64("mesa_id", *r.MesaID), zap.Error(err))
			} else {
				s.auditor.TableState(ctx, *r.MesaID, models.TableAvailable)
			}
		}
	}

	s.auditor.Record(ctx, usuarioID, "reserva", accion, r.ID,
		map[string]interface{}{"estado": previo},
		map[string]interface{}{"estado": estado})
	return r, nil
}

// UpdateNotes replaces the free-text notes on a reservation.
func (s *ReservationService) UpdateNotes(ctx context.Context, reservaID int64, notas string, usuarioID *int64) (*models.Reservation, error) {
	r, err := s.getReservation(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateReservationNotas(ctx, reservaID, notas); err != nil {
		return nil, ErrInternal("actualizar notas", err)
	}
	r.Notas = &notas

	s.auditor.Record(ctx, usuarioID, "reserva", "update", r.ID, nil,
		map[string]interface{}{"notas": notas})
	return r, nil
}

// Delete removes a reservation outright, freeing the table it held.
func (s *ReservationService) Delete(ctx context.Context, reservaID int64, usuarioID *int64) error {
	ctx, span := util.StartSpan(ctx, "ReservationService.Delete")
	defer span.End()

	r, err := s.getReservation(ctx, reservaID)
	if err != nil {
		return err
	}

	if r.MesaID != nil && r.Estado == models.ReservationConfirmed {
		mesa, err := s.store.GetTable(ctx, *r.MesaID)
		if err == nil && mesa != nil && mesa.Estado == models.TableReserved {
			if err := s.store.UpdateTableState(ctx, *r.MesaID, models.TableAvailable); err == nil {
				s.auditor.TableState(ctx, *r.MesaID, models.TableAvailable)
			}
		}
	}

	if err := s.store.DeleteReservation(ctx, reservaID); err != nil {
		return ErrInternal("eliminar reserva", err)
	}

	s.auditor.Record(ctx, usuarioID, "reserva", "delete", reservaID, nil, nil)
	return nil
}

// Get returns a reservation by ID.
func (s *ReservationService) Get(ctx context.Context, reservaID int64) (*models.Reservation, error) {
	return s.getReservation(ctx, reservaID)
}

// List returns reservations matching the filter.
func (s *ReservationService) List(ctx context.Context, f models.ReservationFilter) ([]models.Reservation, error) {
	rs, err := s.store.ListReservations(ctx, f)
	if err != nil {
		return nil, ErrInternal("listar reservas", err)
	}
	return rs, nil
}

// Today returns the reservations scheduled for the current date.
func (s *ReservationService) Today(ctx context.Context) ([]models.Reservation, error) {
	rs, err := s.store.ListReservationsOnDate(ctx, truncateToDate(time.Now()),
		[]string{models.ReservationPending, models.ReservationConfirmed})
	if err != nil {
		return nil, ErrInternal("listar reservas de hoy", err)
	}
	return rs, nil
}

func (s *ReservationService) getReservation(ctx context.Context, reservaID int64) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, reservaID)
	if err != nil {
		return nil, ErrInternal("consultar reserva", err)
	}
	if r == nil {
		return nil, ErrNotFound("reserva", reservaID)
	}
	return r, nil
}

func isToday(fecha time.Time) bool {
	now := time.Now()
	return fecha.Year() == now.Year() && fecha.Month() == now.Month() && fecha.Day() == now.Day()
}
