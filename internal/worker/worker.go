package worker

import (
	"context"
	"time"

	"restaurant-service/internal/broker"
	"restaurant-service/internal/models"
	"restaurant-service/internal/redisclient"
	"restaurant-service/internal/service"
	"restaurant-service/internal/util"

	"go.uber.org/zap"
)

// TableStateWorker consumes table occupancy events and applies them to the
// Redis cache the realtime floor plan reads from.
type TableStateWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewTableStateWorker creates a new table state worker
func NewTableStateWorker(consumer *broker.Consumer, cache *redisclient.Client) *TableStateWorker {
	logger := util.GetLogger()

	eventHandler := broker.NewEventHandler()
	eventHandler.OnTableState(func(ctx context.Context, event *models.TableStateChangedEvent) error {
		if err := cache.SetTableState(ctx, event.MesaID, event.Estado); err != nil {
			return err
		}
		util.TableStateEventsConsumed.Inc()
		logger.Debug("Table state cached",
			zap.Int64("mesa_id", event.MesaID),
			zap.String("estado", event.Estado))
		return nil
	})

	return &TableStateWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       logger,
	}
}

// Start starts the worker
func (w *TableStateWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting table state worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *TableStateWorker) Stop() error {
	w.logger.Info("Stopping table state worker")
	return w.consumer.Close()
}

const schedulerLockKey = "bloqueo-scheduler"

// BlockScheduler drives block lifecycle on a ticker: scheduled blocks whose
// window has started become active, active blocks whose window has ended are
// completed and their tables released.
type BlockScheduler struct {
	blocks   *service.BlockService
	cache    *redisclient.Client
	interval time.Duration
	logger   *zap.Logger
}

// NewBlockScheduler creates a new block scheduler
func NewBlockScheduler(blocks *service.BlockService, cache *redisclient.Client, interval time.Duration) *BlockScheduler {
	return &BlockScheduler{
		blocks:   blocks,
		cache:    cache,
		interval: interval,
		logger:   util.GetLogger(),
	}
}

// Start runs the scheduler until the context is cancelled
func (bs *BlockScheduler) Start(ctx context.Context) error {
	bs.logger.Info("Starting block scheduler", zap.Duration("interval", bs.interval))

	ticker := time.NewTicker(bs.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			bs.logger.Info("Block scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			bs.tick(ctx)
		}
	}
}

// tick runs one sweep. The Redis lock keeps replicas from transitioning the
// same block twice.
func (bs *BlockScheduler) tick(ctx context.Context) {
	if bs.cache != nil {
		acquired, err := bs.cache.AcquireLock(ctx, schedulerLockKey, bs.interval)
		if err != nil {
			bs.logger.Error("Scheduler lock failed", zap.Error(err))
			return
		}
		if !acquired {
			return
		}
		defer func() {
			if err := bs.cache.ReleaseLock(ctx, schedulerLockKey); err != nil {
				bs.logger.Error("Scheduler unlock failed", zap.Error(err))
			}
		}()
	}

	now := time.Now().UTC()

	due, err := bs.blocks.DueScheduled(ctx, now)
	if err != nil {
		bs.logger.Error("Failed to list due blocks", zap.Error(err))
	}
	for _, block := range due {
		if _, err := bs.blocks.Activate(ctx, block.ID, nil); err != nil {
			bs.logger.Error("Failed to activate block",
				zap.Int64("bloqueo_id", block.ID), zap.Error(err))
			continue
		}
		util.BlocksAutoTransitionedTotal.WithLabelValues(models.BlockActive).Inc()
		bs.logger.Info("Block activated", zap.Int64("bloqueo_id", block.ID))
	}

	expired, err := bs.blocks.ExpiredActive(ctx, now)
	if err != nil {
		bs.logger.Error("Failed to list expired blocks", zap.Error(err))
	}
	for _, block := range expired {
		if _, err := bs.blocks.Complete(ctx, block.ID, nil); err != nil {
			bs.logger.Error("Failed to complete block",
				zap.Int64("bloqueo_id", block.ID), zap.Error(err))
			continue
		}
		util.BlocksAutoTransitionedTotal.WithLabelValues(models.BlockCompleted).Inc()
		bs.logger.Info("Block completed", zap.Int64("bloqueo_id", block.ID))
	}
}
