package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// BoostExpirer снимает истекшие бусты и возвращает число измененных объявлений.
type BoostExpirer interface {
	ExpireBoosts(ctx context.Context) (int, error)
}

// BoostSweeper периодически снимает истекшие бусты. Запуски не перекрываются.
type BoostSweeper struct {
	Service BoostExpirer
	Logger  *log.Logger
	Timeout time.Duration

	cron *cron.Cron
}

// NewBoostSweeper регистрирует задачу по расписанию spec, например "@every 5m".
func NewBoostSweeper(service BoostExpirer, spec string, logger *log.Logger, timeout time.Duration) (*BoostSweeper, error) {
	s := &BoostSweeper{Service: service, Logger: logger, Timeout: timeout}
	s.cron = cron.New(
		cron.WithLogger(cron.PrintfLogger(logger)),
		cron.WithChain(cron.Recover(cron.PrintfLogger(logger)), cron.SkipIfStillRunning(cron.PrintfLogger(logger))),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid boost sweep schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start запускает планировщик в фоне.
func (s *BoostSweeper) Start() {
	s.cron.Start()
}

// Stop останавливает планировщик и ждет завершения текущего запуска или отмены ctx.
func (s *BoostSweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Run выполняет один проход. Ошибки логируются.
func (s *BoostSweeper) Run(ctx context.Context) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	expired, err := s.Service.ExpireBoosts(ctx)
	if err != nil {
		s.Logger.Printf("boost sweep failed: %v", err)
		return
	}
	if expired > 0 {
		s.Logger.Printf("boost sweep: expired %d listings", expired)
	}
}
