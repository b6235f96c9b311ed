package periods

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simtunkin/simtunkin/internal/platform/httpx"
	"github.com/simtunkin/simtunkin/internal/shared"
)

const closeLockTTL = time.Minute

// RepositoryPort defines data access methods for periods.
type RepositoryPort interface {
	ListPeriods(ctx context.Context) ([]Period, error)
	GetPeriod(ctx context.Context, id int64) (Period, error)
	CreatePeriod(ctx context.Context, p Period) (Period, error)
	UpdatePeriod(ctx context.Context, p Period) (Period, error)
	ClosePeriod(ctx context.Context, id int64) (Period, error)
	DeletePeriod(ctx context.Context, id int64) error
	CountRecordsForPeriod(ctx context.Context, id int64) (int, error)
}

// Enqueuer schedules the bonus recomputation that follows a close.
type Enqueuer interface {
	EnqueueRecomputePeriod(ctx context.Context, periodID int64) error
}

// Service handles period business logic.
type Service struct {
	repo     RepositoryPort
	enqueuer Enqueuer
	redis    *redis.Client
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, enqueuer Enqueuer, rdb *redis.Client, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, enqueuer: enqueuer, redis: rdb, audit: audit, logger: logger}
}

// ListPeriods returns all periods.
func (s *Service) ListPeriods(ctx context.Context) ([]Period, error) {
	return s.repo.ListPeriods(ctx)
}

// GetPeriod fetches a single period.
func (s *Service) GetPeriod(ctx context.Context, id int64) (Period, error) {
	return s.repo.GetPeriod(ctx, id)
}

func normalize(in Period) (Period, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return Period{}, fmt.Errorf("%w: nama periode wajib diisi", httpx.ErrValidation)
	}
	if !in.EndDate.After(in.StartDate) {
		return Period{}, fmt.Errorf("%w: tanggal akhir harus setelah tanggal mulai", httpx.ErrValidation)
	}
	return in, nil
}

// CreatePeriod opens a new scoring period.
func (s *Service) CreatePeriod(ctx context.Context, actorID int64, in Period) (Period, error) {
	in, err := normalize(in)
	if err != nil {
		return Period{}, err
	}
	created, err := s.repo.CreatePeriod(ctx, in)
	if err != nil {
		return Period{}, err
	}
	s.recordAudit(ctx, actorID, "period.create", created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// UpdatePeriod changes a period's name and date range while it is open.
func (s *Service) UpdatePeriod(ctx context.Context, actorID, id int64, in Period) (Period, error) {
	in, err := normalize(in)
	if err != nil {
		return Period{}, err
	}
	current, err := s.repo.GetPeriod(ctx, id)
	if err != nil {
		return Period{}, err
	}
	if !current.Open() {
		return Period{}, fmt.Errorf("%w: periode sudah ditutup", httpx.ErrConflict)
	}
	in.ID = id
	updated, err := s.repo.UpdatePeriod(ctx, in)
	if err != nil {
		return Period{}, err
	}
	s.recordAudit(ctx, actorID, "period.update", id, map[string]any{"name": updated.Name})
	return updated, nil
}

// ClosePeriod flips an open period to closed and schedules the bonus
// recomputation for its records. A redis lock keeps two instances from
// racing the close; losing the race reads back as a conflict.
func (s *Service) ClosePeriod(ctx context.Context, actorID, id int64) (Period, error) {
	if s.redis != nil {
		ok, err := s.redis.SetNX(ctx, shared.PeriodLockKey(id), actorID, closeLockTTL).Result()
		if err != nil {
			return Period{}, err
		}
		if !ok {
			return Period{}, fmt.Errorf("%w: periode sedang diproses", httpx.ErrConflict)
		}
		defer s.redis.Del(context.WithoutCancel(ctx), shared.PeriodLockKey(id))
	}
	closed, err := s.repo.ClosePeriod(ctx, id)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			// Either the period does not exist or it is already closed.
			if _, getErr := s.repo.GetPeriod(ctx, id); getErr == nil {
				return Period{}, fmt.Errorf("%w: periode sudah ditutup", httpx.ErrConflict)
			}
		}
		return Period{}, err
	}
	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueRecomputePeriod(ctx, id); err != nil {
			s.logger.Error("enqueue recompute", slog.Int64("period_id", id), slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, actorID, "period.close", id, map[string]any{"name": closed.Name})
	return closed, nil
}

// DeletePeriod removes a period unless performance records reference it.
func (s *Service) DeletePeriod(ctx context.Context, actorID, id int64) error {
	count, err := s.repo.CountRecordsForPeriod(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d penilaian terdaftar pada periode ini", httpx.ErrConflict, count)
	}
	if err := s.repo.DeletePeriod(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "period.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, periodID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entry := shared.AuditLog{ActorID: actorID, Action: action, Entity: "period", EntityID: strconv.FormatInt(periodID, 10), Meta: meta}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
