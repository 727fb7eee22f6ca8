package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/lock"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/metrics"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/utils"

	"github.com/shopspring/decimal"
)

// monthLCM is the least common multiple of 28, 29, 30 and 31. Scaling every
// segment by it keeps the per-day division exact until the single rounding.
const monthLCM = 377580

// Skip reasons reported for rentals that contribute nothing to a sweep.
const (
	SkipNone          = ""
	SkipNoPayment     = "no_payment"
	SkipFutureStart   = "future_start"
	SkipEndsBeforeRun = "start_after_end"
)

// RentalRevenue is what a rental has earned from its start through
// min(end, today) inclusive. Each calendar month contributes
// payment / days_in_month per active day at full precision and the sum is
// rounded once to cents, half away from zero. reason is SkipNone when the
// rental counts.
func RentalRevenue(r domain.Rental, today domain.Date) (decimal.Decimal, string) {
	if !r.PaymentAmount.IsPositive() {
		return decimal.Zero, SkipNoPayment
	}
	if r.RentalStartDate.After(today.Time) {
		return decimal.Zero, SkipFutureStart
	}

	end := today
	if r.RentalEndDate != nil && !r.RentalEndDate.IsZero() && r.RentalEndDate.Before(today.Time) {
		end = *r.RentalEndDate
	}
	segments, err := utils.MonthSegments(r.RentalStartDate, end)
	if err != nil {
		return decimal.Zero, SkipEndsBeforeRun
	}

	scaled := decimal.Zero
	for _, seg := range segments {
		weight := int64(seg.ActiveDays) * (monthLCM / int64(seg.DaysInMonth))
		scaled = scaled.Add(r.PaymentAmount.Mul(decimal.NewFromInt(weight)))
	}
	return scaled.DivRound(decimal.NewFromInt(monthLCM), 2), SkipNone
}

type RevenueOptions struct {
	// BatchSize > 0 writes asset totals in batches, one transaction each.
	BatchSize int
	LockKey   string
}

type revenueService struct {
	store   repository.Store
	locker  lock.Locker
	opts    RevenueOptions
	clock   Clock
	log     *logger.Logger
	metrics *metrics.Metrics
}

func NewRevenueService(store repository.Store, locker lock.Locker, opts RevenueOptions, clock Clock, log *logger.Logger, m *metrics.Metrics) RevenueService {
	if opts.LockKey == "" {
		opts.LockKey = "revenue-sweep"
	}
	return &revenueService{
		store:   store,
		locker:  locker,
		opts:    opts,
		clock:   clock,
		log:     log.WithService("revenue"),
		metrics: m,
	}
}

type allocation struct {
	assetIDs []int64
	totals   map[int64]decimal.Decimal
	rentals  int
	skipped  int
}

// allocate folds every rental into its asset's total. Rentals pointing at
// assets that no longer exist are skipped.
func (s *revenueService) allocate(assetIDs []int64, rentals []domain.Rental, today domain.Date) allocation {
	out := allocation{
		assetIDs: assetIDs,
		totals:   make(map[int64]decimal.Decimal, len(assetIDs)),
	}
	known := make(map[int64]struct{}, len(assetIDs))
	for _, id := range assetIDs {
		known[id] = struct{}{}
	}

	for _, r := range rentals {
		if _, ok := known[r.AssetRef]; !ok {
			s.log.Warn().Int64("rental_id", r.ID).Int64("asset_id", r.AssetRef).Msg("Skipping rental for missing asset")
			out.skipped++
			continue
		}
		amount, reason := RentalRevenue(r, today)
		if reason == SkipEndsBeforeRun {
			// RentalRevenue only reports this when an end date is set
			s.log.Warn().
				Int64("rental_id", r.ID).
				Str("start", r.RentalStartDate.String()).
				Str("end", r.RentalEndDate.String()).
				Msg("Skipping rental that ends before it starts")
			out.skipped++
			continue
		}
		if reason != SkipNone {
			s.log.Debug().Int64("rental_id", r.ID).Str("reason", reason).Msg("Skipping rental")
			out.skipped++
			continue
		}
		out.totals[r.AssetRef] = out.totals[r.AssetRef].Add(amount)
		out.rentals++
	}
	return out
}

func (s *revenueService) RecomputeAll(ctx context.Context) (*SweepReport, error) {
	s.log.EnterMethod("revenueService.RecomputeAll", "batch_size", s.opts.BatchSize)
	started := time.Now()

	lease, err := s.locker.TryAcquire(ctx, s.opts.LockKey)
	if errors.Is(err, lock.ErrNotAcquired) {
		s.metrics.Sweep("skipped", 0, 0)
		s.log.ExitMethodWithError("revenueService.RecomputeAll", domain.ErrSweepInProgress)
		return nil, domain.ErrSweepInProgress
	}
	if err != nil {
		s.metrics.Sweep("failed", 0, 0)
		s.log.ExitMethodWithError("revenueService.RecomputeAll", err)
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.log.Error().Err(err).Str("key", s.opts.LockKey).Msg("Failed to release sweep lock")
		}
	}()

	today := domain.DateOf(s.clock.Now())
	var report *SweepReport
	if s.opts.BatchSize > 0 {
		report, err = s.sweepBatched(ctx, today)
	} else {
		report, err = s.sweepSingle(ctx, today)
	}
	if err != nil {
		s.metrics.Sweep("failed", time.Since(started), 0)
		s.log.ExitMethodWithError("revenueService.RecomputeAll", err)
		return nil, err
	}

	report.Duration = time.Since(started)
	s.metrics.Sweep("ok", report.Duration, report.Skipped)
	s.log.ExitMethod("revenueService.RecomputeAll",
		"assets", report.Assets,
		"rentals", report.Rentals,
		"skipped", report.Skipped,
		"total", report.Total.StringFixed(2),
		"duration", report.Duration)
	return report, nil
}

func (s *revenueService) load(ctx context.Context, tx repository.Tx) ([]int64, []domain.Rental, error) {
	ids, err := tx.Assets().ListIDs(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list assets: %w", err)
	}
	rentals, err := tx.Rentals().List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list rentals: %w", err)
	}
	return ids, rentals, nil
}

func (a allocation) report() *SweepReport {
	total := decimal.Zero
	for _, v := range a.totals {
		total = total.Add(v)
	}
	return &SweepReport{
		Assets:  len(a.assetIDs),
		Rentals: a.rentals,
		Skipped: a.skipped,
		Total:   total,
	}
}

// sweepSingle reads, resets and writes every asset in one transaction.
func (s *revenueService) sweepSingle(ctx context.Context, today domain.Date) (*SweepReport, error) {
	var report *SweepReport
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		ids, rentals, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		alloc := s.allocate(ids, rentals, today)

		if err := tx.Assets().ResetRevenue(ctx); err != nil {
			return fmt.Errorf("reset revenue: %w", err)
		}
		for _, id := range ids {
			total, ok := alloc.totals[id]
			if !ok || total.IsZero() {
				continue
			}
			if err := tx.Assets().SetRevenue(ctx, id, total); err != nil {
				return fmt.Errorf("set revenue for asset %d: %w", id, err)
			}
		}
		report = alloc.report()
		report.Batches = 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// sweepBatched computes from one consistent read, then writes assets in
// batches. Readers may see old and new totals on different assets while the
// sweep runs, never a partial total on one asset.
func (s *revenueService) sweepBatched(ctx context.Context, today domain.Date) (*SweepReport, error) {
	var alloc allocation
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		ids, rentals, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		alloc = s.allocate(ids, rentals, today)
		return nil
	})
	if err != nil {
		return nil, err
	}

	report := alloc.report()
	for start := 0; start < len(alloc.assetIDs); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(alloc.assetIDs))
		batch := alloc.assetIDs[start:end]
		err := s.store.WithTx(ctx, func(tx repository.Tx) error {
			for _, id := range batch {
				total, ok := alloc.totals[id]
				if !ok {
					total = decimal.Zero
				}
				err := tx.Assets().SetRevenue(ctx, id, total)
				if errors.Is(err, domain.ErrNotFound) {
					// deleted since the read
					continue
				}
				if err != nil {
					return fmt.Errorf("set revenue for asset %d: %w", id, err)
				}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("write batch %d: %w", report.Batches+1, err)
		}
		report.Batches++
	}
	return report, nil
}

func (s *revenueService) GetAssetRevenue(ctx context.Context, assetID int64) (decimal.Decimal, error) {
	var revenue decimal.Decimal
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		asset, err := tx.Assets().GetByID(ctx, assetID)
		if err != nil {
			return err
		}
		revenue = asset.Revenue
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return revenue, nil
}
