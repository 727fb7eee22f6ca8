package service

import (
	"context"
	"errors"
	"fmt"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/metrics"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/utils"
)

type billingService struct {
	store       repository.Store
	notifier    Notifier
	reminderDay int
	clock       Clock
	log         *logger.Logger
	metrics     *metrics.Metrics
}

func NewBillingService(store repository.Store, notifier Notifier, reminderDay int, clock Clock, log *logger.Logger, m *metrics.Metrics) BillingService {
	return &billingService{
		store:       store,
		notifier:    notifier,
		reminderDay: reminderDay,
		clock:       clock,
		log:         log.WithService("billing"),
		metrics:     m,
	}
}

// SendReminders sends one digest of every ongoing rental when today is the
// configured reminder day, and does nothing on other days. It returns the
// number of rentals in the digest.
func (s *billingService) SendReminders(ctx context.Context) (int, error) {
	today := domain.DateOf(s.clock.Now())
	s.log.EnterMethod("billingService.SendReminders", "today", today.String())

	if today.Day() != utils.BillingDayIn(s.reminderDay, today.Year(), today.Month()) {
		s.log.ExitMethod("billingService.SendReminders", "sent", 0, "reason", "not reminder day")
		return 0, nil
	}

	var reminders []BillingReminder
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		rentals, err := tx.Rentals().ListByStatus(ctx, domain.RentalStatusOngoing)
		if err != nil {
			return fmt.Errorf("list ongoing rentals: %w", err)
		}
		for _, r := range rentals {
			if r.RentalStartDate.After(today.Time) {
				continue
			}
			customer, err := tx.Customers().GetByID(ctx, r.CustomerRef)
			if errors.Is(err, domain.ErrNotFound) {
				s.log.Warn().Int64("rental_id", r.ID).Int64("customer_id", r.CustomerRef).Msg("Skipping reminder for missing customer")
				continue
			}
			if err != nil {
				return fmt.Errorf("load customer %d: %w", r.CustomerRef, err)
			}
			asset, err := tx.Assets().GetByID(ctx, r.AssetRef)
			if errors.Is(err, domain.ErrNotFound) {
				s.log.Warn().Int64("rental_id", r.ID).Int64("asset_id", r.AssetRef).Msg("Skipping reminder for missing asset")
				continue
			}
			if err != nil {
				return fmt.Errorf("load asset %d: %w", r.AssetRef, err)
			}
			reminders = append(reminders, BillingReminder{Rental: r, Customer: *customer, Asset: *asset})
		}
		return nil
	})
	if err != nil {
		s.log.ExitMethodWithError("billingService.SendReminders", err)
		return 0, err
	}

	if len(reminders) == 0 {
		s.log.ExitMethod("billingService.SendReminders", "sent", 0)
		return 0, nil
	}
	if err := s.notifier.SendBillingReminders(ctx, reminders); err != nil {
		s.log.ExitMethodWithError("billingService.SendReminders", err, "rentals", len(reminders))
		return 0, err
	}

	s.metrics.Reminders(len(reminders))
	s.log.ExitMethod("billingService.SendReminders", "sent", len(reminders))
	return len(reminders), nil
}
