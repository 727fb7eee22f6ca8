package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/metrics"
	"assetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type approvalService struct {
	store     repository.Store
	allocator IdentityAllocator
	clock     Clock
	log       *logger.Logger
	metrics   *metrics.Metrics
}

func NewApprovalService(store repository.Store, allocator IdentityAllocator, clock Clock, log *logger.Logger, m *metrics.Metrics) ApprovalService {
	return &approvalService{
		store:     store,
		allocator: allocator,
		clock:     clock,
		log:       log.WithService("approval"),
		metrics:   m,
	}
}

// withRetry runs fn in a transaction and retries it once when the store
// reports a serialization or lock conflict. fn must be safe to run twice.
func (s *approvalService) withRetry(ctx context.Context, op string, fn func(tx repository.Tx) error) error {
	err := s.store.WithTx(ctx, fn)
	if errors.Is(err, domain.ErrConcurrencyConflict) {
		s.log.Warn().Err(err).Str("operation", op).Msg("Concurrency conflict, retrying once")
		err = s.store.WithTx(ctx, fn)
	}
	return err
}

func decodeValid(ops kindOps, payload json.RawMessage) (domain.Entity, error) {
	e, err := ops.decode(payload)
	if err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if asset, ok := e.(*domain.Asset); ok {
		if err := checkSequence(asset); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// checkSequence rejects an explicit identifier whose sequence disagrees with
// a non-zero asset_number sent alongside it.
func checkSequence(asset *domain.Asset) error {
	id := strings.TrimSpace(asset.AssetID)
	if id == "" || asset.AssetNumber == 0 {
		return nil
	}
	if n, ok := ParseSequence(id); ok && n != asset.AssetNumber {
		return domain.NewValidationError(domain.KindAsset, "asset_number",
			fmt.Sprintf("%d does not match identifier %s", asset.AssetNumber, id))
	}
	return nil
}

func (s *approvalService) Submit(ctx context.Context, capability domain.Capability, kind domain.EntityKind, payload json.RawMessage, originalID *int64) (*SubmitResult, error) {
	log := s.log.WithActor(capability.Actor)
	log.EnterMethod("approvalService.Submit", "kind", kind, "privileged", capability.Privileged(), "original_id", originalID)

	ops, err := opsFor(kind)
	if err != nil {
		log.ExitMethodWithError("approvalService.Submit", err)
		return nil, err
	}
	if _, err := decodeValid(ops, payload); err != nil {
		log.ExitMethodWithError("approvalService.Submit", err)
		return nil, err
	}

	var result *SubmitResult
	err = s.withRetry(ctx, "submit", func(tx repository.Tx) error {
		proposed, err := decodeValid(ops, payload)
		if err != nil {
			return err
		}
		if capability.Privileged() {
			entity, err := s.writeLive(ctx, tx, ops, proposed, originalID, "", capability.Actor, s.clock.Now())
			if err != nil {
				return err
			}
			result = &SubmitResult{Entity: entity}
			return nil
		}
		rec, err := s.createPending(ctx, tx, ops, proposed, payload, originalID, capability.Actor)
		if err != nil {
			return err
		}
		result = &SubmitResult{Pending: rec}
		return nil
	})
	if err != nil {
		log.ExitMethodWithError("approvalService.Submit", err, "kind", kind)
		return nil, err
	}

	if result.Entity != nil {
		s.metrics.Submission(string(kind), "live")
		log.ExitMethod("approvalService.Submit", "kind", kind, "entity_id", result.Entity.EntityID())
	} else {
		s.metrics.Submission(string(kind), "pending")
		log.ExitMethod("approvalService.Submit", "kind", kind, "pending_id", result.Pending.ID)
	}
	return result, nil
}

func (s *approvalService) createPending(ctx context.Context, tx repository.Tx, ops kindOps, proposed domain.Entity, payload json.RawMessage, originalID *int64, submitter string) (*domain.PendingRecord, error) {
	rec := &domain.PendingRecord{
		ID:          uuid.New(),
		Kind:        ops.kind(),
		Type:        domain.PendingTypeAdd,
		Payload:     append(json.RawMessage(nil), payload...),
		SubmittedBy: submitter,
		SubmittedAt: s.clock.Now().UTC(),
	}

	if originalID != nil {
		if err := mustExist(ctx, tx, ops.kind(), *originalID); err != nil {
			return nil, err
		}
		id := *originalID
		rec.OriginalID = &id
		rec.Type = domain.PendingTypeEdit
	} else {
		if err := checkReferences(ctx, tx, proposed); err != nil {
			return nil, err
		}
		if asset, ok := proposed.(*domain.Asset); ok {
			identifier, err := s.reserveExplicit(ctx, tx, asset)
			if err != nil {
				return nil, err
			}
			rec.AssetIdentifier = identifier
		}
	}

	if err := tx.Pending().Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create pending record: %w", err)
	}
	return rec, nil
}

// writeLive persists proposed as a new entity, or onto the live entity
// originalID when set. editor and at are recorded as the audit stamp.
func (s *approvalService) writeLive(ctx context.Context, tx repository.Tx, ops kindOps, proposed domain.Entity, originalID *int64, claimed, editor string, at time.Time) (domain.Entity, error) {
	if originalID != nil {
		live, err := ops.load(ctx, tx, *originalID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.ReferenceError{Kind: ops.kind(), ID: *originalID}
		}
		if err != nil {
			return nil, fmt.Errorf("load %s %d: %w", ops.kind(), *originalID, err)
		}
		if last := live.LastEdited(); last != nil && last.After(at) {
			s.log.Warn().
				Str("kind", string(ops.kind())).
				Int64("id", *originalID).
				Time("live_edited_at", *last).
				Time("submitted_at", at).
				Msg("Live entity changed after the edit was submitted, last submitted edit wins")
		}

		ops.applyEdit(live, proposed)
		if err := live.Validate(); err != nil {
			return nil, err
		}
		if err := checkReferences(ctx, tx, live); err != nil {
			return nil, err
		}
		live.Stamp(editor, at)
		if err := ops.update(ctx, tx, live); err != nil {
			return nil, fmt.Errorf("update %s %d: %w", ops.kind(), *originalID, err)
		}
		return live, nil
	}

	if err := checkReferences(ctx, tx, proposed); err != nil {
		return nil, err
	}
	if asset, ok := proposed.(*domain.Asset); ok {
		if err := s.assignIdentifier(ctx, tx, asset, claimed); err != nil {
			return nil, err
		}
	}
	proposed.Stamp(editor, at)
	if err := ops.create(ctx, tx, proposed); err != nil {
		return nil, fmt.Errorf("create %s: %w", ops.kind(), err)
	}
	if rental, ok := proposed.(*domain.Rental); ok {
		if err := tx.Payments().Create(ctx, domain.NewRentalPayment(rental)); err != nil {
			return nil, fmt.Errorf("create payment for rental %d: %w", rental.ID, err)
		}
	}
	return proposed, nil
}

func (s *approvalService) identifierYear(asset *domain.Asset) int {
	if asset.PurchaseDate != nil && !asset.PurchaseDate.IsZero() {
		return asset.PurchaseDate.Year()
	}
	return s.clock.Now().Year()
}

// explicitCandidate is the identifier the submitter asked for, or "" when
// the allocator should pick one.
func (s *approvalService) explicitCandidate(asset *domain.Asset) string {
	if id := strings.TrimSpace(asset.AssetID); id != "" {
		return id
	}
	if asset.AssetNumber > 0 {
		return s.allocator.Compose(s.identifierYear(asset), asset.AssetNumber, asset.AssetSuffix).String()
	}
	return ""
}

// reserveExplicit claims the identifier an asset add asked for so that no
// other live or pending asset can take it while the record is open.
func (s *approvalService) reserveExplicit(ctx context.Context, tx repository.Tx, asset *domain.Asset) (string, error) {
	candidate := s.explicitCandidate(asset)
	if candidate == "" {
		return "", nil
	}
	if strings.TrimSpace(asset.AssetID) == "" {
		if _, err := s.allocator.Allocate(ctx, tx, s.identifierYear(asset), asset.AssetNumber, asset.AssetSuffix); err != nil {
			return "", err
		}
	}
	if err := tx.Identifiers().Claim(ctx, candidate); err != nil {
		return "", err
	}
	return candidate, nil
}

func (s *approvalService) assignIdentifier(ctx context.Context, tx repository.Tx, asset *domain.Asset, claimed string) error {
	if claimed != "" {
		asset.AssetID = claimed
		if n, ok := ParseSequence(claimed); ok {
			asset.AssetNumber = n
		}
		return nil
	}

	if id := strings.TrimSpace(asset.AssetID); id != "" {
		asset.AssetID = id
		if n, ok := ParseSequence(id); ok && asset.AssetNumber == 0 {
			asset.AssetNumber = n
		}
	} else {
		id, err := s.allocator.Allocate(ctx, tx, s.identifierYear(asset), asset.AssetNumber, asset.AssetSuffix)
		if err != nil {
			return err
		}
		asset.AssetID = id.String()
		asset.AssetNumber = id.Number
		asset.AssetSuffix = id.Suffix
	}
	return tx.Identifiers().Claim(ctx, asset.AssetID)
}

func (s *approvalService) Resubmit(ctx context.Context, capability domain.Capability, pendingID uuid.UUID, payload json.RawMessage) (*domain.PendingRecord, error) {
	log := s.log.WithActor(capability.Actor)
	log.EnterMethod("approvalService.Resubmit", "pending_id", pendingID)

	var out *domain.PendingRecord
	err := s.withRetry(ctx, "resubmit", func(tx repository.Tx) error {
		rec, err := tx.Pending().GetForUpdate(ctx, pendingID)
		if err != nil {
			return err
		}
		if rec.SubmittedBy != capability.Actor && !capability.Privileged() {
			return domain.ErrForbidden
		}

		ops, err := opsFor(rec.Kind)
		if err != nil {
			return err
		}
		proposed, err := decodeValid(ops, payload)
		if err != nil {
			return err
		}

		if rec.IsEdit() {
			if err := mustExist(ctx, tx, rec.Kind, *rec.OriginalID); err != nil {
				return err
			}
		} else {
			if err := checkReferences(ctx, tx, proposed); err != nil {
				return err
			}
			if asset, ok := proposed.(*domain.Asset); ok && s.explicitCandidate(asset) != rec.AssetIdentifier {
				if rec.AssetIdentifier != "" {
					if err := tx.Identifiers().Release(ctx, rec.AssetIdentifier); err != nil {
						return fmt.Errorf("release identifier %s: %w", rec.AssetIdentifier, err)
					}
				}
				if rec.AssetIdentifier, err = s.reserveExplicit(ctx, tx, asset); err != nil {
					return err
				}
			}
		}

		rec.Payload = append(json.RawMessage(nil), payload...)
		rec.SubmittedAt = s.clock.Now().UTC()
		if err := tx.Pending().UpdatePayload(ctx, rec); err != nil {
			return fmt.Errorf("update pending record: %w", err)
		}
		out = rec
		return nil
	})
	if err != nil {
		log.ExitMethodWithError("approvalService.Resubmit", err, "pending_id", pendingID)
		return nil, err
	}

	s.metrics.Submission(string(out.Kind), "resubmitted")
	log.ExitMethod("approvalService.Resubmit", "pending_id", pendingID)
	return out, nil
}

func (s *approvalService) Approve(ctx context.Context, capability domain.Capability, pendingID uuid.UUID) (*Resolution, error) {
	log := s.log.WithActor(capability.Actor)
	log.EnterMethod("approvalService.Approve", "pending_id", pendingID)

	if !capability.Privileged() {
		log.ExitMethodWithError("approvalService.Approve", domain.ErrForbidden)
		return nil, domain.ErrForbidden
	}

	var res *Resolution
	err := s.withRetry(ctx, "approve", func(tx repository.Tx) error {
		rec, err := tx.Pending().GetForUpdate(ctx, pendingID)
		if errors.Is(err, domain.ErrNotFound) {
			res = &Resolution{Outcome: ResolutionAlreadyHandled, PendingID: pendingID}
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock pending record: %w", err)
		}

		ops, err := opsFor(rec.Kind)
		if err != nil {
			return err
		}
		proposed, err := decodeValid(ops, rec.Payload)
		if err != nil {
			return err
		}
		entity, err := s.writeLive(ctx, tx, ops, proposed, rec.OriginalID, rec.AssetIdentifier, rec.SubmittedBy, rec.SubmittedAt)
		if err != nil {
			return err
		}
		if err := tx.Pending().Delete(ctx, rec.ID); err != nil {
			return fmt.Errorf("delete pending record: %w", err)
		}
		res = &Resolution{Outcome: ResolutionApproved, PendingID: pendingID, Kind: rec.Kind, Entity: entity}
		return nil
	})
	if err != nil {
		s.metrics.Resolution("", "failed")
		log.ExitMethodWithError("approvalService.Approve", err, "pending_id", pendingID)
		return nil, err
	}

	s.metrics.Resolution(string(res.Kind), string(res.Outcome))
	log.ExitMethod("approvalService.Approve", "pending_id", pendingID, "outcome", res.Outcome)
	return res, nil
}

func (s *approvalService) Reject(ctx context.Context, capability domain.Capability, pendingID uuid.UUID) (*Resolution, error) {
	log := s.log.WithActor(capability.Actor)
	log.EnterMethod("approvalService.Reject", "pending_id", pendingID)

	if !capability.Privileged() {
		log.ExitMethodWithError("approvalService.Reject", domain.ErrForbidden)
		return nil, domain.ErrForbidden
	}

	var res *Resolution
	err := s.withRetry(ctx, "reject", func(tx repository.Tx) error {
		rec, err := tx.Pending().GetForUpdate(ctx, pendingID)
		if errors.Is(err, domain.ErrNotFound) {
			res = &Resolution{Outcome: ResolutionAlreadyHandled, PendingID: pendingID}
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock pending record: %w", err)
		}
		if rec.AssetIdentifier != "" {
			if err := tx.Identifiers().Release(ctx, rec.AssetIdentifier); err != nil {
				return fmt.Errorf("release identifier %s: %w", rec.AssetIdentifier, err)
			}
		}
		if err := tx.Pending().Delete(ctx, rec.ID); err != nil {
			return fmt.Errorf("delete pending record: %w", err)
		}
		res = &Resolution{Outcome: ResolutionRejected, PendingID: pendingID, Kind: rec.Kind}
		return nil
	})
	if err != nil {
		log.ExitMethodWithError("approvalService.Reject", err, "pending_id", pendingID)
		return nil, err
	}

	s.metrics.Resolution(string(res.Kind), string(res.Outcome))
	log.ExitMethod("approvalService.Reject", "pending_id", pendingID, "outcome", res.Outcome)
	return res, nil
}

func (s *approvalService) ListPending(ctx context.Context, kind domain.EntityKind) ([]domain.PendingRecord, error) {
	if kind != "" {
		if _, err := opsFor(kind); err != nil {
			return nil, err
		}
	}
	var records []domain.PendingRecord
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		records, err = tx.Pending().List(ctx, kind)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list pending records: %w", err)
	}
	return records, nil
}

func (s *approvalService) GetPending(ctx context.Context, pendingID uuid.UUID) (*PendingView, error) {
	var rec *domain.PendingRecord
	err := s.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		rec, err = tx.Pending().GetByID(ctx, pendingID)
		return err
	})
	if err != nil {
		return nil, err
	}

	ops, err := opsFor(rec.Kind)
	if err != nil {
		return nil, err
	}
	proposed, err := ops.decode(rec.Payload)
	if err != nil {
		return nil, err
	}
	return &PendingView{Record: *rec, Proposed: proposed}, nil
}
