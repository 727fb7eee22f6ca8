package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/repository"
)

// editable is satisfied by the pointer type of every live entity.
type editable[T any] interface {
	*T
	domain.Entity
	ApplyEdit(src *T)
}

// kindOps hides the concrete entity type behind one shape so the approval
// flow is written once for all kinds.
type kindOps interface {
	kind() domain.EntityKind
	decode(payload json.RawMessage) (domain.Entity, error)
	load(ctx context.Context, tx repository.Tx, id int64) (domain.Entity, error)
	create(ctx context.Context, tx repository.Tx, e domain.Entity) error
	update(ctx context.Context, tx repository.Tx, e domain.Entity) error
	// applyEdit copies the allow-listed fields of src onto dst.
	applyEdit(dst, src domain.Entity)
}

type entityOps[T any, P editable[T]] struct {
	k    domain.EntityKind
	repo func(tx repository.Tx) repository.EntityRepository[T]
}

func (o entityOps[T, P]) kind() domain.EntityKind { return o.k }

func (o entityOps[T, P]) decode(payload json.RawMessage) (domain.Entity, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, domain.NewValidationError(o.k, "payload", fmt.Sprintf("cannot be decoded: %v", err))
	}
	return P(&v), nil
}

func (o entityOps[T, P]) load(ctx context.Context, tx repository.Tx, id int64) (domain.Entity, error) {
	v, err := o.repo(tx).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return P(v), nil
}

func (o entityOps[T, P]) create(ctx context.Context, tx repository.Tx, e domain.Entity) error {
	return o.repo(tx).Create(ctx, (*T)(e.(P)))
}

func (o entityOps[T, P]) update(ctx context.Context, tx repository.Tx, e domain.Entity) error {
	return o.repo(tx).Update(ctx, (*T)(e.(P)))
}

func (o entityOps[T, P]) applyEdit(dst, src domain.Entity) {
	dst.(P).ApplyEdit((*T)(src.(P)))
}

var registry = map[domain.EntityKind]kindOps{
	domain.KindAsset: entityOps[domain.Asset, *domain.Asset]{
		k:    domain.KindAsset,
		repo: func(tx repository.Tx) repository.EntityRepository[domain.Asset] { return tx.Assets() },
	},
	domain.KindCustomer: entityOps[domain.Customer, *domain.Customer]{
		k:    domain.KindCustomer,
		repo: func(tx repository.Tx) repository.EntityRepository[domain.Customer] { return tx.Customers() },
	},
	domain.KindRental: entityOps[domain.Rental, *domain.Rental]{
		k:    domain.KindRental,
		repo: func(tx repository.Tx) repository.EntityRepository[domain.Rental] { return tx.Rentals() },
	},
	domain.KindConfiguration: entityOps[domain.Configuration, *domain.Configuration]{
		k:    domain.KindConfiguration,
		repo: func(tx repository.Tx) repository.EntityRepository[domain.Configuration] { return tx.Configurations() },
	},
	domain.KindRepair: entityOps[domain.Repair, *domain.Repair]{
		k:    domain.KindRepair,
		repo: func(tx repository.Tx) repository.EntityRepository[domain.Repair] { return tx.Repairs() },
	},
}

func opsFor(kind domain.EntityKind) (kindOps, error) {
	ops, ok := registry[kind]
	if !ok {
		return nil, domain.NewValidationError(kind, "kind", "is not a supported entity kind")
	}
	return ops, nil
}

// checkReferences makes sure every live entity the payload points at exists.
func checkReferences(ctx context.Context, tx repository.Tx, e domain.Entity) error {
	switch v := e.(type) {
	case *domain.Rental:
		if err := mustExist(ctx, tx, domain.KindAsset, v.AssetRef); err != nil {
			return err
		}
		return mustExist(ctx, tx, domain.KindCustomer, v.CustomerRef)
	case *domain.Configuration:
		return mustExist(ctx, tx, domain.KindAsset, v.AssetRef)
	case *domain.Repair:
		return mustExist(ctx, tx, domain.KindAsset, v.AssetRef)
	}
	return nil
}

func mustExist(ctx context.Context, tx repository.Tx, kind domain.EntityKind, id int64) error {
	ops, err := opsFor(kind)
	if err != nil {
		return err
	}
	if _, err := ops.load(ctx, tx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.ReferenceError{Kind: kind, ID: id}
		}
		return fmt.Errorf("load %s %d: %w", kind, id, err)
	}
	return nil
}
