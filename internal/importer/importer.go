// Package importer loads a legacy workbook into the system by submitting
// every row through the approval workflow as the importing actor.
package importer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"assetrent-backend/internal/domain"
	"assetrent-backend/internal/logger"
	"assetrent-backend/internal/repository"
	"assetrent-backend/internal/service"

	"github.com/xuri/excelize/v2"
)

// Sheets are imported in this order so references resolve against rows
// created earlier in the same run.
var sheetKinds = []struct {
	Sheet string
	Kind  domain.EntityKind
}{
	{"Customers", domain.KindCustomer},
	{"Products", domain.KindAsset},
	{"Rentals", domain.KindRental},
	{"Configurations", domain.KindConfiguration},
	{"Repairs", domain.KindRepair},
}

// header aliases, applied after normalisation
var aliases = map[domain.EntityKind]map[string]string{
	domain.KindAsset: {
		"asset":         "asset_id",
		"product_id":    "asset_id",
		"type":          "type_of_asset",
		"model":         "model_no",
		"serial_number": "serial_no",
		"condition":     "condition_status",
		"warranty":      "under_warranty",
	},
	domain.KindCustomer: {
		"customer":  "name",
		"phone":     "phone_number_primary",
		"address":   "address_primary",
		"reference": "reference_name",
	},
	domain.KindRental: {
		"product":       "asset",
		"asset_id":      "asset",
		"customer_name": "customer",
		"contract":      "contract_number",
		"start_date":    "rental_start_date",
		"end_date":      "rental_end_date",
		"amount":        "payment_amount",
	},
	domain.KindConfiguration: {
		"product":  "asset",
		"asset_id": "asset",
		"date":     "date_of_config",
	},
	domain.KindRepair: {
		"asset":    "product",
		"asset_id": "product",
		"date":     "date",
	},
}

var intFields = map[string]bool{
	"asset_number":             true,
	"warranty_duration_months": true,
	"billing_day":              true,
	"repair_warranty_months":   true,
}

var boolFields = map[string]bool{
	"under_warranty": true,
	"is_permanent":   true,
	"is_bni_member":  true,
}

var dateFields = map[string]bool{
	"purchase_date":     true,
	"sale_date":         true,
	"date_marked_dead":  true,
	"rental_start_date": true,
	"rental_end_date":   true,
	"date_of_config":    true,
	"date":              true,
}

// dateLayouts lists the cell formats accepted for date columns.
var dateLayouts = []string{domain.DateLayout, "02/01/2006", "2/1/2006", "02-01-2006", "01-02-06", "1/2/06"}

type Outcome string

const (
	OutcomeLive    Outcome = "live"
	OutcomePending Outcome = "pending"
	OutcomeFailed  Outcome = "failed"
)

type RowResult struct {
	Sheet   string  `json:"sheet"`
	Row     int     `json:"row"`
	Outcome Outcome `json:"outcome"`
	Ref     string  `json:"ref,omitempty"`
	Error   string  `json:"error,omitempty"`
}

type Report struct {
	Rows    []RowResult `json:"rows"`
	Live    int         `json:"live"`
	Pending int         `json:"pending"`
	Failed  int         `json:"failed"`
}

func (r *Report) add(res RowResult) {
	r.Rows = append(r.Rows, res)
	switch res.Outcome {
	case OutcomeLive:
		r.Live++
	case OutcomePending:
		r.Pending++
	default:
		r.Failed++
	}
}

type Importer struct {
	approvals service.ApprovalService
	store     repository.Store
	log       *logger.Logger
}

func New(approvals service.ApprovalService, store repository.Store, log *logger.Logger) *Importer {
	return &Importer{approvals: approvals, store: store, log: log.WithService("importer")}
}

// ImportFile opens the workbook at path and imports it.
func (im *Importer) ImportFile(ctx context.Context, capability domain.Capability, path string) (*Report, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, capability, f)
}

// Import reads a workbook from r and imports it.
func (im *Importer) Import(ctx context.Context, capability domain.Capability, r io.Reader) (*Report, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, capability, f)
}

func (im *Importer) importWorkbook(ctx context.Context, capability domain.Capability, f *excelize.File) (*Report, error) {
	present := make(map[string]bool)
	for _, name := range f.GetSheetList() {
		present[name] = true
	}

	report := &Report{}
	for _, sk := range sheetKinds {
		if !present[sk.Sheet] {
			im.log.Debug().Str("sheet", sk.Sheet).Msg("Sheet not present, skipping")
			continue
		}
		rows, err := f.GetRows(sk.Sheet)
		if err != nil {
			return report, fmt.Errorf("failed to read sheet %s: %w", sk.Sheet, err)
		}
		if len(rows) < 2 {
			continue
		}

		headers := make([]string, len(rows[0]))
		for i, h := range rows[0] {
			headers[i] = canonical(sk.Kind, h)
		}
		for i, row := range rows[1:] {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if blank(row) {
				continue
			}
			res := im.importRow(ctx, capability, sk.Kind, headers, row)
			res.Sheet = sk.Sheet
			res.Row = i + 2
			report.add(res)
		}
	}

	im.log.Info().
		Int("live", report.Live).
		Int("pending", report.Pending).
		Int("failed", report.Failed).
		Msg("Workbook import finished")
	return report, nil
}

func (im *Importer) importRow(ctx context.Context, capability domain.Capability, kind domain.EntityKind, headers, row []string) RowResult {
	fields, err := im.fields(ctx, kind, headers, row)
	if err != nil {
		return failed(err)
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return failed(err)
	}

	res, err := im.approvals.Submit(ctx, capability, kind, payload, nil)
	if err != nil {
		im.log.Warn().Err(err).Str("kind", string(kind)).Msg("Row rejected")
		return failed(err)
	}
	if res.Pending != nil {
		return RowResult{Outcome: OutcomePending, Ref: res.Pending.ID.String()}
	}
	ref := strconv.FormatInt(res.Entity.EntityID(), 10)
	if a, ok := res.Entity.(*domain.Asset); ok {
		ref = a.AssetID
	}
	return RowResult{Outcome: OutcomeLive, Ref: ref}
}

func failed(err error) RowResult {
	return RowResult{Outcome: OutcomeFailed, Error: err.Error()}
}

// fields turns one sheet row into a submission payload.
func (im *Importer) fields(ctx context.Context, kind domain.EntityKind, headers, row []string) (map[string]any, error) {
	out := make(map[string]any)
	for i, key := range headers {
		if key == "" || i >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[i])
		if raw == "" {
			continue
		}
		v, err := convert(key, raw)
		if err != nil {
			return nil, domain.NewValidationError(kind, key, err.Error())
		}
		out[key] = v
	}

	switch kind {
	case domain.KindRental:
		if err := im.resolveAsset(ctx, out, "asset"); err != nil {
			return nil, err
		}
		if err := im.resolveCustomer(ctx, out); err != nil {
			return nil, err
		}
	case domain.KindConfiguration:
		if err := im.resolveAsset(ctx, out, "asset"); err != nil {
			return nil, err
		}
	case domain.KindRepair:
		if err := im.resolveAsset(ctx, out, "product"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// resolveAsset replaces an asset identifier with the asset's id. Cells that
// already hold a numeric id are kept.
func (im *Importer) resolveAsset(ctx context.Context, fields map[string]any, key string) error {
	s, ok := fields[key].(string)
	if !ok {
		return nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		fields[key] = id
		return nil
	}
	var asset *domain.Asset
	err := im.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		asset, err = tx.Assets().GetByIdentifier(ctx, s)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("asset %q not found", s)
	}
	if err != nil {
		return err
	}
	fields[key] = asset.ID
	return nil
}

func (im *Importer) resolveCustomer(ctx context.Context, fields map[string]any) error {
	s, ok := fields["customer"].(string)
	if !ok {
		return nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		fields["customer"] = id
		return nil
	}
	var customer *domain.Customer
	err := im.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		customer, err = tx.Customers().GetByName(ctx, s)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("customer %q not found", s)
	}
	if err != nil {
		return err
	}
	fields["customer"] = customer.ID
	return nil
}

// canonical normalises a header cell to a payload field name.
func canonical(kind domain.EntityKind, header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	h = strings.NewReplacer(" ", "_", "-", "_", ".", "").Replace(h)
	if alias, ok := aliases[kind][h]; ok {
		return alias
	}
	return h
}

func convert(key, raw string) (any, error) {
	switch {
	case intFields[key]:
		n, err := strconv.Atoi(strings.TrimSuffix(raw, ".0"))
		if err != nil {
			return nil, fmt.Errorf("not a whole number: %q", raw)
		}
		return n, nil
	case boolFields[key]:
		switch strings.ToLower(raw) {
		case "yes", "y", "true", "1":
			return true, nil
		case "no", "n", "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("not a yes/no value: %q", raw)
	case dateFields[key]:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.Format(domain.DateLayout), nil
			}
		}
		return nil, fmt.Errorf("not a date: %q", raw)
	}
	return raw, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
