// engine/scan.go
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"lablend/models"
)

// Scan kinds, from most to least specific. Parsing never fails: anything
// that is not a unit code or a plausible code token degrades to free text.
type ScanKind string

const (
	ScanSpecificUnit  ScanKind = "specificUnit"
	ScanShortCodeOrID ScanKind = "shortCodeOrId"
	ScanFreeText      ScanKind = "freeText"
)

// unit code = short code (dash-separated alnum segments, may include a
// batch segment) + 3-digit sequence, e.g. CHEM-BEAKER-007 or PWR-2024-012.
var unitCodeRe = regexp.MustCompile(`^([A-Z0-9]+(?:-[A-Z0-9]+)*)-(\d{3})$`)

var codeTokenRe = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Scan is the parsed form of a raw scanner/search input.
type Scan struct {
	Kind      ScanKind
	Raw       string
	ShortCode string // specific unit only
	Sequence  int    // specific unit only
}

// SequenceCode derives the serialized code of unit n of an item.
func SequenceCode(shortCode string, n int) string {
	return fmt.Sprintf("%s-%03d", shortCode, n)
}

// ParseScan classifies raw input. Total: unrecognized input is free text,
// never an error.
func ParseScan(raw string) Scan {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Scan{Kind: ScanFreeText, Raw: trimmed}
	}
	upper := strings.ToUpper(trimmed)
	if m := unitCodeRe.FindStringSubmatch(upper); m != nil {
		seq, _ := strconv.Atoi(m[2])
		return Scan{Kind: ScanSpecificUnit, Raw: trimmed, ShortCode: m[1], Sequence: seq}
	}
	if codeTokenRe.MatchString(trimmed) {
		return Scan{Kind: ScanShortCodeOrID, Raw: trimmed}
	}
	return Scan{Kind: ScanFreeText, Raw: trimmed}
}

// Resolution is the live-data answer for a scan.
type Resolution struct {
	Kind ScanKind              `json:"kind"`
	Item *models.InventoryItem `json:"item,omitempty"`

	// Specific-unit fields. UnitKnown is false when the sequence exceeds
	// the item's total (a valid parse, just no such unit). HoldingLoan is
	// set when the unit is out; otherwise UnitCode names the free unit a
	// new loan may bind to.
	UnitCode    string             `json:"unitCode,omitempty"`
	UnitKnown   bool               `json:"unitKnown,omitempty"`
	HoldingLoan *models.LoanRecord `json:"holdingLoan,omitempty"`

	// Matches is set for free-text scans only.
	Matches []models.InventoryItem `json:"matches,omitempty"`
}

// Resolver joins parsed scans against live items and active loans.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver { return &Resolver{store: store} }

func (r *Resolver) Resolve(ctx context.Context, raw string) (*Resolution, error) {
	s := ParseScan(raw)
	switch s.Kind {
	case ScanSpecificUnit:
		it, err := r.store.ItemByShortCode(ctx, s.ShortCode)
		if IsNotFound(err) {
			return r.freeText(ctx, s.Raw)
		}
		if err != nil {
			return nil, err
		}
		res := &Resolution{Kind: ScanSpecificUnit, Item: it}
		if s.Sequence < 1 || s.Sequence > it.TotalQty {
			return res, nil // unknown unit, not an error
		}
		res.UnitKnown = true
		res.UnitCode = SequenceCode(it.ShortCode, s.Sequence)
		loan, err := r.store.ActiveLoanByUnitCode(ctx, res.UnitCode)
		if err != nil && !IsNotFound(err) {
			return nil, err
		}
		res.HoldingLoan = loan // nil when the unit is on the shelf
		return res, nil

	case ScanShortCodeOrID:
		if it, err := r.store.ItemByID(ctx, s.Raw); err == nil {
			return &Resolution{Kind: ScanShortCodeOrID, Item: it}, nil
		} else if !IsNotFound(err) {
			return nil, err
		}
		if it, err := r.store.ItemByShortCode(ctx, strings.ToUpper(s.Raw)); err == nil {
			return &Resolution{Kind: ScanShortCodeOrID, Item: it}, nil
		} else if !IsNotFound(err) {
			return nil, err
		}
		return r.freeText(ctx, s.Raw)

	default:
		return r.freeText(ctx, s.Raw)
	}
}

func (r *Resolver) freeText(ctx context.Context, q string) (*Resolution, error) {
	items, err := r.store.ItemsByName(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Resolution{Kind: ScanFreeText, Matches: items}, nil
}
