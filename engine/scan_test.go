package engine_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lablend/engine"
)

func TestSequenceCode_RoundTrip(t *testing.T) {
	// parseScan(sequenceCode(shortCode, n)) must recover shortCode and n
	// for every sequence the scheme can emit.
	for _, shortCode := range []string{"PWR7", "CHEM-BEAKER", "OSC-2024"} {
		for n := 1; n <= 999; n++ {
			s := engine.ParseScan(engine.SequenceCode(shortCode, n))
			require.Equal(t, engine.ScanSpecificUnit, s.Kind, "code %s-%03d", shortCode, n)
			require.Equal(t, shortCode, s.ShortCode)
			require.Equal(t, n, s.Sequence)
		}
	}
}

func TestParseScan_Classification(t *testing.T) {
	cases := []struct {
		raw       string
		kind      engine.ScanKind
		shortCode string
		sequence  int
	}{
		{"CHEM-BEAKER-007", engine.ScanSpecificUnit, "CHEM-BEAKER", 7},
		{"PWR-2024-012", engine.ScanSpecificUnit, "PWR-2024", 12}, // batch segment
		{"chem-beaker-007", engine.ScanSpecificUnit, "CHEM-BEAKER", 7},
		{"  OSC7-105  ", engine.ScanSpecificUnit, "OSC7", 105},
		{"CHEM-BEAKER", engine.ScanShortCodeOrID, "", 0},
		{"OSC7", engine.ScanShortCodeOrID, "", 0},
		{"b39d2f44-9c9e-4d56-9f2f-2f9a1a3a77f1", engine.ScanShortCodeOrID, "", 0},
		{"CHEM-BEAKER-07", engine.ScanShortCodeOrID, "", 0}, // 2-digit tail is not a sequence
		{"glass beaker 250ml", engine.ScanFreeText, "", 0},
		{"", engine.ScanFreeText, "", 0},
		{"   ", engine.ScanFreeText, "", 0},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.raw), func(t *testing.T) {
			s := engine.ParseScan(tc.raw)
			assert.Equal(t, tc.kind, s.Kind)
			if tc.kind == engine.ScanSpecificUnit {
				assert.Equal(t, tc.shortCode, s.ShortCode)
				assert.Equal(t, tc.sequence, s.Sequence)
			}
		})
	}
}

func TestResolve_SpecificUnit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem("CHEM-BEAKER", "Glass beaker 250ml", 10, nil)
	resolver := engine.NewResolver(f.mem)

	// GIVEN: unit 3 on the shelf
	// THEN: resolves as a known, free unit ready to bind a loan
	res, err := resolver.Resolve(ctx, "CHEM-BEAKER-003")
	require.NoError(t, err)
	require.Equal(t, engine.ScanSpecificUnit, res.Kind)
	require.Equal(t, it.ID, res.Item.ID)
	assert.True(t, res.UnitKnown)
	assert.Equal(t, "CHEM-BEAKER-003", res.UnitCode)
	assert.Nil(t, res.HoldingLoan)

	// WHEN: a loan binds that unit
	unit := "CHEM-BEAKER-003"
	rec, err := f.loans.Create(ctx, engine.CreateLoanInput{
		ItemID:       it.ID,
		Quantity:     1,
		BorrowerName: "Dana Osei",
		DueOn:        f.clock.now.Add(48 * time.Hour),
		UnitCode:     &unit,
	})
	require.NoError(t, err)

	// THEN: the scan surfaces the holding loan
	res, err = resolver.Resolve(ctx, "CHEM-BEAKER-003")
	require.NoError(t, err)
	require.NotNil(t, res.HoldingLoan)
	assert.Equal(t, rec.ID, res.HoldingLoan.ID)
	assert.Equal(t, "Dana Osei", res.HoldingLoan.BorrowerName)
}

func TestResolve_SequenceBeyondTotal_IsNotFoundNotError(t *testing.T) {
	f := newFixture(t)
	f.seedItem("CHEM-BEAKER", "Glass beaker 250ml", 10, nil)
	resolver := engine.NewResolver(f.mem)

	res, err := resolver.Resolve(context.Background(), "CHEM-BEAKER-011")
	require.NoError(t, err)
	assert.Equal(t, engine.ScanSpecificUnit, res.Kind)
	assert.NotNil(t, res.Item)
	assert.False(t, res.UnitKnown)
	assert.Nil(t, res.HoldingLoan)
}

func TestResolve_ExactAndFreeTextFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.seedItem("CHEM-BEAKER", "Glass beaker 250ml", 10, nil)
	resolver := engine.NewResolver(f.mem)

	// exact short code
	res, err := resolver.Resolve(ctx, "chem-beaker")
	require.NoError(t, err)
	assert.Equal(t, engine.ScanShortCodeOrID, res.Kind)
	require.NotNil(t, res.Item)
	assert.Equal(t, it.ID, res.Item.ID)

	// exact id
	res, err = resolver.Resolve(ctx, it.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Item)
	assert.Equal(t, it.ID, res.Item.ID)

	// unrecognized code token degrades to substring search
	res, err = resolver.Resolve(ctx, "beaker")
	require.NoError(t, err)
	assert.Equal(t, engine.ScanFreeText, res.Kind)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, it.ID, res.Matches[0].ID)

	// unknown prefix on a unit-shaped code also degrades, not errors
	res, err = resolver.Resolve(ctx, "NOPE-001")
	require.NoError(t, err)
	assert.Equal(t, engine.ScanFreeText, res.Kind)
	assert.Empty(t, res.Matches)
}
