package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"item-price-lab/internal/domain"
	"item-price-lab/internal/source/stub"
)

func rawAt(epochSec int64) domain.RawTrade {
	price := 100.0
	return domain.RawTrade{
		Time:  json.RawMessage(fmt.Sprintf("%d", epochSec)),
		Price: &price,
	}
}

// countingPacer records pauses instead of sleeping.
type countingPacer struct{ calls int }

func (p *countingPacer) Pause(context.Context) error {
	p.calls++
	return nil
}

func TestFetchHistory_StopsOnEmptyPage(t *testing.T) {
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {
			{rawAt(1_700_000_000), rawAt(1_699_999_000)},
			{rawAt(1_699_998_000)},
		},
	}}

	a := NewAcquirer(src, NopPacer{}, 10, nil)
	records, err := a.FetchHistory(context.Background(), "iron-ore", 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// two data pages plus the empty page that signalled exhaustion
	require.Equal(t, 3, src.FetchCalls)
}

func TestFetchHistory_StopsAtCutoff(t *testing.T) {
	// Page 0 already ends older than the cutoff; page 1 must never be asked.
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {
			{rawAt(1_700_000_000), rawAt(1_600_000_000)},
			{rawAt(1_500_000_000)},
		},
	}}

	a := NewAcquirer(src, NopPacer{}, 10, nil)
	cutoffMs := int64(1_650_000_000_000)
	records, err := a.FetchHistory(context.Background(), "iron-ore", cutoffMs)
	require.NoError(t, err)
	// the stale page is still returned in full; window filtering happens later
	require.Len(t, records, 2)
	require.Equal(t, 1, src.FetchCalls)
}

func TestFetchHistory_PageCap(t *testing.T) {
	pages := make([][]domain.RawTrade, 100)
	for i := range pages {
		pages[i] = []domain.RawTrade{rawAt(1_700_000_000 - int64(i))}
	}
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{"iron-ore": pages}}

	a := NewAcquirer(src, NopPacer{}, 5, nil)
	records, err := a.FetchHistory(context.Background(), "iron-ore", 0)
	require.NoError(t, err)
	require.Len(t, records, 5)
	require.Equal(t, 5, src.FetchCalls)
}

func TestFetchHistory_ErrorDiscardsPartialPages(t *testing.T) {
	src := &stub.Source{Err: errors.New("boom")}

	a := NewAcquirer(src, NopPacer{}, 10, nil)
	records, err := a.FetchHistory(context.Background(), "iron-ore", 0)
	require.Error(t, err)
	require.Nil(t, records)
}

func TestFetchHistory_PacesBetweenPagesOnly(t *testing.T) {
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {
			{rawAt(1_700_000_000)},
			{rawAt(1_699_999_000)},
			{rawAt(1_699_998_000)},
		},
	}}

	pacer := &countingPacer{}
	a := NewAcquirer(src, pacer, 10, nil)
	_, err := a.FetchHistory(context.Background(), "iron-ore", 0)
	require.NoError(t, err)
	// 4 fetches (3 data + 1 empty), pauses only between them
	require.Equal(t, 3, pacer.calls)
}

func TestFetchHistory_UnparseableTimestampsSkippedForStaleness(t *testing.T) {
	garbled := domain.RawTrade{Time: json.RawMessage(`"not a date"`)}
	src := &stub.Source{Pages: map[string][][]domain.RawTrade{
		"iron-ore": {
			{rawAt(1_600_000_000), garbled},
		},
	}}

	a := NewAcquirer(src, NopPacer{}, 10, nil)
	cutoffMs := int64(1_650_000_000_000)
	records, err := a.FetchHistory(context.Background(), "iron-ore", cutoffMs)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// the garbled trailing record did not hide the stale one before it
	require.Equal(t, 1, src.FetchCalls)
}
