package analytics

import (
	"testing"

	"github.com/jarvis360/revenuecore/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id string, mrr float64) normalize.Record {
	return normalize.Record{CustomerID: id, MRR: mrr}
}

func TestComputeMRRAndARR(t *testing.T) {
	kpis := ComputeMRRAndARR([]normalize.Record{
		rec("a", 100),
		rec("b", 200),
		rec("c", normalize.CoerceAmount("50")),
	})
	assert.Equal(t, 350.0, kpis.MRR)
	assert.Equal(t, 4200.0, kpis.ARR)
}

func TestComputeMRRAndARREmpty(t *testing.T) {
	kpis := ComputeMRRAndARR(nil)
	assert.Equal(t, 0.0, kpis.MRR)
	assert.Equal(t, 0.0, kpis.ARR)
}

func TestARRIsAlwaysTwelveTimesMRR(t *testing.T) {
	cases := [][]normalize.Record{
		nil,
		{rec("a", 0.1)},
		{rec("a", 33.33), rec("b", -5), rec("", 0)},
	}
	for _, records := range cases {
		kpis := ComputeMRRAndARR(records)
		assert.Equal(t, kpis.MRR*12, kpis.ARR)
	}
}

func TestTopCustomersByMRR(t *testing.T) {
	records := []normalize.Record{
		rec("a", 10),
		rec("b", 50),
		rec("a", 15),
		rec("c", 5),
	}

	top := TopCustomersByMRR(records, 2)
	require.Len(t, top, 2)
	assert.Equal(t, CustomerMRR{CustomerID: "b", MRR: 50}, top[0])
	assert.Equal(t, CustomerMRR{CustomerID: "a", MRR: 25}, top[1])
}

func TestTopCustomersByMRREmptyAndLimit(t *testing.T) {
	assert.Empty(t, TopCustomersByMRR(nil, 10))

	records := []normalize.Record{rec("a", 1), rec("b", 2), rec("c", 3)}
	assert.Len(t, TopCustomersByMRR(records, 2), 2)
	assert.Len(t, TopCustomersByMRR(records, 10), 3)
	assert.Empty(t, TopCustomersByMRR(records, 0))
}

func TestTopCustomersTieBreakIsFirstSeen(t *testing.T) {
	records := []normalize.Record{
		rec("later", 10),
		rec("earlier", 10),
	}
	top := TopCustomersByMRR(records, 10)
	require.Len(t, top, 2)
	assert.Equal(t, "later", top[0].CustomerID)
	assert.Equal(t, "earlier", top[1].CustomerID)
}

func TestTopCustomersIdentifierFallback(t *testing.T) {
	records := []normalize.Record{
		{MRR: 10, Raw: map[string]string{"id": "raw-id"}},
		{MRR: 20, Raw: map[string]string{"name": "raw-name"}},
		{MRR: 30},
	}
	top := TopCustomersByMRR(records, 10)
	require.Len(t, top, 3)

	ids := map[string]float64{}
	for _, item := range top {
		ids[item.CustomerID] = item.MRR
	}
	assert.Equal(t, 10.0, ids["raw-id"])
	assert.Equal(t, 20.0, ids["raw-name"])
	assert.Equal(t, 30.0, ids["unknown"])
}
