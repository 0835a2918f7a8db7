package normalize

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeBasicCSV(t *testing.T) {
	csvText := "id,MRR,signup_date\ncust_a,100,2024-01-05\ncust_b,$200.00,2024-02-01\n"

	recs := Normalize(csvText, 0)
	require.Len(t, recs, 2)

	assert.Equal(t, "cust_a", recs[0].CustomerID)
	assert.Equal(t, 100.0, recs[0].MRR)
	require.NotNil(t, recs[0].SignupDate)
	assert.Equal(t, 2024, recs[0].SignupDate.Year())

	assert.Equal(t, "cust_b", recs[1].CustomerID)
	assert.Equal(t, 200.0, recs[1].MRR)
	require.NotNil(t, recs[1].SignupDate)
	assert.Equal(t, "100", recs[0].Raw["MRR"])
}

func TestNormalizeNoRevenueColumn(t *testing.T) {
	recs := Normalize("foo,bar\n1,2\n", 0)
	require.Len(t, recs, 1)
	assert.Equal(t, 0.0, recs[0].MRR)
	assert.Empty(t, recs[0].CustomerID)
	assert.Nil(t, recs[0].SignupDate)
}

func TestNormalizeHeaderSynonyms(t *testing.T) {
	tests := []struct {
		header  string
		wantMRR float64
	}{
		{"customer,monthly_revenue,start_date", 55},
		{"Customer ID,Amount,Created_At", 55},
		{"name,value,date", 55},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			recs := Normalize(tt.header+"\nacme,55,2023-06-10\n", 0)
			require.Len(t, recs, 1)
			assert.Equal(t, "acme", recs[0].CustomerID)
			assert.Equal(t, tt.wantMRR, recs[0].MRR)
			require.NotNil(t, recs[0].SignupDate)
		})
	}
}

func TestNormalizeRowCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("id,mrr\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "c%d,%d\n", i, i)
	}

	recs := Normalize(b.String(), 3)
	require.Len(t, recs, 3)
	assert.Equal(t, "c0", recs[0].CustomerID)
	assert.Equal(t, "c2", recs[2].CustomerID)
}

func TestNormalizeEmptyAndUnparseable(t *testing.T) {
	assert.Empty(t, Normalize("", 0))
	assert.Empty(t, Normalize("   \n  ", 0))
	assert.Empty(t, Normalize("id,mrr\n", 0)) // header only
}

func TestNormalizeRaggedRows(t *testing.T) {
	// second row is short, third has extra fields; both still produce records
	recs := Normalize("id,mrr,signup_date\na,10,2024-01-01\nb\nc,30,2024-02-01,extra\n", 0)
	require.Len(t, recs, 3)
	assert.Equal(t, "b", recs[1].CustomerID)
	assert.Equal(t, 0.0, recs[1].MRR)
	assert.Nil(t, recs[1].SignupDate)
	assert.Equal(t, 30.0, recs[2].MRR)
}

func TestNormalizeOrderPreserved(t *testing.T) {
	recs := Normalize("id,mrr\nz,1\na,2\nm,3\n", 0)
	require.Len(t, recs, 3)
	assert.Equal(t, []string{"z", "a", "m"}, []string{recs[0].CustomerID, recs[1].CustomerID, recs[2].CustomerID})
}

func TestNormalizeCustomCandidates(t *testing.T) {
	cands := Candidates{
		ID:      []string{"account"},
		Revenue: []string{"arpu"},
		Date:    []string{"joined"},
	}
	recs := NormalizeWith("account,arpu,joined\nx,12,2022-02-02\n", 0, cands)
	require.Len(t, recs, 1)
	assert.Equal(t, "x", recs[0].CustomerID)
	assert.Equal(t, 12.0, recs[0].MRR)
}
