package correlation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNames(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		valid bool
	}{
		{"middle initial dropped", "RAHUL K SHARMA", "Rahul Sharma", true},
		{"different people", "Amit Verma", "Rahul Sharma", false},
		{"honorific and punctuation", "Mr. Rahul Sharma", "rahul sharma", true},
		{"initials expand", "R. K. Sharma", "Rahul Kumar Sharma", true},
		{"token order", "Sharma Rahul", "Rahul Sharma", true},
		{"single typo", "Rahul Sharmaa", "Rahul Sharma", true},
		{"first name only", "Rahul", "Rahul Sharma", false},
		{"firm prefix", "M/S Sharma Traders", "Sharma Traders", true},
		{"smt prefix", "Smt Sunita Devi", "SUNITA DEVI", true},
		{"empty", "", "Rahul Sharma", false},
		{"only honorifics", "Mr.", "Mr", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchNames(tt.a, tt.b)
			assert.Equal(t, tt.valid, got.Valid, "similarity=%.3f", got.Similarity)
		})
	}
}

func TestMatchNamesExactIsOne(t *testing.T) {
	got := MatchNames("RAHUL K SHARMA", "Rahul Sharma")
	assert.InDelta(t, 1.0, got.Similarity, 1e-9)
}

func TestMatchNamesMismatchScore(t *testing.T) {
	got := MatchNames("Amit Verma", "Rahul Sharma")
	assert.False(t, got.Valid)
	assert.Less(t, got.Similarity, DefaultNameThreshold)
	assert.GreaterOrEqual(t, got.Similarity, 0.0)
}

func TestMatchNamesIsSymmetric(t *testing.T) {
	names := []string{
		"RAHUL K SHARMA", "Rahul Sharma", "R Sharma", "Amit Verma", "A. Verma",
		"Rahul", "Sharma Rahul Kumar", "Dr. R. K. Sharma", "M/S Verma Traders", "",
		"Rahul Kumar", "Kumar Rahul S",
	}
	for _, a := range names {
		for _, b := range names {
			ab, ba := MatchNames(a, b), MatchNames(b, a)
			require.Equal(t, ab, ba, "asymmetric for %q / %q", a, b)
		}
	}
}

func TestNameMatcherThreshold(t *testing.T) {
	strict := NewNameMatcher(0.99)
	assert.False(t, strict.Match("Rahul Sharmaa", "Rahul Sharma").Valid)
	assert.Equal(t, 0.99, strict.Threshold())

	assert.Equal(t, DefaultNameThreshold, NewNameMatcher(0).Threshold())
	assert.Equal(t, DefaultNameThreshold, NewNameMatcher(3).Threshold())
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "rahul k sharma", NormalizeName("  Shri. RAHUL K. Sharma "))
}

func TestNormalizeDOB(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1990-08-15", "15/08/1990", true},
		{"15-08-1990", "15/08/1990", true},
		{"15/08/1990", "15/08/1990", true},
		{"1990/08/15", "15/08/1990", true},
		{" 15.08.1990 ", "15/08/1990", true},
		{"32/13/1990", "", false},
		{"15 Aug 1990", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDOB(tt.in)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchDob(t *testing.T) {
	assert.True(t, MatchDob("1990-08-15", "15/08/1990"))
	assert.True(t, MatchDob("15-08-1990", "1990/08/15"))
	assert.False(t, MatchDob("1990-08-15", "16/08/1990"))
	assert.False(t, MatchDob("garbage", "garbage"))
}

func TestMatchCategory(t *testing.T) {
	assert.True(t, MatchCategory(" Individual ", "individual"))
	assert.False(t, MatchCategory("company", "individual"))
	assert.False(t, MatchCategory("", "individual"))
}
