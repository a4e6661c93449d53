package fault

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var start = time.Date(2021, 5, 22, 19, 0, 0, 0, time.UTC)

func at(secs float64) time.Time {
	return start.Add(time.Duration(secs * float64(time.Second)))
}

func TestTracker(t *testing.T) {
	testCases := []struct {
		name    string
		faults  []float64
		recover []bool
		count   int
	}{
		{
			name:    "burst within window",
			faults:  []float64{0, 0.5, 1.0},
			recover: []bool{false, false, true},
			count:   0,
		},
		{
			name:    "spread out",
			faults:  []float64{0, 5, 10},
			recover: []bool{false, false, false},
			count:   0,
		},
		{
			name:    "gap resets count",
			faults:  []float64{0, 1, 3.5, 4, 4.5},
			recover: []bool{false, false, false, false, false},
			count:   2,
		},
		{
			name:    "window is inclusive",
			faults:  []float64{2, 4, 6},
			recover: []bool{false, false, true},
			count:   0,
		},
		{
			name:    "no immediate retrigger",
			faults:  []float64{0, 0.5, 1.0, 1.2, 1.4},
			recover: []bool{false, false, true, false, false},
			count:   2,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := NewTracker(start)
			for n, secs := range tc.faults {
				require.Equalf(t, tc.recover[n], tr.Observe(at(secs)), "fault[%d]", n)
			}
			require.Equal(t, tc.count, tr.State().Count)
			require.Equal(t, at(tc.faults[len(tc.faults)-1]), tr.State().LastFault)
		})
	}
}

func TestStateBursting(t *testing.T) {
	require.False(t, State{}.Bursting())
	require.True(t, State{Count: 1}.Bursting())
}
