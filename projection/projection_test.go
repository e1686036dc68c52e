package projection_test

import (
	"errors"
	"math/rand/v2"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/meenmo/bondmodel/projection"
	"github.com/meenmo/bondmodel/utils"
)

func mustAxis(t *testing.T, valuation, end time.Time) *projection.Axis {
	t.Helper()
	a, err := projection.NewAxis(valuation, end)
	if err != nil {
		t.Fatalf("NewAxis: %v", err)
	}
	return a
}

func TestNewAxis_ThreeYears(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2025, 1, 1))
	want := []time.Time{
		utils.Date(2022, 1, 1),
		utils.Date(2023, 1, 1),
		utils.Date(2024, 1, 1),
		utils.Date(2025, 1, 1),
	}
	if a.Len() != 3 {
		t.Fatalf("Len = %d, want 3", a.Len())
	}
	if got := a.Dates(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Dates = %v, want %v", got, want)
	}
}

func TestNewAxis_HorizonLength(t *testing.T) {
	t.Parallel()

	cases := []struct {
		valuation, end time.Time
		want           int
	}{
		{utils.Date(2022, 1, 1), utils.Date(2053, 1, 1), 31},
		{utils.Date(2022, 1, 1), utils.Date(2022, 1, 2), 1},
		{utils.Date(2022, 1, 1), utils.Date(2024, 12, 31), 3},
		{utils.Date(2022, 1, 1), utils.Date(2022, 1, 1), 0},
		{utils.Date(2020, 2, 29), utils.Date(2024, 2, 29), 5},
	}
	for _, tc := range cases {
		a := mustAxis(t, tc.valuation, tc.end)
		n := a.Len()
		if n != tc.want {
			t.Fatalf("Len(%s..%s) = %d, want %d", tc.valuation.Format(utils.DateLayout), tc.end.Format(utils.DateLayout), n, tc.want)
		}
		if a.Date(n).Before(tc.end) {
			t.Fatalf("Date(N) %s before end %s", a.Date(n), tc.end)
		}
		if n > 0 && !a.Date(n-1).Before(tc.end) {
			t.Fatalf("Date(N-1) %s not before end %s", a.Date(n-1), tc.end)
		}
	}
}

func TestAxis_DateIsRecursive(t *testing.T) {
	t.Parallel()

	// Feb 29 clamps to Feb 28 and stays there.
	a := mustAxis(t, utils.Date(2020, 2, 29), utils.Date(2023, 1, 1))
	if got := a.Date(1); !got.Equal(utils.Date(2021, 2, 28)) {
		t.Fatalf("Date(1) = %s", got)
	}
	if got := a.Date(4); !got.Equal(utils.Date(2024, 2, 28)) {
		t.Fatalf("Date(4) = %s", got)
	}
}

func TestNewAxis_EndBeforeValuation(t *testing.T) {
	t.Parallel()

	_, err := projection.NewAxis(utils.Date(2022, 1, 1), utils.Date(2021, 12, 31))
	if !errors.Is(err, projection.ErrHorizonBeforeValuation) {
		t.Fatalf("expected ErrHorizonBeforeValuation, got %v", err)
	}
}

func TestBucket_TwoCoupons(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2025, 1, 1))
	s, err := projection.Bucket([]projection.Event{
		{Date: utils.Date(2022, 6, 1), Amount: 10},
		{Date: utils.Date(2023, 6, 1), Amount: 10},
	}, a)
	if err != nil {
		t.Fatalf("Bucket: %v", err)
	}
	if want := []float64{10, 10, 0}; !reflect.DeepEqual(s.Values, want) {
		t.Fatalf("Values = %v, want %v", s.Values, want)
	}
	if s.Dropped() != 0 {
		t.Fatalf("unexpected drops: %+v", s)
	}
}

func TestBucket_BoundaryBelongsToLaterPeriod(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2025, 1, 1))
	s, err := projection.Bucket([]projection.Event{
		{Date: utils.Date(2022, 1, 1), Amount: 1},
		{Date: utils.Date(2023, 1, 1), Amount: 5},
	}, a)
	if err != nil {
		t.Fatalf("Bucket: %v", err)
	}
	if want := []float64{1, 5, 0}; !reflect.DeepEqual(s.Values, want) {
		t.Fatalf("Values = %v, want %v", s.Values, want)
	}
}

func TestBucket_DropsOutOfHorizon(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2025, 1, 1))
	s, err := projection.Bucket([]projection.Event{
		{Date: utils.Date(2021, 12, 31), Amount: 3},
		{Date: utils.Date(2024, 12, 31), Amount: 4},
		{Date: utils.Date(2025, 1, 1), Amount: 100},
		{Date: utils.Date(2030, 1, 1), Amount: 200},
	}, a)
	if err != nil {
		t.Fatalf("Bucket: %v", err)
	}
	if want := []float64{0, 0, 4}; !reflect.DeepEqual(s.Values, want) {
		t.Fatalf("Values = %v, want %v", s.Values, want)
	}
	if s.DroppedBefore != 1 || s.DroppedAfter != 2 || s.DroppedBeforeAmount != 3 || s.DroppedAfterAmount != 300 {
		t.Fatalf("drop counts %+v", s)
	}
}

func TestBucket_OutOfOrder(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2025, 1, 1))
	_, err := projection.Bucket([]projection.Event{
		{Date: utils.Date(2022, 6, 1), Amount: 1},
		{Date: utils.Date(2023, 6, 1), Amount: 1},
		{Date: utils.Date(2023, 5, 1), Amount: 1},
	}, a)
	var oe *projection.OrderError
	if !errors.As(err, &oe) {
		t.Fatalf("expected *OrderError, got %v", err)
	}
	if oe.Index != 2 {
		t.Fatalf("OrderError.Index = %d, want 2", oe.Index)
	}
}

func TestBucket_EmptyHorizon(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2022, 1, 1))
	s, err := projection.Bucket([]projection.Event{{Date: utils.Date(2022, 1, 1), Amount: 7}}, a)
	if err != nil {
		t.Fatalf("Bucket: %v", err)
	}
	if len(s.Values) != 0 || s.DroppedAfter != 1 {
		t.Fatalf("unexpected series %+v", s)
	}
}

// Random sorted streams: the bucket total equals the in-horizon event total and
// repeated runs give identical output.
func TestBucket_SumAndDeterminism(t *testing.T) {
	t.Parallel()

	a := mustAxis(t, utils.Date(2022, 1, 1), utils.Date(2040, 1, 1))
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 50; round++ {
		events := make([]projection.Event, rng.IntN(60))
		for i := range events {
			events[i] = projection.Event{
				Date:   utils.Date(2018, 1, 1).AddDate(0, 0, rng.IntN(365*25)),
				Amount: float64(rng.IntN(10000)) / 100,
			}
		}
		sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

		inside := 0.0
		for _, ev := range events {
			if !ev.Date.Before(a.Start()) && ev.Date.Before(a.End()) {
				inside += ev.Amount
			}
		}

		s1, err := projection.Bucket(events, a)
		if err != nil {
			t.Fatalf("Bucket: %v", err)
		}
		s2, err := projection.Bucket(events, a)
		if err != nil {
			t.Fatalf("Bucket: %v", err)
		}
		if !reflect.DeepEqual(s1, s2) {
			t.Fatalf("round %d: bucketing is not deterministic", round)
		}
		if diff := s1.Total() - inside; diff > 1e-9 || diff < -1e-9 {
			t.Fatalf("round %d: bucket total %.6f, in-horizon total %.6f", round, s1.Total(), inside)
		}
		if s1.Dropped()+countInside(events, a) != len(events) {
			t.Fatalf("round %d: drop count mismatch", round)
		}
	}
}

func countInside(events []projection.Event, a *projection.Axis) int {
	n := 0
	for _, ev := range events {
		if !ev.Date.Before(a.Start()) && ev.Date.Before(a.End()) {
			n++
		}
	}
	return n
}

func TestSum(t *testing.T) {
	t.Parallel()

	got, err := projection.Sum(3, []float64{1, 2, 3}, []float64{10, 20, 30})
	if err != nil {
		t.Fatalf("Sum: %v", err)
	}
	if want := []float64{11, 22, 33}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Sum = %v, want %v", got, want)
	}
	if got, err := projection.Sum(2); err != nil || !reflect.DeepEqual(got, []float64{0, 0}) {
		t.Fatalf("empty Sum = %v, %v", got, err)
	}
	if _, err := projection.Sum(2, []float64{1}); err == nil {
		t.Fatalf("length mismatch should fail")
	}
}
