package core

import "testing"

func TestPeriodStart(t *testing.T) {
	cases := []struct {
		name   string
		period PeriodType
		ref    Date
		want   Date
	}{
		{"monthly mid-month", Monthly, NewDate(2024, 3, 15), NewDate(2024, 3, 1)},
		{"monthly first day", Monthly, NewDate(2024, 3, 1), NewDate(2024, 3, 1)},
		{"quarterly mid-quarter", Quarterly, NewDate(2024, 5, 20), NewDate(2024, 4, 1)},
		{"quarterly boundary month", Quarterly, NewDate(2024, 4, 1), NewDate(2024, 4, 1)},
		{"quarterly last month", Quarterly, NewDate(2024, 12, 31), NewDate(2024, 10, 1)},
		{"quarterly january", Quarterly, NewDate(2024, 2, 10), NewDate(2024, 1, 1)},
		{"yearly", Yearly, NewDate(2024, 7, 4), NewDate(2024, 1, 1)},
		{"yearly january first", Yearly, NewDate(2024, 1, 1), NewDate(2024, 1, 1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := PeriodStart(tc.period, tc.ref)
			if !got.Equal(tc.want.Time) {
				t.Fatalf("PeriodStart(%s, %s) = %s, want %s", tc.period, tc.ref, got, tc.want)
			}
		})
	}
}

func TestPeriodStartIdempotent(t *testing.T) {
	refs := []Date{
		NewDate(2024, 1, 1),
		NewDate(2024, 2, 29),
		NewDate(2024, 6, 30),
		NewDate(2024, 12, 31),
	}
	for _, p := range []PeriodType{Monthly, Quarterly, Yearly} {
		for _, ref := range refs {
			once := PeriodStart(p, ref)
			twice := PeriodStart(p, once)
			if !twice.Equal(once.Time) {
				t.Fatalf("%s not idempotent at %s: %s != %s", p, ref, twice, once)
			}
		}
	}
}
