package calendar

import (
	"testing"
	"time"
)

func mustDate(s string) time.Time {
	d, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleCalendar() *Calendar {
	return NewFromDates(map[string][]time.Time{
		"CN": {
			mustDate("2024-01-02"),
			mustDate("2024-01-03"),
			mustDate("2024-01-04"),
			mustDate("2024-01-05"),
			mustDate("2024-01-08"),
		},
	})
}

func TestIsTradingDay(t *testing.T) {
	cal := sampleCalendar()

	cases := []struct {
		date string
		want bool
	}{
		{"2024-01-02", true},
		{"2024-01-06", false}, // weekend, not loaded
		{"2024-01-08", true},
		{"2024-06-01", false}, // future, unknown -> fails closed
	}
	for _, tc := range cases {
		got := cal.IsTradingDay("CN", mustDate(tc.date))
		if got != tc.want {
			t.Errorf("IsTradingDay(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}

func TestIsTradingDayUnknownMarket(t *testing.T) {
	cal := sampleCalendar()
	if cal.IsTradingDay("US", mustDate("2024-01-02")) {
		t.Fatal("expected unknown market to fail closed")
	}
}

func TestNextTradingDay(t *testing.T) {
	cal := sampleCalendar()

	got := cal.NextTradingDay("CN", mustDate("2024-01-04"))
	want := mustDate("2024-01-05")
	if !got.Equal(want) {
		t.Fatalf("NextTradingDay = %v, want %v", got, want)
	}

	// weekend gap: next after Friday 01-05 is Monday 01-08
	got = cal.NextTradingDay("CN", mustDate("2024-01-05"))
	want = mustDate("2024-01-08")
	if !got.Equal(want) {
		t.Fatalf("NextTradingDay across weekend = %v, want %v", got, want)
	}

	// past the end of the loaded range
	if got := cal.NextTradingDay("CN", mustDate("2024-01-08")); !got.IsZero() {
		t.Fatalf("expected zero time past loaded range, got %v", got)
	}
}

func TestPrevTradingDay(t *testing.T) {
	cal := sampleCalendar()

	got := cal.PrevTradingDay("CN", mustDate("2024-01-08"))
	want := mustDate("2024-01-05")
	if !got.Equal(want) {
		t.Fatalf("PrevTradingDay = %v, want %v", got, want)
	}

	if got := cal.PrevTradingDay("CN", mustDate("2024-01-02")); !got.IsZero() {
		t.Fatalf("expected zero time before loaded range, got %v", got)
	}
}

func TestTradingDaysBetween(t *testing.T) {
	cal := sampleCalendar()

	got := cal.TradingDaysBetween("CN", mustDate("2024-01-02"), mustDate("2024-01-08"))
	if got != 5 {
		t.Fatalf("TradingDaysBetween = %d, want 5", got)
	}

	got = cal.TradingDaysBetween("CN", mustDate("2024-01-06"), mustDate("2024-01-07"))
	if got != 0 {
		t.Fatalf("TradingDaysBetween over a gap = %d, want 0", got)
	}
}
