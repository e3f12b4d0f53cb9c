package schedule

import (
	"slices"
	"testing"
	"time"

	"github.com/starford/mealtime/internal/models"
)

func TestParseTime(t *testing.T) {
	cases := []struct {
		in     string
		ok     bool
		hour   int
		minute int
	}{
		{"07:30", true, 7, 30},
		{"00:00", true, 0, 0},
		{"23:59", true, 23, 59},
		{"24:00", false, 0, 0},
		{"12:60", false, 0, 0},
		{"7:30", false, 0, 0},
		{"07:3", false, 0, 0},
		{"07-30", false, 0, 0},
		{"ab:cd", false, 0, 0},
		{"07:30:00", false, 0, 0},
		{"", false, 0, 0},
	}
	for _, tc := range cases {
		h, m, err := ParseTime(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("ParseTime(%q) err = %v, want ok=%v", tc.in, err, tc.ok)
			continue
		}
		if tc.ok && (h != tc.hour || m != tc.minute) {
			t.Errorf("ParseTime(%q) = %d:%d, want %d:%d", tc.in, h, m, tc.hour, tc.minute)
		}
		if ValidTime(tc.in) != tc.ok {
			t.Errorf("ValidTime(%q) = %v", tc.in, !tc.ok)
		}
	}
}

func TestSchedulerWeekdayRoundTrip(t *testing.T) {
	if got := SchedulerWeekday(models.Sunday); got != 1 {
		t.Errorf("Sunday = %d, want 1", got)
	}
	if got := SchedulerWeekday(models.Saturday); got != 7 {
		t.Errorf("Saturday = %d, want 7", got)
	}
	for _, d := range models.Weekdays {
		back, err := FromSchedulerWeekday(SchedulerWeekday(d))
		if err != nil || back != d {
			t.Errorf("round trip %s -> %s (%v)", d, back, err)
		}
	}
	if _, err := FromSchedulerWeekday(0); err == nil {
		t.Error("expected error for index 0")
	}
}

func TestWeekdayOf(t *testing.T) {
	// 2024-05-01 was a Wednesday.
	day := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if got := WeekdayOf(day); got != models.Wednesday {
		t.Errorf("WeekdayOf = %s, want WED", got)
	}
}

func TestNextOccurrence(t *testing.T) {
	from := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) // Wednesday, index 4
	cases := []struct {
		name    string
		weekday int
		hour    int
		want    time.Time
	}{
		{"later today", 4, 13, time.Date(2024, 5, 1, 13, 0, 0, 0, time.UTC)},
		{"earlier today rolls a week", 4, 11, time.Date(2024, 5, 8, 11, 0, 0, 0, time.UTC)},
		{"exactly now rolls a week", 4, 12, time.Date(2024, 5, 8, 12, 0, 0, 0, time.UTC)},
		{"next friday", 6, 8, time.Date(2024, 5, 3, 8, 0, 0, 0, time.UTC)},
		{"next sunday", 1, 9, time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got := NextOccurrence(tc.weekday, tc.hour, 0, from)
		if !got.Equal(tc.want) {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSortMealsStable(t *testing.T) {
	meals := []models.Meal{
		{ID: "c", Time: "13:00"},
		{ID: "a", Time: "07:30"},
		{ID: "b1", Time: "10:00"},
		{ID: "b2", Time: "10:00"},
	}
	got := SortMeals(meals)
	var ids []string
	for _, m := range got {
		ids = append(ids, m.ID)
	}
	want := []string{"a", "b1", "b2", "c"}
	if !slices.Equal(ids, want) {
		t.Errorf("order = %v, want %v", ids, want)
	}
	if meals[0].ID != "c" {
		t.Error("SortMeals must not reorder its input")
	}
}

func TestDayPlansAlwaysSeven(t *testing.T) {
	meals := []models.Meal{
		{ID: "m1", Time: "12:00", Weekdays: []models.Weekday{models.Monday, models.Friday}},
		{ID: "m2", Time: "08:00", Weekdays: []models.Weekday{models.Monday}},
	}
	days := DayPlans(meals)
	if len(days) != 7 {
		t.Fatalf("len = %d, want 7", len(days))
	}
	if days[0].Day != models.Sunday || len(days[0].Meals) != 0 {
		t.Errorf("sunday = %+v", days[0])
	}
	if len(days[1].Meals) != 2 || days[1].Meals[0].ID != "m2" {
		t.Errorf("monday = %+v", days[1])
	}
	if len(days[5].Meals) != 1 || days[5].Meals[0].ID != "m1" {
		t.Errorf("friday = %+v", days[5])
	}
}

func TestCollapseDayPlans(t *testing.T) {
	days := []models.DayPlan{
		{Day: models.Monday, Meals: []models.Meal{
			{ID: "m1", Name: "Lunch", Time: "12:00", ReminderTokens: []string{"a"}},
		}},
		{Day: models.Wednesday, Meals: []models.Meal{
			{ID: "m1", Name: "Lunch", Time: "12:00", ReminderTokens: []string{"b", "a"}},
			{ID: "m2", Name: "Dinner", Time: "19:00"},
		}},
		{Day: models.Sunday, Meals: []models.Meal{
			{ID: "m1", Name: "Lunch", Time: "12:00", Weekdays: []models.Weekday{models.Sunday}},
		}},
	}
	meals := CollapseDayPlans(days)
	if len(meals) != 2 {
		t.Fatalf("len = %d, want 2", len(meals))
	}
	m1 := meals[0]
	wantDays := []models.Weekday{models.Sunday, models.Monday, models.Wednesday}
	if !slices.Equal(m1.Weekdays, wantDays) {
		t.Errorf("m1 weekdays = %v, want %v", m1.Weekdays, wantDays)
	}
	if !slices.Equal(m1.ReminderTokens, []string{"a", "b"}) {
		t.Errorf("m1 tokens = %v", m1.ReminderTokens)
	}
	if meals[1].ID != "m2" || !slices.Equal(meals[1].Weekdays, []models.Weekday{models.Wednesday}) {
		t.Errorf("m2 = %+v", meals[1])
	}
}

func TestCollapseUndoesDayPlans(t *testing.T) {
	meals := []models.Meal{
		{ID: "m1", Time: "12:00", Weekdays: []models.Weekday{models.Monday, models.Tuesday}},
		{ID: "m2", Time: "08:00", Weekdays: []models.Weekday{models.Saturday}},
	}
	back := CollapseDayPlans(DayPlans(meals))
	if len(back) != 2 {
		t.Fatalf("len = %d", len(back))
	}
	for _, m := range back {
		orig := meals[0]
		if m.ID == "m2" {
			orig = meals[1]
		}
		if !slices.Equal(m.Weekdays, orig.Weekdays) {
			t.Errorf("%s weekdays = %v, want %v", m.ID, m.Weekdays, orig.Weekdays)
		}
	}
}

func TestSplitLegacyTokens(t *testing.T) {
	got := SplitLegacyTokens("a|b||a")
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
	if SplitLegacyTokens("") != nil {
		t.Error("empty string should give nil")
	}
}

func TestMealStatus(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	meal := models.Meal{Time: "11:30"}
	if got := MealStatus(meal, false, now); got != StatusLate {
		t.Errorf("past meal = %s, want late", got)
	}
	if got := MealStatus(meal, true, now); got != StatusDone {
		t.Errorf("done meal = %s, want done", got)
	}
	meal.Time = "12:30"
	if got := MealStatus(meal, false, now); got != StatusUpcoming {
		t.Errorf("future meal = %s, want upcoming", got)
	}
}
