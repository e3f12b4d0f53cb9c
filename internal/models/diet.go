// Package models defines the domain types for mealtime.
package models

// Objective is the goal category of a diet plan.
type Objective string

const (
	ObjectiveBulk     Objective = "BULK"
	ObjectiveCut      Objective = "CUT"
	ObjectiveMaintain Objective = "MAINTAIN"
	ObjectiveCustom   Objective = "CUSTOM"
)

// Objectives lists every valid objective.
var Objectives = []Objective{ObjectiveBulk, ObjectiveCut, ObjectiveMaintain, ObjectiveCustom}

// Weekday is the symbolic day key used throughout the plan model.
type Weekday string

const (
	Sunday    Weekday = "SUN"
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
)

// Weekdays is the Sunday-first week order.
var Weekdays = []Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// Macros holds optional macro values. A nil field means "not tracked".
type Macros struct {
	Calories *float64 `json:"calories,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
}

// Meal is one scheduled meal of a plan. It is stored once per plan and
// repeats on every day in Weekdays.
type Meal struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Time         string    `json:"time"` // HH:MM, 24h
	Macros       *Macros   `json:"macros,omitempty"`
	AlarmEnabled bool      `json:"alarmEnabled"`
	Weekdays     []Weekday `json:"weekdays"`
	// ReminderTokens are the scheduler handles of the meal's live reminders,
	// one per weekday registration.
	ReminderTokens []string `json:"reminderTokens,omitempty"`
}

// HasWeekday reports whether the meal repeats on day.
func (m Meal) HasWeekday(day Weekday) bool {
	for _, d := range m.Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the meal.
func (m Meal) Clone() Meal {
	out := m
	if m.Macros != nil {
		mc := cloneMacros(*m.Macros)
		out.Macros = &mc
	}
	if m.Weekdays != nil {
		out.Weekdays = append([]Weekday(nil), m.Weekdays...)
	}
	if m.ReminderTokens != nil {
		out.ReminderTokens = append([]string(nil), m.ReminderTokens...)
	}
	return out
}

func cloneMacros(m Macros) Macros {
	return Macros{
		Calories: cloneFloat(m.Calories),
		Protein:  cloneFloat(m.Protein),
		Carbs:    cloneFloat(m.Carbs),
		Fat:      cloneFloat(m.Fat),
	}
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// DayPlan is the derived per-weekday view of a plan's meals.
type DayPlan struct {
	Day   Weekday `json:"day"`
	Meals []Meal  `json:"meals"`
}

// DietPlan is a named set of scheduled meals.
type DietPlan struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Objective   Objective `json:"objective"`
	Description string    `json:"description,omitempty"`
	Meals       []Meal    `json:"meals"`
	Active      bool      `json:"active"`
}

// Clone returns a deep copy of the plan.
func (p DietPlan) Clone() DietPlan {
	out := p
	if p.Meals != nil {
		out.Meals = make([]Meal, len(p.Meals))
		for i, m := range p.Meals {
			out.Meals[i] = m.Clone()
		}
	}
	return out
}

// Meal returns a pointer to the meal with the given id, or nil.
func (p *DietPlan) Meal(id string) *Meal {
	for i := range p.Meals {
		if p.Meals[i].ID == id {
			return &p.Meals[i]
		}
	}
	return nil
}

// ReminderTokens returns every stored reminder token of the plan,
// deduplicated, in meal order.
func (p DietPlan) ReminderTokens() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range p.Meals {
		for _, tok := range m.ReminderTokens {
			if tok == "" {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}

// ClearReminderTokens drops the stored tokens of every meal.
func (p *DietPlan) ClearReminderTokens() {
	for i := range p.Meals {
		p.Meals[i].ReminderTokens = nil
	}
}

// ClonePlans deep-copies a plan slice.
func ClonePlans(plans []DietPlan) []DietPlan {
	if plans == nil {
		return nil
	}
	out := make([]DietPlan, len(plans))
	for i, p := range plans {
		out[i] = p.Clone()
	}
	return out
}
