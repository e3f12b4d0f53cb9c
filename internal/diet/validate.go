package diet

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/schedule"
)

var (
	errBlank       = validation.NewError("validation_blank", "cannot be blank")
	errBadTime     = validation.NewError("validation_time", "must be HH:MM")
	errNegative    = validation.NewError("validation_negative", "macros cannot be negative")
	errDuplicateID = validation.NewError("validation_duplicate_id", "meal ids must be unique")
)

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errBlank
	}
	return nil
}

func validTime(value any) error {
	s, _ := value.(string)
	if !schedule.ValidTime(s) {
		return errBadTime
	}
	return nil
}

func nonNegativeMacros(value any) error {
	m, _ := value.(*models.Macros)
	if m == nil {
		return nil
	}
	for _, v := range []*float64{m.Calories, m.Protein, m.Carbs, m.Fat} {
		if v != nil && *v < 0 {
			return errNegative
		}
	}
	return nil
}

func uniqueMealIDs(value any) error {
	meals, _ := value.([]models.Meal)
	seen := make(map[string]struct{}, len(meals))
	for _, m := range meals {
		if _, ok := seen[m.ID]; ok {
			return errDuplicateID
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

func weekdayRules() []any {
	out := make([]any, len(models.Weekdays))
	for i, d := range models.Weekdays {
		out[i] = d
	}
	return out
}

func objectiveRules() []any {
	out := make([]any, len(models.Objectives))
	for i, o := range models.Objectives {
		out[i] = o
	}
	return out
}

func validateMeal(value any) error {
	m, _ := value.(models.Meal)
	return validation.ValidateStruct(&m,
		validation.Field(&m.ID, validation.Required),
		validation.Field(&m.Name, validation.By(notBlank)),
		validation.Field(&m.Time, validation.Required, validation.By(validTime)),
		validation.Field(&m.Weekdays, validation.Required, validation.Each(validation.In(weekdayRules()...))),
		validation.Field(&m.Macros, validation.By(nonNegativeMacros)),
	)
}

// ValidatePlan checks a plan before it is saved. The returned error wraps
// apperr.ErrValidation.
func ValidatePlan(p models.DietPlan) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Name, validation.By(notBlank)),
		validation.Field(&p.Objective, validation.Required, validation.In(objectiveRules()...)),
		validation.Field(&p.Meals,
			validation.Required.Error("a plan needs at least one meal"),
			validation.By(uniqueMealIDs),
			validation.Each(validation.By(validateMeal)),
		),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return nil
}

// normalizePlan fills in generated ids and trims names.
func normalizePlan(p *models.DietPlan) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Name = strings.TrimSpace(p.Name)
	for i := range p.Meals {
		if p.Meals[i].ID == "" {
			p.Meals[i].ID = uuid.NewString()
		}
		p.Meals[i].Name = strings.TrimSpace(p.Meals[i].Name)
	}
}

// ValidateConfigPatch checks the keys a preferences patch carries. The
// returned error wraps apperr.ErrValidation.
func ValidateConfigPatch(p models.ConfigPatch) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Theme, validation.In(models.ThemeSystem, models.ThemeLight, models.ThemeDark)),
		validation.Field(&p.DefaultSnoozeMinutes, validation.Min(1), validation.Max(120)),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrValidation, err)
	}
	return nil
}
