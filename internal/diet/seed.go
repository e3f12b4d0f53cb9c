package diet

import "github.com/starford/mealtime/internal/models"

type seedMeal struct {
	id, name, time            string
	kcal, protein, carbs, fat float64
}

func seedMeals(in []seedMeal) []models.Meal {
	out := make([]models.Meal, 0, len(in))
	for _, m := range in {
		kcal, protein, carbs, fat := m.kcal, m.protein, m.carbs, m.fat
		out = append(out, models.Meal{
			ID:           m.id,
			Name:         m.name,
			Time:         m.time,
			Macros:       &models.Macros{Calories: &kcal, Protein: &protein, Carbs: &carbs, Fat: &fat},
			AlarmEnabled: true,
			Weekdays:     append([]models.Weekday(nil), models.Weekdays...),
		})
	}
	return out
}

// SeedPlans returns the built-in plans written on first start. The bulk plan
// is flagged active.
func SeedPlans() []models.DietPlan {
	return []models.DietPlan{
		{
			ID:          "seed-bulk",
			Name:        "Essential Bulk",
			Objective:   models.ObjectiveBulk,
			Description: "Controlled calorie surplus.",
			Active:      true,
			Meals: seedMeals([]seedMeal{
				{"seed-bulk-1", "Big breakfast", "07:30", 600, 35, 60, 20},
				{"seed-bulk-2", "Morning snack", "10:30", 300, 20, 35, 10},
				{"seed-bulk-3", "Lunch", "13:00", 800, 45, 80, 25},
				{"seed-bulk-4", "Afternoon snack", "16:00", 350, 20, 40, 12},
				{"seed-bulk-5", "Dinner", "19:30", 700, 40, 60, 20},
				{"seed-bulk-6", "Supper", "22:00", 450, 30, 30, 15},
			}),
		},
		{
			ID:          "seed-cut",
			Name:        "Smart Cut",
			Objective:   models.ObjectiveCut,
			Description: "High satiety, high protein deficit.",
			Meals: seedMeals([]seedMeal{
				{"seed-cut-1", "Protein breakfast", "07:30", 350, 30, 25, 10},
				{"seed-cut-2", "Light snack", "10:30", 200, 15, 20, 7},
				{"seed-cut-3", "Light lunch", "13:00", 550, 40, 45, 15},
				{"seed-cut-4", "Green snack", "16:00", 180, 12, 15, 6},
				{"seed-cut-5", "Lean dinner", "19:30", 500, 45, 35, 15},
			}),
		},
		{
			ID:          "seed-maintain",
			Name:        "Balanced Maintenance",
			Objective:   models.ObjectiveMaintain,
			Description: "Balanced plan to hold weight.",
			Meals: seedMeals([]seedMeal{
				{"seed-maintain-1", "Full breakfast", "07:30", 450, 25, 50, 15},
				{"seed-maintain-2", "Fruit and yogurt", "10:30", 250, 12, 35, 8},
				{"seed-maintain-3", "Classic lunch", "13:00", 650, 35, 70, 20},
				{"seed-maintain-4", "Quick snack", "16:00", 250, 15, 30, 8},
				{"seed-maintain-5", "Light dinner", "19:30", 600, 30, 55, 18},
			}),
		},
	}
}
