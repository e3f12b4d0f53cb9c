package diet

import "github.com/starford/mealtime/internal/notify"

func payloadFor(dietID, mealID string) notify.Payload {
	return notify.Payload{MealID: mealID, DietID: dietID}
}
