package mcpserver

// PlanFormat describes the JSON shape save_diet accepts.
const PlanFormat = `# Diet plan format

A plan is a JSON object:

` + "```" + `json
{
  "id": "optional; generated when empty, an existing id replaces that plan",
  "name": "Lean bulk",
  "objective": "BULK | CUT | MAINTAIN | CUSTOM",
  "description": "optional",
  "meals": [
    {
      "id": "optional; generated when empty",
      "name": "Breakfast",
      "time": "07:30",
      "alarmEnabled": true,
      "weekdays": ["MON", "TUE", "WED", "THU", "FRI"],
      "macros": {"calories": 500, "protein": 30, "carbs": 50, "fat": 15}
    }
  ]
}
` + "```" + `

## Rules

1. ` + "`name`" + ` must not be blank and ` + "`objective`" + ` must be one of the four values.
2. A plan needs at least one meal. Meal ids are unique within the plan.
3. ` + "`time`" + ` is 24h ` + "`HH:MM`" + `.
4. ` + "`weekdays`" + ` is a non-empty subset of SUN, MON, TUE, WED, THU, FRI, SAT.
   A meal is stored once and repeats on every listed day.
5. Macros are optional and never negative.
6. Reminder tokens are managed by the server; do not send them.
`
