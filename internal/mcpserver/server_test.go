package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/testutil"
)

// 2024-05-01 is a Wednesday.
var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testServer(t *testing.T) (*Server, *diet.Store) {
	t.Helper()

	store := diet.New(testutil.TestFS(t), testutil.NewFakeScheduler(), diet.WithLogger(testutil.Logger()))
	if err := store.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	srv := New(store, func() time.Time { return testNow })
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no "call tool" test helper, so handlers are called directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_diets":
		result, err = srv.listDiets(ctx, req)
	case "get_today":
		result, err = srv.getToday(ctx, req)
	case "toggle_meal_done":
		result, err = srv.toggleMealDone(ctx, req)
	case "set_active_diet":
		result, err = srv.setActiveDiet(ctx, req)
	case "get_adherence":
		result, err = srv.getAdherence(ctx, req)
	case "save_diet":
		result, err = srv.saveDiet(ctx, req)
	case "get_plan_format":
		result, err = srv.getPlanFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListDiets(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_diets", map[string]interface{}{})
	var plans []models.DietPlan
	if err := json.Unmarshal([]byte(resultText(r)), &plans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plans) != 3 {
		t.Errorf("plans = %d, want 3", len(plans))
	}
}

func TestGetToday(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_today", map[string]interface{}{})
	var today struct {
		Date    string           `json:"date"`
		Weekday string           `json:"weekday"`
		Diet    string           `json:"diet"`
		Meals   []diet.MealState `json:"meals"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &today); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if today.Date != "2024-05-01" || today.Weekday != "WED" {
		t.Errorf("day = %s/%s", today.Date, today.Weekday)
	}
	if today.Diet != "Essential Bulk" || len(today.Meals) != 6 {
		t.Errorf("diet = %q with %d meals", today.Diet, len(today.Meals))
	}
}

func TestToggleMealDone(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "toggle_meal_done", map[string]interface{}{"meal_id": "seed-bulk-1"})
	if text := resultText(r); text != "seed-bulk-1 on 2024-05-01: done=true" {
		t.Errorf("result = %q", text)
	}
	r = callTool(t, srv, "toggle_meal_done", map[string]interface{}{"meal_id": "seed-bulk-1", "date": "2024-05-01"})
	if text := resultText(r); !strings.HasSuffix(text, "done=false") {
		t.Errorf("second toggle = %q", text)
	}
	if got := len(store.History()); got != 1 {
		t.Errorf("history = %d, want 1", got)
	}
}

func TestToggleMealDone_BadInput(t *testing.T) {
	srv, _ := testServer(t)

	if r := callTool(t, srv, "toggle_meal_done", map[string]interface{}{}); !r.IsError {
		t.Error("expected error without meal_id")
	}
	if r := callTool(t, srv, "toggle_meal_done", map[string]interface{}{"meal_id": "m", "date": "May 1"}); !r.IsError {
		t.Error("expected error for bad date")
	}
}

func TestSetActiveDiet(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "set_active_diet", map[string]interface{}{"diet_id": "seed-cut"})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	if store.ActiveID() != "seed-cut" {
		t.Errorf("active = %q", store.ActiveID())
	}

	if r := callTool(t, srv, "set_active_diet", map[string]interface{}{"diet_id": "nope"}); !r.IsError {
		t.Error("expected error for unknown diet")
	}
}

func TestGetAdherence(t *testing.T) {
	srv, store := testServer(t)
	ctx := context.Background()
	_ = store.MarkMeal(ctx, "seed-bulk-1", "2024-05-01", true)
	_ = store.MarkMeal(ctx, "seed-bulk-2", "2024-04-30", false)

	r := callTool(t, srv, "get_adherence", map[string]interface{}{"days": float64(7)})
	var got map[string]int
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["days"] != 7 || got["percent"] != 50 {
		t.Errorf("adherence = %v, want 7 days at 50", got)
	}

	if r := callTool(t, srv, "get_adherence", map[string]interface{}{"days": float64(0)}); !r.IsError {
		t.Error("expected error for zero days")
	}
}

func TestSaveDiet(t *testing.T) {
	srv, store := testServer(t)

	plan := `{"name":"Agent plan","objective":"CUT","meals":[{"name":"Soup","time":"12:30","weekdays":["MON"]}]}`
	r := callTool(t, srv, "save_diet", map[string]interface{}{"plan": plan, "activate": true})
	if r.IsError {
		t.Fatalf("error: %s", resultText(r))
	}
	var saved models.DietPlan
	if err := json.Unmarshal([]byte(resultText(r)), &saved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if saved.ID == "" || !saved.Active {
		t.Errorf("saved = %+v", saved)
	}
	if store.ActiveID() != saved.ID {
		t.Errorf("active = %q, want %q", store.ActiveID(), saved.ID)
	}
}

func TestSaveDiet_Invalid(t *testing.T) {
	srv, store := testServer(t)

	r := callTool(t, srv, "save_diet", map[string]interface{}{"plan": `{"name":"No meals","objective":"CUT","meals":[]}`})
	if !r.IsError || !strings.Contains(resultText(r), "get_plan_format") {
		t.Errorf("result = %q, want validation error", resultText(r))
	}
	if r := callTool(t, srv, "save_diet", map[string]interface{}{"plan": "{"}); !r.IsError {
		t.Error("expected error for invalid JSON")
	}
	if got := len(store.Plans()); got != 3 {
		t.Errorf("plans = %d, want 3", got)
	}
}

func TestGetPlanFormat(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "get_plan_format", map[string]interface{}{})
	if !strings.Contains(resultText(r), "weekdays") {
		t.Error("format does not mention weekdays")
	}
}
