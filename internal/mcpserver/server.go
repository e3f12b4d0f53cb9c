// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mealtime tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mealtime/internal/apperr"
	"github.com/starford/mealtime/internal/diet"
	"github.com/starford/mealtime/internal/models"
	"github.com/starford/mealtime/internal/schedule"
)

const planFormatURI = "mealtime://plan-format"

// Server wraps the MCP server with mealtime tools.
type Server struct {
	mcp   *server.MCPServer
	store *diet.Store
	now   func() time.Time
}

// New creates a new MCP server with all mealtime tools registered. now
// defaults to time.Now.
func New(store *diet.Store, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	s := &Server{store: store, now: now}

	s.mcp = server.NewMCPServer(
		"Mealtime",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_diets",
		mcp.WithDescription("List every diet plan with its meals. The active plan has \"active\": true."),
	), s.listDiets)

	s.mcp.AddTool(mcp.NewTool("get_today",
		mcp.WithDescription("Meals of the active plan for today with their status (done, late, upcoming)."),
	), s.getToday)

	s.mcp.AddTool(mcp.NewTool("toggle_meal_done",
		mcp.WithDescription("Flip the done flag of a meal on a date. Returns the new value."),
		mcp.WithString("meal_id", mcp.Required(), mcp.Description("Meal id")),
		mcp.WithString("date", mcp.Description("Date as YYYY-MM-DD; today when empty")),
	), s.toggleMealDone)

	s.mcp.AddTool(mcp.NewTool("set_active_diet",
		mcp.WithDescription("Make a diet plan the active one. Its reminders replace the previous plan's."),
		mcp.WithString("diet_id", mcp.Required(), mcp.Description("Diet plan id")),
	), s.setActiveDiet)

	s.mcp.AddTool(mcp.NewTool("get_adherence",
		mcp.WithDescription("Percentage of recorded meals marked done over the last N days, today included."),
		mcp.WithNumber("days", mcp.Description("Window size in days (default 7)")),
	), s.getAdherence)

	s.mcp.AddTool(mcp.NewTool("save_diet",
		mcp.WithDescription("Create or replace a diet plan. The plan MUST follow the format returned by "+
			"get_plan_format or the "+planFormatURI+" resource."),
		mcp.WithString("plan", mcp.Required(), mcp.Description("Plan as a JSON object")),
		mcp.WithBoolean("activate", mcp.Description("Make the saved plan active")),
	), s.saveDiet)

	s.mcp.AddTool(mcp.NewTool("get_plan_format",
		mcp.WithDescription("Returns the JSON format of a diet plan. Call this before save_diet."),
	), s.getPlanFormat)

	s.mcp.AddResource(
		mcp.NewResource(planFormatURI, "Diet Plan Format",
			mcp.WithResourceDescription("JSON shape and rules of a diet plan."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readPlanFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listDiets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.store.Plans()), nil
}

func (s *Server) getToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := s.now()
	today := map[string]any{
		"date":    schedule.DateISO(now),
		"weekday": schedule.WeekdayOf(now),
		"meals":   s.store.MealStatuses(now),
	}
	if p := s.store.ActivePlan(); p != nil {
		today["diet"] = p.Name
	}
	return jsonResult(today), nil
}

func (s *Server) toggleMealDone(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mealID, err := req.RequireString("meal_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	date := req.GetString("date", "")
	if date == "" {
		date = schedule.DateISO(s.now())
	} else if _, err := schedule.ParseDate(date, time.UTC); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	done, err := s.store.ToggleMealDone(ctx, mealID, date)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s on %s: done=%t", mealID, date, done)), nil
}

func (s *Server) setActiveDiet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("diet_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.store.Plan(id) == nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	if err := s.store.SetActiveDiet(ctx, id); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("active: %s", id)), nil
}

func (s *Server) getAdherence(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days := req.GetInt("days", 7)
	if days < 1 {
		return mcp.NewToolResultError("days must be at least 1"), nil
	}
	return jsonResult(map[string]int{
		"days":    days,
		"percent": s.store.Adherence(days, s.now()),
	}), nil
}

func (s *Server) saveDiet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("plan")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var plan models.DietPlan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("plan is not valid JSON: %v", err)), nil
	}
	plan.ClearReminderTokens()
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}

	opts := diet.SaveOptions{SetActive: req.GetBool("activate", false)}
	if err := s.store.SaveDiet(ctx, plan, opts); err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			return mcp.NewToolResultError(err.Error() + " (see get_plan_format)"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.store.Plan(plan.ID)), nil
}

func (s *Server) getPlanFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(PlanFormat), nil
}

func (s *Server) readPlanFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      planFormatURI,
			MIMEType: "text/markdown",
			Text:     PlanFormat,
		},
	}, nil
}
