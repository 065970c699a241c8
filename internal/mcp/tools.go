package mcp

import (
	"context"
	"time"

	"github.com/claude/movecoach/internal/exercise"
	"github.com/claude/movecoach/internal/models"
	"github.com/claude/movecoach/internal/program"
	"github.com/mark3labs/mcp-go/mcp"
)

// defaultTimeRange returns start/end defaulting to the last 7 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if endStr != "" {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		end = time.Now()
	}

	if startStr != "" {
		start, err = parseFlexTime(startStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	} else {
		start = end.AddDate(0, 0, -7)
	}

	return start, end, nil
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// report rates a set of stored results as one program.
func report(results []models.SessionResult) program.Report {
	summaries := make([]exercise.Summary, len(results))
	for i, r := range results {
		summaries[i] = r.Summary()
	}
	return program.Evaluate(summaries)
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List all supported exercises with their keys, repetition and set targets, hold duration and whether they train both sides."),
)

var toolQueryResults = mcp.NewTool("query_results",
	mcp.WithDescription("Query recorded exercise results. Each result has the target and completed repetitions and sets, give-ups, side and timing."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD). Defaults to now.")),
	mcp.WithString("exercise", mcp.Description("Filter by exercise key (e.g. 'shoulder_abduction'). Use list_exercises for keys.")),
)

var toolGetExerciseStats = mcp.NewTool("get_exercise_stats",
	mcp.WithDescription("Per-exercise statistics over a time range: sessions, completed sessions, repetitions, give-ups, completion rate and last session time."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolGetProgressReport = mcp.NewTool("get_progress_report",
	mcp.WithDescription("Rate all results in a time range together. Returns the completed fraction of target repetitions, a rating category (laugh, smile, meh, frown, open_frown) and the patient feedback message."),
	mcp.WithString("start", mcp.Description("Start date. Defaults to 7 days ago.")),
	mcp.WithString("end", mcp.Description("End date. Defaults to now.")),
)

var toolComparePeriods = mcp.NewTool("compare_periods",
	mcp.WithDescription("Compare progress reports between two time periods (e.g. this week vs last week)."),
	mcp.WithString("period_a_start", mcp.Required(), mcp.Description("Period A start date")),
	mcp.WithString("period_a_end", mcp.Required(), mcp.Description("Period A end date")),
	mcp.WithString("period_b_start", mcp.Required(), mcp.Description("Period B start date")),
	mcp.WithString("period_b_end", mcp.Required(), mcp.Description("Period B end date")),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(h.catalog.Infos())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) queryResults(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	key := req.GetString("exercise", "")
	if key != "" {
		if _, err := h.catalog.Get(key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	uid := UserIDFromContext(ctx)
	results, err := h.ds.QuerySessionResults(ctx, uid, start, end, key)
	if err != nil {
		h.log.Error("mcp query_results", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if results == nil {
		results = []models.SessionResult{}
	}

	result, err := mcp.NewToolResultJSON(results)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	stats, err := h.ds.GetExerciseStats(ctx, uid, start, end)
	if err != nil {
		h.log.Error("mcp get_exercise_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(stats)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgressReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	uid := UserIDFromContext(ctx)
	results, err := h.ds.QuerySessionResults(ctx, uid, start, end, "")
	if err != nil {
		h.log.Error("mcp get_progress_report", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(report(results))
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) comparePeriods(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var bounds [4]time.Time
	for i, name := range []string{"period_a_start", "period_a_end", "period_b_start", "period_b_end"} {
		s, err := req.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(name + " parameter is required"), nil
		}
		bounds[i], err = parseFlexTime(s)
		if err != nil {
			return mcp.NewToolResultError("invalid " + name + ": " + err.Error()), nil
		}
	}

	uid := UserIDFromContext(ctx)
	resultsA, err := h.ds.QuerySessionResults(ctx, uid, bounds[0], bounds[1], "")
	if err != nil {
		h.log.Error("mcp compare_periods A", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	resultsB, err := h.ds.QuerySessionResults(ctx, uid, bounds[2], bounds[3], "")
	if err != nil {
		h.log.Error("mcp compare_periods B", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	a, b := report(resultsA), report(resultsB)
	result, err := mcp.NewToolResultJSON(map[string]any{
		"period_a":        a,
		"period_b":        b,
		"fraction_change": b.Fraction - a.Fraction,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
