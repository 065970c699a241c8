package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) exerciseCatalog(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(req.Params.URI, h.catalog.Infos())
}

func (h *handlers) recentResults(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -14)

	results, err := h.ds.QuerySessionResults(ctx, uid, start, end, "")
	if err != nil {
		return nil, err
	}
	return jsonContents(req.Params.URI, results)
}

func (h *handlers) weeklyReport(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)
	end := time.Now()
	start := end.AddDate(0, 0, -7)

	results, err := h.ds.QuerySessionResults(ctx, uid, start, end, "")
	if err != nil {
		return nil, err
	}

	stats, err := h.ds.GetExerciseStats(ctx, uid, start, end)
	if err != nil {
		h.log.Warn("weekly_report: stats query failed", "error", err)
	}

	return jsonContents(req.Params.URI, map[string]any{
		"start":     start.Format("2006-01-02"),
		"end":       end.Format("2006-01-02"),
		"report":    report(results),
		"exercises": stats,
	})
}
