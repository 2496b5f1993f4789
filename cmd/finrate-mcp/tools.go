package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/finrate/models"
	"github.com/use-agent/finrate/parser"
)

// apiClient talks to a running finrate API. All scraping, pacing and
// caching happens there, so several MCP clients share one throttler.
type apiClient struct {
	http *resty.Client
}

func newAPIClient(apiURL, apiKey string, timeout time.Duration) *apiClient {
	c := resty.New().
		SetBaseURL(strings.TrimRight(apiURL, "/")).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		c.SetHeader("X-API-Key", apiKey)
	}
	return &apiClient{http: c}
}

// failure is implemented by every API response type.
type failure interface {
	failed() *models.ErrorDetail
}

type snapshotResult models.SnapshotResponse
type sectorResult models.SectorResponse
type ratingResult models.RatingResponse

func (r *snapshotResult) failed() *models.ErrorDetail { return failedDetail(r.Success, r.Error) }
func (r *sectorResult) failed() *models.ErrorDetail   { return failedDetail(r.Success, r.Error) }
func (r *ratingResult) failed() *models.ErrorDetail   { return failedDetail(r.Success, r.Error) }

func failedDetail(ok bool, detail *models.ErrorDetail) *models.ErrorDetail {
	if ok {
		return nil
	}
	if detail == nil {
		return &models.ErrorDetail{Code: models.ErrCodeInternal, Message: "request failed"}
	}
	return detail
}

// call sends one API request and decodes the envelope into out. The
// returned string is a tool-facing error message, empty on success.
func (a *apiClient) call(ctx context.Context, method, path string, body any, out failure) string {
	req := a.http.R().SetContext(ctx).SetResult(out).SetError(out)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Sprintf("API request failed: %v", err)
	}
	if detail := out.failed(); detail != nil {
		return fmt.Sprintf("[%s] %s (HTTP %d)", detail.Code, detail.Message, resp.StatusCode())
	}
	return ""
}

// targetRequest reads the ticker/url pair shared by the snapshot and rating
// tools.
func targetRequest(request mcp.CallToolRequest) (*models.SnapshotRequest, string) {
	req := &models.SnapshotRequest{
		Ticker: request.GetString("ticker", ""),
		URL:    request.GetString("url", ""),
		MaxAge: request.GetInt("max_age_ms", 0),
	}
	if !req.Valid() {
		return nil, "one of ticker or url is required"
	}
	return req, ""
}

func handleCompanySnapshot(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, msg := targetRequest(request)
		if msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		var out snapshotResult
		if msg := api.call(ctx, resty.MethodPost, "/api/v1/snapshot", req, &out); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Source: %s\n", out.SourceURL)
		if out.CacheStatus != "" {
			fmt.Fprintf(&sb, "Cache: %s\n", out.CacheStatus)
		}
		sb.WriteString("\n")
		for _, label := range out.Snapshot.Labels() {
			fmt.Fprintf(&sb, "%s: %s\n", label, out.Snapshot[label])
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleSectorTable(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var out sectorResult
		if msg := api.call(ctx, resty.MethodGet, "/api/v1/sectors", nil, &out); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if out.Table == nil {
			return mcp.NewToolResultError("API returned no table"), nil
		}
		return mcp.NewToolResultText(formatSectorTable(out.Table)), nil
	}
}

func handleStockRating(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req, msg := targetRequest(request)
		if msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		var out ratingResult
		if msg := api.call(ctx, resty.MethodPost, "/api/v1/rating", req, &out); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if out.Ratings == nil {
			return mcp.NewToolResultError("API returned no ratings"), nil
		}

		r := out.Ratings
		text := fmt.Sprintf("Source: %s\n\nValuation: %.2f\nGrowth: %.2f\nFinancial health: %.2f\nOverall: %.2f\n",
			out.SourceURL, r.ValuationScore, r.GrowthScore, r.FinancialHealthScore, r.OverallScore)
		return mcp.NewToolResultText(text), nil
	}
}

// formatSectorTable renders the table as Markdown, percentages restored.
func formatSectorTable(t *models.SectorTable) string {
	var sb strings.Builder
	sb.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	sb.WriteString("|" + strings.Repeat(" --- |", len(t.Columns)) + "\n")
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			v := row[c]
			if f, ok := v.Float(); ok && t.IsPercent(c) {
				cells[i] = parser.FormatPercent(f)
			} else {
				cells[i] = v.String()
			}
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return sb.String()
}
