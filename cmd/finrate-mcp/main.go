package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("FINRATE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Optional: the API may run with auth disabled.
	apiKey := os.Getenv("FINRATE_API_KEY")

	// Scrapes are paced server side, so allow for queueing behind others.
	api := newAPIClient(apiURL, apiKey, 120*time.Second)

	if err := server.ServeStdio(newServer(api)); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(api *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"finrate",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	targetOpts := []mcp.ToolOption{
		mcp.WithString("ticker",
			mcp.Description("Exchange ticker symbol, e.g. 'AAPL'"),
		),
		mcp.WithString("url",
			mcp.Description("Full Finviz quote page URL. Overrides ticker when both are given."),
		),
		mcp.WithNumber("max_age_ms",
			mcp.Description("Accept a cached snapshot up to this many milliseconds old (default: 0, always fetch)"),
		),
	}

	s.AddTool(mcp.NewTool("company_snapshot", append([]mcp.ToolOption{
		mcp.WithDescription("Scrape a company's Finviz snapshot table and return every label/value pair. Percentages are returned as plain numbers (\"12.5%\" becomes 12.5)."),
	}, targetOpts...)...), handleCompanySnapshot(api))

	s.AddTool(mcp.NewTool("sector_table",
		mcp.WithDescription("Scrape the Finviz sector performance table. Returned as a Markdown table."),
	), handleSectorTable(api))

	s.AddTool(mcp.NewTool("stock_rating", append([]mcp.ToolOption{
		mcp.WithDescription("Score a company 0-100 on valuation (P/E, PEG, P/B), growth (EPS and sales growth) and financial health (current ratio, debt/equity), plus an overall average."),
	}, targetOpts...)...), handleStockRating(api))

	return s
}
