package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/richard-senior/nflodds/internal/logger"
	"github.com/richard-senior/nflodds/pkg/protocol"
	"github.com/richard-senior/nflodds/pkg/transport"
	"github.com/richard-senior/nflodds/pkg/util"
	"github.com/richard-senior/nflodds/pkg/util/nflodds"
)

// maxMarkdownLength bounds the text handed back to the client
const maxMarkdownLength = 10000

func TeamPageTool() protocol.Tool {
	return protocol.Tool{
		Name: "nfl_team_page",
		Description: `
		Fetches a team's season page from pro-football-reference and returns it as Markdown.
		Use it for schedule, results, roster and team statistics context behind a prediction.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"team":   {Type: "string", Description: "Team abbreviation or name, e.g. KC, Chiefs or Kansas City Chiefs"},
				"season": seasonProperty,
			},
			Required: []string{"team"},
		},
	}
}

// HandleTeamPage handles nfl_team_page
func (n *NflTools) HandleTeamPage(ctx context.Context, args map[string]any) (*protocol.ToolCallResult, error) {
	raw, ok := args["team"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("no team was passed")
	}
	query, err := util.GetAsString(raw)
	if err != nil {
		return nil, err
	}
	team, err := nflodds.ResolveTeam(query)
	if err != nil {
		return nil, err
	}
	season, err := n.seasonArg(args)
	if err != nil {
		return nil, err
	}

	pageURL := n.ds.TeamPageURL(team, season)
	logger.Info("Getting HTML from:", pageURL)
	body, err := transport.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	markdown, err := HTMLToMarkdown(string(body), pageURL)
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("# %s %d\n\nSource: %s\n\n", team.Name(), season, pageURL)
	return protocol.NewTextResult(header + markdown), nil
}

// HTMLToMarkdown converts a page to Markdown, resolving relative links against pageURL's domain.
// Long pages are truncated
func HTMLToMarkdown(html, pageURL string) (string, error) {
	domain, err := extractDomain(pageURL)
	if err != nil {
		logger.Warn("Failed to extract domain from URL:", err)
		domain = ""
	}
	markdown, err := htmltomarkdown.ConvertString(html, converter.WithDomain(domain))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	if len(markdown) > maxMarkdownLength {
		markdown = markdown[:maxMarkdownLength] + "\n\n... (content truncated due to size)"
	}
	return markdown, nil
}

// extractDomain returns the scheme and host of a URL
func extractDomain(urlString string) (string, error) {
	if !strings.HasPrefix(urlString, "http://") && !strings.HasPrefix(urlString, "https://") {
		urlString = "https://" + urlString
	}
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	return parsedURL.Scheme + "://" + parsedURL.Host, nil
}
