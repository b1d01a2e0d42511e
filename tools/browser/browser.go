// Package browser implements the browser-automation tool family
// (navigate/click/type/extract_data) on top of playwright-go, grounded on
// original_source/backend/src/services/BrowserService.py's action set.
package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/goadesign/webagent/core"
)

// Handler drives a single shared browser page for every "browser.*" tool
// name. It is not safe for concurrent Execute calls; the executor loop only
// ever has one action in flight at a time, so this matches the core's
// concurrency model (spec.md §5).
type Handler struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
}

// New launches a (by default headless) Chromium instance and opens one
// blank page, ready to serve browser.* tool calls.
func New(headless bool) (*Handler, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("launching playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(headless)})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}
	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	return &Handler{pw: pw, browser: browser, page: page}, nil
}

// Handles implements tools.Handler.
func (h *Handler) Handles(toolName string) bool {
	return strings.HasPrefix(toolName, "browser.")
}

// Execute implements tools.Handler, dispatching on the tool name's suffix
// after "browser.".
func (h *Handler) Execute(ctx context.Context, action core.DecisionAction) (core.WebObservation, error) {
	start := time.Now()
	var feedback core.ActionFeedback

	switch strings.TrimPrefix(action.ToolName, "browser.") {
	case "navigate":
		url, _ := action.ToolArgs["url"].(string)
		if _, err := h.page.Goto(url); err != nil {
			feedback = failed(err)
		} else {
			feedback = core.ActionFeedback{Status: core.FeedbackSuccess}
		}
	case "click":
		selector, _ := action.ToolArgs["selector"].(string)
		if err := h.page.Locator(selector).Click(); err != nil {
			feedback = failed(err)
		} else {
			feedback = core.ActionFeedback{Status: core.FeedbackSuccess}
		}
	case "type":
		selector, _ := action.ToolArgs["selector"].(string)
		text, _ := action.ToolArgs["text"].(string)
		if err := h.page.Locator(selector).Fill(text); err != nil {
			feedback = failed(err)
		} else {
			feedback = core.ActionFeedback{Status: core.FeedbackSuccess}
		}
	case "extract_data":
		selector, _ := action.ToolArgs["selector"].(string)
		msg, err := h.extractLinkList(selector)
		if err != nil {
			feedback = failed(err)
		} else {
			feedback = core.ActionFeedback{Status: core.FeedbackSuccess, Message: msg}
		}
	default:
		feedback = failed(fmt.Errorf("unknown browser tool %q", action.ToolName))
	}

	obs := core.WebObservation{
		CurrentURL:         h.page.URL(),
		PageLoadTimeMS:      time.Since(start).Milliseconds(),
		LastActionFeedback: feedback,
		KeyElements:        h.keyElements(),
	}
	if feedback.Status == core.FeedbackSuccess {
		obs.HTTPStatusCode = 200
	} else {
		obs.HTTPStatusCode = 500
	}
	return obs, nil
}

// linkListPayload mirrors the {"result_type":"link_list","items":[...]}
// shape core/linkextract.go's parseLinkList decodes back out of
// SharedContext.
type linkListPayload struct {
	ResultType string          `json:"result_type"`
	Items      []extractedLink `json:"items"`
}

type extractedLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// extractLinkList reads every anchor under selector and returns a
// result_type=="link_list" JSON payload, the shape core's executor loop
// caches into SharedContext under "last_extracted_items". Anchor text or
// href can contain arbitrary runes (control characters, quotes), so the
// payload is built with encoding/json rather than string concatenation.
func (h *Handler) extractLinkList(selector string) (string, error) {
	if selector == "" {
		selector = "a"
	}
	locator := h.page.Locator(selector)
	count, err := locator.Count()
	if err != nil {
		return "", err
	}
	payload := linkListPayload{ResultType: "link_list", Items: make([]extractedLink, 0, count)}
	for i := 0; i < count; i++ {
		item := locator.Nth(i)
		href, _ := item.GetAttribute("href")
		text, _ := item.TextContent()
		payload.Items = append(payload.Items, extractedLink{Title: strings.TrimSpace(text), URL: href})
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (h *Handler) keyElements() []core.KeyElement {
	return nil
}

func failed(err error) core.ActionFeedback {
	return core.ActionFeedback{Status: core.FeedbackFailed, ErrorCode: core.ErrCodeSystemException, Message: err.Error()}
}

// Screenshot returns a PNG capture of the current page, satisfying the
// optional tools.Screenshotter interface so the HTTP surface's
// GET /tasks/{id}/screenshot endpoint can serve live browser state.
func (h *Handler) Screenshot(ctx context.Context) ([]byte, error) {
	return h.page.Screenshot()
}

// Close shuts down the page, browser, and the playwright driver process.
func (h *Handler) Close() error {
	_ = h.page.Close()
	_ = h.browser.Close()
	return h.pw.Stop()
}
