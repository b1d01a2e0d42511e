package core

import "encoding/json"

// linkItem is one cleaned entry cached under the "last_extracted_items"
// shared-context key after a successful extract_data call.
type linkItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// parseLinkList parses an extract_data feedback message as JSON and returns
// the cleaned {title, url} pairs when the payload declares
// result_type=="link_list" with a non-empty items array. Any other shape
// (including non-JSON messages) reports ok=false so the caller clears the
// cached list instead of caching stale or unrelated data.
func parseLinkList(message string) ([]linkItem, bool) {
	var payload struct {
		ResultType string `json:"result_type"`
		Items      []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Link  string `json:"link"`
			Text  string `json:"text"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(message), &payload); err != nil {
		return nil, false
	}
	if payload.ResultType != "link_list" || len(payload.Items) == 0 {
		return nil, false
	}
	out := make([]linkItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		url := it.URL
		if url == "" {
			url = it.Link
		}
		title := it.Title
		if title == "" {
			title = it.Text
		}
		if url == "" {
			continue
		}
		out = append(out, linkItem{Title: title, URL: url})
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}
