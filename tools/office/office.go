// Package office implements the "office.*" tool family (spreadsheet and
// Word document writers), grounded on original_source's
// office_documents.py which accepts an optional rows list and falls back to
// a previously cached extraction when the caller omits one — here that
// fallback is the {shared:last_extracted_items} argument resolved by
// core's Resolver before Execute ever sees the call.
package office

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"

	"github.com/goadesign/webagent/core"
)

// row is one line item as cached under SharedContext's
// "last_extracted_items" key or passed explicitly in tool_args["rows"].
type row struct {
	Title string
	URL   string
}

// Handler writes xlsx and docx files into a scratch directory. docx output
// works by templated text replacement, the mode nguyenthenguyen/docx
// actually supports: docTemplate names a .docx file containing the
// placeholder "{{ROWS}}", which is replaced with the rendered rows.
type Handler struct {
	scratchDir  string
	docTemplate string
}

// New returns a Handler writing documents under scratchDir. docTemplate is
// the path to a .docx file containing a "{{ROWS}}" placeholder, used by
// "office.write_document".
func New(scratchDir, docTemplate string) *Handler {
	return &Handler{scratchDir: scratchDir, docTemplate: docTemplate}
}

// Handles implements tools.Handler.
func (h *Handler) Handles(toolName string) bool {
	return strings.HasPrefix(toolName, "office.")
}

// Execute implements tools.Handler: "office.write_spreadsheet" and
// "office.write_document" both take tool_args["rows"] (a []any of
// {"title":..,"url":..} maps) and tool_args["output_path"] relative to the
// scratch directory.
func (h *Handler) Execute(ctx context.Context, action core.DecisionAction) (core.WebObservation, error) {
	rows := parseRows(action.ToolArgs["rows"])
	outputPath, _ := action.ToolArgs["output_path"].(string)
	if outputPath == "" {
		return fail("office tool requires output_path"), nil
	}
	fullPath := h.scratchDir + string('/') + strings.TrimPrefix(outputPath, "/")

	var err error
	switch strings.TrimPrefix(action.ToolName, "office.") {
	case "write_spreadsheet":
		err = writeSpreadsheet(fullPath, rows)
	case "write_document":
		err = h.writeDocument(fullPath, rows)
	default:
		return fail(fmt.Sprintf("unknown office tool %q", action.ToolName)), nil
	}
	if err != nil {
		return fail(err.Error()), nil
	}
	return core.WebObservation{
		HTTPStatusCode:     200,
		LastActionFeedback: core.ActionFeedback{Status: core.FeedbackSuccess, Message: fullPath},
	}, nil
}

func writeSpreadsheet(path string, rows []row) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "Title")
	f.SetCellValue(sheet, "B1", "URL")
	for i, r := range rows {
		cellRow := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+cellRow, r.Title)
		f.SetCellValue(sheet, "B"+cellRow, r.URL)
	}
	return f.SaveAs(path)
}

func (h *Handler) writeDocument(path string, rows []row) error {
	if h.docTemplate == "" {
		return fmt.Errorf("office.write_document requires a docTemplate with a {{ROWS}} placeholder")
	}
	r, err := docx.ReadDocxFile(h.docTemplate)
	if err != nil {
		return fmt.Errorf("reading docx template: %w", err)
	}
	defer r.Close()

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%s - %s", row.Title, row.URL))
	}
	editable := r.Editable()
	if err := editable.Replace("{{ROWS}}", strings.Join(lines, "\n"), -1); err != nil {
		return fmt.Errorf("filling docx template: %w", err)
	}
	return editable.WriteToFile(path)
}

func parseRows(v any) []row {
	items, ok := v.([]any)
	if !ok {
		// A typed slice, such as the link list core caches under
		// "last_extracted_items", is normalized through JSON first.
		data, err := json.Marshal(v)
		if err != nil || json.Unmarshal(data, &items) != nil {
			return nil
		}
	}
	out := make([]row, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		title, _ := m["title"].(string)
		url, _ := m["url"].(string)
		out = append(out, row{Title: title, URL: url})
	}
	return out
}

func fail(message string) core.WebObservation {
	return core.WebObservation{
		HTTPStatusCode:     500,
		LastActionFeedback: core.ActionFeedback{Status: core.FeedbackFailed, ErrorCode: core.ErrCodeSystemException, Message: message},
	}
}

// Close is a no-op: no persistent resources are held between calls.
func (h *Handler) Close() error {
	return nil
}
