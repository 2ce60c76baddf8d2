package spreadsheet

import (
	"slices"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
)

const (
	severityError   = "error"
	severityWarning = "warning"
)

// WriteCorrected renders batch as a workbook that Parse accepts. Contacts
// are written in batch order, cells with errors are highlighted and every
// error and warning is listed on the Issues sheet. A client without
// contacts gets a row of its own so it is not lost.
func WriteCorrected(batch bulkupload.PreviewBatch) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ContactsSheet); err != nil {
		return nil, errors.Wrap(err, "rename sheet")
	}
	if err := writeRow(f, ContactsSheet, 1, toAny(Columns)); err != nil {
		return nil, err
	}

	errStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return nil, errors.Wrap(err, "create style")
	}

	clients := make(map[bulkupload.ClientKey]bulkupload.Client, len(batch.Clients))
	for _, c := range batch.Clients {
		clients[c.Key()] = c
	}

	// Sheet rows are renumbered on export; remember where each batch row went.
	placed := make(map[int]int, len(batch.Contacts))
	line := 2
	for _, ct := range batch.Contacts {
		c := clients[ct.Key()]
		if err := writeRow(f, ContactsSheet, line, []any{
			ct.GroupName, ct.ClientName, c.Industry, c.Website,
			ct.Name, ct.Email, ct.Phone, c.SecondaryContacts,
		}); err != nil {
			return nil, err
		}
		placed[ct.RowNumber] = line
		line++
	}
	for _, c := range batch.Clients {
		if _, ok := batch.FirstRowFor(c.Key()); ok {
			continue
		}
		if err := writeRow(f, ContactsSheet, line, []any{
			c.GroupName, c.Name, c.Industry, c.Website, "", "", "", c.SecondaryContacts,
		}); err != nil {
			return nil, err
		}
		line++
	}

	for _, e := range batch.Errors {
		at, ok := placed[e.Row]
		col, known := fieldColumns[e.Field]
		if !ok || !known {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(slices.Index(Columns, col)+1, at)
		if err != nil {
			return nil, errors.Wrap(err, "locate cell")
		}
		if err := f.SetCellStyle(ContactsSheet, cell, cell, errStyle); err != nil {
			return nil, errors.Wrap(err, "highlight cell")
		}
	}

	if err := writeIssues(f, batch, placed); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func writeIssues(f *excelize.File, batch bulkupload.PreviewBatch, placed map[int]int) error {
	if len(batch.Errors) == 0 && len(batch.Warnings) == 0 {
		return nil
	}
	if _, err := f.NewSheet(IssuesSheet); err != nil {
		return errors.Wrap(err, "create issues sheet")
	}
	if err := writeRow(f, IssuesSheet, 1, []any{"Row", "Severity", "Field", "Message"}); err != nil {
		return err
	}
	line := 2
	for _, e := range batch.Errors {
		if err := writeRow(f, IssuesSheet, line, []any{placed[e.Row], severityError, e.Field, e.Message}); err != nil {
			return err
		}
		line++
	}
	for _, w := range batch.Warnings {
		if err := writeRow(f, IssuesSheet, line, []any{placed[w.Row], severityWarning, "", w.Message}); err != nil {
			return err
		}
		line++
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, line int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return errors.Wrap(err, "locate row")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return errors.Wrapf(err, "write %s row %d", sheet, line)
	}
	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
