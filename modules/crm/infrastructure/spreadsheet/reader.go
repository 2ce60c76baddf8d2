package spreadsheet

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/legaldesk/modules/crm/domain/bulkupload"
)

var (
	ErrInvalidWorkbook = errors.New("not a valid xlsx workbook")
	ErrNoSheet         = errors.New("workbook has no sheets")
	ErrMissingColumn   = errors.New("missing required column")
	ErrTooManyRows     = errors.New("too many rows")
	ErrEmpty           = errors.New("workbook has no data rows")
)

type Options struct {
	// Zero means unlimited.
	MaxRows int
}

// Parse reads a bulk upload workbook into a validated PreviewBatch. Row
// numbers are the 1-based sheet rows, so the header is row 1 and the first
// contact is row 2.
func Parse(r io.Reader, opts Options) (bulkupload.PreviewBatch, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return bulkupload.PreviewBatch{}, errors.Wrap(ErrInvalidWorkbook, err.Error())
	}
	defer f.Close()

	sheet, err := pickSheet(f)
	if err != nil {
		return bulkupload.PreviewBatch{}, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return bulkupload.PreviewBatch{}, errors.Wrapf(err, "read sheet %s", sheet)
	}
	if len(rows) == 0 {
		return bulkupload.PreviewBatch{}, ErrEmpty
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return bulkupload.PreviewBatch{}, err
	}

	p := &parser{index: index, clientRows: map[bulkupload.ClientKey]int{}}
	count := 0
	for i, row := range rows[1:] {
		if blank(row) {
			continue
		}
		count++
		if opts.MaxRows > 0 && count > opts.MaxRows {
			return bulkupload.PreviewBatch{}, errors.Wrapf(ErrTooManyRows, "limit is %d", opts.MaxRows)
		}
		p.add(i+2, row)
	}
	if count == 0 {
		return bulkupload.PreviewBatch{}, ErrEmpty
	}

	b := p.batch
	bulkupload.Validate(&b)
	b.Warnings = append(b.Warnings, bulkupload.DetectWarnings(&b)...)
	b.SortLedger()
	return b, nil
}

func pickSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrNoSheet
	}
	for _, s := range sheets {
		if strings.EqualFold(s, ContactsSheet) {
			return s, nil
		}
	}
	return sheets[0], nil
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		if c, ok := canonicalColumn(h); ok {
			if _, dup := index[c]; !dup {
				index[c] = i
			}
		}
	}
	var missing []string
	for _, c := range requiredColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrap(ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type parser struct {
	index      map[string]int
	batch      bulkupload.PreviewBatch
	clientRows map[bulkupload.ClientKey]int
	nextID     int
}

func (p *parser) cell(row []string, col string) string {
	i, ok := p.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (p *parser) add(rowNumber int, row []string) {
	group := p.cell(row, ColGroup)
	clientName := p.cell(row, ColClient)
	industry := p.cell(row, ColIndustry)
	website := p.cell(row, ColWebsite)

	if group == "" {
		p.batch.Errors = append(p.batch.Errors, bulkupload.RowError{
			Row: rowNumber, Field: ColGroup, Message: "Group is required",
		})
	} else if !slices.ContainsFunc(p.batch.Groups, func(g bulkupload.Group) bool { return g.Name == group }) {
		p.batch.Groups = append(p.batch.Groups, bulkupload.Group{Name: group})
	}

	key := bulkupload.ClientKey{GroupName: group, ClientName: clientName}
	if first, ok := p.clientRows[key]; ok {
		c := &p.batch.Clients[p.batch.ClientIndexByKey(key)]
		p.fillOrWarn(rowNumber, first, ColIndustry, &c.Industry, industry)
		p.fillOrWarn(rowNumber, first, ColWebsite, &c.Website, website)
		for _, id := range splitIDs(p.cell(row, ColSecondaryContacts)) {
			c.AddSecondaryContact(id)
		}
	} else {
		p.nextID++
		c := bulkupload.Client{
			ID:        p.nextID,
			GroupName: group,
			Name:      clientName,
			Industry:  industry,
			Website:   website,
		}
		for _, id := range splitIDs(p.cell(row, ColSecondaryContacts)) {
			c.AddSecondaryContact(id)
		}
		p.batch.Clients = append(p.batch.Clients, c)
		p.clientRows[key] = rowNumber
	}

	p.batch.Contacts = append(p.batch.Contacts, bulkupload.Contact{
		RowNumber:  rowNumber,
		GroupName:  group,
		ClientName: clientName,
		Name:       p.cell(row, ColContactName),
		Email:      p.cell(row, ColContactEmail),
		Phone:      p.cell(row, ColContactPhone),
	})
}

// fillOrWarn keeps the first non-empty value of a client column and warns
// when a later row disagrees with it.
func (p *parser) fillOrWarn(rowNumber, firstRow int, col string, dst *string, v string) {
	switch {
	case v == "" || v == *dst:
	case *dst == "":
		*dst = v
	default:
		p.batch.Warnings = append(p.batch.Warnings, bulkupload.RowWarning{
			Row:     rowNumber,
			Message: fmt.Sprintf("%s %q differs from row %d; %q is kept", col, v, firstRow, *dst),
		})
	}
}

func splitIDs(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if id := strings.TrimSpace(part); id != "" {
			out = append(out, id)
		}
	}
	return out
}
