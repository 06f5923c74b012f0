package importconfig

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

var (
	// ErrEmptyCSV is returned for a file without any record.
	ErrEmptyCSV = errors.New("csv file is empty")

	// ErrUnknownColumn is returned when a mapping names a column the file does not have.
	ErrUnknownColumn = errors.New("csv column not found")
)

const bom = "\ufeff"

type known struct {
	attribute string
	required  bool
}

// knownAttributes maps normalized header names to directory attributes.
var knownAttributes = map[string]known{
	"username":                   {attribute: "sAMAccountName", required: true},
	"samaccountname":             {attribute: "sAMAccountName", required: true},
	"login":                      {attribute: "sAMAccountName", required: true},
	"logonname":                  {attribute: "sAMAccountName", required: true},
	"firstname":                  {attribute: "givenName", required: true},
	"givenname":                  {attribute: "givenName", required: true},
	"lastname":                   {attribute: "sn", required: true},
	"surname":                    {attribute: "sn", required: true},
	"sn":                         {attribute: "sn", required: true},
	"displayname":                {attribute: "displayName"},
	"fullname":                   {attribute: "displayName"},
	"name":                       {attribute: "displayName"},
	"email":                      {attribute: "mail"},
	"mail":                       {attribute: "mail"},
	"emailaddress":               {attribute: "mail"},
	"upn":                        {attribute: "userPrincipalName"},
	"userprincipalname":          {attribute: "userPrincipalName"},
	"department":                 {attribute: "department"},
	"dept":                       {attribute: "department"},
	"title":                      {attribute: "title"},
	"jobtitle":                   {attribute: "title"},
	"phone":                      {attribute: "telephoneNumber"},
	"telephone":                  {attribute: "telephoneNumber"},
	"telephonenumber":            {attribute: "telephoneNumber"},
	"mobile":                     {attribute: "mobile"},
	"manager":                    {attribute: "manager"},
	"company":                    {attribute: "company"},
	"office":                     {attribute: "physicalDeliveryOfficeName"},
	"physicaldeliveryofficename": {attribute: "physicalDeliveryOfficeName"},
	"description":                {attribute: "description"},
	"employeeid":                 {attribute: "employeeID"},
	"city":                       {attribute: "l"},
}

func normalize(header string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(header) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(bom)); err == nil && string(b) == bom {
		_, _ = br.Discard(len(bom))
	}

	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	return cr
}

// ReadHeader returns the first record of a CSV file.
func ReadHeader(r io.Reader, comma rune) ([]string, error) {
	header, err := newReader(r, comma).Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}

	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	return header, nil
}

// Suggest proposes a column mapping for every header a directory attribute is known for.
// An attribute is only suggested once.
func Suggest(headers []string) []Column {
	seen := make(map[string]bool)

	var out []Column

	for _, h := range headers {
		k, ok := knownAttributes[normalize(h)]
		if !ok || seen[k.attribute] {
			continue
		}

		seen[k.attribute] = true
		out = append(out, Column{
			CSVColumn: h,
			Attribute: k.attribute,
			Required:  k.required,
			Transform: TransformTrim,
		})
	}

	return out
}

// PreviewRow is one CSV record after the mapping was applied.
type PreviewRow struct {
	Line   int               `json:"line"`
	Values map[string]string `json:"values"`
	Errors []string          `json:"errors,omitempty"`
}

// Preview is the mapping applied to the first rows of a file.
type Preview struct {
	Attributes []string     `json:"attributes"`
	Rows       []PreviewRow `json:"rows"`
	ErrorRows  int          `json:"errorRows"`
}

// BuildPreview applies cfg to at most limit data records of r. A record with an empty
// required value is reported on its row, it does not stop the preview.
func BuildPreview(r io.Reader, cfg *ImportConfig, limit int) (*Preview, error) {
	cr := newReader(r, cfg.Comma())

	index, err := columnIndex(cr, cfg)
	if err != nil {
		return nil, err
	}

	p := &Preview{Rows: []PreviewRow{}}
	for _, c := range cfg.Columns {
		p.Attributes = append(p.Attributes, c.Attribute)
	}

	for len(p.Rows) < limit {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		line, _ := cr.FieldPos(0)
		row := PreviewRow{Line: line, Values: make(map[string]string, len(cfg.Columns))}

		for i, c := range cfg.Columns {
			value := ""
			if idx := index[i]; idx < len(record) {
				value = apply(c.Transform, record[idx])
			}

			row.Values[c.Attribute] = value

			if c.Required && value == "" {
				row.Errors = append(row.Errors, fmt.Sprintf("missing required value for %s (column %s)", c.Attribute, c.CSVColumn))
			}
		}

		if len(row.Errors) > 0 {
			p.ErrorRows++
		}

		p.Rows = append(p.Rows, row)
	}

	return p, nil
}

// columnIndex resolves every mapped column to a record index. Without a header,
// columns are addressed by their 1-based position.
func columnIndex(cr *csv.Reader, cfg *ImportConfig) ([]int, error) {
	index := make([]int, len(cfg.Columns))

	if !cfg.HasHeader {
		for i, c := range cfg.Columns {
			n, err := strconv.Atoi(strings.TrimSpace(c.CSVColumn))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%w: %q is not a column number", ErrUnknownColumn, c.CSVColumn)
			}

			index[i] = n - 1
		}

		return index, nil
	}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCSV
	}

	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string

	for i, c := range cfg.Columns {
		pos, ok := positions[strings.ToLower(strings.TrimSpace(c.CSVColumn))]
		if !ok {
			missing = append(missing, c.CSVColumn)

			continue
		}

		index[i] = pos
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, strings.Join(missing, ", "))
	}

	return index, nil
}

func apply(transform, value string) string {
	value = strings.TrimSpace(value)

	switch transform {
	case TransformLowercase:
		return strings.ToLower(value)
	case TransformUppercase:
		return strings.ToUpper(value)
	case TransformCapitalize:
		return capitalize(value)
	default:
		return value
	}
}

func capitalize(s string) string {
	words := strings.Fields(s)

	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}

	return strings.Join(words, " ")
}
