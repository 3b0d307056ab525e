// internal/app/features/importcsv/csvutil/parser.go
package csvutil

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParsedStudent represents a validated roster row from CSV.
type ParsedStudent struct {
	Name           string
	RegisterNumber string
}

// RowError describes why a single row was rejected. Line is 1-based and
// counts the header row if one was present; 0 means a file-level problem.
type RowError struct {
	Line   int      `json:"line"`
	Reason string   `json:"reason"`
	Raw    []string `json:"raw,omitempty"`
}

// ParsedResult holds the outcome of parsing a roster CSV file.
type ParsedResult struct {
	Students []ParsedStudent
	Errors   []RowError
}

// HasErrors returns true if there are any validation errors.
func (r *ParsedResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ParseOptions controls parsing limits.
type ParseOptions struct {
	MaxRows int // 0 means unlimited
}

// DefaultParseOptions returns the standard limits.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{MaxRows: MaxRows}
}

// ParseStudentsCSV parses a roster CSV of the form:
//
//	register_number,name
//
// A header row is detected and skipped; a UTF-8 BOM is tolerated. Rows
// that fail validation are collected as RowErrors without aborting the
// rest of the file, so an import can succeed partially. Duplicate
// register numbers within the file are rejected on their later rows.
//
// Returns ErrTooManyRows if MaxRows is exceeded (when MaxRows > 0).
func ParseStudentsCSV(r io.Reader, opts ParseOptions) (ParsedResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.TrimLeadingSpace = true

	var result ParsedResult
	lineNum := 0

	first, err := reader.Read()
	if err == io.EOF {
		return result, nil // empty file
	}
	if err != nil {
		return result, err
	}
	lineNum++

	// Handle BOM in first cell
	if len(first) > 0 {
		first[0] = strings.TrimPrefix(first[0], "\ufeff")
	}

	isHeader := isHeaderRow(first)

	var rawRecords [][]string
	var rawLines []int
	if !isHeader {
		rawRecords = append(rawRecords, first)
		rawLines = append(rawLines, lineNum)
	}

	for {
		rec, err := reader.Read()
		lineNum++
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{
				Line:   lineNum,
				Reason: err.Error(),
			})
			continue
		}
		if len(rec) == 0 {
			continue // skip empty lines
		}
		if opts.MaxRows > 0 && len(rawRecords) >= opts.MaxRows {
			return result, ErrTooManyRows
		}
		rawRecords = append(rawRecords, rec)
		rawLines = append(rawLines, lineNum)
	}

	// Track seen register numbers to detect duplicates within the CSV.
	seen := make(map[string]int) // register number -> first line

	for i, rec := range rawRecords {
		line := rawLines[i]

		st, rowErr := parseRow(rec, line)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		if st == nil {
			continue // blank row
		}

		key := strings.ToLower(st.RegisterNumber)
		if firstLine, dup := seen[key]; dup {
			result.Errors = append(result.Errors, RowError{
				Line:   line,
				Reason: fmt.Sprintf("duplicate register number (first appears on line %d)", firstLine),
				Raw:    rec,
			})
			continue
		}
		seen[key] = line

		result.Students = append(result.Students, *st)
	}

	return result, nil
}

// isHeaderRow checks whether a row looks like column headings rather
// than data.
func isHeaderRow(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	c0 := strings.ToLower(strings.TrimSpace(rec[0]))
	for _, hw := range []string{"register_number", "register number", "registernumber", "register", "reg_no", "reg no", "regno", "roll_no", "roll no"} {
		if c0 == hw {
			return true
		}
	}
	if len(rec) > 1 {
		c1 := strings.ToLower(strings.TrimSpace(rec[1]))
		if c1 == "name" || c1 == "student_name" || c1 == "student name" {
			return true
		}
	}
	return false
}

// parseRow validates a single data row. Returns nil,nil for blank rows.
func parseRow(rec []string, line int) (*ParsedStudent, *RowError) {
	get := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	reg := get(0)
	name := get(1)
	if reg == "" && name == "" {
		return nil, nil
	}
	if reg == "" {
		return nil, &RowError{Line: line, Reason: "register number is required", Raw: rec}
	}
	if name == "" {
		return nil, &RowError{Line: line, Reason: "name is required", Raw: rec}
	}
	return &ParsedStudent{Name: name, RegisterNumber: reg}, nil
}
