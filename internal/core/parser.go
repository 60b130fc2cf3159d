package core

// parser.go turns a pasted block of text into Records.
//
// The dialect is fixed: semicolon field delimiter, optional double-quote
// quoting for fields that embed semicolons or newlines. Meeting data (names,
// emails) commonly contains commas, and dialect sniffing misfired on real
// pastes, so the delimiter is documented rather than detected.
//
// Rows carry 1 to 5 fields: userid; password; email; first name; last name.
// Short rows are zero-padded with empty strings. Rows with more than 5
// fields, or rows the csv reader cannot tokenize, are a structural error
// (MalformedInputError) and never a per-field validation finding.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// recordFields is the fixed logical width of a participant row.
const recordFields = 5

// ParseRecords parses the submitted text into an ordered sequence of
// Records. First and last names tolerate arbitrary UTF-8; invalid byte
// sequences are replaced rather than rejected. Blank rows are skipped, and
// Line numbers the kept records starting at 1.
func ParseRecords(text string) ([]Record, error) {
	r := csv.NewReader(strings.NewReader(sanitizeUTF8(text)))
	r.Comma = ';'
	r.FieldsPerRecord = -1

	var records []Record
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &MalformedInputError{Line: parseErr.Line, Err: parseErr.Err}
			}
			return nil, &MalformedInputError{Err: err}
		}

		if len(row) > recordFields {
			line, _ := r.FieldPos(0)
			return nil, &MalformedInputError{
				Line: line,
				Err:  errors.New("too many fields (expected userid; password; email; first name; last name)"),
			}
		}
		if isBlankRow(row) {
			continue
		}

		padded := make([]string, recordFields)
		copy(padded, row)

		records = append(records, Record{
			Line:      len(records) + 1,
			Userid:    padded[0],
			Password:  padded[1],
			Email:     padded[2],
			FirstName: padded[3],
			LastName:  padded[4],
		})
	}

	return records, nil
}

// isBlankRow reports whether every field of the row is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid UTF-8 sequences with the Unicode
// replacement character so multi-byte names survive copy/paste from
// non-UTF-8 sources instead of breaking the parse.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	var buf bytes.Buffer
	buf.Grow(len(s))

	data := []byte(s)
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.Write(data[:size])
			data = data[size:]
		}
	}

	return buf.String()
}
