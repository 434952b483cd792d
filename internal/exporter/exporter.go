// Package exporter renders SELECT results for the front ends.
package exporter

import (
	"encoding/csv"
	"encoding/gob"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/SimonWaldherr/tinyrel/internal/engine"
)

// Format names an output format.
type Format string

const (
	FormatTSV   Format = "tsv"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatXML   Format = "xml"
	FormatGOB   Format = "gob"
)

// ParseFormat accepts a format name in any case. The empty string means tsv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTSV, nil
	case FormatTSV, FormatTable, FormatCSV, FormatJSON, FormatXML, FormatGOB:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Options controls exporter behavior.
type Options struct {
	PrettyJSON   bool
	CSVNoHeader  bool
	CSVDelimiter rune
}

// Render writes rs to w in the given format.
func Render(w io.Writer, rs *engine.ResultSet, f Format, opts Options) error {
	switch f {
	case FormatTable:
		return ExportTable(w, rs)
	case FormatCSV:
		return ExportCSV(w, rs, opts)
	case FormatJSON:
		return ExportJSON(w, rs, opts)
	case FormatXML:
		return ExportXML(w, rs)
	case FormatGOB:
		return ExportGOB(w, rs)
	default:
		return rs.WriteTSV(w)
	}
}

// ExportTable draws rs as a box table followed by a row count.
func ExportTable(w io.Writer, rs *engine.ResultSet) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(rs.Cols))
	for i, c := range rs.Cols {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, r := range rs.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v.String()
		}
		t.AppendRow(row)
	}
	t.Render()
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rs.Rows))
	return err
}

// ExportCSV writes ResultSet rows as CSV to w. Column order is preserved.
func ExportCSV(w io.Writer, rs *engine.ResultSet, opts Options) error {
	csvw := csv.NewWriter(w)
	if opts.CSVDelimiter != 0 {
		csvw.Comma = opts.CSVDelimiter
	}
	if !opts.CSVNoHeader {
		if err := csvw.Write(rs.Cols); err != nil {
			return err
		}
	}
	for _, r := range rs.Rows {
		row := make([]string, len(r))
		for i, v := range r {
			row[i] = v.String()
		}
		if err := csvw.Write(row); err != nil {
			return err
		}
	}
	csvw.Flush()
	return csvw.Error()
}

// objects maps each row to column name -> plain Go value.
func objects(rs *engine.ResultSet) []map[string]any {
	out := make([]map[string]any, len(rs.Rows))
	for i, r := range rs.Rows {
		m := make(map[string]any, len(rs.Cols))
		for j, c := range rs.Cols {
			m[c] = r[j].Any()
		}
		out[i] = m
	}
	return out
}

// ExportJSON writes ResultSet rows as a JSON array of objects.
func ExportJSON(w io.Writer, rs *engine.ResultSet, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(objects(rs))
}

type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlRow struct {
	Fields []xmlField `xml:",any"`
}

type xmlRows struct {
	XMLName xml.Name `xml:"rows"`
	Rows    []xmlRow `xml:"row"`
}

// ExportXML writes ResultSet as simple XML: <rows><row><col>value</col>...</row>...</rows>
func ExportXML(w io.Writer, rs *engine.ResultSet) error {
	xr := xmlRows{XMLName: xml.Name{Local: "rows"}, Rows: make([]xmlRow, 0, len(rs.Rows))}
	for _, r := range rs.Rows {
		xrRow := xmlRow{Fields: make([]xmlField, 0, len(rs.Cols))}
		for i, c := range rs.Cols {
			xrRow.Fields = append(xrRow.Fields, xmlField{XMLName: xml.Name{Local: c}, Value: r[i].String()})
		}
		xr.Rows = append(xr.Rows, xrRow)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(xr); err != nil {
		return err
	}
	return enc.Flush()
}

// ExportGOB encodes the column order and the rows as maps using gob.
func ExportGOB(w io.Writer, rs *engine.ResultSet) error {
	wrapper := struct {
		Cols []string
		Rows []map[string]any
	}{
		Cols: rs.Cols,
		Rows: objects(rs),
	}
	return gob.NewEncoder(w).Encode(wrapper)
}
