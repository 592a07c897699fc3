package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/UnknownOlympus/ridefare/internal/models"
	"github.com/xuri/excelize/v2"
)

// Encoder serialises a result table.
type Encoder interface {
	Encode(table models.ResultTable) ([]byte, error)
	Extension() string
	ContentType() string
}

// Format names an encoder.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// NewEncoder returns the encoder for format.
func NewEncoder(format Format) (Encoder, error) {
	switch format {
	case FormatCSV, "":
		return CSVEncoder{}, nil
	case FormatXLSX:
		return XLSXEncoder{SheetName: "fares"}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// CSVEncoder writes a header row followed by one row per record.
type CSVEncoder struct{}

func (CSVEncoder) Extension() string   { return "csv" }
func (CSVEncoder) ContentType() string { return "text/csv" }

func (CSVEncoder) Encode(table models.ResultTable) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(models.FareColumns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range table {
		row := []string{
			r.Origin,
			r.Destination,
			r.Tier,
			r.Name,
			r.Description,
			r.Currency,
			strconv.FormatFloat(r.Fare, 'f', -1, 64),
			strconv.FormatFloat(r.OriginalFare, 'f', -1, 64),
			r.Discount,
			strconv.FormatBool(r.HasPromo),
			strconv.Itoa(r.Capacity),
			r.ETA,
			strconv.Itoa(r.EstimatedTripMinutes),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

// XLSXEncoder writes the table to a single worksheet.
type XLSXEncoder struct {
	SheetName string
}

func (XLSXEncoder) Extension() string { return "xlsx" }
func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (e XLSXEncoder) Encode(table models.ResultTable) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := e.SheetName
	if sheet == "" {
		sheet = "Sheet1"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := make([]interface{}, len(models.FareColumns))
	for i, col := range models.FareColumns {
		header[i] = col
	}
	if err = sw.SetRow("A1", header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range table {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			r.Origin, r.Destination, r.Tier, r.Name, r.Description, r.Currency,
			r.Fare, r.OriginalFare, r.Discount, r.HasPromo, r.Capacity,
			r.ETA, r.EstimatedTripMinutes,
		}
		if err = sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err = sw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to flush sheet: %w", err)
	}

	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err = f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	return buf.Bytes(), nil
}
