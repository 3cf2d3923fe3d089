package inventory

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ayush/inventory-api/backend/internal/models"
)

const (
	itemsSheet = "Items"
	tagsSheet  = "Tags"
)

// ExportStore renders the named store's items and tags as an xlsx workbook.
func (s *Service) ExportStore(ctx context.Context, name string) ([]byte, error) {
	st, err := s.GetStore(ctx, name)
	if err != nil {
		return nil, err
	}
	return buildWorkbook(st)
}

func buildWorkbook(st *models.Store) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", itemsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(tagsSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	itemRows := make([][]any, 0, len(st.Items))
	for _, it := range st.Items {
		itemRows = append(itemRows, []any{it.ID, it.Name, it.Price})
	}
	if err := writeSheet(f, itemsSheet, []string{"ID", "Name", "Price"}, itemRows, headerStyle); err != nil {
		return nil, err
	}

	tagRows := make([][]any, 0, len(st.Tags))
	for _, t := range st.Tags {
		tagRows = append(tagRows, []any{t.ID, t.Name})
	}
	if err := writeSheet(f, tagsSheet, []string{"ID", "Name"}, tagRows, headerStyle); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int) error {
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
