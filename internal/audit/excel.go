package audit

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

var exportColumns = []string{
	"ID", "Order ID", "State", "Block Start", "Block End",
	"Commitment ID", "Customer", "Package", "Recorded At",
}

// ExportXLSX writes the newest limit entries to an Excel workbook at path,
// for the operator's manual reconciliation of payments against bookings.
func (s *Store) ExportXLSX(ctx context.Context, path string, limit int) error {
	entries, err := s.List(ctx, limit)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Reconciliations"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range exportColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, 1)
		end, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
		_ = f.SetCellStyle(sheet, start, end, style)
	}

	for rowIdx, e := range entries {
		values := []interface{}{
			e.ID, e.OrderID, e.State, e.BlockStart, e.BlockEnd,
			e.CommitmentID, e.Customer, e.Package, e.CreatedAt,
		}
		for colIdx, v := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save audit export: %w", err)
	}
	return nil
}
