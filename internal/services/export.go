package services

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/foxxcyber/shoe-compare/internal/models"
)

const (
	comparisonSheet = "Comparison"
	summarySheet    = "Summary"
)

// WriteComparisonWorkbook renders a multi-product comparison as an xlsx
// workbook with a store matrix sheet and a summary sheet
func WriteComparisonWorkbook(w io.Writer, mc *models.MultiComparison) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", comparisonSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	header := []interface{}{"Store"}
	for _, p := range mc.Products {
		header = append(header, p.Name)
	}
	if err := writeRow(f, comparisonSheet, 1, header); err != nil {
		return err
	}

	for i, row := range mc.StoreComparison {
		values := []interface{}{row.StoreName}
		for _, cell := range row.Products {
			if cell.Price == nil {
				values = append(values, string(cell.Availability))
				continue
			}
			values = append(values, *cell.Price)
		}
		if err := writeRow(f, comparisonSheet, i+2, values); err != nil {
			return err
		}
		for j, cell := range row.Products {
			if !cell.IsLowest {
				continue
			}
			ref, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if err := f.SetCellStyle(comparisonSheet, ref, ref, bold); err != nil {
				return fmt.Errorf("failed to style cell: %w", err)
			}
		}
	}

	summaryHeader := []interface{}{"Product", "Brand", "Lowest", "Highest", "Savings", "Stores", "Best store"}
	if err := writeRow(f, summarySheet, 1, summaryHeader); err != nil {
		return err
	}
	for i, p := range mc.Products {
		best := ""
		if p.BestStore != nil {
			best = *p.BestStore
		}
		values := []interface{}{p.Name, p.Brand, p.LowestPrice, p.HighestPrice, p.MaxSavings, p.StoreCount, best}
		if err := writeRow(f, summarySheet, i+2, values); err != nil {
			return err
		}
	}

	if deal := mc.Summary.OverallBestDeal; deal != nil {
		row := len(mc.Products) + 3
		values := []interface{}{"Best deal", deal.ProductName, deal.Price, deal.StoreName, deal.URL}
		if err := writeRow(f, summarySheet, row, values); err != nil {
			return err
		}
	}

	for _, sheet := range []string{comparisonSheet, summarySheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style header: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, ref, &values); err != nil {
		return fmt.Errorf("failed to write row %d on %s: %w", row, sheet, err)
	}
	return nil
}
