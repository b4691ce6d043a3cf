package models

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportReconciliationXlsx renders a bag's reconciliation report as an XLSX
// workbook: one summary block per material plus the movement chronology.
func ExportReconciliationXlsx(ctx context.Context, jobBagId int) (*excelize.File, error) {

	recon, err := ReconcileJobBag(ctx, jobBagId)
	if err != nil {
		return nil, err
	}
	movements, err := ListJobBagMovements(ctx, jobBagId)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "Sheet1"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}

	f.SetCellValue(sheet, "A1", "JobBag")
	f.SetCellValue(sheet, "B1", recon.JobBagNumber)
	f.SetCellValue(sheet, "A2", "Status")
	f.SetCellValue(sheet, "B2", string(recon.Status))

	f.SetCellValue(sheet, "A4", "Material")
	f.SetCellValue(sheet, "B4", "Issued")
	f.SetCellValue(sheet, "C4", "Consumed")
	f.SetCellValue(sheet, "D4", "Loss/Breakage")
	f.SetCellValue(sheet, "E4", "Remaining")

	f.SetCellValue(sheet, "A5", "Gold (g)")
	f.SetCellValue(sheet, "B5", recon.Gold.Issued.StringFixed(GramPrecision))
	f.SetCellValue(sheet, "C5", recon.Gold.Consumed.StringFixed(GramPrecision))
	f.SetCellValue(sheet, "D5", recon.Gold.Loss.StringFixed(GramPrecision))
	f.SetCellValue(sheet, "E5", recon.Gold.Remaining.StringFixed(GramPrecision))

	f.SetCellValue(sheet, "A6", "Diamond (cts)")
	f.SetCellValue(sheet, "B6", recon.Diamond.Issued.StringFixed(CaratPrecision))
	f.SetCellValue(sheet, "C6", recon.Diamond.Consumed.StringFixed(CaratPrecision))
	f.SetCellValue(sheet, "D6", recon.Diamond.Loss.StringFixed(CaratPrecision))
	f.SetCellValue(sheet, "E6", recon.Diamond.Remaining.StringFixed(CaratPrecision))

	f.SetCellValue(sheet, "A8", "Type")
	f.SetCellValue(sheet, "B8", "Material")
	f.SetCellValue(sheet, "C8", "Weight")
	f.SetCellValue(sheet, "D8", "Loss")
	f.SetCellValue(sheet, "E8", "Pieces")
	f.SetCellValue(sheet, "F8", "PostedAt")

	for i, m := range movements {
		row := fmt.Sprint(i + 9)
		f.SetCellValue(sheet, "A"+row, m.MovementType)
		f.SetCellValue(sheet, "B"+row, string(m.MaterialType))
		f.SetCellValue(sheet, "C"+row, m.Weight.String())
		f.SetCellValue(sheet, "D"+row, m.LossWeight.String())
		f.SetCellValue(sheet, "E"+row, m.Pieces)
		f.SetCellValue(sheet, "F"+row, m.PostedAt.Format("2006-01-02 15:04:05"))
	}

	return f, nil
}
