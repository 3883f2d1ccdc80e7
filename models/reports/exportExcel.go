package reports

import (
	"context"
	"fmt"

	"github.com/lendfocus/mortgage_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportSLAExcel renders the SLA report as a workbook. Callers stream
// the file and close it.
func ExportSLAExcel(ctx context.Context) (*excelize.File, error) {
	entries, err := GetSLAReport(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "SLA"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	// Add headers
	f.SetCellValue(sheetName, "A1", "ApplicationNumber")
	f.SetCellValue(sheetName, "B1", "Status")
	f.SetCellValue(sheetName, "C1", "ElapsedDays")
	f.SetCellValue(sheetName, "D1", "BudgetDays")
	f.SetCellValue(sheetName, "E1", "Urgency")

	// Add data
	for i, e := range entries {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(i+2), e.ApplicationNumber)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(i+2), string(e.Status))
		f.SetCellValue(sheetName, "C"+fmt.Sprint(i+2), e.ElapsedDays)
		f.SetCellValue(sheetName, "D"+fmt.Sprint(i+2), e.BudgetDays)
		f.SetCellValue(sheetName, "E"+fmt.Sprint(i+2), string(e.Urgency))
	}

	return f, nil
}

// ExportSnapshotExcel renders the flat audit snapshot of one
// application as a two-column workbook.
func ExportSnapshotExcel(ctx context.Context, applicationId int) (*excelize.File, error) {
	fields, err := models.ApplicationSnapshot(ctx, applicationId)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Snapshot"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheetName, "A1", "Field")
	f.SetCellValue(sheetName, "B1", "Value")
	for i, field := range fields {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(i+2), field.Key)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(i+2), field.Value)
	}

	return f, nil
}
