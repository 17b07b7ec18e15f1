// Package export generates voucher workbooks for finally-approved
// requests. The voucher is attached to the requester's approval email;
// generation failure never blocks the transition.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/fintrak/approval-workflow/internal/application/port"
	"github.com/fintrak/approval-workflow/internal/domain/request"
)

const sheetName = "Voucher"

// Generator writes one xlsx voucher per approved request.
type Generator struct {
	outputDir   string
	companyName string
	logger      *zap.Logger
}

// NewGenerator creates a new voucher generator
func NewGenerator(outputDir, companyName string, logger *zap.Logger) *Generator {
	return &Generator{
		outputDir:   outputDir,
		companyName: companyName,
		logger:      logger,
	}
}

// Generate renders the voucher workbook and returns its path.
func (g *Generator) Generate(ctx context.Context, snap request.Snapshot) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to remove default sheet: %w", err)
	}

	rows := [][]interface{}{
		{g.companyName},
		{"Approval Voucher"},
		{},
		{"Request ID", snap.ID},
		{"Request type", typeLabel(snap.Type)},
		{"Requester", snap.RequesterName},
		{"Submitted", snap.CreatedAt.Format("2006-01-02")},
		{},
	}
	rows = append(rows, amountRows(snap)...)
	rows = append(rows, []interface{}{})
	rows = append(rows, approvalRows(snap)...)

	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return "", fmt.Errorf("failed to compute cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return "", fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "A", "A", 22); err != nil {
		return "", fmt.Errorf("failed to set column width: %w", err)
	}

	path := filepath.Join(g.outputDir, fmt.Sprintf("voucher_%s.xlsx", snap.ID))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save voucher: %w", err)
	}

	g.logger.Info("Voucher generated",
		zap.String("request_id", snap.ID),
		zap.String("path", path))

	return path, nil
}

func amountRows(snap request.Snapshot) [][]interface{} {
	switch snap.Type {
	case request.TypeCashAdvance:
		rows := [][]interface{}{
			{"Amount", cents(snap.Amounts.Amount)},
		}
		if snap.Amounts.Purpose != "" {
			rows = append(rows, []interface{}{"Purpose", snap.Amounts.Purpose})
		}
		return rows
	case request.TypeLiquidation:
		return [][]interface{}{
			{"Cash advance", cents(snap.Amounts.CashAdvanceAmount)},
			{"Total expenses", cents(snap.Amounts.TotalExpenses)},
			{"Return to company", cents(snap.Amounts.ReturnToCompany)},
			{"Reimbursement", cents(snap.Amounts.Reimbursement)},
		}
	}
	return nil
}

func approvalRows(snap request.Snapshot) [][]interface{} {
	var rows [][]interface{}
	if snap.Level1 != nil {
		rows = append(rows, []interface{}{"Level 1 approver", snap.Level1.ApproverName})
		rows = append(rows, []interface{}{"Level 1 decided", snap.Level1.DecidedAt.Format("2006-01-02 15:04")})
	}
	if snap.Level2 != nil {
		rows = append(rows, []interface{}{"Level 2 approver", snap.Level2.ApproverName})
		rows = append(rows, []interface{}{"Level 2 decided", snap.Level2.DecidedAt.Format("2006-01-02 15:04")})
	}
	return rows
}

func typeLabel(t request.Type) string {
	switch t {
	case request.TypeCashAdvance:
		return "Cash Advance"
	case request.TypeLiquidation:
		return "Liquidation"
	}
	return string(t)
}

func cents(v int64) float64 {
	return float64(v) / 100
}

// Verify interface compliance
var _ port.VoucherGenerator = (*Generator)(nil)
