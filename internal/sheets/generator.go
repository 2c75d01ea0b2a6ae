// Package sheets generates the settlement spreadsheets attached to the
// settlement conversation and archived after dispatch.
package sheets

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"bidrelay_backend/internal/projects"
)

// Sheet is one generated workbook on disk.
type Sheet struct {
	Filename string
	Path     string
}

// Input describes one settlement sheet between a pair of parties.
type Input struct {
	ContractNumber string
	SerialNumber   string
	// Mode is the project classification, rendered into the filename.
	Mode string
	// Pair names the exchanging parties, e.g. "BC" or "BD".
	Pair string
	// HeadCompany issues the sheet; BottomCompany signs it off.
	HeadCompany   string
	BottomCompany string
	ProjectName   string
	// ReceivedAmount is the settled total for this exchange.
	ReceivedAmount string
	Items          []projects.ReceivableItem
}

// Filename follows the archive naming convention.
func (in Input) Filename() string {
	return fmt.Sprintf("%s_%s_%s模式_%s结算单.xlsx", in.ContractNumber, in.SerialNumber, in.Mode, in.Pair)
}

// Generator writes settlement workbooks into a working directory.
type Generator struct {
	dir string
}

// NewGenerator creates a Generator writing into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{dir: dir}
}

// Generate writes one workbook and returns its location.
func (g *Generator) Generate(in Input) (Sheet, error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return Sheet{}, fmt.Errorf("create settlement dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"

	if err := f.MergeCell(sheet, "A1", "C1"); err != nil {
		return Sheet{}, fmt.Errorf("merge title cells: %w", err)
	}
	f.SetCellValue(sheet, "A1", "结算单")

	f.SetCellValue(sheet, "A2", "出具方")
	f.SetCellValue(sheet, "B2", in.HeadCompany)
	f.SetCellValue(sheet, "A3", "项目名称")
	f.SetCellValue(sheet, "B3", in.ProjectName)
	f.SetCellValue(sheet, "A4", "合同编号")
	f.SetCellValue(sheet, "B4", in.ContractNumber)
	f.SetCellValue(sheet, "A5", "标书编号")
	f.SetCellValue(sheet, "B5", in.SerialNumber)
	f.SetCellValue(sheet, "A6", "已收金额")
	f.SetCellValue(sheet, "B6", in.ReceivedAmount)

	f.SetCellValue(sheet, "A8", "费用明细")
	f.SetCellValue(sheet, "A9", "项目")
	f.SetCellValue(sheet, "B9", "金额")

	row := 10
	for _, item := range in.Items {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Amount)
		row++
	}

	row += 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "确认方")
	f.SetCellValue(sheet, fmt.Sprintf("B%d", row), in.BottomCompany)

	if err := f.SetColWidth(sheet, "A", "A", 18); err != nil {
		return Sheet{}, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(sheet, "B", "C", 36); err != nil {
		return Sheet{}, fmt.Errorf("set column width: %w", err)
	}

	filename := in.Filename()
	path := filepath.Join(g.dir, filename)
	if err := f.SaveAs(path); err != nil {
		return Sheet{}, fmt.Errorf("save settlement sheet: %w", err)
	}

	return Sheet{Filename: filename, Path: path}, nil
}
