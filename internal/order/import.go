package order

import (
	"fmt"
	"strconv"
	"strings"

	"supplychain-backend/internal/auth"
	"supplychain-backend/internal/database"
	"supplychain-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type importRow struct {
	SKU      string
	Quantity int
}

type importError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// POST /api/orders/import
// Accepts an .xlsx with SKU and quantity columns and builds a draft order
// against the given supplier. Rows are validated through the same item
// rules as the interactive editor; any bad row aborts the import.
func ImportOrderHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := auth.ActorFromContext(c)
		if err != nil {
			return err
		}

		supplierID, err := strconv.Atoi(c.FormValue("supplier_id"))
		if err != nil || supplierID <= 0 {
			return fiber.NewError(fiber.StatusBadRequest, "supplier_id form field is required")
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File upload failed: "+err.Error())
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not open uploaded file: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read Excel file: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file has no sheets")
		}
		rows, err := excelFile.GetRows(sheetList[0])
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read sheet: "+err.Error())
		}
		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file is empty")
		}

		parsed, badRows := parseImportRows(rows)
		if len(badRows) > 0 {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "Import aborted, fix the listed rows and retry",
				"errors":  badRows,
			})
		}
		if len(parsed) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "No usable rows found")
		}

		// The draft and every line are created inside one transaction so a
		// bad SKU or an over-stock row leaves nothing behind.
		var o *models.Order
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			o, err = CreateDraft(tx, actor, CreateDraftInput{
				SupplierID: uint(supplierID),
				Notes:      fmt.Sprintf("Imported from %s", fileHeader.Filename),
			})
			if err != nil {
				return err
			}
			for _, row := range parsed {
				var product models.Product
				err := tx.First(&product, "sku = ? AND supplier_id = ?", row.SKU, uint(supplierID)).Error
				if err != nil {
					return fiber.NewError(fiber.StatusUnprocessableEntity,
						fmt.Sprintf("SKU %q not found for supplier %d", row.SKU, supplierID))
				}
				if o, err = AddItem(tx, actor, o.ID, product.ID, row.Quantity); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(o)
	}
}

// parseImportRows turns sheet rows into SKU+quantity pairs. The first row
// is skipped when it looks like a header. Blank rows are ignored.
func parseImportRows(rows [][]string) ([]importRow, []importError) {
	var parsed []importRow
	var bad []importError

	start := 0
	if len(rows[0]) > 0 {
		head := strings.ToUpper(strings.TrimSpace(rows[0][0]))
		if strings.Contains(head, "SKU") || strings.Contains(head, "PRODUCT") {
			start = 1
		}
	}

	for i := start; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		if len(row) < 2 {
			bad = append(bad, importError{Row: i + 1, Message: "Missing quantity column"})
			continue
		}
		qty, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil || qty <= 0 {
			bad = append(bad, importError{Row: i + 1, Message: fmt.Sprintf("Invalid quantity %q", row[1])})
			continue
		}
		parsed = append(parsed, importRow{SKU: strings.TrimSpace(row[0]), Quantity: qty})
	}
	return parsed, bad
}
