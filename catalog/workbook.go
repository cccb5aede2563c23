package catalog

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx"
	"gorm.io/datatypes"

	"github.com/vin-devs/learnsite/models"
)

const workbookSheet = "Products"

var workbookHeaders = []string{
	"ID", "Slug", "Kind", "Title", "Author", "Price", "OldPrice", "Rating", "ReviewCount",
	"Categories", "Level", "Lessons", "DurationHours", "Pages", "Format", "Thumbnail",
	"Description", "CreatedAt",
}

const (
	colID = iota
	colSlug
	colKind
	colTitle
	colAuthor
	colPrice
	colOldPrice
	colRating
	colReviewCount
	colCategories
	colLevel
	colLessons
	colDuration
	colPages
	colFormat
	colThumbnail
	colDescription
	colCreatedAt
)

// WriteWorkbook writes one spreadsheet row per product.
func WriteWorkbook(w io.Writer, products []models.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(workbookSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range workbookHeaders {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.ID)
		row.AddCell().SetString(p.Slug)
		row.AddCell().SetString(string(p.Kind))
		row.AddCell().SetString(p.Title)
		row.AddCell().SetString(p.Author)
		row.AddCell().SetFloat(p.Price)
		if p.OldPrice != nil {
			row.AddCell().SetFloat(*p.OldPrice)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetFloat(p.Rating)
		row.AddCell().SetInt(p.ReviewCount)
		row.AddCell().SetString(strings.Join(p.Categories, ","))

		level, lessons, duration, pages, format := "", "", "", "", ""
		if c, ok := p.CourseDetails(); ok {
			level = string(c.Level)
			lessons = strconv.Itoa(c.LessonsCount)
			duration = strconv.FormatFloat(c.DurationHours, 'f', -1, 64)
		}
		if b, ok := p.BookDetails(); ok {
			pages = strconv.Itoa(b.Pages)
			format = string(b.Format)
		}
		for _, v := range []string{level, lessons, duration, pages, format, p.Thumbnail, p.Description} {
			row.AddCell().SetString(v)
		}
		row.AddCell().SetString(p.CreatedAt.UTC().Format(time.RFC3339))
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// ImportResult counts what ReadWorkbook did with each data row.
type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// ReadWorkbook parses a catalog spreadsheet. Rows naming an existing product
// update its listing fields and keep its details; other rows must carry
// enough columns to build a new course or book. Unusable rows are skipped.
func ReadWorkbook(data []byte, existing map[string]models.Product) ([]models.Product, ImportResult, error) {
	var res ImportResult
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, res, fmt.Errorf("failed to parse workbook: %w", err)
	}
	if len(file.Sheets) == 0 || len(file.Sheets[0].Rows) < 2 {
		return nil, res, fmt.Errorf("workbook is empty or missing header row")
	}

	var out []models.Product
	for _, row := range file.Sheets[0].Rows[1:] {
		get := func(i int) string {
			if row != nil && i < len(row.Cells) {
				return strings.TrimSpace(row.Cells[i].String())
			}
			return ""
		}

		p, isNew, ok := rowProduct(get, existing)
		if !ok || p.Validate() != nil {
			res.Skipped++
			continue
		}
		if isNew {
			res.Created++
		} else {
			res.Updated++
		}
		out = append(out, p)
	}
	return out, res, nil
}

func rowProduct(get func(int) string, existing map[string]models.Product) (models.Product, bool, bool) {
	id := get(colID)
	price, err := strconv.ParseFloat(get(colPrice), 64)
	if id == "" || get(colTitle) == "" || err != nil {
		return models.Product{}, false, false
	}

	p, found := existing[id]
	if !found {
		kind, err := models.ParseKind(get(colKind))
		if err != nil {
			return models.Product{}, false, false
		}
		p = models.Product{ID: id, Kind: kind, CreatedAt: time.Now()}
		switch kind {
		case models.KindCourse:
			lessons, _ := strconv.Atoi(get(colLessons))
			duration, _ := strconv.ParseFloat(get(colDuration), 64)
			p.Course = &models.CourseDetails{
				Level:         models.Level(get(colLevel)),
				LessonsCount:  lessons,
				DurationHours: duration,
			}
		case models.KindBook:
			pages, _ := strconv.Atoi(get(colPages))
			p.Book = &models.BookDetails{Pages: pages, Format: models.Format(get(colFormat))}
		}
	}

	p.Slug = get(colSlug)
	if p.Slug == "" {
		p.Slug = id
	}
	p.Title = get(colTitle)
	p.Author = get(colAuthor)
	p.Price = price
	p.OldPrice = nil
	if old, err := strconv.ParseFloat(get(colOldPrice), 64); err == nil {
		p.OldPrice = &old
	}
	p.Rating, _ = strconv.ParseFloat(get(colRating), 64)
	p.ReviewCount, _ = strconv.Atoi(get(colReviewCount))
	p.Categories = datatypes.JSONSlice[string]{}
	for _, name := range strings.Split(get(colCategories), ",") {
		if name = strings.TrimSpace(name); name != "" {
			p.Categories = append(p.Categories, name)
		}
	}
	p.Thumbnail = get(colThumbnail)
	p.Description = get(colDescription)
	return p, !found, true
}
