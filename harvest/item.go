package harvest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/purplecofe/poedb-scraper/models"
)

const (
	baseTypeKey = "BaseType"
	typeKey     = "Type"
)

// ParseItem reads the item detail table of a rendered item page.
//
// The detail table is the first table with a row whose first cell mentions
// BaseType. Among its rows with at least two cells, the first BaseType row
// gives the English name, the second the Chinese name, and any row whose key
// mentions Type (but not BaseType) sets the classification; the last such
// row wins.
func ParseItem(doc *goquery.Document, finalURL string) models.Outcome {
	table := detailTable(doc)
	if table == nil {
		return models.NoData("no BaseType table")
	}

	var (
		rec       = models.RawItemRecord{URL: finalURL}
		baseTypes int
	)
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		key := strings.TrimSpace(cells.Eq(0).Text())
		value := strings.TrimSpace(cells.Eq(1).Text())

		switch {
		case strings.Contains(key, baseTypeKey):
			baseTypes++
			switch baseTypes {
			case 1:
				rec.BaseTypeEn = value
			case 2:
				rec.BaseTypeZh = &value
			}
		case strings.Contains(key, typeKey):
			rec.Type = &value
		}
	})

	if rec.BaseTypeEn == "" {
		return models.NoData("empty BaseType")
	}
	return models.Success(rec)
}

func detailTable(doc *goquery.Document) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			if strings.Contains(row.Find("td").First().Text(), baseTypeKey) {
				found = table
				return false
			}
			return true
		})
		return found == nil
	})
	return found
}
