package geospatial

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatArea renders an area in m² for humans: square meters below one
// hectare, hectares below one square kilometer, square kilometers above.
func FormatArea(squareMeters float64) string {
	switch {
	case squareMeters < 1:
		return "< 1 m²"
	case squareMeters < 10_000:
		rounded := math.Round(squareMeters)
		if squareMeters > 100 {
			rounded = math.Round(squareMeters/10) * 10
		}
		return printer.Sprintf("%d m²", int64(rounded))
	case squareMeters < 1_000_000:
		return printer.Sprintf("%.2f ha", squareMeters/10_000)
	default:
		return printer.Sprintf("%.2f km²", squareMeters/1_000_000)
	}
}
