// Package report generates PDF inspection reports.
//
// A report compiles one completed inspection: a summary header followed by a
// section per analyzed photo showing the photo and its safety findings.
package report

import (
	"time"

	"github.com/safesight/safesight/internal/domain"
)

// Data is everything a generator needs to render one report. Photo image
// bytes are resolved by the caller (from object storage) so generators do no
// I/O of their own.
type Data struct {
	Inspection  *domain.Inspection
	Images      map[string][]byte // photo ID -> image bytes, may be sparse
	GeneratedAt time.Time
}

// AnalyzedPhotos returns the inspection's analyzed photos in capture order.
func (d *Data) AnalyzedPhotos() []domain.Photo {
	var photos []domain.Photo
	for _, p := range d.Inspection.Photos {
		if p.IsAnalyzed {
			photos = append(photos, p)
		}
	}
	return photos
}

// Brand colors used across report styling.
var BrandColors = struct {
	Navy      string
	TextDark  string
	TextMuted string
	Border    string
}{
	Navy:      "#1E3A5F",
	TextDark:  "#1F2937",
	TextMuted: "#6B7280",
	Border:    "#E5E7EB",
}

// RiskColors maps risk levels to display colors.
var RiskColors = map[domain.RiskLevel]string{
	domain.RiskLevelHigh:    "#DC2626", // Red-600
	domain.RiskLevelMedium:  "#F97316", // Orange-500
	domain.RiskLevelLow:     "#16A34A", // Green-600
	domain.RiskLevelUnknown: "#6B7280", // Gray-500
}

// RiskColor returns the display color for a risk level.
func RiskColor(level domain.RiskLevel) string {
	if color, ok := RiskColors[level]; ok {
		return color
	}
	return BrandColors.TextMuted
}

// RiskLabel returns a human-readable label for a risk level.
func RiskLabel(level domain.RiskLevel) string {
	switch level {
	case domain.RiskLevelHigh:
		return "High Risk"
	case domain.RiskLevelMedium:
		return "Medium Risk"
	case domain.RiskLevelLow:
		return "Low Risk"
	default:
		return "Unclassified"
	}
}

// HexToRGB converts a "#RRGGBB" color string to RGB components.
func HexToRGB(hex string) (r, g, b int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}

	r = hexToDec(hex[0:2])
	g = hexToDec(hex[2:4])
	b = hexToDec(hex[4:6])
	return
}

func hexToDec(hex string) int {
	val := 0
	for _, c := range hex {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

// FormatDate formats a date for report display.
func FormatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// FormatDateTime formats a timestamp for report display.
func FormatDateTime(t time.Time) string {
	return t.Format("January 2, 2006 at 3:04 PM")
}
