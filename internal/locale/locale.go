// Package locale 提供站点使用的巴西葡萄牙语日期与数字格式。
package locale

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	HTMLLang = "pt-BR"
	Timezone = "America/Sao_Paulo"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var (
	printer  = message.NewPrinter(language.BrazilianPortuguese)
	location = loadLocation()
)

func loadLocation() *time.Location {
	loc, err := time.LoadLocation(Timezone)
	if err != nil {
		// 容器内可能缺少 tzdata，回退到固定 UTC-3。
		return time.FixedZone("BRT", -3*60*60)
	}
	return loc
}

// Location returns the newsroom timezone.
func Location() *time.Location {
	return location
}

// FormatDate renders t as "15 de março de 2024" in the newsroom timezone.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	local := t.In(location)
	return fmt.Sprintf("%d de %s de %d", local.Day(), monthNames[local.Month()-1], local.Year())
}

// FormatDateTime renders t as "15/03/2024 14:05".
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(location).Format("02/01/2006 15:04")
}

// FormatFileSize renders a byte count with a decimal comma, e.g. "2,4 MB".
func FormatFileSize(size int64) string {
	const unit = 1024
	switch {
	case size <= 0:
		return ""
	case size < unit:
		return printer.Sprintf("%d B", size)
	case size < unit*unit:
		return printer.Sprintf("%.1f KB", float64(size)/unit)
	default:
		return printer.Sprintf("%.1f MB", float64(size)/(unit*unit))
	}
}
