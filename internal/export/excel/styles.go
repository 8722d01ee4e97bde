package excel

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const amountFormat = "#,##0.00;[Red]-#,##0.00"

func cell(col rune, row int) string {
	return fmt.Sprintf("%c%d", col, row)
}

func amount(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func defaultStyle() *excelize.Style {
	return &excelize.Style{
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#FFFFFF"},
			Pattern: 1,
		},
	}
}

func numberFormat() *excelize.Style {
	format := amountFormat
	return &excelize.Style{
		CustomNumFmt: &format,
	}
}

func percentStyle() *excelize.Style {
	format := "0.00%"
	return &excelize.Style{
		CustomNumFmt: &format,
	}
}

func dateFormat() *excelize.Style {
	format := "yyyy-mm-dd"
	return &excelize.Style{
		CustomNumFmt: &format,
	}
}

func fontBold() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
	}
}

func fontItalic() *excelize.Style {
	return &excelize.Style{
		Font: &excelize.Font{
			Italic: true,
		},
	}
}

func textAlignment(a string) *excelize.Style {
	return &excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: a,
		},
	}
}

func indent(level int) *excelize.Style {
	return &excelize.Style{
		Alignment: &excelize.Alignment{
			Indent: level,
		},
	}
}

func border(style int, where ...string) *excelize.Style {
	s := &excelize.Style{}
	for _, w := range where {
		s.Border = append(s.Border, excelize.Border{
			Type:  w,
			Color: "#000000",
			Style: style,
		})
	}
	return s
}

func thinBorder(where ...string) *excelize.Style {
	return border(1, where...)
}

func thickBorder(where ...string) *excelize.Style {
	return border(2, where...)
}

func mergeStyles(ext ...*excelize.Style) *excelize.Style {
	if len(ext) == 0 {
		return nil
	}
	for _, e := range ext[1:] {
		_ = mergo.Merge(ext[0], e, mergo.WithOverride, mergo.WithAppendSlice)
	}
	return ext[0]
}
