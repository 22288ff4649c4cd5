package utils

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	decimalBase        = 1000
	singleByteLabel    = "1 byte"
	pluralBytesFormat  = "%s bytes"
	decimalUnitFormat  = "%s %s"
	thousandsSeparator = ","
)

var decimalUnits = []string{"kB", "MB", "GB", "TB", "PB", "EB"}

// FormatFileSize converts a byte length into a human-readable string using
// decimal (SI) units with one fractional digit, e.g. "10 bytes" or "1.5 kB".
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	if bytes == 1 {
		return singleByteLabel
	}
	if bytes < decimalBase {
		return fmt.Sprintf(pluralBytesFormat, groupThousands(strconv.FormatInt(bytes, 10)))
	}
	unit := float64(decimalBase)
	unitIndex := 0
	for unitIndex < len(decimalUnits)-1 && float64(bytes) >= unit*decimalBase {
		unit *= decimalBase
		unitIndex++
	}
	value := strconv.FormatFloat(float64(bytes)/unit, 'f', 1, 64)
	return fmt.Sprintf(decimalUnitFormat, groupThousands(value), decimalUnits[unitIndex])
}

// groupThousands inserts separators into the integer part of a formatted number.
func groupThousands(number string) string {
	integerPart, fractionPart, hasFraction := strings.Cut(number, ".")
	if len(integerPart) <= 3 {
		return number
	}
	var builder strings.Builder
	leading := len(integerPart) % 3
	if leading > 0 {
		builder.WriteString(integerPart[:leading])
	}
	for index := leading; index < len(integerPart); index += 3 {
		if builder.Len() > 0 {
			builder.WriteString(thousandsSeparator)
		}
		builder.WriteString(integerPart[index : index+3])
	}
	if hasFraction {
		builder.WriteString(".")
		builder.WriteString(fractionPart)
	}
	return builder.String()
}
