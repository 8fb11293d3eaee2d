package ticker

import "strings"

// RowCount returns how many screen rows a title of the given rune length needs
// at width: ceil(length/width), and never less than one.
func RowCount(length, width int) int {
	if length <= width {
		return 1
	}
	return (length + width - 1) / width
}

// Wrap splits title into lines of exactly width runes, padded with spaces.
//
// A line ends after the last space inside the width window, so words are not
// split while a break point exists. A space falling exactly on the boundary
// is consumed instead of starting the next line. A window without spaces is
// cut at the boundary. The row count is always RowCount(len, width): when
// word breaks would need more lines the title is cut at fixed boundaries
// instead, and when consumed spaces leave fewer lines blank rows are added.
func Wrap(title string, width int) []string {
	if width <= 0 {
		return nil
	}
	runes := []rune(title)
	n := RowCount(len(runes), width)

	lines := wordWrap(runes, width)
	if len(lines) > n {
		lines = hardWrap(runes, width)
	}
	for len(lines) < n {
		lines = append(lines, nil)
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = pad(l, width)
	}
	return out
}

func wordWrap(runes []rune, width int) [][]rune {
	var lines [][]rune
	pos := 0
	for len(runes)-pos > width {
		end := pos + width
		if runes[end] == ' ' {
			lines = append(lines, runes[pos:end])
			pos = end + 1
			continue
		}
		brk := -1
		for i := end - 1; i > pos; i-- {
			if runes[i] == ' ' {
				brk = i
				break
			}
		}
		if brk < 0 {
			lines = append(lines, runes[pos:end])
			pos = end
			continue
		}
		lines = append(lines, runes[pos:brk+1])
		pos = brk + 1
	}
	return append(lines, runes[pos:])
}

func hardWrap(runes []rune, width int) [][]rune {
	var lines [][]rune
	for pos := 0; pos < len(runes); pos += width {
		lines = append(lines, runes[pos:min(pos+width, len(runes))])
	}
	if len(lines) == 0 {
		lines = append(lines, nil)
	}
	return lines
}

func pad(line []rune, width int) string {
	s := string(line)
	if len(line) < width {
		s += strings.Repeat(" ", width-len(line))
	}
	return s
}
