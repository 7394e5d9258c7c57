package toc

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var pageCharsRe = regexp.MustCompile(`[\d,-]`)

// ParsePageList expands a page string ("42-45", "3,5,7-9") into an explicit
// list of page numbers. Non-numeric noise is stripped first, so model
// responses like "pages 42-45." still parse. Descending ranges are skipped.
func ParsePageList(pageStr string) ([]int, error) {
	cleaned := strings.Join(pageCharsRe.FindAllString(pageStr, -1), "")
	if cleaned == "" {
		return nil, fmt.Errorf("page string %q contains no numbers", pageStr)
	}

	var pages []int
	for _, part := range strings.Split(cleaned, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			bounds := strings.SplitN(part, "-", 2)
			start, err1 := strconv.Atoi(bounds[0])
			end, err2 := strconv.Atoi(bounds[1])
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("could not parse page range %q", part)
			}
			if start <= end {
				for p := start; p <= end; p++ {
					pages = append(pages, p)
				}
			}
			continue
		}

		p, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("could not parse page number %q", part)
		}
		pages = append(pages, p)
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("page string %q yielded no pages", pageStr)
	}
	return pages, nil
}
