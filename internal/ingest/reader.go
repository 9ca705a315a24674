package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/qepting91/caption-importer/internal/caption"
)

// Category names are shown to shoppers, so keep them printable and short.
var categoryNameRegex = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} &'-]{0,47}$`)

// LoadCategories reads an ordered category mapping from a CSV file with a
// header row. Column one is the category name, every further column holds
// keywords, optionally separated by ';' inside a single cell. Row order is
// the evaluation order.
func LoadCategories(path string) (caption.Categories, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadCategories(f)
}

func ReadCategories(src io.Reader) (caption.Categories, error) {
	r := csv.NewReader(stripBOM(src))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var cats caption.Categories
	seen := make(map[string]bool)
	line := 0
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, fmt.Errorf("read categories: %w", err)
		}
		line++
		if line == 1 {
			continue // header
		}

		// Validation (Fail-Soft)
		name := strings.TrimSpace(record[0])
		if !categoryNameRegex.MatchString(name) || seen[name] {
			continue
		}

		var keywords []string
		for _, cell := range record[1:] {
			for _, kw := range strings.Split(cell, ";") {
				if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
					keywords = append(keywords, kw)
				}
			}
		}
		// a category without keywords is kept; it can still be the default
		seen[name] = true
		cats = append(cats, caption.Category{Name: name, Keywords: keywords})
	}
	return cats, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
