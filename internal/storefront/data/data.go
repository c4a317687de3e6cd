// Package data loads the CSV inputs of the storefront scenarios into
// validated records. Every file names its columns in a header row; column
// order does not matter and names are matched case-insensitively.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidRow is wrapped by every row validation error.
var ErrInvalidRow = errors.New("invalid row")

// Category is a category listing to browse.
type Category struct {
	Name string
	URL  string // optional, relative to the site root
	Line int
}

// Product is a catalog entry with its expected prices in cents.
type Product struct {
	EntityID     int
	SKU          string
	Price        int64
	SpecialPrice int64 // 0 when the product is not on sale
	Line         int
}

// FinalPrice is the price the shopper pays.
func (p Product) FinalPrice() int64 {
	if p.SpecialPrice > 0 && p.SpecialPrice < p.Price {
		return p.SpecialPrice
	}
	return p.Price
}

// CMSPage is a content page expected to render.
type CMSPage struct {
	ID   int
	Path string
	Line int
}

// Loader reads CSV files split by Delimiter. The zero value splits on commas.
type Loader struct {
	Delimiter rune
}

// Categories loads a category list. Required column: Category.
func (l Loader) Categories(path string) ([]Category, error) {
	var out []Category
	err := l.each(path, []string{"category"}, func(r row) error {
		out = append(out, Category{Name: r.get("category"), URL: r.get("url"), Line: r.line})
		return nil
	})
	return out, err
}

// Products loads a product table. Required columns: entity_id, sku, Price.
func (l Loader) Products(path string) ([]Product, error) {
	var out []Product
	err := l.each(path, []string{"entity_id", "sku", "price"}, func(r row) error {
		id, err := strconv.Atoi(r.get("entity_id"))
		if err != nil {
			return r.invalid("entity_id %q is not a number", r.get("entity_id"))
		}
		price, err := ParseAmount(r.get("price"))
		if err != nil {
			return r.invalid("Price: %v", err)
		}
		p := Product{EntityID: id, SKU: r.get("sku"), Price: price, Line: r.line}
		if raw := r.get("special_price"); raw != "" {
			if p.SpecialPrice, err = ParseAmount(raw); err != nil {
				return r.invalid("Special_Price: %v", err)
			}
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

// CMSPages loads CMS page paths. Required columns: id, path.
func (l Loader) CMSPages(path string) ([]CMSPage, error) {
	var out []CMSPage
	err := l.each(path, []string{"id", "path"}, func(r row) error {
		id, err := strconv.Atoi(r.get("id"))
		if err != nil {
			return r.invalid("id %q is not a number", r.get("id"))
		}
		out = append(out, CMSPage{ID: id, Path: r.get("path"), Line: r.line})
		return nil
	})
	return out, err
}

type row struct {
	file   string
	line   int
	fields map[string]string
}

func (r row) get(col string) string { return r.fields[col] }

func (r row) invalid(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w: %s", r.file, r.line, ErrInvalidRow, fmt.Sprintf(format, args...))
}

// each parses the file and calls fn per data row. A row missing any
// required value fails the whole load.
func (l Loader) each(path string, required []string, fn func(row) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if l.Delimiter != 0 {
		r.Comma = l.Delimiter
	}
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	for _, req := range required {
		if !contains(cols, req) {
			return fmt.Errorf("%s: missing column %q (delimiter %q?)", path, req, l.comma())
		}
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		line, _ := r.FieldPos(0)
		if blank(rec) {
			continue
		}

		fields := make(map[string]string, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				fields[c] = strings.TrimSpace(rec[i])
			}
		}
		cur := row{file: path, line: line, fields: fields}
		for _, req := range required {
			if fields[req] == "" {
				return cur.invalid("empty %s", req)
			}
		}
		if err := fn(cur); err != nil {
			return err
		}
	}
}

func (l Loader) comma() rune {
	if l.Delimiter == 0 {
		return ','
	}
	return l.Delimiter
}

func contains(cols []string, want string) bool {
	for _, c := range cols {
		if c == want {
			return true
		}
	}
	return false
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseAmount converts a decimal amount to cents. Both "1299.99" and
// "1 299,99" forms are accepted; a lone separator followed by exactly three
// digits is a thousands separator. Signs, repeated decimal separators and
// malformed thousands groups are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return 0, errors.New("empty amount")
	}
	if strings.ContainsAny(s, "+-") {
		return 0, fmt.Errorf("amount %q is signed", s)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	dec := max(lastDot, lastComma)

	intPart, fracPart := s, ""
	if dec >= 0 {
		intPart, fracPart = s[:dec], s[dec+1:]
		// "1.299" or "1,299": only one kind of separator, grouping thousands.
		if len(fracPart) == 3 && (lastDot < 0 || lastComma < 0) {
			intPart, fracPart = s, ""
		} else if strings.Count(s, s[dec:dec+1]) > 1 {
			return 0, fmt.Errorf("amount %q repeats its decimal separator", s)
		}
		if fracPart == "" && intPart != s {
			return 0, fmt.Errorf("amount %q has no decimals after its separator", s)
		}
	}

	if !validGrouping(intPart) {
		return 0, fmt.Errorf("amount %q has malformed thousands groups", s)
	}
	intPart = strings.NewReplacer(".", "", ",", "").Replace(intPart)

	if !digits(fracPart) {
		return 0, fmt.Errorf("amount %q has non-digit decimals", s)
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimals", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", s, err)
	}
	return units*100 + cents, nil
}

// validGrouping reports whether an integer part is plain digits or digits
// grouped by threes with a single kind of separator.
func validGrouping(s string) bool {
	sep := strings.IndexAny(s, ".,")
	if sep < 0 {
		return digits(s)
	}
	groups := strings.Split(s, s[sep:sep+1])
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for i, g := range groups {
		if !digits(g) || (i > 0 && len(g) != 3) {
			return false
		}
	}
	return true
}

func digits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
