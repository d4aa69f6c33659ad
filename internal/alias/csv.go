package alias

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// LoadCSV reads static alias mappings into the builder. The expected format
// is a header row followed by "category,key,label" records. Category names
// match the Category constants; unknown categories and short records are
// skipped so one bad line never discards an operator's whole mapping file.
// Returns the number of records loaded.
func LoadCSV(b *Builder, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("alias: could not read header: %w", err)
	}

	loaded := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("alias: read record: %w", err)
		}
		if len(record) < 3 {
			continue
		}
		cat, ok := ParseCategory(record[0])
		if !ok {
			continue
		}
		rawKey := strings.TrimSpace(record[1])
		label := strings.TrimSpace(record[2])
		if rawKey == "" || label == "" {
			continue
		}
		b.AddStatic(cat, rawKey, label)
		loaded++
	}
	return loaded, nil
}

// ParseCategory maps a config-file category name onto a Category constant.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case Interface:
		return Interface, true
	case Network:
		return Network, true
	case Address:
		return Address, true
	case Port:
		return Port, true
	case Misc:
		return Misc, true
	}
	return "", false
}
