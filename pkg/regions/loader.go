package regions

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// DefaultTable returns the built-in region table used when no region file is
// configured. City names follow the agency's canonical spelling.
func DefaultTable() map[string][]string {
	return map[string][]string{
		"Gush Dan":  {"Tel Aviv", "Ramat Gan", "Givatayim", "Bnei Brak", "Holon", "Bat Yam"},
		"Jerusalem": {"Jerusalem", "Beit Shemesh", "Modiin"},
		"Haifa":     {"Haifa", "Krayot", "Kiryat Bialik", "Kiryat Ata", "Kiryat Motzkin"},
		"Sharon":    {"Raanana", "Kfar Saba", "Herzliya", "Ramat Hasharon", "Hod Hasharon"},
		"South":     {"Beer Sheva", "Ashdod", "Ashkelon"},
		"North":     {"Nazareth", "Karmiel", "Safed", "Tiberias"},
	}
}

// LoadFile reads a region table from a JSON file of the shape
// {"region name": ["city", ...], ...} and builds a classifier from it.
func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read region table %s", path)
	}

	var table map[string][]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, errors.Wrapf(err, "failed to parse region table %s", path)
	}

	return NewClassifier(table), nil
}

// Load builds a classifier from the file at path, or from the built-in
// default table when path is empty.
func Load(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(DefaultTable()), nil
	}
	return LoadFile(path)
}
