package backend

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// LoadCatalog читает все JSON-файлы каталога в dir. Каждый файл содержит массив товаров.
func LoadCatalog(dir string, validate *validator.Validate) ([]SeedProduct, error) {
	var products []SeedProduct

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer file.Close()

		var batch []SeedProduct
		if err := json.NewDecoder(file).Decode(&batch); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		for i, product := range batch {
			if err := validate.Struct(product); err != nil {
				return fmt.Errorf("invalid product #%d in %s: %w", i, path, err)
			}
		}
		products = append(products, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}
