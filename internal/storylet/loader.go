package storylet

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// LoadDefinitionsDir reads every *.yaml/*.yml file under dir (recursively)
// as one authored Definition each, populating SourcePath from the
// file's path relative to dir — the same field Compile sorts on to
// assign dense keys, so the directory layout controls compile order.
func LoadDefinitionsDir(dir string) ([]Definition, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext == ".yaml" || ext == ".yml" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk storylet source dir %q: %w", dir, err)
	}
	sort.Strings(paths)

	defs := make([]Definition, 0, len(paths))
	for _, path := range paths {
		def, err := loadDefinitionFile(path)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		def.SourcePath = rel
		defs = append(defs, def)
	}
	return defs, nil
}

func loadDefinitionFile(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read storylet definition %q: %w", path, err)
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("parse storylet definition %q: %w", path, err)
	}
	return def, nil
}
