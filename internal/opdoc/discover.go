package opdoc

import (
	"os"
	"path/filepath"
	"strings"
)

// Discover walks each root looking for .graphql/.gql files, excluding
// hidden directories and node_modules (spec §4.10).
func Discover(roots []string) ([]string, error) {
	var files []string
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if name != "." && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				if name == "node_modules" {
					return filepath.SkipDir
				}
				return nil
			}
			ext := filepath.Ext(path)
			if ext == ".graphql" || ext == ".gql" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// ParseFiles parses every discovered file and merges the results into
// one Document (fragments are shared across files by name).
func ParseFiles(files []string) (*Document, error) {
	doc := &Document{Fragments: make(map[string]FragmentDefinition)}
	for _, f := range files {
		raw, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		parsed := Parse(string(raw), f)
		doc.Operations = append(doc.Operations, parsed.Operations...)
		for name, frag := range parsed.Fragments {
			doc.Fragments[name] = frag
		}
		doc.Warnings = append(doc.Warnings, parsed.Warnings...)
	}
	return doc, nil
}
