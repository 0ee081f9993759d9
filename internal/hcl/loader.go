// Package hcl is the HCL implementation of the configuration loading layer:
// it discovers .hcl files, decodes them against the schema package, and
// translates the result into the format-agnostic config model.
package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/seedvault/internal/config"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/fsutil"
	"github.com/vk/seedvault/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load orchestrates the HCL loading process. Paths may be files or
// directories; directories are walked for .hcl files. Missing paths are not
// an error, mirroring optional include directories.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findConfigFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	model := &config.Model{}
	seen := make(map[string]string)
	parser := hclparse.NewParser()

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root schema.Root
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, m := range root.Models {
			if prev, dup := seen[m.Label]; dup {
				return nil, nil, fmt.Errorf("model %q declared in both %s and %s", m.Label, prev, file)
			}
			seen[m.Label] = file
			model.Models = append(model.Models, l.translateModel(m))
		}
	}

	logger.Debug("HCL loading complete.", "models", len(model.Models))
	return model, NewConverter(), nil
}

// findConfigFiles expands the given paths into a flat, de-duplicated list of
// .hcl files.
func (l *Loader) findConfigFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if _, ok := seen[path]; !ok {
				all = append(all, path)
				seen[path] = struct{}{}
			}
			continue
		}

		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			if _, ok := seen[f]; !ok {
				all = append(all, f)
				seen[f] = struct{}{}
			}
		}
	}
	return all, nil
}
