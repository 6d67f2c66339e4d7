package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadDir loads class definitions from all CUE files in a directory and
// returns a registry built from them.
//
// Class definitions live under the top-level "class" struct:
//
//	class: Program: {
//		table: "programs"
//		slug:  "slug"
//		attr: title: display: "Title"
//		rel: contact: {column: "contact_id", target: "Person", display: "Contact"}
//		projection: title: "title"
//	}
func LoadDir(dir string) (*Registry, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("schema directory not found: %s", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("accessing schema directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	cueFiles, err := findCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning schema directory: %w", err)
	}
	if len(cueFiles) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building CUE value: %w", formatCUEError(err))
	}

	classesVal := value.LookupPath(cue.ParsePath("class"))
	if !classesVal.Exists() {
		return nil, fmt.Errorf("no class definitions found in %s", dir)
	}
	iter, err := classesVal.Fields()
	if err != nil {
		return nil, fmt.Errorf("iterating classes: %w", formatCUEError(err))
	}

	var classes []*Class
	for iter.Next() {
		cls, err := CompileClass(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", iter.Label(), err)
		}
		classes = append(classes, cls)
	}

	return NewRegistry(classes...)
}

// findCUEFiles returns all .cue files directly in dir (no recursion).
func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".cue") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
