package units

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ujichase/orbit/internal/debug"
	"github.com/ujichase/orbit/internal/manifest"
	"github.com/ujichase/orbit/internal/types"
)

// ExtractFile emits the design units of a single HDL source file. rel is
// the slash-form path recorded on the units; the file is read from path.
func ExtractFile(path, rel string) ([]*Unit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Extract(rel, src, types.DetectLang(rel))
}

// Extract emits the design units of one source buffer.
func Extract(rel string, src []byte, lang types.Lang) ([]*Unit, error) {
	switch lang {
	case types.LangVhdl:
		return extractVhdl(rel, src)
	case types.LangVerilog, types.LangSystemVerilog:
		return extractVerilog(rel, src, lang)
	default:
		return nil, fmt.Errorf("%s: not an hdl source file", rel)
	}
}

// ExtractDir builds the unit table of the IP rooted at dir. Files are
// lexed in parallel; a file that fails to lex contributes a diagnostic
// instead of units. Library and visibility come from the manifest.
func ExtractDir(dir string, m *manifest.Manifest) (*Table, error) {
	files, err := HdlFiles(dir)
	if err != nil {
		return nil, err
	}

	table := &Table{}
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			found, err := ExtractFile(filepath.Join(dir, filepath.FromSlash(rel)), rel)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				debug.Printf("extract: dropping %s: %v\n", rel, err)
				table.Diagnostics = append(table.Diagnostics, err)
				return nil
			}
			table.Units = append(table.Units, found...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// parallel completion order is not deterministic; restore file order
	sort.SliceStable(table.Units, func(i, j int) bool {
		if table.Units[i].File != table.Units[j].File {
			return table.Units[i].File < table.Units[j].File
		}
		return table.Units[i].Span.Start < table.Units[j].Span.Start
	})

	library := m.Library()
	for _, u := range table.Units {
		u.Library = library
		u.Visibility = m.VisibilityOf(u.File)
	}
	table.LinkArchitectures()
	return table, nil
}

// HdlFiles lists the IP's HDL sources as sorted slash-form relative paths.
func HdlFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !types.IsHdlSource(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
