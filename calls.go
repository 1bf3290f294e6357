package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/phobologic/callsite/internal/discover"
	"github.com/phobologic/callsite/internal/literal"
	"github.com/phobologic/callsite/internal/model"
	"github.com/phobologic/callsite/internal/registry"
	"github.com/phobologic/callsite/internal/scan"
	"github.com/phobologic/callsite/internal/toon"
)

const defaultMaxFileSize = 1_000_000 // 1 MB

// callRow is one recognized call found in a project file.
type callRow struct {
	File     string
	Line     int
	Class    string
	Function string
	Family   string
	// Argument is the first argument's string value, or its source text
	// when it is not a string literal.
	Argument string
}

func newCallsCmd(a *app) *cobra.Command {
	var (
		family      string
		all         bool
		cachePath   string
		maxFileSize int
	)
	cmd := &cobra.Command{
		Use:   "calls [root]",
		Short: "List recognized calls in a project",
		Long: `Calls scans every PHP and Blade file under root (default: the project root)
and lists the calls that belong to a recognized family, such as config('...'),
route('...') or @include('...'), with the first argument of each.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) > 0 {
				root = args[0]
			} else {
				r, err := a.paths().Root(false)
				if err != nil {
					return err
				}
				root = r
			}
			root, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolving root: %w", err)
			}
			info, err := os.Stat(root)
			if err != nil {
				return fmt.Errorf("root path: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s: not a directory", root)
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}
			if family != "" {
				if _, ok := reg.Family(family); !ok {
					return fmt.Errorf("unknown call family %q", family)
				}
			}

			files, err := discover.Files(root, "")
			if err != nil {
				return fmt.Errorf("discovering files: %w", err)
			}

			// Check cache freshness
			if cachePath != "" && cacheIsFresh(cachePath, root, files) {
				data, err := os.ReadFile(cachePath)
				if err == nil {
					_, _ = a.stdout.Write(data)
					return nil
				}
			}

			files = filterBySize(root, files, maxFileSize, a.stderr)
			locator := scan.NewLocator(reg.Classes(), a.cfg.Resolver.MaxParenNesting)
			rows := scanFilesConcurrent(root, files, locator, reg, a.cfg.Resolver.MaxDepth, a.stderr)

			var table [][]string
			for _, r := range rows {
				if (!all && r.Family == "") || (family != "" && r.Family != family) {
					continue
				}
				table = append(table, []string{
					r.File,
					strconv.Itoa(r.Line),
					r.Class,
					r.Function,
					r.Family,
					r.Argument,
				})
			}
			output := toon.Table("calls", []string{"file", "line", "class", "function", "family", "argument"}, table)

			// Write cache
			if cachePath != "" {
				_ = os.WriteFile(cachePath, []byte(output+"\n"), 0o644)
			}

			_, _ = fmt.Fprintln(a.stdout, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&family, "family", "f", "", "only list calls of this family")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include calls that belong to no family")
	cmd.Flags().StringVar(&cachePath, "cache", "", "cache file path")
	cmd.Flags().IntVar(&maxFileSize, "max-file-size", defaultMaxFileSize, "skip files larger than this many bytes")
	return cmd
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, stderr io.Writer) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			_, _ = fmt.Fprintf(stderr, "Warning: %s: skipped (>%d bytes)\n", f.Path, maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

func scanFilesConcurrent(root string, files []discover.FileEntry, locator *scan.Locator, reg *registry.Registry, maxDepth int, stderr io.Writer) []callRow {
	type result struct {
		index int
		rows  []callRow
	}

	numWorkers := min(runtime.GOMAXPROCS(0), len(files))

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup
	var stderrMu sync.Mutex

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// Each goroutine gets its own parser
			eval := literal.NewPHP()

			for idx := range work {
				f := files[idx]
				source, err := os.ReadFile(filepath.Join(root, f.Path))
				if err != nil {
					stderrMu.Lock()
					_, _ = fmt.Fprintf(stderr, "Warning: failed to read %s: %v\n", f.Path, err)
					stderrMu.Unlock()
					continue
				}
				results <- result{index: idx, rows: fileCalls(f.Path, string(source), locator, reg, eval, maxDepth)}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	indexed := make([][]callRow, len(files))
	for r := range results {
		indexed[r.index] = r.rows
	}

	var rows []callRow
	for _, r := range indexed {
		rows = append(rows, r...)
	}
	return rows
}

// fileCalls lists the calls in text, including calls nested in the
// arguments of other calls down to maxDepth levels.
func fileCalls(path, text string, locator *scan.Locator, reg *registry.Registry, eval literal.Evaluator, maxDepth int) []callRow {
	var rows []callRow
	var walk func(sub string, base, level int)
	walk = func(sub string, base, level int) {
		if level > maxDepth {
			return
		}
		for _, m := range locator.Matches(sub) {
			start := base + m.Span.Start
			cs := &model.CallSite{Class: m.Class, Function: m.Function}
			family, _ := reg.Match(cs)

			args, _ := scan.Split(m.ArgList, -1)
			rows = append(rows, callRow{
				File:     path,
				Line:     strings.Count(text[:start], "\n") + 1,
				Class:    m.Class,
				Function: m.Function,
				Family:   family.Name,
				Argument: firstArgument(args, eval),
			})
			walk(m.ArgList, base+m.ArgListOffset, level+1)
		}
	}
	walk(text, 0, 0)
	return rows
}

func firstArgument(args []model.Argument, eval literal.Evaluator) string {
	if len(args) == 0 || args[0].RawText == "" {
		return ""
	}
	if v := eval.Evaluate(args[0].RawText); v.Kind == model.String {
		return v.Str
	}
	return args[0].RawText
}
