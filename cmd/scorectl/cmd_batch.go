package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/assessiq/backend/internal/assessments"
	"github.com/assessiq/backend/internal/models"
)

type batchEntry struct {
	File   string                   `json:"file"`
	Result *models.AssessmentResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

func newBatchCmd() *cobra.Command {
	var flags scoreFlags
	var parallel int
	var outDir string
	var failFast bool

	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Score every .json/.yaml submission in a directory",
		Long: "Scores each submission file in DIR concurrently. With --out, one\n" +
			"<name>.result.<format> file is written per input; otherwise a summary\n" +
			"table is printed.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := listInputs(args[0])
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return fmt.Errorf("no .json or .yaml files in %s", args[0])
			}
			reg, err := loadRegistry()
			if err != nil {
				return err
			}

			entries, err := scoreBatch(cmd.Context(), reg, files, &flags, parallel, failFast)
			if err != nil {
				return err
			}

			if outDir != "" {
				if err := writeBatch(outDir, entries, flags.format); err != nil {
					return err
				}
			} else {
				printBatchSummary(cmd, entries)
			}

			failed := 0
			for _, e := range entries {
				if e.Error != "" {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d submissions failed", failed, len(entries))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVarP(&parallel, "parallel", "p", runtime.NumCPU(), "Files scored concurrently")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory for per-file results")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first file that fails")
	return cmd
}

func listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !isInput(e.Name()) || strings.Contains(e.Name(), ".result.") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// scoreBatch scores files concurrently. Entries come back in input order.
// Without failFast every file is attempted and failures are recorded on the
// entry; with failFast the first failure cancels the rest and is returned.
func scoreBatch(ctx context.Context, reg *assessments.Registry, files []string, flags *scoreFlags, parallel int, failFast bool) ([]batchEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if parallel < 1 {
		parallel = 1
	}
	entries := make([]batchEntry, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			entries[i].File = filepath.Base(path)
			if err := gCtx.Err(); err != nil {
				entries[i].Error = err.Error()
				return nil
			}
			res, err := scoreFile(reg, path, flags)
			if err != nil {
				entries[i].Error = err.Error()
				if failFast {
					return err
				}
				return nil
			}
			entries[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeBatch(outDir string, entries []batchEntry, format string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", outDir, err)
	}
	ext := "json"
	if isYAML("x." + format) {
		ext = "yaml"
	}
	for _, e := range entries {
		if e.Result == nil {
			continue
		}
		name := strings.TrimSuffix(e.File, filepath.Ext(e.File)) + ".result." + ext
		f, err := os.Create(filepath.Join(outDir, name))
		if err != nil {
			return err
		}
		werr := writeOutput(f, e.Result, format)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("write %s: %w", name, werr)
		}
		if cerr != nil {
			return cerr
		}
	}
	return nil
}

func printBatchSummary(cmd *cobra.Command, entries []batchEntry) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tTYPE\tOVERALL\tPERCENTILE\tLEVEL\tPROFILE\tVALID")
	for _, e := range entries {
		if e.Result == nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\terror: %s\n", e.File, e.Error)
			continue
		}
		r := e.Result
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.0f\t%s\t%s\t%t\n",
			e.File, r.AssessmentType, r.OverallScore, r.OverallPercentile, r.OverallLevel, r.Profile.Label, r.Validity.IsValid)
	}
	tw.Flush()
}
