package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/productpulse/internal/report"
	"github.com/KaramelBytes/productpulse/internal/utils"
)

var (
	abOutDir    string
	abJSON      bool
	abDelimiter string
	abQuiet     bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <data-dirs...>",
	Short: "Analyze several data directories and write one report per directory",
	Long: `Runs the metrics engine over each data directory (globs allowed, e.g. exports/*)
and writes <dir-name>.md, plus <dir-name>.json with --json, into the output
directory (default output_dir from the configuration).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return err
		}

		var dirs []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err != nil || !info.IsDir() {
					continue
				}
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				dirs = append(dirs, m)
			}
		}
		if len(dirs) == 0 {
			return fmt.Errorf("no data directories matched")
		}
		sort.Strings(dirs)

		outDir := c.OutputDir
		if abOutDir != "" {
			outDir = abOutDir
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		opt := c.LoaderOptions()
		if opt.Delimiter, err = parseDelimiter(abDelimiter); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		used := map[string]struct{}{}
		total := len(dirs)
		for i, dir := range dirs {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, dir)
			}
			res, err := analyzeDir(cmd.Context(), c, dir, opt)
			if err != nil {
				return fmt.Errorf("%s: %w", dir, err)
			}

			base := reportBase(outDir, filepath.Base(filepath.Clean(dir)), used)
			if base != filepath.Base(filepath.Clean(dir)) && !abQuiet {
				fmt.Fprintf(out, "⚠ Report name already taken, writing to %s.md to avoid overwrite.\n", base)
			}
			meta := report.NewMeta(dir)
			mdPath := filepath.Join(outDir, base+".md")
			if err := utils.SafeWriteFile(mdPath, []byte(report.Markdown(res, meta))); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if abJSON {
				var buf bytes.Buffer
				if err := report.WriteJSON(&buf, res, meta); err != nil {
					return err
				}
				if err := utils.SafeWriteFile(filepath.Join(outDir, base+".json"), buf.Bytes()); err != nil {
					return fmt.Errorf("write json: %w", err)
				}
			}
			if !abQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", mdPath)
			}
		}
		return nil
	},
}

// reportBase picks a report file base name that neither an earlier directory
// in this run nor an existing file already uses, appending __2, __3, ...
func reportBase(outDir, name string, used map[string]struct{}) string {
	taken := func(b string) bool {
		if _, ok := used[b]; ok {
			return true
		}
		_, err := os.Stat(filepath.Join(outDir, b+".md"))
		return err == nil
	}
	base := name
	for idx := 2; taken(base); idx++ {
		base = fmt.Sprintf("%s__%d", name, idx)
	}
	used[base] = struct{}{}
	return base
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abOutDir, "out-dir", "o", "", "directory for reports (overrides output_dir)")
	analyzeBatchCmd.Flags().BoolVar(&abJSON, "json", false, "also write full results as JSON next to each report")
	analyzeBatchCmd.Flags().StringVar(&abDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
