package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/glr-generator/internal/async"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
)

var (
	batchTemplatePath string
	batchReportsDir   string
	batchOutDir       string
	batchWorkers      int
	batchSkipHidden   bool
)

// batchCmd fills one template once per report. Reports come from --reports-dir
// and any positional arguments.
var batchCmd = &cobra.Command{
	Use:   "batch [report.pdf ...]",
	Short: "Generate one GLR per photo report, concurrently",
	RunE:  runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchTemplatePath, "template", "t", "", "GLR template .docx (required)")
	batchCmd.Flags().StringVar(&batchReportsDir, "reports-dir", "", "directory to scan for .pdf reports")
	batchCmd.Flags().StringVarP(&batchOutDir, "out-dir", "o", ".", "directory for the generated .docx files")
	batchCmd.Flags().IntVarP(&batchWorkers, "workers", "w", 2, "concurrent generations")
	batchCmd.Flags().BoolVar(&batchSkipHidden, "skip-hidden", true, "skip dot files and directories")
	_ = batchCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(batchCmd)
}

type batchRow struct {
	report  string
	output  string
	variant string
	fields  int
	err     error
}

func runBatch(cmd *cobra.Command, args []string) error {
	var reports []reportFile
	for _, path := range args {
		reports = append(reports, reportFile{path: path, rel: filepath.Base(path)})
	}
	if batchReportsDir != "" {
		found, err := findReports(batchReportsDir, batchSkipHidden)
		if err != nil {
			return err
		}
		for _, path := range found {
			rel, err := filepath.Rel(batchReportsDir, path)
			if err != nil {
				return fmt.Errorf("relative path of %s: %w", path, err)
			}
			reports = append(reports, reportFile{path: path, rel: rel})
		}
	}
	if len(reports) == 0 {
		return fmt.Errorf("no reports given: pass files or --reports-dir")
	}
	if err := os.MkdirAll(batchOutDir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", batchOutDir, err)
	}
	outputs := planOutputs(batchOutDir, reports)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	template, err := readUpload(batchTemplatePath)
	if err != nil {
		return err
	}

	// Jobs get their ids up front so the handler only reads byID.
	byID := make(map[uuid.UUID]int, len(reports))
	jobs := make([]async.Job, len(reports))
	for i := range reports {
		jobs[i].ID = uuid.New()
		byID[jobs[i].ID] = i
	}

	var (
		mu   sync.Mutex
		rows []batchRow
	)
	addRow := func(row batchRow) {
		mu.Lock()
		rows = append(rows, row)
		mu.Unlock()
	}
	handle := func(o async.Outcome) {
		i := byID[o.Job.ID]
		row := batchRow{report: reports[i].rel, err: o.Err}
		if o.Err == nil {
			row.variant = string(o.Result.Variant)
			row.fields = len(o.Result.Fields)
			row.output = outputs[i]
			row.err = writeOutput(row.output, o.Result.Output)
		}
		addRow(row)
	}

	q := async.NewQueue(a.Processor, handle, a.Logger,
		async.WithContext(ctx),
		async.WithWorkers(batchWorkers),
		async.WithProcessTimeout(a.Config.LLM.Timeout+a.Config.Server.Timeout),
	)
	for i, rf := range reports {
		if ctx.Err() != nil {
			addRow(batchRow{report: rf.rel, err: ctx.Err()})
			continue
		}
		report, err := readUpload(rf.path)
		if err != nil {
			addRow(batchRow{report: rf.rel, err: err})
			continue
		}
		jobs[i].Request = pipeline.Request{Template: template, Report: report}
		if err := q.Enqueue(ctx, jobs[i]); err != nil {
			addRow(batchRow{report: rf.rel, err: err})
		}
	}
	// Job contexts derive from ctx, so after an interrupt this returns promptly.
	q.Shutdown(context.Background())

	mu.Lock()
	defer mu.Unlock()
	return printBatch(cmd, rows)
}

// reportFile is a report on disk and the path it is known by in the output tree.
type reportFile struct {
	path string
	rel  string
}

// planOutputs maps each report to a distinct .docx path under outDir. A report
// at north/site.pdf under the reports dir is written to north/site_glr.docx;
// names that still collide get a numeric suffix.
func planOutputs(outDir string, reports []reportFile) []string {
	out := make([]string, len(reports))
	taken := make(map[string]bool, len(reports))
	for i, rf := range reports {
		base := filepath.Join(outDir, filepath.Dir(rf.rel), outputName(filepath.Base(rf.rel)))
		candidate := base
		for n := 2; taken[candidate]; n++ {
			candidate = strings.TrimSuffix(base, ".docx") + "_" + strconv.Itoa(n) + ".docx"
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func printBatch(cmd *cobra.Command, rows []batchRow) error {
	sort.Slice(rows, func(i, j int) bool { return rows[i].report < rows[j].report })

	failed := 0
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REPORT\tVARIANT\tFIELDS\tRESULT")
	for _, r := range rows {
		result := r.output
		if r.err != nil {
			failed++
			result = "error: " + r.err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", r.report, r.variant, r.fields, result)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d reports failed", failed, len(rows))
	}
	return nil
}

// findReports walks root for .pdf files in lexical order.
func findReports(root string, skipHidden bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if skipHidden && path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// outputName maps "site 12.pdf" to "site 12_glr.docx".
func outputName(report string) string {
	return strings.TrimSuffix(report, filepath.Ext(report)) + "_glr.docx"
}
