package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/export"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
)

var (
	genTemplatePath string
	genReportPath   string
	genOutPath      string
	genFieldsXLSX   string
	genShowReply    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a filled GLR from a template and a photo report",
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genTemplatePath, "template", "t", "", "GLR template .docx (required)")
	generateCmd.Flags().StringVarP(&genReportPath, "report", "r", "", "photo report .pdf (required)")
	generateCmd.Flags().StringVarP(&genOutPath, "out", "o", constants.OutputFileName, "output .docx path")
	generateCmd.Flags().StringVar(&genFieldsXLSX, "fields-xlsx", "", "also write a field review workbook to this path")
	generateCmd.Flags().BoolVar(&genShowReply, "show-reply", false, "print the raw model reply")
	_ = generateCmd.MarkFlagRequired("template")
	_ = generateCmd.MarkFlagRequired("report")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	template, err := readUpload(genTemplatePath)
	if err != nil {
		return err
	}
	report, err := readUpload(genReportPath)
	if err != nil {
		return err
	}

	res, err := a.Processor.Generate(ctx, pipeline.Request{Template: template, Report: report})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Detected: %s template\n", res.Variant)
	if genShowReply {
		fmt.Fprintf(out, "\n--- model output ---\n%s\n--------------------\n\n", res.Reply)
	}

	if err := os.WriteFile(genOutPath, res.Output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", genOutPath, err)
	}

	if genFieldsXLSX != "" {
		b, err := export.NewService(a.Runs, a.Logger).FieldsXLSX(ctx, res.Variant, res.Fields)
		if err != nil {
			return err
		}
		if err := os.WriteFile(genFieldsXLSX, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", genFieldsXLSX, err)
		}
		fmt.Fprintf(out, "Field review: %s\n", genFieldsXLSX)
	}

	fmt.Fprintf(out, "Fields extracted:      %d of %d\n", len(res.Fields), len(constants.FieldsFor(res.Variant)))
	fmt.Fprintf(out, "Placeholders replaced: %d\n", res.Stats.Replacements)
	fmt.Fprintf(out, "Run ID:                %s\n", res.RunID)
	fmt.Fprintf(out, "Wrote %s\n", genOutPath)
	return nil
}
