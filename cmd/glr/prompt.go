package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/llm"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
)

var (
	promptTemplatePath string
	promptReportPath   string
	promptVariant      string
)

// promptCmd shows exactly what would be sent to the model, without sending it.
var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the model prompt for a template and report",
	Long: `Print the model prompt for a template and report. With --variant the
template is not needed: the prompt is built for that variant directly.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if promptTemplatePath == "" && promptVariant == "" {
			return fmt.Errorf("one of --template or --variant is required")
		}
		var variant constants.Variant
		if promptVariant != "" {
			v, ok := constants.ParseVariant(promptVariant)
			if !ok {
				return fmt.Errorf("unknown variant %q: want one of %v", promptVariant, constants.Variants())
			}
			variant = v
		}

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := readUpload(promptReportPath)
		if err != nil {
			return err
		}

		if variant != "" {
			text, err := a.PDF.Extract(cmd.Context(), report.Data)
			if err != nil {
				return err
			}
			prompt, err := llm.BuildPrompt(variant, text.Text)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), prompt)
			return nil
		}

		template, err := readUpload(promptTemplatePath)
		if err != nil {
			return err
		}
		prep, err := a.Processor.Prepare(cmd.Context(), pipeline.Request{Template: template, Report: report})
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), prep.Prompt)
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVarP(&promptTemplatePath, "template", "t", "", "GLR template .docx")
	promptCmd.Flags().StringVarP(&promptReportPath, "report", "r", "", "photo report .pdf (required)")
	promptCmd.Flags().StringVar(&promptVariant, "variant", "", "build the prompt for USAA, Wayne or GuideOne without a template")
	_ = promptCmd.MarkFlagRequired("report")
	rootCmd.AddCommand(promptCmd)
}
