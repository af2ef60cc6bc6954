package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/glr-generator/constants"
	"github.com/joseph-ayodele/glr-generator/internal/common"
)

var detectTemplatePath string

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Report which GLR variant a template is",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		template, err := readUpload(detectTemplatePath)
		if err != nil {
			return err
		}
		variant, err := a.Processor.Detect(cmd.Context(), template)
		if err != nil {
			return err
		}
		if variant == constants.Unknown {
			return common.NewAppError(common.CodeUnknownTemplate, "template format not recognized", common.ErrTemplateUnknown)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", variant)
		fmt.Fprintf(cmd.OutOrStdout(), "fields: %s\n", strings.Join(constants.FieldsFor(variant), ", "))
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVarP(&detectTemplatePath, "template", "t", "", "GLR template .docx (required)")
	_ = detectCmd.MarkFlagRequired("template")
	rootCmd.AddCommand(detectCmd)
}
