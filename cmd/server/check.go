package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Skufu/medpredict/internal/artifact"
	"github.com/Skufu/medpredict/internal/config"
	"github.com/Skufu/medpredict/internal/schema"
)

// checkCmd loads the model manifest the same way serve does and prints what
// it found, so a bad deploy fails before the server starts.
func checkCmd() *cobra.Command {
	var dir string

	c := &cobra.Command{
		Use:   "check",
		Short: "Validate the model manifest and artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				dir = cfg.ModelDir
			}
			return runCheck(cmd.OutOrStdout(), dir)
		},
	}

	c.Flags().StringVarP(&dir, "models", "m", "", "Model directory (defaults to MODEL_DIR)")
	return c
}

func runCheck(out io.Writer, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("model directory: %w", err)
	}
	reg, err := artifact.Load(dir)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DOMAIN\tFIELDS\tMODEL\tVERSION\tSCALER")
	for _, info := range reg.Describe() {
		scaler := "-"
		if info.Scaled {
			scaler = info.ScalerVersion
			if scaler == "" {
				scaler = "yes"
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n",
			info.Domain, schema.For(info.Domain).Len(), info.ModelKind, info.ModelVersion, scaler)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintln(out, "OK")
	return nil
}
