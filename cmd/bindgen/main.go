package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newLogger() (*zap.Logger, error) {
	if os.Getenv("BINDGEN_ENV") == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bindgen",
		Short:         "Validate binding-graph manifests and generate wiring code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCheckCmd(), newGenerateCmd())
	return root
}

// newCheckCmd validates a manifest without generating anything. Diagnostics
// go to stderr; a clean graph prints its initialization order.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <manifest>",
		Short: "Resolve the graph and report diagnostics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			m, _, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			log.Debug("manifest loaded",
				zap.String("path", args[0]),
				zap.Int("bindings", len(m.Bindings)),
				zap.Int("roots", len(m.Roots)))

			r, err := buildResolver(m, log)
			if err != nil {
				return err
			}
			sealed, err := validateGraph(r, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			for i, key := range sealed.Order() {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", i, key)
			}
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "generate <manifest>",
		Short: "Resolve the graph and emit the wiring source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			m, raw, err := LoadManifest(args[0])
			if err != nil {
				return err
			}
			r, err := buildResolver(m, log)
			if err != nil {
				return err
			}
			sealed, err := validateGraph(r, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if err := Generate(m, sealed, args[0], raw, outPath); err != nil {
				return err
			}
			log.Info("generated", zap.String("out", outPath), zap.Int("bindings", sealed.Len()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output .gen.go file path")
	cmd.MarkFlagRequired("out")
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bindgen:", err)
		os.Exit(1)
	}
}
