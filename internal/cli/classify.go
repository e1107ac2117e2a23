package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/showhidden/internal/capability"
	"github.com/ppiankov/showhidden/internal/visibility"
)

var classifyBit string

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&classifyBit, "bit", "1<<10", "Capability bit to classify against")
}

var classifyCmd = &cobra.Command{
	Use:   "classify <raw-bitmask>",
	Short: "Print whether a raw permission bitmask hides a channel",
	Long:  "Accepts decimal, 0x, 0b or 1<<n notation for both the bitmask and --bit.",
	Args:  cobra.ExactArgs(1),
	RunE:  runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	raw, err := capability.ParseBitmask(args[0])
	if err != nil {
		return err
	}
	bit, err := capability.ParseBitmask(classifyBit)
	if err != nil {
		return fmt.Errorf("--bit: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s & %s -> %s\n", raw, bit, visibility.Classify(raw, bit))
	return nil
}
