package main

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Siddarth2230/shortcode/pkg/idgen"
)

var encodeCmd = &cobra.Command{
	Use:   "encode <seq>...",
	Short: "Print the code for each sequence number",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, arg := range args {
			n, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid sequence number %q", arg)
			}
			fmt.Fprintf(out, "%d\t%s\n", n, idgen.Encode(n))
		}
		return nil
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <code>...",
	Short: "Print the sequence number behind each code",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, code := range args {
			n, err := idgen.Decode(code)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\t%d\n", code, n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd, decodeCmd)
}
