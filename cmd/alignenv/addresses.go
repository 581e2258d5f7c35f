package main

import (
	"fmt"

	"github.com/aretw0/alignenv/pkg/adapters/file"
	"github.com/aretw0/alignenv/pkg/adapters/memory"
	"github.com/aretw0/alignenv/pkg/sequence"
	"github.com/spf13/cobra"
)

var addressesCmd = &cobra.Command{
	Use:   "addresses",
	Short: "Show the valid and out-of-map addresses of a register map",
	Long: `Loads a register map and reports how many byte addresses of the address
space are valid register bytes and how many are left for out-of-map accesses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("map")
		width, _ := cmd.Flags().GetUint("width")
		list, _ := cmd.Flags().GetInt("list")

		regs, err := file.LoadRegisters(path)
		if err != nil {
			return err
		}
		valid := sequence.ValidAddresses(memory.NewRegisterMap(regs...))
		space := sequence.NewAddressSpace(width)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "registers: %d\n", len(regs))
		fmt.Fprintf(out, "address space: %d bytes\n", space.Size)
		fmt.Fprintf(out, "valid: %d\n", len(valid))

		picker, err := space.Complement(valid)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "out-of-map: %d\n", picker.Free())
		for k := range min(uint64(max(list, 0)), picker.Free()) {
			fmt.Fprintf(out, "  0x%x\n", picker.At(k))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addressesCmd)

	addressesCmd.Flags().StringP("map", "m", "registers.yaml", "Register map file")
	addressesCmd.Flags().Uint("width", 12, "Address bus width in bits")
	addressesCmd.Flags().Int("list", 0, "Print the first N out-of-map addresses")
}
