package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/flexsmart/sdk/client/core/abi"
)

// abiRow 内置 ABI 概要
type abiRow struct {
	Name      string       `json:"name"`
	Functions int          `json:"functions"`
	Features  abi.Features `json:"features"`
	Bytecode  bool         `json:"bytecode"`
}

type abiTable []abiRow

func (t abiTable) Header() []string {
	return []string{"NAME", "FUNCTIONS", "FEATURES", "BYTECODE"}
}

func (t abiTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		rows = append(rows, []string{r.Name, strconv.Itoa(r.Functions), r.Features.String(), strconv.FormatBool(r.Bytecode)})
	}
	return rows
}

func (c *cli) abisCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "abis",
		Short: "列出内置 ABI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var opts []abi.RegistryOption
			if c.cfg.RegistryURL != "" {
				opts = append(opts, abi.WithBaseURL(c.cfg.RegistryURL))
			}
			opts = append(opts, abi.WithRegistryLogger(c.logger))

			registry, err := abi.NewRegistry(cmd.Context(), c.cfg.RegistryTTL.Duration(), opts...)
			if err != nil {
				return err
			}
			defer func() { _ = registry.Close() }()

			var table abiTable
			for _, name := range registry.Names() {
				artifact, err := registry.Lookup(cmd.Context(), name)
				if err != nil {
					return err
				}
				table = append(table, abiRow{
					Name:      name,
					Functions: len(artifact.ABI.Functions()),
					Features:  abi.DetectFeatures(artifact.ABI),
					Bytecode:  len(artifact.Bytecode) > 0,
				})
			}
			return c.formatter.Print(table)
		},
	}
}
