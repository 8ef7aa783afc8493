package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flexsmart/sdk/client/core/codegen"
)

// generateFlags generate 命令标志
type generateFlags struct {
	ABIDir  string
	OutDir  string
	Package string
}

func (c *cli) generateCmd() *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [abi-file]",
		Short: "从 ABI 生成类型化合约客户端",
		Long: `从 ABI 文件生成类型化合约客户端

不带参数时处理 --abi-dir 下的全部 *.json；指定文件时只处理该文件。
任何一个 ABI 解析失败都不会写入文件。输出目录中的 index.gen.go
登记该目录下全部已生成的合约。`,
		Example: `  flexsmart generate
  flexsmart generate abis/Erc20Token.json --out ./contracts --package contracts`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// 未显式指定的标志使用配置文件中的值
			if !cmd.Flags().Changed("abi-dir") {
				flags.ABIDir = c.cfg.ABIDir
			}
			if !cmd.Flags().Changed("out") {
				flags.OutDir = c.cfg.OutDir
			}
			if !cmd.Flags().Changed("package") {
				flags.Package = c.cfg.Package
			}

			gen := codegen.New(codegen.Config{OutDir: flags.OutDir, Package: flags.Package},
				codegen.WithLogger(c.logger))

			var (
				report *codegen.Report
				err    error
			)
			if len(args) == 1 {
				report, err = gen.GenerateFiles(cmd.Context(), args[0])
			} else {
				c.formatter.PrintInfo(fmt.Sprintf("读取 ABI 目录 %s", flags.ABIDir))
				report, err = gen.GenerateDir(cmd.Context(), flags.ABIDir)
			}
			if err != nil {
				return fmt.Errorf("生成失败: %w", err)
			}

			for _, g := range report.Contracts {
				if g.Operations == 0 {
					c.formatter.PrintWarning(fmt.Sprintf("%s 没有任何函数，生成的客户端只有地址", g.Contract))
				}
			}
			if err := c.formatter.Print(report); err != nil {
				return err
			}
			c.formatter.PrintSuccess(fmt.Sprintf("已生成 %d 个合约客户端到 %s（索引共 %d 个）",
				len(report.Contracts), flags.OutDir, len(report.Indexed)))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.ABIDir, "abi-dir", "abis", "ABI 目录")
	cmd.Flags().StringVar(&flags.OutDir, "out", "contracts", "输出目录")
	cmd.Flags().StringVar(&flags.Package, "package", "contracts", "生成代码的包名")
	return cmd
}
