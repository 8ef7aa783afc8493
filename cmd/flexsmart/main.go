// flexsmart 命令行工具：从 ABI 生成类型化合约客户端
package main

import "os"

func main() {
	os.Exit(Execute(os.Args[1:]))
}
