// geomflow 是生成管线的命令行入口：
// 文本生成脚本、文本/图片生成 3D 资产、历史管理与脚本参数调整。
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
