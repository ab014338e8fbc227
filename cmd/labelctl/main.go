// labelctl 在命令列查詢參考成分、正規化模型輸出或直接分析標籤照片。
package main

import (
	"os"

	"label-analyzer/internal/pkg/common"
)

func main() {
	defer common.Sync()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
