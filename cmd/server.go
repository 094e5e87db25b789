package cmd

import (
	"JNChoral/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动网站后端服务器",
	Long:  `启动 HTTP 服务器，提供试音申请、账户与公开内容 API，收到 SIGINT/SIGTERM 时优雅退出`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	return server.Start(cfg)
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
