package cmd

import (
	"JNChoral/db"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "创建或更新数据库表结构",
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()
		return db.AutoMigrate(gdb)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
