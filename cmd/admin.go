package cmd

import (
	"fmt"

	"JNChoral/core/account"
	"JNChoral/core/auth"
	"JNChoral/db"
	"JNChoral/repository"

	"github.com/spf13/cobra"
)

var (
	adminEmail    string
	adminPassword string
	adminName     string
)

var createAdminCmd = &cobra.Command{
	Use:     "create-admin",
	Short:   "创建管理员或将已有账户提升为管理员",
	Example: `  jnchoral create-admin --email admin@example.com --password 'change-me' --name "Site Admin"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB()
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}

		tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			return err
		}
		accounts := account.NewService(
			repository.NewGormUserRepository(gdb),
			repository.NewGormPasswordResetRepository(gdb),
			tokens,
			auth.NewRolePolicy(),
			false,
		)
		user, err := accounts.EnsureAdmin(cmd.Context(), adminEmail, adminPassword, adminName)
		if err != nil {
			return err
		}
		fmt.Printf("管理员已就绪: %s (%s)\n", user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createAdminCmd)

	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "管理员邮箱")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "管理员密码 (6-64 位)")
	createAdminCmd.Flags().StringVar(&adminName, "name", "Administrator", "显示名称")
	createAdminCmd.MarkFlagRequired("email")
	createAdminCmd.MarkFlagRequired("password")
}
