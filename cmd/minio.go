package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"JNChoral/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioStats  bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "MinIO存储桶检查",
	Long:  `连接MinIO，确认存储桶存在，并列出图库文件或统计信息。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("MinIO配置: %s, Bucket: %s\n", cfg.MinioEndpoint, cfg.MinioBucket)

		store, err := storage.InitMinio(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("无法连接到MinIO: %w", err)
		}

		objects, stats, err := store.List(cmd.Context(), minioPrefix)
		if err != nil {
			return err
		}

		if !minioStats {
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tSIZE\tTYPE\tMODIFIED")
			for _, o := range objects {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", o.Key, storage.FormatSize(o.Size), o.ContentType, o.LastModified.Format("2006-01-02 15:04"))
			}
			tw.Flush()
		}

		fmt.Printf("\n对象数: %d, 总大小: %s", stats.TotalObjects, storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf(", 最后修改: %s", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(minioCmd)

	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "按前缀过滤文件")
	minioCmd.Flags().BoolVarP(&minioStats, "stats", "s", false, "只显示存储桶统计信息")

	minioCmd.Example = `  # 列出所有文件
  jnchoral minio

  # 只看图库
  jnchoral minio -p "gallery/"

  # 显示存储桶统计信息
  jnchoral minio -s`
}
