package db

import (
	"fmt"
	"net"
	"time"

	"JNChoral/config"
	appLogger "JNChoral/logger"
	"JNChoral/model"

	mysqldriver "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB 是 GORM 数据库连接实例
var GormDB *gorm.DB

// DSN renders the MySQL connection string for cfg.
func DSN(cfg *config.Config) string {
	mc := mysqldriver.NewConfig()
	mc.User = cfg.DBUser
	mc.Passwd = cfg.DBPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.DBHost, cfg.DBPort)
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.ClientFoundRows = true // RowsAffected counts matched rows, so no-op updates are not "not found"
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	return mc.FormatDSN()
}

// ConnectGormDB opens the MySQL connection pool and stores it in GormDB.
func ConnectGormDB(cfg *config.Config) (*gorm.DB, error) {
	logMode := logger.Warn
	if cfg.DBLogSQL {
		logMode = logger.Info
	}

	gdb, err := gorm.Open(mysql.Open(DSN(cfg)), &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		// 禁用外键约束
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database with GORM: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// 设置连接池参数
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	GormDB = gdb
	appLogger.Info("Successfully connected to the database with GORM.",
		appLogger.String("host", cfg.DBHost),
		appLogger.String("database", cfg.DBName))
	return gdb, nil
}

// CloseGormDB 关闭 GORM 数据库连接
func CloseGormDB() error {
	if GormDB == nil {
		return nil
	}

	sqlDB, err := GormDB.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// AutoMigrate creates or updates the tables of every model.
func AutoMigrate(gdb *gorm.DB) error {
	if gdb == nil {
		return fmt.Errorf("GORM database not initialized")
	}

	if err := gdb.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}

	appLogger.Info("Models migrated successfully with GORM.")
	return nil
}
