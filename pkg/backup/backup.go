package backup

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"MagnoliaSOS/pkg/config"
	"MagnoliaSOS/pkg/logger"

	"go.uber.org/zap"
)

// driverKind 归一化驱动名，跟 util.InitDatabase 的选择逻辑保持一致：
// mysql、pg/postgres 各自明确，其余（含空值）都落在 sqlite 上
func driverKind(driver string) string {
	switch driver {
	case "mysql":
		return "mysql"
	case "pg", "postgres":
		return "postgres"
	default:
		return "sqlite"
	}
}

func backupTarget(driver, path string, now time.Time) string {
	stamp := now.Format("20060102_150405")
	ext := "sql"
	if driverKind(driver) == "sqlite" {
		ext = "db"
	}
	return filepath.Join(path, fmt.Sprintf("sos_backup_%s.%s", stamp, ext))
}

// Run 根据配置执行一次数据库备份，由调度器定时触发
func Run() error {
	cfg := config.GlobalConfig
	dst := backupTarget(cfg.DBDriver, cfg.BackupPath, time.Now())

	switch driverKind(cfg.DBDriver) {
	case "mysql":
		return backupMySQL(cfg.DSN, dst)
	case "postgres":
		return backupPostgres(cfg.DSN, dst)
	default:
		return backupSQLite(cfg.DSN, dst)
	}
}

func ensureDir(dst string) error {
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, os.ModePerm)
	}
	return nil
}

// backupSQLite 文件级拷贝，sqlite 单文件即全库
func backupSQLite(src, dst string) error {
	if err := ensureDir(dst); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source database: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer destFile.Close()

	if _, err = io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("copy database: %w", err)
	}
	logger.Info("sqlite backup completed", zap.String("dst", dst))
	return nil
}

func backupMySQL(dsn, dst string) error {
	if err := ensureDir(dst); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	cmd := exec.Command("mysqldump", "--result-file="+dst, dsn)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("mysqldump: %w", err)
	}
	logger.Info("mysql backup completed", zap.String("dst", dst))
	return nil
}

func backupPostgres(dsn, dst string) error {
	if err := ensureDir(dst); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}
	cmd := exec.Command("pg_dump", "--file="+dst, "--dbname="+dsn)
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("pg_dump: %w", err)
	}
	logger.Info("postgres backup completed", zap.String("dst", dst))
	return nil
}
