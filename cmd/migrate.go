package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/internal/app"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the portal tables in the configured database",
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()

		container := app.NewContainer(config.Get())
		if err := container.InitDatabase(); err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer container.Close()

		migrateSchema(container)
	},
}

// migrateCopyCmd 在两个数据库之间复制数据
var migrateCopyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy portal data between databases",
	Long: `Copy portal data from one database to another (e.g., a local SQLite file to the hosted PostgreSQL).

Examples:
  # Copy from SQLite to PostgreSQL
  mba-portal migrate copy --from-sqlite ./portal.db --to-postgres "host=localhost user=postgres password=secret dbname=portal port=5432"

  # Replace rows that already exist in the target
  mba-portal migrate copy --from-sqlite ./portal.db --to-postgres "..." --on-conflict=overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if fromSQLite != "" {
			fromType, fromDSN = "sqlite", fromSQLite
		}
		if toPostgres != "" {
			toType, toDSN = "postgres", toPostgres
		}

		if err := runCopy(fromType, fromDSN, toType, toDSN, batchSize, onConflict); err != nil {
			log.Fatalf("Copy failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateCopyCmd)

	migrateCopyCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateCopyCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateCopyCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateCopyCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateCopyCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateCopyCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateCopyCmd.Flags().Int("batch-size", 200, "Rows per insert batch")
	migrateCopyCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), overwrite, error")
}

// tableStats 单表复制统计
type tableStats struct {
	table   string
	read    int64
	written int64
}

// runCopy 复制所有门户表
func runCopy(fromType, fromDSN, toType, toDSN string, batchSize int, onConflict string) error {
	if onConflict != "skip" && onConflict != "overwrite" && onConflict != "error" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip, overwrite, or error)", onConflict)
	}
	if fromType == "" || toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return fmt.Errorf("source and target databases are the same")
	}
	if batchSize <= 0 {
		batchSize = 200
	}

	log.Printf("Copying from %s to %s (conflict strategy: %s)", fromType, toType, onConflict)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))

	source, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer closeDatabase(source)

	target, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	defer closeDatabase(target)

	log.Println("Migrating target schema...")
	if err := target.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	ctx := context.Background()
	var all []tableStats
	steps := []func() (tableStats, error){
		func() (tableStats, error) {
			return copyTable[models.Profile](ctx, source, target, batchSize, onConflict)
		},
		func() (tableStats, error) { return copyTable[models.Event](ctx, source, target, batchSize, onConflict) },
		func() (tableStats, error) {
			return copyTable[models.InterviewExperience](ctx, source, target, batchSize, onConflict)
		},
		func() (tableStats, error) {
			return copyTable[models.Resource](ctx, source, target, batchSize, onConflict)
		},
		func() (tableStats, error) {
			return copyTable[models.Announcement](ctx, source, target, batchSize, onConflict)
		},
		func() (tableStats, error) {
			return copyTable[models.GalleryImage](ctx, source, target, batchSize, onConflict)
		},
	}
	for _, step := range steps {
		stats, err := step()
		all = append(all, stats)
		if err != nil {
			printCopyStats(all)
			return fmt.Errorf("%s: %w", stats.table, err)
		}
	}

	printCopyStats(all)
	log.Println("Copy completed successfully!")
	return nil
}

// copyTable 按主键分批复制一张表
func copyTable[T any](ctx context.Context, source, target *gorm.DB, batchSize int, onConflict string) (tableStats, error) {
	var zero T
	stats := tableStats{table: tableName(source, &zero)}

	insert := func() *gorm.DB {
		db := target.WithContext(ctx)
		switch onConflict {
		case "skip":
			return db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true})
		case "overwrite":
			return db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, UpdateAll: true})
		}
		return db
	}

	for offset := 0; ; offset += batchSize {
		var rows []T
		if err := source.WithContext(ctx).Order("id").Limit(batchSize).Offset(offset).Find(&rows).Error; err != nil {
			return stats, err
		}
		if len(rows) == 0 {
			break
		}
		stats.read += int64(len(rows))

		result := insert().Create(&rows)
		if result.Error != nil {
			return stats, result.Error
		}
		stats.written += result.RowsAffected
	}

	log.Printf("Copied %s: %d read, %d written", stats.table, stats.read, stats.written)
	return stats, nil
}

func tableName(db *gorm.DB, model interface{}) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return fmt.Sprintf("%T", model)
	}
	return stmt.Schema.Table
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

func closeDatabase(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}

// printCopyStats 打印复制统计
func printCopyStats(all []tableStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("         Copy Statistics")
	fmt.Println("========================================")
	for _, s := range all {
		fmt.Printf("%-24s read %6d  written %6d\n", s.table, s.read, s.written)
	}
	fmt.Println("========================================")
}
