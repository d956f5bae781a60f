package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/internal/app"
)

// cacheCmd 缓存管理命令
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Cache management commands",
	Long:  "Manage application cache, including the dashboard and chat context entries.",
}

// cacheClearCmd 清除缓存命令
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear dashboard and chat context cache",
	Long: `Clear cached dashboard statistics and the chat context block.
Only useful with a shared cache (cache_type=redis); the in-memory cache lives inside the server process.`,
	Run: func(cmd *cobra.Command, args []string) {
		dashboardOnly, _ := cmd.Flags().GetBool("dashboard-only")
		chatOnly, _ := cmd.Flags().GetBool("chat-only")

		if err := runCacheClear(dashboardOnly, chatOnly); err != nil {
			log.Fatalf("Cache clear failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().Bool("dashboard-only", false, "Only clear dashboard statistics")
	cacheClearCmd.Flags().Bool("chat-only", false, "Only clear the chat context block")
}

// runCacheClear 执行缓存清理
func runCacheClear(dashboardOnly, chatOnly bool) error {
	if dashboardOnly && chatOnly {
		return fmt.Errorf("--dashboard-only and --chat-only are mutually exclusive")
	}

	config.InitConfig()

	container := app.NewContainer(config.Get())
	if err := container.Init(context.Background()); err != nil {
		return err
	}
	defer container.Close()

	provider := container.GetCacheFactory().GetProvider()
	log.Printf("Cache provider: %s", provider.Name())
	if provider.Name() == "memory" {
		log.Println("Warning: in-memory cache is per process, the running server keeps its own entries")
	}

	ctx := context.Background()
	services := container.GetServices()

	if !chatOnly {
		if err := services.Dashboard.RefreshCache(ctx); err != nil {
			return fmt.Errorf("failed to clear dashboard cache: %w", err)
		}
		log.Println("Dashboard cache cleared")
	}

	if !dashboardOnly {
		if err := services.Chat.InvalidateContext(ctx); err != nil {
			return fmt.Errorf("failed to clear chat context cache: %w", err)
		}
		log.Println("Chat context cache cleared")
	}

	return nil
}
