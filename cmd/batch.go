package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cohortlab/mba-portal/config"
	"github.com/cohortlab/mba-portal/internal/app"
	"github.com/cohortlab/mba-portal/internal/batch"
)

// uploadResumesCmd 批量上传简历
var uploadResumesCmd = &cobra.Command{
	Use:   "upload-resumes",
	Short: "Upload a directory of resume PDFs to matching member profiles",
	Long: `Upload every PDF in a directory and attach it to the member whose email
local part or name slug matches the file name (for example sam.lee.pdf or sam-lee.pdf).

Examples:
  mba-portal upload-resumes --dir ./resumes --dry-run
  mba-portal upload-resumes --dir ./resumes`,
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("dir")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		runBatch(func(ctx context.Context, cfg *config.Config, runner *batch.Runner) (*batch.Summary, error) {
			return runner.UploadResumes(ctx, batch.ResumeOptions{
				Dir:      dir,
				DryRun:   dryRun,
				MaxBytes: config.MaxBytes(cfg.UploadResumeMaxMB, 10),
			})
		})
	},
}

// refineProfilesCmd 使用 AI 改进成员资料
var refineProfilesCmd = &cobra.Command{
	Use:   "refine-profiles",
	Short: "Fill in member profile fields with AI, optionally using resume PDFs",
	Long: `Ask the configured AI provider to improve each member profile.
Only empty fields are filled unless --overwrite is given.

Examples:
  mba-portal refine-profiles --dry-run --limit 5
  mba-portal refine-profiles --resume-dir ./resumes --overwrite`,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		resumeDir, _ := cmd.Flags().GetString("resume-dir")
		overwrite, _ := cmd.Flags().GetBool("overwrite")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		runBatch(func(ctx context.Context, cfg *config.Config, runner *batch.Runner) (*batch.Summary, error) {
			return runner.RefineProfiles(ctx, batch.RefineOptions{
				Limit:     limit,
				ResumeDir: resumeDir,
				Overwrite: overwrite,
				DryRun:    dryRun,
			})
		})
	},
}

func init() {
	rootCmd.AddCommand(uploadResumesCmd)
	rootCmd.AddCommand(refineProfilesCmd)

	uploadResumesCmd.Flags().String("dir", "./resumes", "Directory containing resume PDFs")
	uploadResumesCmd.Flags().Bool("dry-run", false, "Only validate and match files, don't upload")

	refineProfilesCmd.Flags().Int("limit", 0, "Maximum number of profiles to process (0 = all)")
	refineProfilesCmd.Flags().String("resume-dir", "", "Directory with resume PDFs used as extra context")
	refineProfilesCmd.Flags().Bool("overwrite", false, "Replace existing field values")
	refineProfilesCmd.Flags().Bool("dry-run", false, "Print proposed changes without saving")
}

type batchFunc func(ctx context.Context, cfg *config.Config, runner *batch.Runner) (*batch.Summary, error)

// runBatch 初始化容器并执行批处理，Ctrl+C 时取消
func runBatch(fn batchFunc) {
	config.InitConfig()
	cfg := config.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container := app.NewContainer(cfg)
	if err := container.Init(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer container.Close()

	summary, err := fn(ctx, cfg, container.NewBatchRunner())
	if err != nil {
		log.Fatalf("Batch failed: %v", err)
	}
	if summary.Failed > 0 {
		container.Close()
		os.Exit(1)
	}
}
