package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/cohortlab/mba-portal/internal/llm"
	"github.com/cohortlab/mba-portal/internal/resume"
)

// RefineOptions AI 精炼参数
type RefineOptions struct {
	Limit     int
	ResumeDir string
	Overwrite bool
	DryRun    bool
}

// RefineProfiles 逐个成员调用 AI 改进资料，默认只填充空字段
func (r *Runner) RefineProfiles(ctx context.Context, opts RefineOptions) (*Summary, error) {
	if r.refiner == nil || !r.refiner.Configured() {
		return nil, llm.ErrNotConfigured
	}

	list, err := r.profiles.ListAll(ctx, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	resumes := map[string]string{}
	if opts.ResumeDir != "" {
		files, err := listPDFs(opts.ResumeDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read resume directory: %w", err)
		}
		for _, path := range files {
			for _, key := range fileKeys(path) {
				if _, ok := resumes[key]; !ok {
					resumes[key] = path
				}
			}
		}
	}

	summary := &Summary{Total: len(list)}
	for _, profile := range list {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		label := profile.Email
		if label == "" {
			label = profile.ID
		}

		var resumeText string
		for _, key := range matchKeys(profile) {
			path, ok := resumes[key]
			if !ok {
				continue
			}
			if data, err := os.ReadFile(path); err != nil {
				logItemError("read resume", path, err)
			} else if resumeText, err = resume.ExtractText(data, resume.DefaultTextLimit); err != nil {
				logItemError("extract resume text", path, err)
			}
			break
		}

		refined, err := r.refiner.Refine(ctx, profile, resumeText)
		if err != nil {
			if errors.Is(err, llm.ErrNotConfigured) {
				return summary, err
			}
			logItemError("refine profile", label, err)
			r.printf("FAIL   %s: %v", label, err)
			summary.Failed++
			continue
		}

		updates := refined.Updates(profile, opts.Overwrite)
		if len(updates) == 0 {
			r.printf("SKIP   %s: nothing to change", label)
			summary.Skipped++
			continue
		}

		if opts.DryRun {
			r.printf("DRY    %s: %s", label, describe(updates))
			summary.Succeeded++
			continue
		}

		if err := r.profiles.UpdateFields(ctx, profile.ID, updates); err != nil {
			logItemError("update profile", label, err)
			r.printf("FAIL   %s: %v", label, err)
			summary.Failed++
			continue
		}
		r.printf("OK     %s: %s", label, describe(updates))
		summary.Succeeded++
	}

	r.printf("Done: %s", summary)
	return summary, nil
}

// describe 按列名排序输出更新内容
func describe(updates map[string]interface{}) string {
	columns := make([]string, 0, len(updates))
	for column := range updates {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	parts := make([]string, len(columns))
	for i, column := range columns {
		parts[i] = fmt.Sprintf("%s=%q", column, updates[column])
	}
	return strings.Join(parts, " ")
}
