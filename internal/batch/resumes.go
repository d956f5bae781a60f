package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cohortlab/mba-portal/internal/resume"
	"github.com/cohortlab/mba-portal/utils/format"
)

// ResumeOptions 批量上传简历参数
type ResumeOptions struct {
	Dir      string
	DryRun   bool
	MaxBytes int64
}

// UploadResumes 将目录中的 PDF 按文件名匹配到成员并上传
func (r *Runner) UploadResumes(ctx context.Context, opts ResumeOptions) (*Summary, error) {
	files, err := listPDFs(opts.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume directory: %w", err)
	}

	list, err := r.profiles.ListAll(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	idx := newProfileIndex(list)

	summary := &Summary{Total: len(files)}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		name := filepath.Base(path)
		profile, err := idx.lookup(fileKeys(path))
		if err != nil {
			r.printf("SKIP   %s: %v", name, err)
			summary.Skipped++
			continue
		}
		if profile == nil {
			r.printf("SKIP   %s: no matching profile", name)
			summary.Skipped++
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logItemError("read resume", name, err)
			summary.Failed++
			continue
		}
		if opts.MaxBytes > 0 && int64(len(data)) > opts.MaxBytes {
			r.printf("FAIL   %s: larger than %s", name, format.HumanReadableSize(opts.MaxBytes))
			summary.Failed++
			continue
		}

		if opts.DryRun {
			if err := resume.Validate(data); err != nil {
				r.printf("FAIL   %s: invalid PDF: %v", name, err)
				summary.Failed++
				continue
			}
			r.printf("DRY    %s -> %s <%s>", name, profile.Name, profile.Email)
			summary.Succeeded++
			summary.Bytes += int64(len(data))
			continue
		}

		url, err := r.resumes.Store(ctx, profile.ID, data)
		if err != nil {
			logItemError("upload resume", name, err)
			r.printf("FAIL   %s: %v", name, err)
			summary.Failed++
			continue
		}
		r.printf("OK     %s -> %s (%s)", name, profile.Name, url)
		summary.Succeeded++
		summary.Bytes += int64(len(data))
	}

	r.printf("Done: %s, %s", summary, format.HumanReadableSize(summary.Bytes))
	return summary, nil
}
