// Package batch 一次性的管理命令：批量上传简历、AI 精炼成员资料
package batch

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/internal/linkedin"
	"github.com/cohortlab/mba-portal/utils"
	"github.com/cohortlab/mba-portal/utils/generator"
)

// ProfileStore 资料读写接口
type ProfileStore interface {
	ListAll(ctx context.Context, limit int) ([]*models.Profile, error)
	UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error
}

// ResumeStore 校验并保存简历
type ResumeStore interface {
	Store(ctx context.Context, userID string, data []byte) (string, error)
}

// Refiner 生成精炼后的资料字段
type Refiner interface {
	Configured() bool
	Refine(ctx context.Context, current *models.Profile, resumeText string) (*linkedin.Profile, error)
}

// Summary 批处理结果统计
type Summary struct {
	Total     int
	Succeeded int
	Skipped   int
	Failed    int
	Bytes     int64
}

func (s Summary) String() string {
	return fmt.Sprintf("total=%d succeeded=%d skipped=%d failed=%d", s.Total, s.Succeeded, s.Skipped, s.Failed)
}

// Runner 批处理执行器，逐条处理，单条失败记录后继续
type Runner struct {
	profiles ProfileStore
	resumes  ResumeStore
	refiner  Refiner
	out      io.Writer
}

// NewRunner 创建批处理执行器，out 为空时输出到标准输出
func NewRunner(profiles ProfileStore, resumes ResumeStore, refiner Refiner, out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{profiles: profiles, resumes: resumes, refiner: refiner, out: out}
}

func (r *Runner) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format+"\n", args...)
}

// matchKeys 资料可被文件名匹配到的键：邮箱前缀与姓名 slug
func matchKeys(p *models.Profile) []string {
	var keys []string
	if local, _, ok := strings.Cut(p.Email, "@"); ok && local != "" {
		keys = append(keys, strings.ToLower(local))
	}
	if slug := strings.ToLower(generator.Slugify(p.Name)); slug != "" {
		keys = append(keys, slug)
	}
	return keys
}

// fileKeys 文件名可用于匹配的键：原始文件名与其 slug
func fileKeys(path string) []string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	keys := []string{strings.ToLower(stem)}
	if slug := strings.ToLower(generator.Slugify(stem)); slug != "" && slug != keys[0] {
		keys = append(keys, slug)
	}
	return keys
}

// profileIndex 按匹配键索引资料，一个键对应多条资料时视为歧义
type profileIndex struct {
	byKey     map[string]*models.Profile
	ambiguous map[string]bool
}

func newProfileIndex(list []*models.Profile) *profileIndex {
	idx := &profileIndex{byKey: make(map[string]*models.Profile), ambiguous: make(map[string]bool)}
	for _, p := range list {
		for _, key := range matchKeys(p) {
			if existing, ok := idx.byKey[key]; ok && existing.ID != p.ID {
				idx.ambiguous[key] = true
				continue
			}
			idx.byKey[key] = p
		}
	}
	return idx
}

func (idx *profileIndex) lookup(keys []string) (*models.Profile, error) {
	for _, key := range keys {
		if idx.ambiguous[key] {
			return nil, fmt.Errorf("%q matches more than one profile", key)
		}
		if p, ok := idx.byKey[key]; ok {
			return p, nil
		}
	}
	return nil, nil
}

// listPDFs 列出目录中的 PDF 文件，按文件名排序
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func logItemError(scope, item string, err error) {
	log.Printf("[Batch] %s failed for %s: %v", scope, utils.SanitizeLogField(item), err)
}
