package linkedin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/internal/llm"
)

// maxExcerpt 返回给调用方的原始输出最大长度
const maxExcerpt = 200

// ErrEmptyInput 输入为空
var ErrEmptyInput = errors.New("linkedin data is required")

// MalformedOutputError 模型输出无法解析为 JSON 对象
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed model output: %v", e.Err)
}

func (e *MalformedOutputError) Unwrap() error {
	return e.Err
}

// Excerpt 返回截断后的原始输出，用于诊断
func (e *MalformedOutputError) Excerpt() string {
	return Truncate(e.Raw, maxExcerpt)
}

// Profile 提取出的资料字段，缺失时为 null
type Profile struct {
	Name           *string `json:"name" mapstructure:"name"`
	Company        *string `json:"company" mapstructure:"company"`
	Bio            *string `json:"bio" mapstructure:"bio"`
	Domain         *string `json:"domain" mapstructure:"domain"`
	Specialization *string `json:"specialization" mapstructure:"specialization"`
	LinkedinURL    *string `json:"linkedin_url" mapstructure:"linkedin_url"`
}

const extractionPrompt = `Extract the following fields from the LinkedIn profile text supplied by the user and respond with a single JSON object only:
{"name": string, "company": string, "bio": string, "domain": string, "specialization": string, "linkedin_url": string}
- company is the current employer.
- bio is a two or three sentence professional summary written in the third person.
- domain is the broad industry or function (for example Consulting, Finance, Technology, Marketing).
- specialization is the narrower focus within that domain.
Use null for any field that cannot be determined. Do not add any other keys or commentary.`

const refinePrompt = `You maintain member profiles for an MBA cohort directory. Given the current profile and optional resume text,
return improved values as a single JSON object only:
{"name": string, "company": string, "bio": string, "domain": string, "specialization": string, "linkedin_url": string}
Keep facts that are already correct, fill in missing fields from the resume, and use null for anything you cannot determine.`

// Service LinkedIn 资料解析服务
type Service struct {
	ai llm.Generator
}

func NewService(ai llm.Generator) *Service {
	return &Service{ai: ai}
}

// Configured AI 是否可用
func (s *Service) Configured() bool {
	return s.ai.Configured()
}

// Parse 从 LinkedIn 文本中提取资料字段
func (s *Service) Parse(ctx context.Context, linkedinData string) (*Profile, error) {
	if strings.TrimSpace(linkedinData) == "" {
		return nil, ErrEmptyInput
	}
	if !s.ai.Configured() {
		return nil, llm.ErrNotConfigured
	}

	raw, err := s.ai.Generate(ctx, llm.Request{
		System:   extractionPrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: linkedinData}},
		JSON:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate linkedin profile: %w", err)
	}
	return DecodeProfile(raw)
}

// Refine 根据现有资料与简历文本生成改进后的资料字段
func (s *Service) Refine(ctx context.Context, current *models.Profile, resumeText string) (*Profile, error) {
	if !s.ai.Configured() {
		return nil, llm.ErrNotConfigured
	}

	payload, err := json.Marshal(map[string]string{
		"name":           current.Name,
		"company":        current.Company,
		"bio":            current.Bio,
		"domain":         current.Domain,
		"specialization": current.Specialization,
		"linkedin_url":   current.LinkedinURL,
	})
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("Current profile:\n")
	sb.Write(payload)
	if resumeText != "" {
		sb.WriteString("\n\nResume text:\n")
		sb.WriteString(resumeText)
	}

	raw, err := s.ai.Generate(ctx, llm.Request{
		System:   refinePrompt,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		JSON:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate refined profile: %w", err)
	}
	return DecodeProfile(raw)
}

var fencePattern = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n?(.*?)\\n?\\s*```\\s*$")

// StripCodeFence 去掉模型输出外层的 ``` 代码块
func StripCodeFence(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// DecodeProfile 解析模型输出，字段缺失或为空时置为 null
func DecodeProfile(raw string) (*Profile, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &fields); err != nil {
		return nil, &MalformedOutputError{Raw: raw, Err: err}
	}

	for k, v := range fields {
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			fields[k] = nil
		}
	}

	profile := &Profile{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           profile,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, &MalformedOutputError{Raw: raw, Err: err}
	}
	return profile, nil
}

// Updates 计算需要写回资料表的字段，overwrite 为 false 时只填充空字段
func (p *Profile) Updates(current *models.Profile, overwrite bool) map[string]interface{} {
	updates := make(map[string]interface{})
	set := func(column string, existing string, value *string) {
		if value == nil || *value == existing {
			return
		}
		if existing != "" && !overwrite {
			return
		}
		updates[column] = *value
	}

	set("name", current.Name, p.Name)
	set("company", current.Company, p.Company)
	set("bio", current.Bio, p.Bio)
	set("domain", current.Domain, p.Domain)
	set("specialization", current.Specialization, p.Specialization)
	set("linkedin_url", current.LinkedinURL, p.LinkedinURL)
	return updates
}

// Truncate 按字符截断
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
