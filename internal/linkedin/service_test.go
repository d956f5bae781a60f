package linkedin

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/database/models"
	"github.com/cohortlab/mba-portal/internal/llm"
	"github.com/cohortlab/mba-portal/internal/llm/llmtest"
)

func TestParse_FencedJSON(t *testing.T) {
	ai := &llmtest.Fake{Response: "```json\n{\"name\":\"Jane\"}\n```"}
	svc := NewService(ai)

	p, err := svc.Parse(context.Background(), "Jane Doe, Associate at McKinsey")
	require.NoError(t, err)

	require.NotNil(t, p.Name)
	assert.Equal(t, "Jane", *p.Name)
	assert.Nil(t, p.Company)
	assert.Nil(t, p.Bio)
	assert.Nil(t, p.Domain)
	assert.Nil(t, p.Specialization)
	assert.Nil(t, p.LinkedinURL)

	req := ai.LastRequest()
	assert.True(t, req.JSON)
	assert.Equal(t, "Jane Doe, Associate at McKinsey", req.Messages[0].Content)
}

func TestParse_NonJSON(t *testing.T) {
	raw := strings.Repeat("I could not find a profile in that text. ", 20)
	svc := NewService(&llmtest.Fake{Response: raw})

	_, err := svc.Parse(context.Background(), "something")
	var malformed *MalformedOutputError
	require.True(t, errors.As(err, &malformed))
	assert.LessOrEqual(t, len([]rune(malformed.Excerpt())), 200)
	assert.True(t, strings.HasPrefix(raw, malformed.Excerpt()))
}

func TestParse_ValidationBeforeExternalCall(t *testing.T) {
	ai := &llmtest.Fake{}
	_, err := NewService(ai).Parse(context.Background(), "  \n ")
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Zero(t, ai.Calls())

	unconfigured := &llmtest.Fake{Unconfigured: true}
	_, err = NewService(unconfigured).Parse(context.Background(), "text")
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
	assert.Zero(t, unconfigured.Calls())
}

func TestParse_GenerationFailure(t *testing.T) {
	_, err := NewService(&llmtest.Fake{Err: errors.New("quota exceeded")}).Parse(context.Background(), "text")
	require.Error(t, err)
	var malformed *MalformedOutputError
	assert.False(t, errors.As(err, &malformed))
}

func TestDecodeProfile(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		check   func(t *testing.T, p *Profile)
		wantErr bool
	}{
		{
			name: "plain object",
			raw:  `{"name":"Jane","company":"Bain","linkedin_url":"https://linkedin.com/in/jane"}`,
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, "Bain", *p.Company)
				assert.Equal(t, "https://linkedin.com/in/jane", *p.LinkedinURL)
			},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"domain\":\"Finance\"}\n```",
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, "Finance", *p.Domain)
				assert.Nil(t, p.Name)
			},
		},
		{
			name: "explicit nulls and empty strings",
			raw:  `{"name":null,"bio":"  ","specialization":"M&A"}`,
			check: func(t *testing.T, p *Profile) {
				assert.Nil(t, p.Name)
				assert.Nil(t, p.Bio)
				assert.Equal(t, "M&A", *p.Specialization)
			},
		},
		{
			name: "weak typing",
			raw:  `{"name":42,"extra":"ignored"}`,
			check: func(t *testing.T, p *Profile) {
				assert.Equal(t, "42", *p.Name)
			},
		},
		{name: "array", raw: `["Jane"]`, wantErr: true},
		{name: "truncated", raw: `{"name":"Ja`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := DecodeProfile(tt.raw)
			if tt.wantErr {
				var malformed *MalformedOutputError
				assert.True(t, errors.As(err, &malformed))
				return
			}
			require.NoError(t, err)
			tt.check(t, p)
		})
	}
}

func TestProfileUpdates(t *testing.T) {
	company := "BCG"
	bio := "New bio"
	name := "Jane Doe"
	p := &Profile{Name: &name, Company: &company, Bio: &bio}

	current := &models.Profile{Name: "Jane Doe", Company: "McKinsey"}

	assert.Equal(t, map[string]interface{}{"bio": "New bio"}, p.Updates(current, false))
	assert.Equal(t, map[string]interface{}{"bio": "New bio", "company": "BCG"}, p.Updates(current, true))
}

func TestRefine_SendsCurrentProfile(t *testing.T) {
	ai := &llmtest.Fake{Response: `{"bio":"Strategy consultant"}`}
	p, err := NewService(ai).Refine(context.Background(), &models.Profile{Name: "Jane", Company: "Bain"}, "Resume: Bain & Company 2020-2024")
	require.NoError(t, err)
	assert.Equal(t, "Strategy consultant", *p.Bio)

	content := ai.LastRequest().Messages[0].Content
	assert.Contains(t, content, `"company":"Bain"`)
	assert.Contains(t, content, "Resume: Bain & Company")
}
