package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlab/mba-portal/api/common"
	"github.com/cohortlab/mba-portal/cache/memory"
	"github.com/cohortlab/mba-portal/database/dbtest"
	"github.com/cohortlab/mba-portal/database/repo/content"
	chatSvc "github.com/cohortlab/mba-portal/internal/chat"
	"github.com/cohortlab/mba-portal/internal/linkedin"
	"github.com/cohortlab/mba-portal/internal/llm"
	"github.com/cohortlab/mba-portal/internal/llm/llmtest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T, ai *llmtest.Fake) *gin.Engine {
	t.Helper()

	cacheProvider, err := memory.NewMemory(memory.DefaultConfig())
	require.NoError(t, err)

	h := NewHandler(
		chatSvc.NewService(content.NewRepository(dbtest.Open(t)), ai, cacheProvider, time.Minute),
		linkedin.NewService(ai),
	)

	r := gin.New()
	r.POST("/api/chat", common.Wrap(h.Chat))
	r.POST("/api/parse-linkedin", common.Wrap(h.ParseLinkedIn))
	return r
}

func post(r http.Handler, path, body string) (int, map[string]interface{}) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestChat(t *testing.T) {
	ai := &llmtest.Fake{Response: "Case prep starts in week three."}
	r := setup(t, ai)

	code, body := post(r, "/api/chat", `{
		"message": "When does case prep start?",
		"conversationHistory": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"}
		]
	}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Case prep starts in week three.", body["response"])

	req := ai.LastRequest()
	require.Len(t, req.Messages, 3)
	assert.Equal(t, llm.RoleAssistant, req.Messages[1].Role)
	assert.Equal(t, "When does case prep start?", req.Messages[2].Content)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		ai      *llmtest.Fake
		body    string
		code    int
		message string
	}{
		{"empty message", &llmtest.Fake{}, `{"message":"   "}`, http.StatusBadRequest, "Message is required"},
		{"invalid json", &llmtest.Fake{}, `{`, http.StatusBadRequest, "Message is required"},
		{"not configured", &llmtest.Fake{Unconfigured: true}, `{"message":"hi"}`, http.StatusInternalServerError, "AI service not configured"},
		{"provider failure", &llmtest.Fake{Err: assert.AnError}, `{"message":"hi"}`, http.StatusInternalServerError, "Failed to process chat message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := post(setup(t, tt.ai), "/api/chat", tt.body)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestParseLinkedIn(t *testing.T) {
	ai := &llmtest.Fake{Response: "```json\n{\"name\":\"Sam Lee\",\"company\":\"Acme\",\"bio\":null}\n```"}
	r := setup(t, ai)

	code, body := post(r, "/api/parse-linkedin", `{"linkedinData":"Sam Lee - Strategy at Acme"}`)
	require.Equal(t, http.StatusOK, code)

	profile := body["profile"].(map[string]interface{})
	assert.Equal(t, "Sam Lee", profile["name"])
	assert.Equal(t, "Acme", profile["company"])
	assert.Nil(t, profile["bio"])
	assert.True(t, ai.LastRequest().JSON)
}

func TestParseLinkedIn_Errors(t *testing.T) {
	code, body := post(setup(t, &llmtest.Fake{}), "/api/parse-linkedin", `{"linkedinData":""}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "LinkedIn data is required", body["error"])

	code, body = post(setup(t, &llmtest.Fake{Unconfigured: true}), "/api/parse-linkedin", `{"linkedinData":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "AI service not configured", body["error"])

	raw := "Sorry, I cannot help with that. " + strings.Repeat("x", 300)
	code, body = post(setup(t, &llmtest.Fake{Response: raw}), "/api/parse-linkedin", `{"linkedinData":"x"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Failed to parse AI response", body["error"])
	excerpt, _ := body["rawResponse"].(string)
	assert.True(t, strings.HasPrefix(excerpt, "Sorry, I cannot help"))
	assert.Less(t, len(excerpt), len(raw))

	code, body = post(setup(t, &llmtest.Fake{Err: assert.AnError}), "/api/parse-linkedin", `{"linkedinData":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Failed to parse LinkedIn profile", body["error"])
}
