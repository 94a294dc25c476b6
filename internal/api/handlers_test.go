package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"codescope/internal/ai"
	"codescope/internal/analysis"
	"codescope/internal/cache"
	"codescope/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeRunner returns a fixed result or error and records invocations.
type fakeRunner struct {
	result *ai.Result
	err    error
	calls  []*ai.Request
}

func (f *fakeRunner) Run(_ context.Context, req *ai.Request) (*ai.Result, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

// fakeGateway is an in-memory persistence gateway with switchable failures.
type fakeGateway struct {
	chat      []models.ChatMessage
	snapshots []models.CodeSnapshot
	projects  []models.Project

	failAppendChat bool
	failSnapshot   bool
}

func (f *fakeGateway) AppendChat(userMessage, aiResponse string) error {
	if f.failAppendChat {
		return errors.New("disk full")
	}
	f.chat = append(f.chat, models.ChatMessage{
		ID:          uint(len(f.chat) + 1),
		UserMessage: userMessage,
		AIResponse:  aiResponse,
	})
	return nil
}

func (f *fakeGateway) ListChat() ([]models.ChatMessage, error) {
	return f.chat, nil
}

func (f *fakeGateway) InsertCodeSnapshot(code, language string) (*models.CodeSnapshot, error) {
	if f.failSnapshot {
		return nil, errors.New("disk full")
	}
	snapshot := models.CodeSnapshot{ID: uint(len(f.snapshots) + 1), Code: code, Language: language}
	f.snapshots = append(f.snapshots, snapshot)
	return &snapshot, nil
}

func (f *fakeGateway) LatestSnapshot() (*models.CodeSnapshot, error) {
	if len(f.snapshots) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &f.snapshots[len(f.snapshots)-1], nil
}

func (f *fakeGateway) InsertProject(name, code, language string) (*models.Project, error) {
	project := models.Project{ID: uint(len(f.projects) + 1), Name: name, Code: code, Language: language}
	f.projects = append(f.projects, project)
	return &project, nil
}

func (f *fakeGateway) ListProjects() ([]models.Project, error) {
	return f.projects, nil
}

func (f *fakeGateway) SetFavorite(id uint, favorite bool) error {
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects[i].Favorite = favorite
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeGateway) DeleteProject(id uint) error {
	for i := range f.projects {
		if f.projects[i].ID == id {
			f.projects = append(f.projects[:i], f.projects[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func newTestRouter(runner Runner, gateway Gateway) *gin.Engine {
	server := NewServer(gateway, runner, nil, nil, zap.NewNop())
	return NewRouter(server, zap.NewNop())
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleReport() *analysis.Report {
	return &analysis.Report{
		DetectedLanguage:     "python",
		QualityScore:         80,
		MaintainabilityIndex: 50,
		ReadabilityScore:     75,
		IntegrityCheck:       "original",
		PlagiarismCheck:      "clean",
		FinalCode:            "print('hi')",
		TargetComplexity:     "O(1)",
	}
}

func TestProcessCodeSuccess(t *testing.T) {
	gateway := &fakeGateway{}
	runner := &fakeRunner{result: &ai.Result{
		Candidate: "gemini-2.0-flash",
		Report:    sampleReport(),
	}}
	router := newTestRouter(runner, gateway)

	w := doJSON(t, router, http.MethodPost, "/api/process_code", gin.H{
		"code":        "print('hi')",
		"target_lang": "python",
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string          `json:"status"`
		Model  string          `json:"model"`
		Report analysis.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "gemini-2.0-flash", resp.Model)
	assert.Equal(t, "python", resp.Report.DetectedLanguage)

	require.Len(t, runner.calls, 1)
	assert.Equal(t, ai.ShapeStructured, runner.calls[0].Shape)
	assert.Contains(t, runner.calls[0].Prompt, "print('hi')")

	// Snapshot side effect recorded.
	require.Len(t, gateway.snapshots, 1)
	assert.Equal(t, "print('hi')", gateway.snapshots[0].Code)
}

func TestProcessCodeCachedResponseKeepsPayloadShape(t *testing.T) {
	gateway := &fakeGateway{}
	runner := &fakeRunner{result: &ai.Result{
		Candidate: "gemini-2.0-flash",
		Report:    sampleReport(),
	}}
	server := NewServer(gateway, runner, cache.New("", time.Minute, zap.NewNop()), nil, zap.NewNop())
	router := NewRouter(server, zap.NewNop())

	body := gin.H{"code": "print('hi')", "target_lang": "python"}

	w := doJSON(t, router, http.MethodPost, "/api/process_code", body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.calls, 1)

	// Second submission is served from the cache: no new orchestration, and
	// the payload still carries status, model, and report.
	w = doJSON(t, router, http.MethodPost, "/api/process_code", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, runner.calls, 1, "cached hit must not trigger another roster walk")

	var resp struct {
		Status string          `json:"status"`
		Cached bool            `json:"cached"`
		Model  string          `json:"model"`
		Report analysis.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.True(t, resp.Cached)
	assert.Equal(t, "cache", resp.Model)
	assert.Equal(t, "python", resp.Report.DetectedLanguage)
}

func TestProcessCodeSnapshotFailureDoesNotAlterResult(t *testing.T) {
	gateway := &fakeGateway{failSnapshot: true}
	runner := &fakeRunner{result: &ai.Result{Candidate: "m", Report: sampleReport()}}
	router := newTestRouter(runner, gateway)

	w := doJSON(t, router, http.MethodPost, "/api/process_code", gin.H{"code": "x"})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
}

func TestProcessCodeAllModelsBusy(t *testing.T) {
	gateway := &fakeGateway{}
	runner := &fakeRunner{err: fmt.Errorf("%w: last error: quota exhausted", ai.ErrRosterExhausted)}
	router := newTestRouter(runner, gateway)

	w := doJSON(t, router, http.MethodPost, "/api/process_code", gin.H{"code": "x"})

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "all models busy")
	assert.Contains(t, w.Body.String(), "quota exhausted")
	assert.Empty(t, gateway.snapshots, "no snapshot may be saved on terminal failure")
}

func TestProcessCodeValidation(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/process_code", gin.H{"target_lang": "go"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAIChatSuccessPersistsTranscript(t *testing.T) {
	gateway := &fakeGateway{}
	runner := &fakeRunner{result: &ai.Result{Candidate: "m", Text: "a slice is a view"}}
	router := newTestRouter(runner, gateway)

	w := doJSON(t, router, http.MethodPost, "/api/ai_chat", gin.H{
		"message":      "what is a slice?",
		"code_context": "s := []int{1}",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"success"`)
	assert.Contains(t, w.Body.String(), "a slice is a view")

	require.Len(t, runner.calls, 1)
	assert.Equal(t, ai.ShapeText, runner.calls[0].Shape)

	require.Len(t, gateway.chat, 1)
	assert.Equal(t, "what is a slice?", gateway.chat[0].UserMessage)
	assert.Equal(t, "a slice is a view", gateway.chat[0].AIResponse)
}

// TestAIChatPersistenceFailureKeepsSuccessPayload: the transcript write is
// best-effort - its failure must not invalidate the reply already obtained.
func TestAIChatPersistenceFailureKeepsSuccessPayload(t *testing.T) {
	gateway := &fakeGateway{failAppendChat: true}
	runner := &fakeRunner{result: &ai.Result{Candidate: "m", Text: "still here"}}
	router := newTestRouter(runner, gateway)

	w := doJSON(t, router, http.MethodPost, "/api/ai_chat", gin.H{"message": "hi"})

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string `json:"status"`
		Reply  string `json:"reply"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "still here", resp.Reply)
}

func TestAIChatAllModelsBusy(t *testing.T) {
	runner := &fakeRunner{err: fmt.Errorf("%w: last error: timeout", ai.ErrRosterExhausted)}
	router := newTestRouter(runner, &fakeGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/ai_chat", gin.H{"message": "hi"})

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "all models busy")
}

func TestGeneratePDF(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeGateway{})

	w := doJSON(t, router, http.MethodPost, "/api/generate_pdf", gin.H{
		"title":             "Report",
		"detected_language": "go",
		"quality_score":     90,
		"final_code":        "package main",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	require.True(t, w.Body.Len() > 4)
	assert.Equal(t, "%PDF", w.Body.String()[:4])
}

func TestProjectEndpoints(t *testing.T) {
	gateway := &fakeGateway{}
	router := newTestRouter(&fakeRunner{}, gateway)

	w := doJSON(t, router, http.MethodPost, "/api/projects", gin.H{
		"name":     "fizzbuzz",
		"code":     "print(1)",
		"language": "python",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fizzbuzz")

	favorite := true
	w = doJSON(t, router, http.MethodPatch, "/api/projects/1/favorite", gin.H{"favorite": favorite})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gateway.projects[0].Favorite)

	w = doJSON(t, router, http.MethodPatch, "/api/projects/999/favorite", gin.H{"favorite": favorite})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/api/projects/1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, gateway.projects)

	w = doJSON(t, router, http.MethodDelete, "/api/projects/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotAndChatListEndpoints(t *testing.T) {
	gateway := &fakeGateway{}
	router := newTestRouter(&fakeRunner{}, gateway)

	w := doJSON(t, router, http.MethodGet, "/api/snapshots/latest", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := gateway.InsertCodeSnapshot("print(2)", "python")
	require.NoError(t, err)
	require.NoError(t, gateway.AppendChat("q", "a"))

	w = doJSON(t, router, http.MethodGet, "/api/snapshots/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "print(2)")

	w = doJSON(t, router, http.MethodGet, "/api/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_message":"q"`)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&fakeRunner{}, &fakeGateway{})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
