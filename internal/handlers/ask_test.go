package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"koqa/internal/handlers/mocks"
	"koqa/internal/rag"
)

func TestAskHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockAnswerEngine(ctrl)
	handler := NewAskHandler(engine, nil, "")

	engine.EXPECT().
		Ask(gomock.Any(), "4월 행사 알려줘", false).
		Return(&rag.AskResponse{
			Answer: "4월에는 춘계학술대회가 있습니다.",
			References: []rag.Reference{
				{Title: "2025 행사", Source: "events/2025.csv"},
			},
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"4월 행사 알려줘"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Answer != "4월에는 춘계학술대회가 있습니다." {
		t.Errorf("Answer = %q", resp.Answer)
	}
	if len(resp.References) != 1 || resp.References[0].Source != "events/2025.csv" {
		t.Errorf("References = %+v", resp.References)
	}
	if resp.Debug != nil {
		t.Error("Debug should be absent without ?debug")
	}
}

func TestAskHandler_DebugParam(t *testing.T) {
	ctrl := gomock.NewController(t)
	engine := mocks.NewMockAnswerEngine(ctrl)
	handler := NewAskHandler(engine, nil, "")

	engine.EXPECT().
		Ask(gomock.Any(), "질문", true).
		Return(&rag.AskResponse{
			Answer: "답변",
			Debug:  &rag.DebugInfo{Mode: "similarity", Matched: 3},
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/ask?debug=1", strings.NewReader(`{"question":"질문"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp.Debug == nil || resp.Debug.Mode != "similarity" || resp.Debug.Matched != 3 {
		t.Errorf("Debug = %+v", resp.Debug)
	}
}

func TestAskHandler_BadRequests(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := NewAskHandler(mocks.NewMockAnswerEngine(ctrl), nil, "")

	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"invalid json", http.MethodPost, "{not json", http.StatusBadRequest},
		{"empty question", http.MethodPost, `{"question":"  "}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/ask", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAskHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"vector store down", fmt.Errorf("%w: qdrant unavailable", rag.ErrRetrieval), http.StatusServiceUnavailable},
		{"embedding down", fmt.Errorf("%w: connection refused", rag.ErrEmbedding), http.StatusBadGateway},
		{"llm down", fmt.Errorf("%w: ollama timeout", rag.ErrGeneration), http.StatusBadGateway},
		{"unknown", errors.New("something else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			engine := mocks.NewMockAnswerEngine(ctrl)
			handler := NewAskHandler(engine, nil, "")

			engine.EXPECT().Ask(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(`{"question":"질문"}`))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid error JSON: %v", err)
			}
			if resp.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}
