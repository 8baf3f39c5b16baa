package assistant

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"linebot_assistant/internal/config"
	"linebot_assistant/internal/dispatcher"
	"linebot_assistant/pkg"
)

type fakeClassifier struct {
	resp     pkg.StructuredResponse
	lastHint string
}

func (f *fakeClassifier) Classify(ctx context.Context, userID, text, hint string) pkg.StructuredResponse {
	f.lastHint = hint
	return f.resp
}

type backendCall struct {
	method string
	path   string
	body   map[string]any
}

// spyBackend satisfies dispatcher.BackendCaller and records every call.
type spyBackend struct {
	calls  []backendCall
	result pkg.BackendResult
}

func (s *spyBackend) Do(ctx context.Context, method, path string, body map[string]any) pkg.BackendResult {
	s.calls = append(s.calls, backendCall{method: method, path: path, body: body})
	return s.result
}

type fakeHints struct {
	schedules       []pkg.Schedule
	consumables     []pkg.Consumable
	scheduleErr     error
	scheduleCalls   int
	consumableCalls int
}

func (f *fakeHints) ListSchedules(ctx context.Context) ([]pkg.Schedule, error) {
	f.scheduleCalls++
	return f.schedules, f.scheduleErr
}

func (f *fakeHints) ListConsumables(ctx context.Context) ([]pkg.Consumable, error) {
	f.consumableCalls++
	return f.consumables, nil
}

func testKeywords() config.KeywordConfig {
	return config.KeywordConfig{
		Schedule:   []string{"schedule", "排程", "提醒", "時間"},
		Consumable: []string{"consumable", "消耗品", "庫存"},
	}
}

func TestProcessCreateScheduleEndToEnd(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.StructuredResponse{
		Action: pkg.ActionCreateSchedule,
		Parameters: map[string]any{
			"title":      "看牙醫",
			"start_time": "2025-07-09T15:00:00",
		},
		Reply: "好的，已為您安排。",
	}}
	backend := &spyBackend{result: pkg.SuccessResult("操作成功完成")}
	svc := NewService(classifier, dispatcher.New(backend), &fakeHints{}, testKeywords())

	reply := svc.Process(context.Background(), "user-a", "明天下午三點提醒我看牙醫")

	require.Len(t, backend.calls, 1)
	require.Equal(t, "POST", backend.calls[0].method)
	require.Equal(t, "/api/schedules", backend.calls[0].path)
	require.Equal(t, "看牙醫", backend.calls[0].body["title"])
	require.Contains(t, reply, "好的，已為您安排。")
	require.Contains(t, reply, "✅ 建立成功！")
}

func TestProcessEmptyScheduleList(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.StructuredResponse{
		Action:     pkg.ActionGetSchedule,
		Parameters: map[string]any{},
		Reply:      "正在查詢您的排程...",
	}}
	backend := &spyBackend{result: pkg.BackendResult{Items: []map[string]any{}}}
	svc := NewService(classifier, dispatcher.New(backend), &fakeHints{}, testKeywords())

	reply := svc.Process(context.Background(), "user-a", "我這週有什麼安排？")

	require.Len(t, backend.calls, 1)
	require.Equal(t, "GET", backend.calls[0].method)
	require.Contains(t, reply, "📅 目前沒有排程。")
}

func TestProcessTextReplySkipsBackend(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.TextReply("你好！很高興為您服務。")}
	backend := &spyBackend{}
	svc := NewService(classifier, dispatcher.New(backend), &fakeHints{}, testKeywords())

	reply := svc.Process(context.Background(), "user-a", "你好")

	require.Empty(t, backend.calls)
	require.Equal(t, "你好！很高興為您服務。", reply)
}

func TestProcessBackendFailureBecomesNotice(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.StructuredResponse{
		Action:     pkg.ActionDeleteSchedule,
		Parameters: map[string]any{"id": float64(7)},
		Reply:      "好的，正在取消。",
	}}
	backend := &spyBackend{result: pkg.ErrorResult("Schedule not found")}
	svc := NewService(classifier, dispatcher.New(backend), &fakeHints{}, testKeywords())

	reply := svc.Process(context.Background(), "user-a", "取消ID 7的排程")

	require.Contains(t, reply, "❌ 操作失敗: Schedule not found")
}

func TestProcessScheduleKeywordFetchesHint(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.TextReply("ok")}
	hints := &fakeHints{schedules: []pkg.Schedule{{ID: 1, Title: "晨跑"}}}
	svc := NewService(classifier, dispatcher.New(&spyBackend{}), hints, testKeywords())

	svc.Process(context.Background(), "user-a", "幫我看一下排程")

	require.Equal(t, 1, hints.scheduleCalls)
	require.Zero(t, hints.consumableCalls)
	require.Contains(t, classifier.lastHint, "Current schedules")
	require.Contains(t, classifier.lastHint, "晨跑")
}

func TestProcessConsumableKeywordFetchesHint(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.TextReply("ok")}
	hints := &fakeHints{consumables: []pkg.Consumable{{ID: 2, Name: "洗衣精"}}}
	svc := NewService(classifier, dispatcher.New(&spyBackend{}), hints, testKeywords())

	svc.Process(context.Background(), "user-a", "庫存還夠嗎")

	require.Zero(t, hints.scheduleCalls)
	require.Equal(t, 1, hints.consumableCalls)
	require.Contains(t, classifier.lastHint, "Current consumables")
}

func TestProcessUnrelatedMessageSkipsHintFetch(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.TextReply("ok")}
	hints := &fakeHints{}
	svc := NewService(classifier, dispatcher.New(&spyBackend{}), hints, testKeywords())

	svc.Process(context.Background(), "user-a", "今天天氣如何")

	require.Zero(t, hints.scheduleCalls)
	require.Zero(t, hints.consumableCalls)
	require.Empty(t, classifier.lastHint)
}

func TestProcessHintFetchFailureIsSilent(t *testing.T) {
	classifier := &fakeClassifier{resp: pkg.TextReply("ok")}
	hints := &fakeHints{scheduleErr: fmt.Errorf("backend down")}
	svc := NewService(classifier, dispatcher.New(&spyBackend{}), hints, testKeywords())

	reply := svc.Process(context.Background(), "user-a", "排程")

	require.Equal(t, "ok", reply)
	require.Empty(t, classifier.lastHint)
}
