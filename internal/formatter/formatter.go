package formatter

import (
	"fmt"
	"strings"

	"linebot_assistant/pkg"
)

// User-facing notice strings. Kept in one place so the reply tone stays
// consistent across action families.
const (
	failurePrefix    = "❌ 操作失敗: "
	createdNotice    = "✅ 建立成功！"
	updatedNotice    = "✅ 更新成功！"
	deletedNotice    = "🗑️ 刪除成功！"
	noSchedules      = "📅 目前沒有排程。"
	scheduleHeader   = "📅 查詢結果："
	noConsumables    = "🧴 目前沒有消耗品。"
	consumableHeader = "🧴 目前的消耗品："
)

// Format merges the classifier's natural-language reply with the backend
// outcome. Rules apply in priority order: error notice, mutation success
// notice, list rendering, otherwise the reply passes through unchanged.
func Format(originalReply string, result pkg.BackendResult, action pkg.Action, params map[string]any) string {
	if msg, ok := result.ErrMessage(); ok {
		return appendLine(originalReply, failurePrefix+msg)
	}

	switch action {
	case pkg.ActionCreateSchedule, pkg.ActionCreateConsumable:
		return appendLine(originalReply, createdNotice)
	case pkg.ActionUpdateSchedule, pkg.ActionUpdateConsumable:
		return appendLine(originalReply, updatedNotice)
	case pkg.ActionDeleteSchedule, pkg.ActionDeleteConsumable:
		return appendLine(originalReply, deletedNotice)
	case pkg.ActionGetSchedule:
		return appendLine(originalReply, renderSchedules(result, params))
	case pkg.ActionGetConsumable:
		return appendLine(originalReply, renderConsumables(result))
	default:
		return originalReply
	}
}

func renderSchedules(result pkg.BackendResult, params map[string]any) string {
	items := listItems(result)
	if len(items) == 0 {
		return noSchedules
	}

	// IDs are shown when the user narrowed by date, so a follow-up
	// update/delete can reference them.
	_, withID := params["date"]

	var b strings.Builder
	b.WriteString(scheduleHeader)
	for _, item := range items {
		b.WriteString("\n- ")
		if withID {
			b.WriteString(fmt.Sprintf("[ID %s] ", fieldString(item, "id")))
		}
		b.WriteString(fieldString(item, "title"))
		if start := fieldString(item, "start_time"); start != "" {
			b.WriteString("（" + start + "）")
		}
	}
	return b.String()
}

func renderConsumables(result pkg.BackendResult) string {
	items := listItems(result)
	if len(items) == 0 {
		return noConsumables
	}

	var b strings.Builder
	b.WriteString(consumableHeader)
	for _, item := range items {
		b.WriteString("\n- ")
		b.WriteString(fieldString(item, "name"))
		if qty := fieldString(item, "quantity"); qty != "" {
			b.WriteString(" x" + qty)
		} else if days := fieldString(item, "days_remaining"); days != "" {
			b.WriteString("（剩餘 " + days + " 天）")
		}
	}
	return b.String()
}

// listItems accepts both result shapes: a bare list, or an object that some
// backends use to wrap list payloads.
func listItems(result pkg.BackendResult) []map[string]any {
	if result.IsList() {
		return result.Items
	}
	if result.Object != nil {
		if wrapped, ok := result.Object["items"].([]map[string]any); ok {
			return wrapped
		}
	}
	return nil
}

// fieldString renders a loosely-typed backend field. JSON numbers come back
// as float64 and are shown without the trailing decimal.
func fieldString(item map[string]any, key string) string {
	raw, ok := item[key]
	if !ok || raw == nil {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprint(v)
	}
}

func appendLine(reply, line string) string {
	if line == "" {
		return reply
	}
	if reply == "" {
		return line
	}
	return reply + "\n" + line
}
