package history

// errors.go maps technical errors to bilingual user messages.
//
// Codes are grouped by category so support staff can trace a report back to
// the failing stage:
//
//	LOAD001-LOAD099  fetching source tables
//	VAL001-VAL099    table and request validation
//	HIST001-HIST099  query engine state
//	TBL001-TBL099    table registry
//	ERR000           anything unmatched; check the logs for the original error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// User-facing status messages.
const (
	MsgLoadFailed = "Failed to load history data / 履歴データの読み込みに失敗しました"
	MsgNoMatches  = "No matching records / 該当する履歴はありません"
	MsgLoading    = "Loading history... / 履歴を読み込み中です"
)

// UserMessage is an error rendered for people rather than logs.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Validation
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "A source table is missing a required column / 必須列がありません",
			Action:  "Check the column headers of the exported table",
			Code:    "VAL004",
		},
	},

	// Engine state
	{
		pattern: "reload already in progress",
		msg: UserMessage{
			Message: "History is already reloading / 履歴を再読み込み中です",
			Action:  "Wait for the current reload to finish",
			Code:    "HIST001",
		},
	},
	{
		pattern: "unknown sort key",
		msg: UserMessage{
			Message: "Unknown sort column / 不明な並び替え列です",
			Action:  "Sort by date, item, action, from, to, notes or handler",
			Code:    "HIST002",
		},
	},
	{
		pattern: "invalid filter",
		msg: UserMessage{
			Message: "Invalid filter / 絞り込み条件が正しくありません",
			Action:  "Use YYYY-MM-DD dates and a known action",
			Code:    "HIST003",
		},
	},
	{
		pattern: "invalid page",
		msg: UserMessage{
			Message: "Invalid page number / ページ番号が正しくありません",
			Action:  "Use a whole number starting at 1",
			Code:    "HIST004",
		},
	},

	// Registry
	{
		pattern: "too many concurrent exports",
		msg: UserMessage{
			Message: "The server is busy exporting / エクスポートが混み合っています",
			Action:  "Wait a few seconds and try the export again",
			Code:    "EXP001",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table / 不明なテーブルです",
			Action:  "This table is not configured",
			Code:    "TBL002",
		},
	},

	// Loading
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "The data source is unreachable. Try again in a few moments",
			Code:    "LOAD002",
		},
	},
	{
		pattern: "unexpected status",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "The data source returned an error. Check the source URL",
			Code:    "LOAD003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "A table file is missing from the data directory",
			Code:    "LOAD004",
		},
	},
	{
		pattern: "table not found at source",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "A required table is missing at the data source",
			Code:    "LOAD004",
		},
	},
	{
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "The data source timed out. Try again later",
			Code:    "LOAD005",
		},
	},
	{
		pattern: "load table",
		msg: UserMessage{
			Message: MsgLoadFailed,
			Action:  "Try reloading. If it keeps failing, check the server logs",
			Code:    "LOAD001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred / 予期しないエラーが発生しました",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a UserMessage. A nil error yields the zero value.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders err as a single line including its code.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}
