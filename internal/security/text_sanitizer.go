// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は来場者やオーナーが入力したテキストからHTMLマークアップを除去する。
// bluemondayのStrictPolicyで全タグを取り除き、エンティティを元の文字に戻した
// プレーンテキストを保存する。表示時のエスケープはフロントエンドの責務とする。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力テキストのサニタイズ機能のインターフェースを定義する。
// ガレージ名、品物のタイトルと説明、来場者名、関心メッセージの保存前に使用される。
type TextSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// script, styleタグは中身ごと除去される。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなため共有して使用する。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}
