package model

import (
	"bytes"
	"encoding/json"
)

// OptionalString は部分更新用の文字列フィールドを表す。
// 未指定とnullを区別する。nullは空文字列として指定されたものとみなす。
// ゼロ値は未指定を表す。
type OptionalString struct {
	Value string
	Set   bool
}

// SomeString は指定済みのOptionalStringを生成する。
func SomeString(s string) OptionalString {
	return OptionalString{Value: s, Set: true}
}

// UnmarshalJSON はJSONの文字列とnullを受け付ける。
func (o *OptionalString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = SomeString("")
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*o = SomeString(s)
	return nil
}
