// Package price は価格入力文字列と整数セント値の相互変換を提供する。
//
// 価格はDB上では常に非負の整数セント（nilは無料）として扱う。
// 入力は小数を含む主通貨単位の文字列または数値で、10進数として厳密に解釈し、
// 100倍した値を四捨五入（0.5は切り上げ）してから負値を0に丸める。
// 浮動小数点演算を経由しないため "9.995" は 1000 になる。
package price

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrNotANumber は価格入力が数値として解釈できないことを示す。
// 呼び出し元は検証エラー（400）として扱い、永続化してはならない。
var ErrNotANumber = errors.New("price is not a number")

// FreeLabel は価格未設定（無料）の表示ラベル。
const FreeLabel = "FREE"

type inputKind int

const (
	kindAbsent inputKind = iota
	kindNull
	kindString
	kindNumber
	kindInvalid
)

// Input は価格入力値を表す。
// 未指定・null・文字列・数値のいずれであったかを保持する。
// ゼロ値は未指定を表す。
type Input struct {
	kind inputKind
	text string
}

// FromString は文字列の価格入力を生成する。
func FromString(s string) Input {
	return Input{kind: kindString, text: s}
}

// FromNumber は数値の価格入力を生成する。
func FromNumber(f float64) Input {
	return Input{kind: kindNumber, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Null はnullの価格入力を生成する。
func Null() Input {
	return Input{kind: kindNull}
}

// Present は入力が指定されていたか（nullを含む）を返す。
// 部分更新で「変更しない」と「無料にする」を区別するために使う。
func (in Input) Present() bool {
	return in.kind != kindAbsent
}

// UnmarshalJSON はJSONの文字列・数値・nullを受け付ける。
// それ以外の型（真偽値、オブジェクト等）は数値でない入力として保持する。
func (in *Input) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		*in = Null()
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*in = FromString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*in = Input{kind: kindNumber, text: n.String()}
		return nil
	}

	*in = Input{kind: kindInvalid, text: raw}
	return nil
}

// maxCents はint64で表現できるセント値の上限。
var maxCents = decimal.NewFromInt(math.MaxInt64)

// InputToCents は価格入力を整数セントに変換する。
//   - 未指定・null・空文字列はnil（無料）を返す
//   - 数値として解釈できない場合はErrNotANumberを返す
//   - それ以外は100倍して四捨五入し、負値は0に丸める
//
// 空白のみの文字列は数値0として扱う。
func InputToCents(in Input) (*int64, error) {
	switch in.kind {
	case kindAbsent, kindNull:
		return nil, nil
	case kindInvalid:
		return nil, ErrNotANumber
	}

	if in.kind == kindString && in.text == "" {
		return nil, nil
	}

	text := strings.TrimSpace(in.text)
	if text == "" {
		zero := int64(0)
		return &zero, nil
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil, ErrNotANumber
	}

	cents := d.Shift(2).Round(0)
	if cents.IsNegative() {
		cents = decimal.Zero
	}
	if cents.GreaterThan(maxCents) {
		return nil, ErrNotANumber
	}

	v := cents.IntPart()
	return &v, nil
}

// CentsToInput は整数セントを編集フォーム用の文字列に変換する。
// nilは空文字列を返す。末尾の0は付けない（1234 → "12.34"、100 → "1"）。
func CentsToInput(cents *int64) string {
	if cents == nil {
		return ""
	}
	return decimal.New(*cents, -2).String()
}

var labelPrinter = message.NewPrinter(language.AmericanEnglish)

// Label は表示用の価格ラベルを返す。
// nilは "FREE"、それ以外は米ドル表記（例: "$1,234.50"）。
func Label(cents *int64) string {
	if cents == nil {
		return FreeLabel
	}
	return labelPrinter.Sprintf("$%.2f", decimal.New(*cents, -2).InexactFloat64())
}
