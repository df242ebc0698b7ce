// Package model はドメインモデルを定義する。
package model

import "time"

// Garage は1回のガレージセール（テナント）を表す。
// Slugは全ガレージで一意で、作成後は変更しない。
type Garage struct {
	ID         string
	Title      string
	Slug       string
	OwnerEmail string // オーナーパスコードの1つとしても使われる
	CreatedAt  time.Time
}

// OwnerSession はオーナーセッションCookieから復元した認可情報を表す。
// DBには保存しない。GarageIDのガレージに対してのみ権限を持つ。
type OwnerSession struct {
	GarageID  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
