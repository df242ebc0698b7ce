// Package model はドメインモデルを定義する。
package model

import (
	"strings"
	"time"
)

// Item はガレージに出品された品物を表す。
type Item struct {
	ID          string
	GarageID    string
	Title       string
	PriceCents  *int64 // nilは無料
	Description string
	PhotoURL    string
	Status      ItemStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ItemStatus は品物の販売状態を表す。
type ItemStatus string

const (
	// ItemStatusAvailable は購入可能な状態。
	ItemStatusAvailable ItemStatus = "available"
	// ItemStatusReserved は取り置き中の状態。
	ItemStatusReserved ItemStatus = "reserved"
	// ItemStatusSold は売却済みの状態。
	ItemStatusSold ItemStatus = "sold"
)

// ParseItemStatus は入力文字列を前後空白除去・小文字化してItemStatusに変換する。
// 未知の値の場合はfalseを返す。
func ParseItemStatus(s string) (ItemStatus, bool) {
	switch st := ItemStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ItemStatusAvailable, ItemStatusReserved, ItemStatusSold:
		return st, true
	default:
		return "", false
	}
}

// ItemUpdate は品物の部分更新内容を表す。
// Set*がfalseのフィールドは変更しない。
type ItemUpdate struct {
	Title          *string
	SetPrice       bool
	PriceCents     *int64
	SetDescription bool
	Description    string
	SetPhotoURL    bool
	PhotoURL       string
	Status         *ItemStatus
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (u ItemUpdate) IsEmpty() bool {
	return u.Title == nil && !u.SetPrice && !u.SetDescription && !u.SetPhotoURL && u.Status == nil
}

// ItemWithInterest は品物と関心数を結合したモデル。
type ItemWithInterest struct {
	Item
	InterestCount int
}
