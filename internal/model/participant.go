// Package model はドメインモデルを定義する。
package model

import "time"

// Participant はガレージを訪れた来場者を表す。
// クライアント側で保存され、関心登録の際に再利用される。
type Participant struct {
	ID        string
	GarageID  string
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Interest は来場者による品物への関心表明を表す。
// Nameは表示用に非正規化した来場者名で、正はparticipantsテーブル。
type Interest struct {
	ID            string
	ItemID        string
	ParticipantID string
	Message       string
	Name          string
	CreatedAt     time.Time
}
