package frontend

import "time"

// Timer は予約済み処理の取り消し口です。
type Timer interface {
	Stop() bool
}

// Scheduler は遅延実行を提供します。
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
