package authstate

import "time"

// RetryConfig はプロフィール参照リトライの設定。
// リトライは冪等な読み取りにのみ適用する。サインインは
// バックエンドのロックアウトポリシーに抵触し得るため決してリトライしない。
type RetryConfig struct {
	MaxAttempts    int           // 初回を含む最大試行回数
	InitialBackoff time.Duration // 初回リトライまでの遅延
	MaxBackoff     time.Duration // 遅延の上限
}

// DefaultRetryConfig はデフォルトのリトライ設定を返す。
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
	}
}

// Backoff はリトライ回数に基づいて指数バックオフ遅延を計算する。
// 初回InitialBackoff、2倍ずつ増加、最大MaxBackoff。
func (c RetryConfig) Backoff(retries int) time.Duration {
	delay := c.InitialBackoff
	for i := 0; i < retries; i++ {
		delay *= 2
		if delay > c.MaxBackoff {
			return c.MaxBackoff
		}
	}
	if delay > c.MaxBackoff {
		return c.MaxBackoff
	}
	return delay
}
