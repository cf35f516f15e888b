// Package sessionstore は外部IDプロバイダー（Session Store）のクライアントを提供する。
// 資格情報の検証、セッショントークンの発行・破棄はプロバイダー側が所有し、
// アプリケーションはこのパッケージを通じて読み取り専用プロジェクションを扱う。
package sessionstore

import (
	"context"
	"errors"
	"sync"

	"github.com/allstar/sportshub/internal/model"
)

// ErrInvalidCredentials はメールアドレスまたはパスワードが誤っていることを示す。
var ErrInvalidCredentials = errors.New("invalid email or password")

// EventType は認証状態変更イベントの種別。
type EventType string

const (
	// EventSignedIn はサインイン完了イベント。
	EventSignedIn EventType = "SIGNED_IN"
	// EventSignedOut はサインアウト完了イベント。
	EventSignedOut EventType = "SIGNED_OUT"
)

// Event はSession Storeが通知する認証状態の変更。
// SignedInイベントのみSessionを持つ。
type Event struct {
	Type    EventType
	Session *model.Session
}

// Store はSession StoreのクライアントSDK相当のインターフェース。
type Store interface {
	// GetSession は既存セッションを取得する。セッションが存在しない場合は(nil, nil)を返す。
	GetSession(ctx context.Context) (*model.Session, error)

	// SignInWithPassword は資格情報を検証しセッションを発行する。
	// 資格情報エラーの場合はErrInvalidCredentialsを返す。
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)

	// SignOut は現在のセッションを破棄する。
	// 失敗した場合、ローカルのトークンは破棄されない（サインアウト完了とみなさない）。
	SignOut(ctx context.Context) error

	// SignUp はプロビジョニング用に新規アカウントを作成する。
	SignUp(ctx context.Context, email, password string) (*model.Session, error)

	// Subscribe は認証状態変更イベントの購読を開始する。
	// 返されたSubscriptionは必ずUnsubscribeすること。
	Subscribe() *Subscription
}

// Subscription は認証状態変更イベントのキャンセル可能な購読。
type Subscription struct {
	events chan Event
	cancel func()
	once   sync.Once
}

// Events はイベント受信用チャネルを返す。
// Unsubscribe後はクローズされる。
func (s *Subscription) Events() <-chan Event {
	return s.events
}

// Unsubscribe は購読を解除する。複数回呼び出しても安全。
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// Hub は複数の購読者へのイベント配送を管理する。
// Clientが内部で使用するほか、テスト用のStore実装からも利用できる。
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewHub はHubを生成する。
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan Event)}
}

// Subscribe は新しい購読を登録する。
func (b *Hub) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++

	// 購読者が一時的に受信しなくてもemitをブロックしないようバッファを持つ
	ch := make(chan Event, 16)
	b.subs[id] = ch

	return &Subscription{
		events: ch,
		cancel: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if existing, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(existing)
			}
		},
	}
}

// Emit は全購読者にイベントを配送する。
// バッファが満杯の購読者へのイベントは破棄される。
func (b *Hub) Emit(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
