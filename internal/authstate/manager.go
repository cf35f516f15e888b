package authstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/allstar/sportshub/internal/model"
	"github.com/allstar/sportshub/internal/sessionstore"
)

// ダッシュボードのナビゲーション先。遷移はすべて状態変化の副作用として行う。
const (
	RouteLogin     = "/login"
	RouteDashboard = "/dashboard"
)

// ProfileLookup はセッションのメールアドレスからアプリケーションユーザーを
// 参照するインターフェース。レコードが存在しない場合は(nil, nil)を返し、
// バックエンド障害の場合のみ非nilのエラーを返す。
// この区別はサインインフローの整合性判定に不可欠。
type ProfileLookup interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// Notifier はユーザー向け通知の送出先。通知は状態機械のデータではなく副作用。
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Navigator は状態遷移に伴う画面遷移の送出先。
type Navigator interface {
	NavigateTo(route string)
}

// Metrics は認証ライフサイクルの計測フック。
type Metrics interface {
	RecordSignInSuccess()
	RecordSignInFailure(reason string)
	RecordBootstrap(outcome string)
	RecordLookupRetry()
}

// nopMetrics は計測を無効化するMetrics実装。
type nopMetrics struct{}

func (nopMetrics) RecordSignInSuccess()             {}
func (nopMetrics) RecordSignInFailure(reason string) {}
func (nopMetrics) RecordBootstrap(outcome string)   {}
func (nopMetrics) RecordLookupRetry()               {}

// ManagerConfig は認証状態管理の設定。
type ManagerConfig struct {
	// Timeout はプロバイダー呼び出しおよびプロフィール参照1回あたりのタイムアウト。
	Timeout time.Duration
	// Retry はプロフィール参照のリトライ設定。
	Retry RetryConfig
}

// DefaultManagerConfig はデフォルト設定を返す。
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Timeout: 10 * time.Second,
		Retry:   DefaultRetryConfig(),
	}
}

// Manager は認証状態の唯一の書き込み主体。
// Session Storeのイベント購読とサインイン/サインアウト操作を通じて
// Bootstrapping → Authenticated | Unauthenticated の遷移を駆動する。
// 他のコンポーネントはState()による読み取り専用アクセスのみを持つ。
type Manager struct {
	store     sessionstore.Store
	profiles  ProfileLookup
	notifier  Notifier
	navigator Navigator
	metrics   Metrics
	config    ManagerConfig

	mu    sync.RWMutex
	state State

	sub  *sessionstore.Subscription
	done chan struct{}
}

// NewManager はManagerを生成する。初期状態はBootstrapping。
// metricsがnilの場合は計測を無効化する。
func NewManager(
	store sessionstore.Store,
	profiles ProfileLookup,
	notifier Notifier,
	navigator Navigator,
	metrics Metrics,
	config ManagerConfig,
) *Manager {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Manager{
		store:     store,
		profiles:  profiles,
		notifier:  notifier,
		navigator: navigator,
		metrics:   metrics,
		config:    config,
		state:     Bootstrapping(),
	}
}

// State は現在の認証状態のスナップショットを返す。
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transition は状態を更新する。すべての書き込みはここを通る。
func (m *Manager) transition(next State) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	m.mu.Unlock()

	if prev.Phase != next.Phase {
		slog.Info("auth state transition",
			slog.String("from", prev.Phase.String()),
			slog.String("to", next.Phase.String()),
		)
	}
}

// Start は起動時のセッション復元を行い、変更イベントの購読を開始する。
// 復元は同期的に完了する: 復帰時にはBootstrappingを抜けている。
// 購読はClose()で必ず解除すること。
func (m *Manager) Start(ctx context.Context) {
	m.bootstrap(ctx)

	m.sub = m.store.Subscribe()
	m.done = make(chan struct{})
	go m.watchEvents()
}

// Close はイベント購読を解除し、イベントループの終了を待つ。
// 複数回呼び出しても安全。
func (m *Manager) Close() {
	if m.sub == nil {
		return
	}
	m.sub.Unsubscribe()
	<-m.done
	m.sub = nil
}

// bootstrap は既存セッションから状態を復元する。
// プロフィール参照に失敗した場合は部分的なユーザーを露出せず、
// フェイルクローズで未認証に落とす。
func (m *Manager) bootstrap(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	session, err := m.store.GetSession(cctx)
	cancel()

	if err != nil {
		slog.Error("session restore failed", slog.String("error", err.Error()))
		m.metrics.RecordBootstrap("error")
		m.transition(Unauthenticated())
		return
	}
	if session == nil {
		m.metrics.RecordBootstrap("none")
		m.transition(Unauthenticated())
		return
	}

	user, err := m.lookupProfile(ctx, session.Email)
	if err != nil {
		slog.Error("profile lookup failed during bootstrap",
			slog.String("email", session.Email),
			slog.String("error", err.Error()),
		)
		m.metrics.RecordBootstrap("lookup_failed")
		m.transition(Unauthenticated())
		return
	}
	if user == nil || !user.IsActive {
		slog.Warn("session without usable profile, treating as unauthenticated",
			slog.String("email", session.Email),
		)
		m.metrics.RecordBootstrap("incomplete")
		m.transition(Unauthenticated())
		return
	}

	m.metrics.RecordBootstrap("restored")
	m.transition(Authenticated(user))
}

// watchEvents はSession Storeの変更イベントを購読解除まで処理する。
func (m *Manager) watchEvents() {
	defer close(m.done)
	for ev := range m.sub.Events() {
		m.handleEvent(context.Background(), ev)
	}
}

// handleEvent は変更イベントを状態遷移に反映する。冪等に処理する。
func (m *Manager) handleEvent(ctx context.Context, ev sessionstore.Event) {
	switch ev.Type {
	case sessionstore.EventSignedIn:
		if ev.Session == nil {
			return
		}
		cur := m.State()
		if cur.Phase == PhaseAuthenticated && cur.User.ID == ev.Session.UserID {
			return
		}

		user, err := m.lookupProfile(ctx, ev.Session.Email)
		if err != nil {
			slog.Error("profile lookup failed for signed-in event",
				slog.String("email", ev.Session.Email),
				slog.String("error", err.Error()),
			)
			return
		}
		if user == nil || !user.IsActive {
			slog.Warn("signed-in event without usable profile",
				slog.String("email", ev.Session.Email),
			)
			return
		}
		m.transition(Authenticated(user))

	case sessionstore.EventSignedOut:
		if m.State().Phase == PhaseUnauthenticated {
			return
		}
		m.transition(Unauthenticated())
		m.navigator.NavigateTo(RouteLogin)
	}
}

// SignIn は資格情報を検証し、成功時にAuthenticatedへ遷移する。
//
// エラー分類:
//   - 資格情報エラー: メッセージ表示のみ。状態変化なし、プロフィール参照なし、リトライなし。
//   - プロフィール行なし/無効化済み: 補償サインアウトを発行しフェイルクローズ。
//   - 一時的障害: 補償サインアウトを発行し汎用エラーを返す。
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	cctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	session, err := m.store.SignInWithPassword(cctx, email, password)
	cancel()

	if errors.Is(err, sessionstore.ErrInvalidCredentials) {
		m.metrics.RecordSignInFailure("credentials")
		apiErr := model.NewInvalidCredentialsError()
		m.notifier.Error(apiErr.Message)
		return apiErr
	}
	if err != nil {
		slog.Error("sign-in failed", slog.String("error", err.Error()))
		m.metrics.RecordSignInFailure("provider")
		apiErr := model.NewAuthUnavailableError()
		m.notifier.Error(apiErr.Message)
		return apiErr
	}

	user, err := m.lookupProfile(ctx, session.Email)
	if err != nil {
		slog.Error("profile lookup failed after sign-in",
			slog.String("email", session.Email),
			slog.String("error", err.Error()),
		)
		m.compensateSignOut()
		m.metrics.RecordSignInFailure("lookup")
		apiErr := model.NewAuthUnavailableError()
		m.notifier.Error(apiErr.Message)
		return apiErr
	}
	if user == nil {
		// セッションは有効だがプロフィール行が存在しない致命的不整合。
		// 認証済みセッションを残さないよう巻き戻す。
		slog.Error("sign-in succeeded but no profile row exists",
			slog.String("email", session.Email),
		)
		m.compensateSignOut()
		m.metrics.RecordSignInFailure("incomplete")
		apiErr := model.NewAccountIncompleteError()
		m.notifier.Error(apiErr.Message)
		return apiErr
	}
	if !user.IsActive {
		slog.Warn("sign-in attempt for deactivated account",
			slog.String("email", session.Email),
		)
		m.compensateSignOut()
		m.metrics.RecordSignInFailure("disabled")
		apiErr := model.NewAccountDisabledError()
		m.notifier.Error(apiErr.Message)
		return apiErr
	}

	m.transition(Authenticated(user))
	m.metrics.RecordSignInSuccess()
	m.notifier.Success("Welcome to AllStar Sports Hub!")
	m.navigator.NavigateTo(RouteDashboard)

	slog.Info("user signed in",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return nil
}

// SignOut は現在のセッションを破棄しUnauthenticatedへ遷移する。
// 既に未認証の場合は通知なしのno-op。
// プロバイダー側の破棄が失敗した場合は状態を変更しない:
// セッションが生きている可能性がある間、ログアウト済みのUIを見せない。
func (m *Manager) SignOut(ctx context.Context) error {
	if m.State().Phase == PhaseUnauthenticated {
		return nil
	}

	cctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	err := m.store.SignOut(cctx)
	cancel()

	if err != nil {
		slog.Error("sign-out failed", slog.String("error", err.Error()))
		m.notifier.Error("Could not sign you out. Please try again.")
		return model.NewAuthUnavailableError()
	}

	if m.State().Phase != PhaseUnauthenticated {
		m.transition(Unauthenticated())
		m.navigator.NavigateTo(RouteLogin)
	}
	m.notifier.Success("You have been signed out.")
	return nil
}

// compensateSignOut はサインイン後の不整合検出時にセッションを巻き戻す。
// 失敗してもローカル状態は未認証のままなのでログに留める。
func (m *Manager) compensateSignOut() {
	ctx, cancel := context.WithTimeout(context.Background(), m.config.Timeout)
	defer cancel()

	if err := m.store.SignOut(ctx); err != nil {
		slog.Error("compensating sign-out failed", slog.String("error", err.Error()))
	}
}

// lookupProfile はプロフィール参照を有限回リトライ付きで実行する。
// 「行が存在しない」(nil, nil)は確定的な結果でありリトライしない。
func (m *Manager) lookupProfile(ctx context.Context, email string) (*model.User, error) {
	var lastErr error

	for attempt := 0; attempt < m.config.Retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			m.metrics.RecordLookupRetry()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(m.config.Retry.Backoff(attempt - 1)):
			}
		}

		cctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
		user, err := m.profiles.FindByEmail(cctx, email)
		cancel()

		if err == nil {
			return user, nil
		}
		lastErr = err
		slog.Warn("profile lookup attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()),
		)
	}

	return nil, lastErr
}
