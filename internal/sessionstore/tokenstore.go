package sessionstore

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// TokenStore はアクセストークンのヒントキャッシュ。
// あくまで起動時の楽観的復元のためのヒントであり、
// アクセス判断の根拠は常にSession Store本体への問い合わせ結果とする。
type TokenStore interface {
	// Load は保存済みトークンを返す。未保存の場合は空文字列を返す。
	Load() (string, error)
	// Save はトークンを保存する。空文字列の保存は削除として扱う。
	Save(token string) error
}

// MemoryTokenStore はプロセス内のみでトークンを保持するTokenStore。
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore はMemoryTokenStoreを生成する。
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Load は保持中のトークンを返す。
func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

// Save はトークンを保持する。
func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

// FileTokenStore はトークンをファイルに永続化するTokenStore。
// プロセス再起動をまたいだ楽観的なセッション復元に使用する。
type FileTokenStore struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenStore はFileTokenStoreを生成する。
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Load はファイルからトークンを読み込む。ファイルが存在しない場合は空文字列を返す。
func (s *FileTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save はトークンをファイルに書き込む。空文字列の場合はファイルを削除する。
func (s *FileTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove token file: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// compile-time interface checks
var _ TokenStore = (*MemoryTokenStore)(nil)
var _ TokenStore = (*FileTokenStore)(nil)
