package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	stdatomic "sync/atomic"
	"time"

	"github.com/natefinch/atomic"
	"github.com/philippgille/chromem-go"
)

type Operation int

const (
	OpWriteTranscript Operation = iota
	OpReadTranscript
	OpResetSession
	OpGetSession
	OpSaveSession
	OpListSessions
	OpUpsertVector
	OpSearchVectors
)

// Request is one unit of work for the worker loop. Result (if non-nil)
// receives the handler error; Response (if non-nil) receives the typed
// payload for read operations.
type Request struct {
	Op       Operation
	Payload  interface{}
	Result   chan error
	Response chan interface{}
}

type TranscriptPayload struct {
	SessionID string
	Data      []byte // JSON line
}

type ReadTranscriptPayload struct {
	SessionID string
	Limit     int // 0 = all
}

type ResetSessionPayload struct {
	SessionID string
}

type GetSessionPayload struct {
	SessionID string
}

type SaveSessionPayload struct {
	Session *SessionMeta
}

type UpsertVectorPayload struct {
	Collection string
	ID         string
	Vector     []float32
	Metadata   map[string]string
	Content    string
}

type SearchVectorsPayload struct {
	Collection string
	Vector     []float32
	Limit      int
}

type VectorResult struct {
	ID       string
	Score    float32
	Metadata map[string]string
	Content  string
}

// Worker owns all file state of one workspace: the session index, transcript
// files, and the sourcebook vector database. Every mutation goes through the
// inbox so there is exactly one writer.
type Worker struct {
	workspaceID              string
	basePath                 string
	inbox                    chan Request
	fileLock                 *FileLock
	quit                     chan struct{}
	wg                       sync.WaitGroup
	sessionIndex             *SessionIndex
	vectorDB                 *chromem.DB
	running                  stdatomic.Bool
	transcriptRotateMaxBytes int64
}

type RuntimeConfig struct {
	LockTimeout              time.Duration
	LockRetry                time.Duration
	LockMaxRetry             int
	InboxSize                int
	TranscriptRotateMaxBytes int64
}

func NewWorker(workspaceID string, workspaceRootPath string, runtimeCfg RuntimeConfig) (*Worker, error) {
	basePath, err := GetWorkspacePath(workspaceID, workspaceRootPath)
	if err != nil {
		return nil, err
	}

	for _, d := range []string{
		filepath.Join(basePath, "sessions"),
		filepath.Join(basePath, "backups"),
		filepath.Join(basePath, "vectors"),
	} {
		if err := os.MkdirAll(d, 0755); err != nil {
			return nil, fmt.Errorf("failed to create dir %s: %w", d, err)
		}
	}

	lockDefaults := DefaultFileLockConfig()
	if runtimeCfg.LockTimeout <= 0 {
		runtimeCfg.LockTimeout = lockDefaults.LockTimeout
	}
	if runtimeCfg.LockRetry <= 0 {
		runtimeCfg.LockRetry = lockDefaults.LockRetry
	}
	if runtimeCfg.LockMaxRetry <= 0 {
		runtimeCfg.LockMaxRetry = lockDefaults.LockMaxRetry
	}
	if runtimeCfg.InboxSize <= 0 {
		runtimeCfg.InboxSize = 64
	}
	if runtimeCfg.TranscriptRotateMaxBytes <= 0 {
		runtimeCfg.TranscriptRotateMaxBytes = 10 << 20
	}

	// Single instance per workspace.
	fileLock, err := NewFileLock(workspaceID, basePath, &FileLockConfig{
		LockTimeout:  runtimeCfg.LockTimeout,
		LockRetry:    runtimeCfg.LockRetry,
		LockMaxRetry: runtimeCfg.LockMaxRetry,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	sessionIndex := &SessionIndex{Sessions: make(map[string]SessionMeta)}
	indexPath := filepath.Join(basePath, "sessions", "index.json")
	if data, err := os.ReadFile(indexPath); err == nil {
		if err := json.Unmarshal(data, sessionIndex); err != nil {
			slog.Warn("Failed to parse session index, starting fresh", "error", err)
		}
	}

	// Embeddings are supplied by the caller, so no embedding func here.
	vectorDB, err := chromem.NewPersistentDB(filepath.Join(basePath, "vectors"), false)
	if err != nil {
		fileLock.Unlock()
		return nil, fmt.Errorf("failed to init vector db: %w", err)
	}

	return &Worker{
		workspaceID:              workspaceID,
		basePath:                 basePath,
		inbox:                    make(chan Request, runtimeCfg.InboxSize),
		fileLock:                 fileLock,
		quit:                     make(chan struct{}),
		sessionIndex:             sessionIndex,
		vectorDB:                 vectorDB,
		transcriptRotateMaxBytes: runtimeCfg.TranscriptRotateMaxBytes,
	}, nil
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

func (w *Worker) loop() {
	slog.Info("StoreWorker started", "workspace", w.workspaceID)
	w.running.Store(true)
	defer func() {
		w.running.Store(false)
		w.wg.Done()
	}()

	for {
		select {
		case req := <-w.inbox:
			err := w.handle(req)
			if req.Result != nil {
				req.Result <- err
			}
		case <-w.quit:
			slog.Info("StoreWorker stopping")
			return
		}
	}
}

func (w *Worker) handle(req Request) error {
	switch req.Op {
	case OpWriteTranscript:
		p, ok := req.Payload.(TranscriptPayload)
		if !ok {
			return fmt.Errorf("invalid payload for WriteTranscript")
		}
		return w.appendTranscript(p.SessionID, p.Data)
	case OpReadTranscript:
		p, ok := req.Payload.(ReadTranscriptPayload)
		if !ok {
			return fmt.Errorf("invalid payload for ReadTranscript")
		}
		lines, err := w.readTranscript(p.SessionID, p.Limit)
		if req.Response != nil {
			req.Response <- lines
		}
		return err
	case OpResetSession:
		p, ok := req.Payload.(ResetSessionPayload)
		if !ok {
			return fmt.Errorf("invalid payload for ResetSession")
		}
		return w.resetSession(p.SessionID)
	case OpGetSession:
		p, ok := req.Payload.(GetSessionPayload)
		if !ok {
			return fmt.Errorf("invalid payload for GetSession")
		}
		if sess, ok := w.sessionIndex.Sessions[p.SessionID]; ok {
			if req.Response != nil {
				req.Response <- &sess
			}
		} else if req.Response != nil {
			req.Response <- nil
		}
		return nil
	case OpSaveSession:
		p, ok := req.Payload.(SaveSessionPayload)
		if !ok {
			return fmt.Errorf("invalid payload for SaveSession")
		}
		w.sessionIndex.Sessions[p.Session.ID] = *p.Session
		return w.saveSessionIndex()
	case OpListSessions:
		metas := make([]SessionMeta, 0, len(w.sessionIndex.Sessions))
		for _, m := range w.sessionIndex.Sessions {
			metas = append(metas, m)
		}
		if req.Response != nil {
			req.Response <- metas
		}
		return nil
	case OpUpsertVector:
		p, ok := req.Payload.(UpsertVectorPayload)
		if !ok {
			return fmt.Errorf("invalid payload for UpsertVector")
		}
		return w.upsertVector(p)
	case OpSearchVectors:
		p, ok := req.Payload.(SearchVectorsPayload)
		if !ok {
			return fmt.Errorf("invalid payload for SearchVectors")
		}
		res, err := w.searchVectors(p)
		if req.Response != nil {
			req.Response <- res
		}
		return err
	default:
		return fmt.Errorf("unknown operation: %d", req.Op)
	}
}

func (w *Worker) readTranscript(sessionID string, limit int) ([]string, error) {
	path := w.transcriptPath(sessionID)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return []string{}, nil
	}

	if limit > 0 && len(lines) > limit {
		return lines[len(lines)-limit:], nil
	}
	return lines, nil
}

func (w *Worker) upsertVector(p UpsertVectorPayload) error {
	col, err := w.vectorDB.GetOrCreateCollection(p.Collection, nil, nil)
	if err != nil {
		return err
	}
	// AddDocuments is upsert in chromem.
	return col.AddDocuments(context.Background(), []chromem.Document{
		{
			ID:        p.ID,
			Metadata:  p.Metadata,
			Embedding: p.Vector,
			Content:   p.Content,
		},
	}, 1)
}

func (w *Worker) searchVectors(p SearchVectorsPayload) ([]VectorResult, error) {
	col := w.vectorDB.GetCollection(p.Collection, nil)
	if col == nil {
		return []VectorResult{}, nil
	}

	limit := p.Limit
	if n := col.Count(); limit > n {
		limit = n
	}
	if limit <= 0 {
		return []VectorResult{}, nil
	}

	docs, err := col.QueryEmbedding(context.Background(), p.Vector, limit, nil, nil)
	if err != nil {
		return nil, err
	}

	var results []VectorResult
	for _, doc := range docs {
		results = append(results, VectorResult{
			ID:       doc.ID,
			Score:    doc.Similarity,
			Metadata: doc.Metadata,
			Content:  doc.Content,
		})
	}
	return results, nil
}

func (w *Worker) saveSessionIndex() error {
	path := filepath.Join(w.basePath, "sessions", "index.json")
	data, err := json.MarshalIndent(w.sessionIndex, "", "  ")
	if err != nil {
		return err
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}

func (w *Worker) appendTranscript(sessionID string, data []byte) error {
	path := w.transcriptPath(sessionID)

	if err := w.checkAndRotate(sessionID, path); err != nil {
		slog.Warn("Failed to rotate transcript", "session", sessionID, "error", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		return err
	}
	return f.Sync()
}

func (w *Worker) resetSession(sessionID string) error {
	if err := os.Remove(w.transcriptPath(sessionID)); err != nil && !os.IsNotExist(err) {
		return err
	}
	delete(w.sessionIndex.Sessions, sessionID)
	return w.saveSessionIndex()
}

func (w *Worker) checkAndRotate(sessionID, path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	if info.Size() < w.transcriptRotateMaxBytes {
		return nil
	}

	slog.Info("Rotating transcript", "session", sessionID, "size", info.Size())

	timestamp := time.Now().Format("20060102150405")
	backupPath := fmt.Sprintf("%s.%s.bak", path, timestamp)
	if err := os.Rename(path, backupPath); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create new transcript: %w", err)
	}
	return f.Close()
}

func (w *Worker) transcriptPath(sessionID string) string {
	return filepath.Join(w.basePath, "sessions", sessionID+".jsonl")
}

// SessionsPath returns the on-disk sessions directory. The backup scheduler
// snapshots it wholesale.
func (w *Worker) SessionsPath() string {
	return filepath.Join(w.basePath, "sessions")
}

// --- Public API for other components ---

func (w *Worker) WriteTranscript(sessionID string, data []byte) error {
	res := make(chan error, 1)
	w.inbox <- Request{
		Op:      OpWriteTranscript,
		Payload: TranscriptPayload{SessionID: sessionID, Data: data},
		Result:  res,
	}
	return <-res
}

func (w *Worker) ReadTranscript(sessionID string, limit int) ([]string, error) {
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op:       OpReadTranscript,
		Payload:  ReadTranscriptPayload{SessionID: sessionID, Limit: limit},
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	val := <-resp
	return val.([]string), nil
}

func (w *Worker) ResetSession(sessionID string) error {
	res := make(chan error, 1)
	w.inbox <- Request{
		Op:      OpResetSession,
		Payload: ResetSessionPayload{SessionID: sessionID},
		Result:  res,
	}
	return <-res
}

func (w *Worker) GetSession(id string) (*SessionMeta, error) {
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op:       OpGetSession,
		Payload:  GetSessionPayload{SessionID: id},
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	val := <-resp
	if val == nil {
		return nil, nil // Not found
	}
	return val.(*SessionMeta), nil
}

func (w *Worker) SaveSession(session *SessionMeta) error {
	res := make(chan error, 1)
	w.inbox <- Request{
		Op:      OpSaveSession,
		Payload: SaveSessionPayload{Session: session},
		Result:  res,
	}
	return <-res
}

// ListSessions returns every session registered in the index. It goes through
// the worker loop because the index map has no lock of its own.
func (w *Worker) ListSessions() ([]SessionMeta, error) {
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op:       OpListSessions,
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	val := <-resp
	return val.([]SessionMeta), nil
}

func (w *Worker) UpsertVector(collection, id string, vector []float32, metadata map[string]string, content string) error {
	res := make(chan error, 1)
	w.inbox <- Request{
		Op: OpUpsertVector,
		Payload: UpsertVectorPayload{
			Collection: collection,
			ID:         id,
			Vector:     vector,
			Metadata:   metadata,
			Content:    content,
		},
		Result: res,
	}
	return <-res
}

func (w *Worker) SearchVectors(collection string, vector []float32, limit int) ([]VectorResult, error) {
	res := make(chan error, 1)
	resp := make(chan interface{}, 1)
	w.inbox <- Request{
		Op: OpSearchVectors,
		Payload: SearchVectorsPayload{
			Collection: collection,
			Vector:     vector,
			Limit:      limit,
		},
		Result:   res,
		Response: resp,
	}
	if err := <-res; err != nil {
		return nil, err
	}
	val := <-resp
	return val.([]VectorResult), nil
}

func (w *Worker) Stop() {
	close(w.quit)
	w.wg.Wait()

	if w.fileLock.IsLocked() {
		w.fileLock.Unlock()
	}
}

func (w *Worker) IsRunning() bool {
	return w.fileLock.IsLocked() && w.running.Load()
}
