package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/JoeShih716/go-double-entry-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-double-entry-ledger/pkg/wal"
)

// ErrSequencerClosed 引擎已關閉，不再接收請求
var ErrSequencerClosed = errors.New("sequencer closed")

const defaultQueueSize = 1000

// atomicRequest 請求包裝 channel，讓 Atomic 可以等待結果
type atomicRequest struct {
	ctx    context.Context
	fn     func(ctx context.Context, tx usecase.LedgerTx) error
	result chan error
}

// SequencerStore 單一 goroutine 依序處理所有過帳 (LMAX 風格)
//
// Atomic(等待) -> Channel -> Run Loop (核心) -> WAL -> Map Update -> Result Channel -> Atomic(收到結果)
//
// 必須先呼叫 Start，否則 Atomic 會一直等待。
type SequencerStore struct {
	*state
	// 輸送帶 負責接收請求
	requests chan *atomicRequest
	// Pool 減少 GC 壓力
	requestPool sync.Pool

	mu      sync.RWMutex
	closed  bool
	sealed  chan struct{}
	stopped chan struct{}
}

// NewSequencerStore 建立一個新的 SequencerStore 實例
//
// 參數:
//
//	w: Write-Ahead Log 實例，nil 表示不落地
//	queueSize: 輸送帶容量，<= 0 使用預設值
//
// 回傳:
//
//	*SequencerStore: SequencerStore 實例
//	error: 初始化錯誤
func NewSequencerStore(w *wal.WAL, queueSize int) (*SequencerStore, error) {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	// 在啟動前先恢復資料
	st, err := newState(w)
	if err != nil {
		return nil, err
	}
	return &SequencerStore{
		state:    st,
		requests: make(chan *atomicRequest, queueSize),
		requestPool: sync.Pool{
			New: func() any {
				return &atomicRequest{result: make(chan error, 1)}
			},
		},
		sealed:  make(chan struct{}),
		stopped: make(chan struct{}),
	}, nil
}

// Start 啟動核心引擎 (非同步)，ctx 結束後處理完剩下的請求才停止
func (s *SequencerStore) Start(ctx context.Context) {
	go s.run(ctx)
}

// Done 引擎完全停止後關閉
func (s *SequencerStore) Done() <-chan struct{} {
	return s.stopped
}

// Atomic 將請求放上輸送帶並等待結果
func (s *SequencerStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) error {
	req := s.requestPool.Get().(*atomicRequest)
	req.ctx, req.fn = ctx, fn

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		s.release(req)
		return ErrSequencerClosed
	}
	select {
	case s.requests <- req:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		s.release(req)
		return ctx.Err()
	}

	// 已送上輸送帶的請求一定會被處理 (含關閉時的 drain)
	err := <-req.result
	s.release(req)
	return err
}

func (s *SequencerStore) release(req *atomicRequest) {
	req.ctx, req.fn = nil, nil
	s.requestPool.Put(req)
}

func (s *SequencerStore) run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			// 收到關閉信號：先擋掉新請求，再把剩下的處理完
			go s.seal()
			s.drainUntilSealed()
			return
		case req := <-s.requests:
			s.process(req)
		}
	}
}

// seal 等所有正在送件的 Atomic 離開後標記關閉
func (s *SequencerStore) seal() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	close(s.sealed)
}

func (s *SequencerStore) drainUntilSealed() {
	for {
		select {
		case req := <-s.requests:
			s.process(req)
		case <-s.sealed:
			s.drain()
			return
		}
	}
}

func (s *SequencerStore) drain() {
	for {
		select {
		case req := <-s.requests:
			s.process(req)
		default:
			return
		}
	}
}

// process 處理單筆請求並回傳結果
func (s *SequencerStore) process(req *atomicRequest) {
	req.result <- s.execute(req.ctx, req.fn)
}

func (s *SequencerStore) execute(ctx context.Context, fn func(ctx context.Context, tx usecase.LedgerTx) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sequencer: posting panicked: %v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newStagedTx(s.state)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.commit(ctx)
}

var _ usecase.LedgerStore = (*SequencerStore)(nil)
