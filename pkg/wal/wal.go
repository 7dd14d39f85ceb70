package wal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

// 自己定義常用的權限常量
const (
	// rw-r--r-- (擁有者讀寫，其他人唯讀) - 適用於大多數檔案
	FileModeReadOnly fs.FileMode = 0644

	// rw------- (只有擁有者可讀寫) - 適用於私鑰、機密檔
	FileModePrivate fs.FileMode = 0600
)

// ErrBroken 寫入失敗且無法截回失敗前的長度，WAL 不再接受寫入
var ErrBroken = errors.New("wal is broken")

// logFile WAL 底層檔案需要的操作，*os.File 即滿足
type logFile interface {
	io.ReadWriteSeeker
	Sync() error
	Truncate(size int64) error
	Close() error
}

// WAL 以 JSON Lines 格式追加寫入的 Write-Ahead Log
// 每筆紀錄一行，寫入後立即 fsync
type WAL struct {
	file   logFile
	mu     sync.Mutex
	broken error
}

// NewWAL 開啟或建立一個 WAL 檔案
// O_RDWR讀寫模式
// O_APPEND 每次寫入時自動跳到文件末尾
// O_CREATE 如果文件不存在則建立
func NewWAL(path string) (*WAL, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_RDWR, FileModeReadOnly)
	if err != nil {
		return nil, fmt.Errorf("open wal %s: %w", path, err)
	}
	return newWAL(file), nil
}

func newWAL(file logFile) *WAL {
	return &WAL{file: file}
}

// Write 寫入一筆資料並刷入硬碟
// 整筆紀錄先編碼成一行再一次寫出，避免與其他寫入交錯
//
// 寫入或 fsync 失敗時把檔案截回寫入前的長度：回報失敗的紀錄不能在重啟後被重播，
// 寫了一半的行也不能留在檔案中間。截不回去就標記損毀，之後的寫入一律回傳 ErrBroken。
func (w *WAL) Write(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.broken != nil {
		return fmt.Errorf("%w: %w", ErrBroken, w.broken)
	}

	size, err := w.file.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := w.file.Write(line); err != nil {
		return w.rollback(size, err)
	}
	if err := w.file.Sync(); err != nil {
		return w.rollback(size, err)
	}
	return nil
}

// rollback 截回 size 並刷入硬碟，必須持有鎖
func (w *WAL) rollback(size int64, cause error) error {
	err := w.file.Truncate(size)
	if err == nil {
		err = w.file.Sync()
	}
	if err != nil {
		w.broken = errors.Join(cause, err)
		return fmt.Errorf("%w: %w", ErrBroken, w.broken)
	}
	return cause
}

// Close 關閉檔案
func (w *WAL) Close() error {
	return w.file.Close()
}

// ReadAll 讀取所有資料
// callback 是一個函式，每次接收一行 JSON
// 這樣可以避免一次將所有資料載入記憶體
//
// 最後一行若沒有換行符號代表寫到一半就當機 (torn write)，該筆從未回報成功：
// 直接截掉，後續追加的紀錄才不會接在殘缺的行後面。
func (w *WAL) ReadAll(callback func(jsonRaw []byte) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	// 確保從頭讀取
	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	reader := bufio.NewReader(w.file)
	var offset int64
	for {
		line, err := reader.ReadBytes('\n')
		if errors.Is(err, io.EOF) {
			if len(line) > 0 {
				return w.file.Truncate(offset)
			}
			return nil
		}
		if err != nil {
			return err
		}
		offset += int64(len(line))
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := callback(line); err != nil {
			return err
		}
	}
}
