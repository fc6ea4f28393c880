// Package photostore 封装训练营照片的二进制存储
//
// 两种后端：本地磁盘（缺省）和 MinIO 对象存储，通过配置选择。
// 文件名由调用方按 photo_<bootcampId>.<ext> 规则生成，重试上传
// 自然覆盖同名对象而不会产生副本。
package photostore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store 照片存储接口
type Store interface {
	// Save 写入照片，同名覆盖
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
}

// ============================================================================
// 磁盘后端
// ============================================================================

// DiskStore 本地磁盘照片存储
type DiskStore struct {
	dir string
}

// NewDiskStore 创建磁盘存储，目录不存在时创建
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("photostore: upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("photostore: create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save 流式写入文件；先写临时文件再原子改名，半成品不会被读到
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("photostore: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("photostore: write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("photostore: close temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, filepath.Base(name))); err != nil {
		return fmt.Errorf("photostore: rename %s: %w", name, err)
	}
	return nil
}
