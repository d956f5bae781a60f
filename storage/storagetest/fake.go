// Package storagetest 提供测试用的内存对象存储
package storagetest

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cohortlab/mba-portal/storage"
)

// Fake 内存对象存储，记录调用次数
type Fake struct {
	SaveErr   error
	DeleteErr error

	mu      sync.Mutex
	objects map[string][]byte
	saves   int
	deletes int
}

func New() *Fake {
	return &Fake{objects: make(map[string][]byte)}
}

func (f *Fake) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*storage.Object, error) {
	f.mu.Lock()
	f.saves++
	f.mu.Unlock()

	if f.SaveErr != nil {
		return nil, f.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()

	return &storage.Object{
		Key:         key,
		URL:         "https://cdn.test/" + key,
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

func (f *Fake) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++

	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	delete(f.objects, key)
	return nil
}

func (f *Fake) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok, nil
}

func (f *Fake) Health(ctx context.Context) error { return nil }

func (f *Fake) Name() string { return "fake" }

// Saves 返回 Save 调用次数
func (f *Fake) Saves() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

// Deletes 返回 Delete 调用次数
func (f *Fake) Deletes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deletes
}

// Objects 返回当前保存的对象数量
func (f *Fake) Objects() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

// Get 返回对象内容
func (f *Fake) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}
