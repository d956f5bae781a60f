package storage

import (
	"context"
	"log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// OrphanedUploads 补偿删除失败、残留在对象存储中的上传
var OrphanedUploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "portal_orphaned_uploads_total",
	Help: "Uploads left in object storage after a failed store write and a failed compensating delete.",
}, []string{"route"})

// Compensate 尽力删除已上传的对象，失败时记录为孤儿上传，不重试
func Compensate(ctx context.Context, provider Provider, route, key string) error {
	// 请求可能已被取消，补偿删除不随之取消
	ctx = context.WithoutCancel(ctx)
	if err := provider.Delete(ctx, key); err != nil {
		OrphanedUploads.WithLabelValues(route).Inc()
		log.Printf("[Storage] orphaned upload: route=%s key=%s: %v", route, key, err)
		return err
	}
	log.Printf("[Storage] Removed %s after failed store write", key)
	return nil
}
