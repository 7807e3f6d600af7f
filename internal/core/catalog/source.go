package catalog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"virtual-kitchen/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// 目錄集合名稱
const (
	CollectionIngredients = "ingredients"
	CollectionCookware    = "cookware"
	CollectionUtensils    = "utensils"
)

// Collections 載入順序
var Collections = []string{CollectionIngredients, CollectionCookware, CollectionUtensils}

// Source 目錄資料來源，依名稱回傳原始 JSON
type Source interface {
	Fetch(ctx context.Context, collection string) ([]byte, error)
}

// FileSource 從資料目錄讀取 <collection>.json
type FileSource struct {
	Dir string
}

// NewFileSource 創建檔案來源
func NewFileSource(dir string) *FileSource {
	return &FileSource{Dir: dir}
}

// Fetch 讀取集合檔案
func (s *FileSource) Fetch(ctx context.Context, collection string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.Dir, collection+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// HTTPSource 從遠端目錄伺服器的 /api/<collection> 讀取
type HTTPSource struct {
	client *resty.Client
}

// NewHTTPSource 創建 HTTP 來源
func NewHTTPSource(baseURL string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &HTTPSource{client: client}
}

// Fetch 發送 GET 請求取得集合
func (s *HTTPSource) Fetch(ctx context.Context, collection string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/api/" + collection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", collection, err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogWarn("目錄伺服器回傳錯誤",
			zap.String("collection", collection),
			zap.Int("status_code", resp.StatusCode()),
		)
		return nil, fmt.Errorf("catalog server returned %d for %s", resp.StatusCode(), collection)
	}

	return resp.Body(), nil
}
