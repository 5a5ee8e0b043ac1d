// internals/helpers/oss/oss_client.go
package helper

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"go.uber.org/zap"
)

// Store persists uploaded objects and returns their public URL.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

type Options struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	SecurityToken string
	Bucket        string
	PublicBase    string
	Prefix        string

	// local fallback
	Dir     string
	BaseURL string
}

func (o Options) ossConfigured() bool {
	return o.Endpoint != "" && o.AccessKey != "" && o.SecretKey != "" && o.Bucket != ""
}

// NewStore picks Aliyun OSS when its credentials are present and the local
// upload directory otherwise.
func NewStore(o Options) (Store, error) {
	if o.ossConfigured() {
		return NewOSSStore(o)
	}
	zap.L().Info("[STORAGE] ALI_OSS_* not set, storing uploads on disk", zap.String("dir", o.Dir))
	return NewLocalStore(o.Dir, o.BaseURL, o.Prefix)
}

/* =======================================================================
   Aliyun OSS
======================================================================= */

type OSSStore struct {
	Client     *oss.Client
	Bucket     *oss.Bucket
	Endpoint   string
	BucketName string
	PublicBase string
	Prefix     string
}

func NewOSSStore(o Options) (*OSSStore, error) {
	if !o.ossConfigured() {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}

	var (
		client *oss.Client
		err    error
	)
	if o.SecurityToken != "" {
		client, err = oss.New(o.Endpoint, o.AccessKey, o.SecretKey, oss.SecurityToken(o.SecurityToken))
	} else {
		client, err = oss.New(o.Endpoint, o.AccessKey, o.SecretKey)
	}
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bkt, err := client.Bucket(o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	if loc, err := client.GetBucketLocation(o.Bucket); err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 403 && se.Code == "AccessDenied" {
			zap.L().Warn("[OSS] skip location check due to AccessDenied", zap.String("bucket", o.Bucket))
		} else {
			return nil, fmt.Errorf("verify bucket: %w", err)
		}
	} else {
		zap.L().Info("[OSS] bucket ready", zap.String("bucket", o.Bucket), zap.String("location", loc))
	}

	return &OSSStore{
		Client:     client,
		Bucket:     bkt,
		Endpoint:   o.Endpoint,
		BucketName: o.Bucket,
		PublicBase: o.PublicBase,
		Prefix:     strings.Trim(o.Prefix, "/"),
	}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	key = joinKey(s.Prefix, key)
	opts := []oss.Option{
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := s.Bucket.PutObject(key, bytes.NewReader(data), opts...); err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

func (s *OSSStore) Delete(ctx context.Context, key string) error {
	return s.Bucket.DeleteObject(joinKey(s.Prefix, key))
}

func (s *OSSStore) PublicURL(key string) string {
	if key == "" {
		return ""
	}
	if base := strings.TrimSpace(s.PublicBase); base != "" {
		return strings.TrimRight(base, "/") + "/" + key
	}
	end := strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s/%s", s.BucketName, end, key)
}

/* =======================================================================
   Local disk
======================================================================= */

type LocalStore struct {
	Dir     string
	BaseURL string
	Prefix  string
}

func NewLocalStore(dir, baseURL, prefix string) (*LocalStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("upload dir is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), Prefix: strings.Trim(prefix, "/")}, nil
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.Dir, filepath.FromSlash(joinKey(s.Prefix, key)))
}

func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return s.BaseURL + "/uploads/" + joinKey(s.Prefix, key), nil
}

func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

/* =======================================================================
   Key utils
======================================================================= */

// ObjectKey builds "<dir>/<slug>_<yyyymmdd_hhmmss>_<rand><ext>".
func ObjectKey(dir, filename, ext string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	ts := time.Now().Format("20060102_150405")
	return joinKey(dir, fmt.Sprintf("%s_%s_%s%s", Slugify(base), ts, randHex(3), ext))
}

func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(" ", "-", "_", "-", ".", "-")
	s = r.Replace(s)
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	s = strings.Trim(s, "-")
	if s == "" {
		return "file"
	}
	return s
}

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func joinKey(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
