// Package publish syncs a built or exported catalog to an S3 bucket and
// invalidates the CloudFront distribution in front of it.
package publish

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aellingwood/cardforge/internal/config"
)

// Config holds publishing configuration.
type Config struct {
	Bucket         string
	Prefix         string // key prefix inside the bucket, e.g. "catalogs/spring"
	DistributionID string // CloudFront distribution ID (optional)
	DryRun         bool
}

// FromConfig builds a Config from the catalog's publish section.
func FromConfig(c config.PublishConfig, dryRun bool) Config {
	return Config{
		Bucket:         c.Bucket,
		Prefix:         c.Prefix,
		DistributionID: c.DistributionID,
		DryRun:         dryRun,
	}
}

// Action is one planned or performed change.
type Action struct {
	Op  string // "upload", "delete" or "invalidate"
	Key string
}

// Result holds the results of a publish.
type Result struct {
	Uploaded    int
	Deleted     int
	Skipped     int
	Invalidated bool
	Actions     []Action
	Errors      []error
}

// FileEntry represents a local file to publish.
type FileEntry struct {
	Path         string // relative path from the output dir (e.g. "valve.html")
	Key          string // object key, Path under the configured prefix
	ContentType  string // MIME type
	CacheControl string // Cache-Control header value
	Hash         string // hex-encoded MD5, comparable with a single-part ETag
}

// S3Client is an interface for S3 operations used during publishing.
type S3Client interface {
	PutObject(ctx context.Context, key string, body io.Reader, contentType, cacheControl string) error
	DeleteObject(ctx context.Context, key string) error
	ListObjects(ctx context.Context, prefix string) (map[string]string, error) // returns key -> ETag
}

// CloudFrontClient is an interface for CloudFront operations.
type CloudFrontClient interface {
	CreateInvalidation(ctx context.Context, distributionID string, paths []string) error
}

// ContentTypeForExt returns the MIME type for a file extension.
// The ext parameter should include the leading dot (e.g. ".html").
func ContentTypeForExt(ext string) string {
	ext = strings.ToLower(ext)

	// Well-known types that we want to be explicit about
	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js", ".mjs":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".ico":
		return "image/x-icon"
	case ".woff2":
		return "font/woff2"
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".txt":
		return "text/plain; charset=utf-8"
	}

	// Fall back to the standard library
	ct := mime.TypeByExtension(ext)
	if ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// CacheControlForExt returns the Cache-Control header for a file extension.
// The ext parameter should include the leading dot (e.g. ".html").
//
// Policy:
//   - HTML pages and the search index: "public, max-age=0, must-revalidate"
//   - Images: "public, max-age=86400"
//   - Other files (PDF exports, archives): "public, max-age=3600"
func CacheControlForExt(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".html", ".htm", ".json":
		return "public, max-age=0, must-revalidate"
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg", ".ico":
		return "public, max-age=86400"
	default:
		return "public, max-age=3600"
	}
}

// HashFile computes the MD5 hash of a file and returns it as a hex string.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening file for hashing: %w", err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ObjectKey joins prefix and a slash-separated relative path.
func ObjectKey(prefix, rel string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return rel
	}
	return path.Join(prefix, rel)
}

// ScanFiles walks dir and returns a FileEntry per file, sorted by path.
// It determines Content-Type from file extension and sets Cache-Control
// based on the file type.
func ScanFiles(dir, prefix string) ([]FileEntry, error) {
	var entries []FileEntry

	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("computing relative path: %w", err)
		}
		// Normalize to forward slashes for S3 keys
		relPath = filepath.ToSlash(relPath)

		ext := filepath.Ext(p)
		hash, err := HashFile(p)
		if err != nil {
			return err
		}

		entries = append(entries, FileEntry{
			Path:         relPath,
			Key:          ObjectKey(prefix, relPath),
			ContentType:  ContentTypeForExt(ext),
			CacheControl: CacheControlForExt(ext),
			Hash:         hash,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning files: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// DiffFiles compares local files against a map of remote object ETags.
// Returns the files to upload (new or changed) and the keys to delete
// (remote only), both sorted. Multipart ETags never equal an MD5, so such
// objects are always re-uploaded.
func DiffFiles(local []FileEntry, remote map[string]string) (toUpload []FileEntry, toDelete []string) {
	localKeys := make(map[string]bool, len(local))
	for _, entry := range local {
		localKeys[entry.Key] = true
		etag, exists := remote[entry.Key]
		if !exists || !strings.EqualFold(etag, entry.Hash) {
			toUpload = append(toUpload, entry)
		}
	}

	for key := range remote {
		if !localKeys[key] {
			toDelete = append(toDelete, key)
		}
	}
	sort.Strings(toDelete)

	return toUpload, toDelete
}

// InvalidationPaths returns the CloudFront paths covering prefix.
func InvalidationPaths(prefix string) []string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return []string{"/*"}
	}
	return []string{"/" + prefix + "/*"}
}

// Publish syncs dir to the bucket using the provided clients.
//
// Steps:
//  1. Scan local files
//  2. List remote objects under the prefix
//  3. Diff to find uploads and deletes
//  4. If DryRun, record the plan and return
//  5. Upload new/changed files
//  6. Delete removed files
//  7. If a distribution is set and anything changed, invalidate it
func Publish(ctx context.Context, cfg Config, dir string, s3 S3Client, cf CloudFrontClient, log zerolog.Logger) (*Result, error) {
	result := &Result{}

	// 1. Scan local files
	localFiles, err := ScanFiles(dir, cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("scanning local files: %w", err)
	}

	// 2. List remote objects
	listPrefix := strings.Trim(cfg.Prefix, "/")
	if listPrefix != "" {
		listPrefix += "/"
	}
	remote, err := s3.ListObjects(ctx, listPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing remote objects: %w", err)
	}

	// 3. Diff
	toUpload, toDelete := DiffFiles(localFiles, remote)
	result.Skipped = len(localFiles) - len(toUpload)
	changed := len(toUpload)+len(toDelete) > 0

	// 4. Dry run
	if cfg.DryRun {
		for _, f := range toUpload {
			result.Actions = append(result.Actions, Action{Op: "upload", Key: f.Key})
		}
		for _, key := range toDelete {
			result.Actions = append(result.Actions, Action{Op: "delete", Key: key})
		}
		if cfg.DistributionID != "" && changed {
			result.Actions = append(result.Actions, Action{Op: "invalidate", Key: cfg.DistributionID})
		}
		result.Uploaded = len(toUpload)
		result.Deleted = len(toDelete)
		log.Info().Int("upload", result.Uploaded).Int("delete", result.Deleted).Int("skip", result.Skipped).Msg("dry run")
		return result, nil
	}

	// 5. Upload new/changed files
	for _, entry := range toUpload {
		fullPath := filepath.Join(dir, filepath.FromSlash(entry.Path))
		f, err := os.Open(fullPath)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("opening %s: %w", entry.Path, err))
			continue
		}

		err = s3.PutObject(ctx, entry.Key, f, entry.ContentType, entry.CacheControl)
		f.Close()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("uploading %s: %w", entry.Path, err))
			continue
		}
		result.Uploaded++
		result.Actions = append(result.Actions, Action{Op: "upload", Key: entry.Key})
		log.Debug().Str("key", entry.Key).Str("content_type", entry.ContentType).Msg("uploaded")
	}

	// 6. Delete removed files
	for _, key := range toDelete {
		if err := s3.DeleteObject(ctx, key); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("deleting %s: %w", key, err))
			continue
		}
		result.Deleted++
		result.Actions = append(result.Actions, Action{Op: "delete", Key: key})
		log.Debug().Str("key", key).Msg("deleted")
	}

	// 7. Invalidate CloudFront if distribution is set
	if cfg.DistributionID != "" && cf != nil && changed {
		if err := cf.CreateInvalidation(ctx, cfg.DistributionID, InvalidationPaths(cfg.Prefix)); err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("CloudFront invalidation: %w", err))
		} else {
			result.Invalidated = true
			result.Actions = append(result.Actions, Action{Op: "invalidate", Key: cfg.DistributionID})
			log.Debug().Str("distribution", cfg.DistributionID).Msg("invalidated")
		}
	}

	log.Info().
		Str("bucket", cfg.Bucket).
		Int("uploaded", result.Uploaded).
		Int("deleted", result.Deleted).
		Int("skipped", result.Skipped).
		Int("errors", len(result.Errors)).
		Msg("publish complete")
	return result, nil
}
