package lode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
)

func TestClassifyError(t *testing.T) {
	archiveFile := "/var/lib/wearlink/archive/wearlink_autosync/device=pixel-8/day=2026-10-14/status=success/part-0.jsonl"
	s3Err := func(op string, code int, detail string) error {
		return fmt.Errorf("operation error S3: %s, https response error StatusCode: %d, api error %s", op, code, detail)
	}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"fs permission", &os.PathError{Op: "open", Path: archiveFile, Err: syscall.EACCES}, ErrPermissionDenied},
		{"fs disk full", &os.PathError{Op: "write", Path: archiveFile, Err: syscall.ENOSPC}, ErrDiskFull},
		{"fs missing root", &os.PathError{Op: "stat", Path: "/var/lib/wearlink/archive", Err: syscall.ENOENT}, ErrNotFound},
		{"write deadline", fmt.Errorf("archive run: %w", context.DeadlineExceeded), ErrTimeout},
		{"s3 access denied", s3Err("PutObject", 403, "AccessDenied: Access Denied"), ErrAccessDenied},
		{"s3 missing manifest", s3Err("GetObject", 404, "NoSuchKey: The specified key does not exist."), ErrNotFound},
		{"s3 slow down", s3Err("PutObject", 503, "SlowDown: Please reduce your request rate."), ErrThrottled},
		{"s3 too many requests", s3Err("ListObjectsV2", 429, "TooManyRequests"), ErrThrottled},
		{"s3 expired token", s3Err("PutObject", 400, "ExpiredToken: The provided token has expired."), ErrAuth},
		{"s3 no credentials", errors.New("operation error S3: PutObject, get identity: get credentials: failed to refresh cached credentials"), ErrAuth},
		{"minio refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, ErrNetwork},
		{"minio unknown host", errors.New("dial tcp: lookup minio.local: no such host"), ErrNetwork},
		{"codec failure", errors.New("jsonl: encode record: unsupported value"), ErrUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); got != tt.want {
				t.Errorf("classifyError(%q) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	got := classifyError(nil)
	if got != nil {
		t.Errorf("classifyError(nil) = %v, want nil", got)
	}
}

func TestWrap_KeepsChainAndKind(t *testing.T) {
	cause := errors.New("open /archive/device=a: permission denied")
	err := WrapWriteError(cause, "wearlink_autosync/device=a")

	if !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("errors.Is(ErrPermissionDenied) = false for %v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("cause dropped from chain")
	}
	var se *StorageError
	if !errors.As(err, &se) || se.Op != "write" {
		t.Fatalf("errors.As StorageError failed: %v", err)
	}
	want := "write wearlink_autosync/device=a: permission denied: " + cause.Error()
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if WrapReadError(nil, "x") != nil || WrapInitError(nil, "x") != nil {
		t.Error("nil errors must stay nil")
	}
	if err := WrapInitError(errors.New("boom"), "ds"); err.Error() != "init ds: storage error: boom" {
		t.Errorf("init error = %q", err.Error())
	}
}
