package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/khliu/go-imagebot-backend/internal/config"
	"github.com/khliu/go-imagebot-backend/internal/generation"
)

func TestRun_InputUnavailable(t *testing.T) {
	content := &fakeContent{err: fmt.Errorf("404 from platform")}
	svc := NewGenerationService(content, &fakeGenerator{}, &fakeHost{}, config.GenerationConfig{})

	_, err := svc.Run(context.Background(), "u1", "img1", "指令")
	if !errors.Is(err, ErrInputUnavailable) {
		t.Fatalf("err = %v; want ErrInputUnavailable", err)
	}
}

func TestRun_GeneratorFailureWrapped(t *testing.T) {
	content := &fakeContent{data: map[string][]byte{"img1": []byte("x")}}
	gen := &fakeGenerator{err: fmt.Errorf("timeout")}
	svc := NewGenerationService(content, gen, &fakeHost{}, config.GenerationConfig{Timeout: time.Second})

	_, err := svc.Run(context.Background(), "u1", "img1", "指令")
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("err = %v; want ErrGenerationFailed", err)
	}
}

func TestRun_URLResultPassesThrough(t *testing.T) {
	content := &fakeContent{data: map[string][]byte{"img1": []byte("x")}}
	gen := &fakeGenerator{body: []byte(`{"choices":[{"message":{"images":["https://img.example/a.png"]}}]}`)}
	host := &fakeHost{configured: true}
	svc := NewGenerationService(content, gen, host, config.GenerationConfig{})

	res, err := svc.Run(context.Background(), "u1", "img1", "指令")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != generation.KindURL || res.URL != "https://img.example/a.png" {
		t.Fatalf("res = %+v", res)
	}
	if host.uploaded != nil {
		t.Fatal("URL result went through the host")
	}
}

func TestRun_UnconfiguredHostDegradesBytesToText(t *testing.T) {
	content := &fakeContent{data: map[string][]byte{"img1": []byte("x")}}
	gen := &fakeGenerator{body: []byte(`{"choices":[{"message":{"content":"data:image/png;base64,QUJD"}}]}`)}
	svc := NewGenerationService(content, gen, &fakeHost{configured: false}, config.GenerationConfig{})

	res, err := svc.Run(context.Background(), "u1", "img1", "指令")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != generation.KindText || res.Text != msgHostingFailed {
		t.Fatalf("res = %+v; want hosting-failed text", res)
	}
}

func TestRun_TextReplyStaysText(t *testing.T) {
	content := &fakeContent{data: map[string][]byte{"img1": []byte("x")}}
	gen := &fakeGenerator{body: []byte(`{"choices":[{"message":{"content":"安全政策不允許這張圖片"}}]}`)}
	svc := NewGenerationService(content, gen, &fakeHost{configured: true}, config.GenerationConfig{})

	res, err := svc.Run(context.Background(), "u1", "img1", "指令")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Kind != generation.KindText || res.Text != "安全政策不允許這張圖片" {
		t.Fatalf("res = %+v", res)
	}
}

func TestIsUserFacing(t *testing.T) {
	facing := []error{
		ErrInputUnavailable,
		fmt.Errorf("wrap: %w", ErrGenerationFailed),
		ErrPaymentFailed,
	}
	for _, err := range facing {
		if !IsUserFacing(err) {
			t.Errorf("IsUserFacing(%v) = false", err)
		}
	}
	if IsUserFacing(fmt.Errorf("disk full")) {
		t.Error("internal fault reported user-facing")
	}
}
