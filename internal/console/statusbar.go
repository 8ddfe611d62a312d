package console

import (
	"context"
	"fmt"

	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// StatusBarPlatform is the native shell hosting the console, when there is one.
type StatusBarPlatform interface {
	IsNative() bool
	Show(ctx context.Context) error
	SetStyle(ctx context.Context, style string) error
	SetBackgroundColor(ctx context.Context, color string) error
	SetOverlaysWebView(ctx context.Context, overlay bool) error
}

// StatusBarStyle is applied once at startup.
type StatusBarStyle struct {
	Style   string
	Color   string
	Overlay bool
}

// DefaultStatusBar uses dark icons on the brand colour.
var DefaultStatusBar = StatusBarStyle{Style: "light", Color: "#f97316", Overlay: false}

// ConfigureStatusBar applies style through platform. It returns
// shared.ErrPlatformUnavailable without side effects when no native platform
// is present; callers treat that as a no-op.
func ConfigureStatusBar(ctx context.Context, platform StatusBarPlatform, style StatusBarStyle) error {
	if platform == nil || !platform.IsNative() {
		return shared.ErrPlatformUnavailable
	}
	if err := platform.Show(ctx); err != nil {
		return fmt.Errorf("console: status bar show: %w", err)
	}
	if err := platform.SetStyle(ctx, style.Style); err != nil {
		return fmt.Errorf("console: status bar style: %w", err)
	}
	if err := platform.SetBackgroundColor(ctx, style.Color); err != nil {
		return fmt.Errorf("console: status bar colour: %w", err)
	}
	if err := platform.SetOverlaysWebView(ctx, style.Overlay); err != nil {
		return fmt.Errorf("console: status bar overlay: %w", err)
	}
	return nil
}
