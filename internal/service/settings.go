package service

import (
	"fmt"
	"strconv"

	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Settings: window size and last open page
// ─────────────────────────────────────────────────────────────

// WindowSize holds the saved window dimensions.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SettingsService persists UI state between sessions in app_settings.
type SettingsService struct {
	store *storage.SettingsStore
}

func NewSettingsService(store *storage.SettingsStore) *SettingsService {
	return &SettingsService{store: store}
}

const (
	settingWindowWidth  = "window_width"
	settingWindowHeight = "window_height"
	settingLastPage     = "last_page_id"
	defaultWindowWidth  = 1280
	defaultWindowHeight = 800
	minWindowWidth      = 800
	minWindowHeight     = 600
)

// LoadWindowSize returns the saved window dimensions, or defaults.
func (s *SettingsService) LoadWindowSize() WindowSize {
	size := WindowSize{Width: defaultWindowWidth, Height: defaultWindowHeight}
	if s == nil || s.store == nil {
		return size
	}
	if w := s.intSetting(settingWindowWidth); w >= minWindowWidth {
		size.Width = w
	}
	if h := s.intSetting(settingWindowHeight); h >= minWindowHeight {
		size.Height = h
	}
	return size
}

// SaveWindowSize persists the current window dimensions.
func (s *SettingsService) SaveWindowSize(width, height int) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("window settings: no db")
	}
	if err := s.store.Set(settingWindowWidth, strconv.Itoa(width)); err != nil {
		return err
	}
	return s.store.Set(settingWindowHeight, strconv.Itoa(height))
}

// LastPage returns the page open when the app last closed.
func (s *SettingsService) LastPage() string {
	v, _, _ := s.store.Get(settingLastPage)
	return v
}

func (s *SettingsService) SetLastPage(pageID string) error {
	return s.store.Set(settingLastPage, pageID)
}

func (s *SettingsService) intSetting(key string) int {
	v, ok, err := s.store.Get(key)
	if err != nil || !ok {
		return 0
	}
	n, _ := strconv.Atoi(v)
	return n
}
