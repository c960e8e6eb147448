// Package config loads the OAuth client credentials, either straight from
// the environment or from a JSON file that is re-read whenever it changes on
// disk, so secrets can be rotated without a restart.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Credentials are the OAuth client id/secret pair registered with the remote
// service.
type Credentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

func (c Credentials) validate() error {
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("client_id is empty")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		return errors.New("client_secret is empty")
	}
	return nil
}

// CredentialsFromEnv reads NOTIONSYNC_CLIENT_ID / NOTIONSYNC_CLIENT_SECRET.
func CredentialsFromEnv() (Credentials, error) {
	creds := Credentials{
		ClientID:     strings.TrimSpace(os.Getenv("NOTIONSYNC_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("NOTIONSYNC_CLIENT_SECRET")),
	}
	if err := creds.validate(); err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

// CredentialsWatcher serves the current credentials from a JSON file and
// keeps them fresh via a filesystem watch. A write that fails to parse keeps
// the previous credentials in place.
type CredentialsWatcher struct {
	path    string
	logger  *log.Logger
	watcher *fsnotify.Watcher

	mu      sync.RWMutex
	current Credentials

	closeOnce sync.Once
	done      chan struct{}
}

func NewCredentialsWatcher(path string, logger *log.Logger) (*CredentialsWatcher, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("credentials path is empty")
	}
	if logger == nil {
		logger = log.Default()
	}
	initial, err := readCredentialsFile(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("start credentials watcher: %w", err)
	}
	// Watch the directory, not the file: editors and secret managers
	// replace the file via rename, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch credentials dir: %w", err)
	}

	w := &CredentialsWatcher{
		path:    path,
		logger:  logger,
		watcher: watcher,
		current: initial,
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Current returns the most recently loaded credentials.
func (w *CredentialsWatcher) Current() Credentials {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *CredentialsWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
	})
	return err
}

func (w *CredentialsWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			creds, err := readCredentialsFile(w.path)
			if err != nil {
				w.logger.Printf("credentials reload skipped: %v", err)
				continue
			}
			w.mu.Lock()
			w.current = creds
			w.mu.Unlock()
			w.logger.Printf("credentials reloaded from %s", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Printf("credentials watcher error: %v", err)
		}
	}
}

func readCredentialsFile(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("read credentials file: %w", err)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials file: %w", err)
	}
	if err := creds.validate(); err != nil {
		return Credentials{}, fmt.Errorf("credentials file %s: %w", path, err)
	}
	return creds, nil
}
