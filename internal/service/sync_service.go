package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/karvel/traindesk/config"
	"github.com/rs/zerolog/log"
)

// Collection keys understood by the remote mirror.
const (
	SyncKeyTests       = "tests"
	SyncKeySubmissions = "submissions"
	SyncKeyRecords     = "records"
	SyncKeyRosters     = "rosters"
	SyncKeySessions    = "sessions"
)

// SyncService pushes changed collections to the remote mirror. force=true
// overwrites remote state unconditionally; force=false asks the remote to
// merge so concurrent writers are not clobbered. Trainee submissions use
// merge; admin retake and delete actions use force. A push failure is never
// fatal: local state has already been committed, the failure is logged and
// reported to the caller.
type SyncService interface {
	Push(ctx context.Context, keys []string, force bool) error
}

type syncService struct {
	cfg    *config.Config
	client *http.Client
}

func NewSyncService(cfg *config.Config) SyncService {
	timeout := time.Duration(cfg.Sync.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if cfg.Sync.URL == "" {
		log.Warn().Msg("SYNC_URL is not set. Remote mirror pushes are disabled.")
	}
	return &syncService{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type pushRequest struct {
	Keys  []string `json:"keys"`
	Force bool     `json:"force"`
}

func (s *syncService) Push(ctx context.Context, keys []string, force bool) error {
	if s.cfg.Sync.URL == "" {
		return nil
	}

	body, err := json.Marshal(pushRequest{Keys: keys, Force: force})
	if err != nil {
		return fmt.Errorf("encoding sync push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.Sync.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building sync push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.Sync.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Sync.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Strs("keys", keys).Bool("force", force).Msg("Remote sync push failed")
		return fmt.Errorf("sync push failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn().Int("status", resp.StatusCode).Strs("keys", keys).Msg("Remote sync push rejected")
		return fmt.Errorf("sync push rejected with status %d", resp.StatusCode)
	}

	log.Info().Strs("keys", keys).Bool("force", force).Msg("Remote sync push completed")
	return nil
}
