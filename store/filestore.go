package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inkforge/content"
)

// FileStore lays sessions out as one directory per session under root:
//
//	<root>/<id>/session.json      request and start time
//	<root>/<id>/attempt-001.json  one file per attempt, append-only
//	<root>/<id>/final.json        terminal content and status
//
// Session IDs start with a UTC timestamp, so lexical order is creation
// order. Every file is written to a temp name and renamed into place; a
// partially written record can never be mistaken for a complete one.
// Distinct sessions never share a directory, so concurrent sessions are
// safe without locking.
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore creates the root directory if needed.
func NewFileStore(root string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create session root: %w", err)
	}
	return &FileStore{root: root, logger: logger}, nil
}

// NewSessionID returns a sortable timestamp-derived identifier with a
// short random suffix to disambiguate sessions started in the same second.
func NewSessionID(now time.Time) string {
	return now.UTC().Format("20060102T150405") + "-" + uuid.NewString()[:8]
}

type sessionHeader struct {
	ID        string          `json:"id"`
	Request   content.Request `json:"request"`
	StartedAt time.Time       `json:"started_at"`
}

type sessionFooter struct {
	Status            content.Status   `json:"status"`
	AbortReason       string           `json:"abort_reason,omitempty"`
	TransientFailures int              `json:"transient_failures"`
	Content           *content.Content `json:"content,omitempty"`
	FinishedAt        *time.Time       `json:"finished_at,omitempty"`
}

func (s *FileStore) Begin(sess *content.Session) error {
	dir := filepath.Join(s.root, sess.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	hdr := sessionHeader{ID: sess.ID, Request: sess.Request, StartedAt: sess.StartedAt}
	if err := s.writeJSON(dir, "session.json", hdr); err != nil {
		return err
	}
	s.logger.Debug("session opened", zap.String("session", sess.ID))
	return nil
}

func (s *FileStore) Record(sessionID string, att content.Attempt) error {
	dir := filepath.Join(s.root, sessionID)
	name := fmt.Sprintf("attempt-%03d.json", att.Index)
	if err := s.writeJSON(dir, name, att); err != nil {
		return err
	}
	s.logger.Debug("attempt recorded",
		zap.String("session", sessionID),
		zap.Int("attempt", att.Index),
		zap.Float64("score", att.Score.Overall),
		zap.Bool("accepted", att.Accepted))
	return nil
}

func (s *FileStore) Finalize(sess *content.Session) error {
	dir := filepath.Join(s.root, sess.ID)
	ftr := sessionFooter{
		Status:            sess.Status,
		AbortReason:       sess.AbortReason,
		TransientFailures: sess.TransientFailures,
		Content:           sess.Content,
		FinishedAt:        sess.FinishedAt,
	}
	if err := s.writeJSON(dir, "final.json", ftr); err != nil {
		return err
	}
	s.logger.Info("session finalized",
		zap.String("session", sess.ID),
		zap.String("status", string(sess.Status)),
		zap.Int("attempts", len(sess.Attempts)))
	return nil
}

func (s *FileStore) ListSessions() ([]SessionInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read session root: %w", err)
	}

	var infos []SessionInfo
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dir := filepath.Join(s.root, e.Name())

		var hdr sessionHeader
		if err := readJSON(filepath.Join(dir, "session.json"), &hdr); err != nil {
			continue
		}
		info := SessionInfo{
			ID:        hdr.ID,
			Topic:     hdr.Request.Topic,
			Status:    content.StatusRunning,
			StartedAt: hdr.StartedAt,
		}
		var ftr sessionFooter
		if err := readJSON(filepath.Join(dir, "final.json"), &ftr); err == nil {
			info.Status = ftr.Status
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (s *FileStore) Load(sessionID string) (*content.Session, error) {
	dir := filepath.Join(s.root, sessionID)

	var hdr sessionHeader
	if err := readJSON(filepath.Join(dir, "session.json"), &hdr); err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}

	sess := &content.Session{
		ID:        hdr.ID,
		Request:   hdr.Request,
		Status:    content.StatusRunning,
		StartedAt: hdr.StartedAt,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	var attemptFiles []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "attempt-") && strings.HasSuffix(e.Name(), ".json") {
			attemptFiles = append(attemptFiles, e.Name())
		}
	}
	sort.Strings(attemptFiles)
	for _, name := range attemptFiles {
		var att content.Attempt
		if err := readJSON(filepath.Join(dir, name), &att); err != nil {
			return nil, fmt.Errorf("load %s/%s: %w", sessionID, name, err)
		}
		sess.Attempts = append(sess.Attempts, att)
	}

	var ftr sessionFooter
	if err := readJSON(filepath.Join(dir, "final.json"), &ftr); err == nil {
		sess.Status = ftr.Status
		sess.AbortReason = ftr.AbortReason
		sess.TransientFailures = ftr.TransientFailures
		sess.Content = ftr.Content
		sess.FinishedAt = ftr.FinishedAt
	}

	return sess, nil
}

func (s *FileStore) PurgeOlderThan(d time.Duration) (int, error) {
	cutoff := time.Now().Add(-d)
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read session root: %w", err)
	}

	purged := 0
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ts, ok := parseIDTime(e.Name())
		if !ok || !ts.Before(cutoff) {
			continue
		}
		// Rename first so a purge can never leave a half-deleted session
		// visible under its real name.
		dir := filepath.Join(s.root, e.Name())
		trash := filepath.Join(s.root, ".purge-"+e.Name())
		if err := os.Rename(dir, trash); err != nil {
			return purged, fmt.Errorf("purge %s: %w", e.Name(), err)
		}
		if err := os.RemoveAll(trash); err != nil {
			return purged, fmt.Errorf("purge %s: %w", e.Name(), err)
		}
		purged++
		s.logger.Info("session purged", zap.String("session", e.Name()))
	}
	return purged, nil
}

// writeJSON publishes data atomically: write to a temp file in the same
// directory, then rename into place.
func (s *FileStore) writeJSON(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-")
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("publish %s: %w", name, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func parseIDTime(id string) (time.Time, bool) {
	if len(id) < 15 {
		return time.Time{}, false
	}
	ts, err := time.Parse("20060102T150405", id[:15])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
