package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
)

// DefaultBasePath is the process-wide root for per-session working
// directories.
const DefaultBasePath = "/tmp/kagent"

// PathManager manages session-specific directory paths
type PathManager struct {
	basePath string
	cache    map[string]string
	mu       sync.RWMutex
}

// NewPathManager creates a new PathManager
func NewPathManager(basePath string) *PathManager {
	if basePath == "" {
		basePath = DefaultBasePath
	}
	return &PathManager{
		basePath: basePath,
		cache:    make(map[string]string),
	}
}

// Initialize creates the session directory structure and returns the path.
// The skills directory is linked into the session when provided; a failed
// link is reported on stderr but does not fail initialization.
func (m *PathManager) Initialize(sessionID, skillsDir string) (string, error) {
	// Check cache first
	m.mu.RLock()
	if path, ok := m.cache[sessionID]; ok {
		m.mu.RUnlock()
		return path, nil
	}
	m.mu.RUnlock()

	sessionPath := filepath.Join(m.basePath, sessionID)
	if err := os.MkdirAll(sessionPath, 0755); err != nil {
		return "", apperrors.New(apperrors.ErrCodePathManagement,
			"failed to create session directory", err)
	}

	uploadsPath := filepath.Join(sessionPath, "uploads")
	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		return "", apperrors.New(apperrors.ErrCodePathManagement,
			"failed to create uploads directory", err)
	}

	outputsPath := filepath.Join(sessionPath, "outputs")
	if err := os.MkdirAll(outputsPath, 0755); err != nil {
		return "", apperrors.New(apperrors.ErrCodePathManagement,
			"failed to create outputs directory", err)
	}

	if skillsDir != "" {
		skillsLink := filepath.Join(sessionPath, "skills")
		// Remove existing symlink if it exists
		os.Remove(skillsLink)
		if err := os.Symlink(skillsDir, skillsLink); err != nil {
			// Non-fatal - skills may not be available
			fmt.Fprintf(os.Stderr, "Warning: failed to create skills symlink: %v\n", err)
		}
	}

	m.mu.Lock()
	m.cache[sessionID] = sessionPath
	m.mu.Unlock()

	return sessionPath, nil
}

// Get returns the cached session path or initializes it
func (m *PathManager) Get(sessionID string) (string, error) {
	m.mu.RLock()
	if path, ok := m.cache[sessionID]; ok {
		m.mu.RUnlock()
		return path, nil
	}
	m.mu.RUnlock()

	return m.Initialize(sessionID, "")
}

// Clear removes cached paths
func (m *PathManager) Clear(sessionID *string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessionID != nil {
		delete(m.cache, *sessionID)
	} else {
		m.cache = make(map[string]string)
	}
}

// GetUploadsDir returns the uploads directory for a session
func (m *PathManager) GetUploadsDir(sessionID string) (string, error) {
	sessionPath, err := m.Get(sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(sessionPath, "uploads"), nil
}

// GetOutputsDir returns the outputs directory for a session
func (m *PathManager) GetOutputsDir(sessionID string) (string, error) {
	sessionPath, err := m.Get(sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(sessionPath, "outputs"), nil
}

// GetSkillsDir returns the skills directory for a session
func (m *PathManager) GetSkillsDir(sessionID string) (string, error) {
	sessionPath, err := m.Get(sessionID)
	if err != nil {
		return "", err
	}
	return filepath.Join(sessionPath, "skills"), nil
}
