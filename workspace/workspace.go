// ABOUTME: Workspace Manager: role-scoped write-roots with unrestricted reads across the run's output tree.
// ABOUTME: Hardens the path-safety check with filepath.Clean+EvalSymlinks and a separator-boundary prefix test.
package workspace

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BillChan226/multiagent-gen/core"
)

// Entry describes a file discovered under the workspace root.
type Entry struct {
	Path string // relative to the workspace root
	Size int64
}

// Manager controls file access for a generation run: every agent may read
// anywhere under the root, but may only write under its own bound
// write-root (or nowhere, for read-only agents such as User).
type Manager struct {
	root       string
	writeRoots map[string]string // agentID -> write-root relative to root, "" means read-only
}

// defaultDirs is created eagerly so agents never race each other to mkdir
// their own write-root on first write.
var defaultDirs = []string{
	"design",
	filepath.Join("app", "database"),
	filepath.Join("app", "backend", "routes"),
	filepath.Join("app", "backend", "middleware"),
	filepath.Join("app", "frontend", "src", "pages"),
	filepath.Join("app", "frontend", "src", "components"),
	filepath.Join("app", "frontend", "src", "services"),
	"docker",
	"screenshots",
	".checkpoint",
}

// NewManager creates the workspace root (and its standard subdirectories)
// and binds each agent ID to its write-root per writeRoots. An empty
// write-root string means the agent may only read.
func NewManager(root string, writeRoots map[string]string) (*Manager, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, core.NewFatalError("workspace.NewManager", "creating workspace root", err)
	}
	for _, d := range defaultDirs {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, core.NewFatalError("workspace.NewManager", "creating "+d, err)
		}
	}

	bound := make(map[string]string, len(writeRoots))
	for agentID, wr := range writeRoots {
		bound[agentID] = wr
	}

	return &Manager{root: root, writeRoots: bound}, nil
}

// Root returns the workspace's absolute base directory.
func (m *Manager) Root() string {
	return m.root
}

// WriteRootFor returns the relative write-root bound to agentID, and
// whether that agent has any write access at all.
func (m *Manager) WriteRootFor(agentID string) (string, bool) {
	wr, ok := m.writeRoots[agentID]
	if !ok || wr == "" {
		return "", false
	}
	return wr, true
}

// ReadFile reads path (relative to the root) regardless of which agent
// asks — reads are unrestricted within the workspace.
func (m *Manager) ReadFile(path string) (string, error) {
	resolved, err := m.resolveExisting(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", core.NewBadRequestError("workspace.ReadFile", "reading "+path, err)
	}
	return string(data), nil
}

// WriteFile writes content to path on behalf of agentID, after verifying
// the resolved path falls within the agent's bound write-root.
func (m *Manager) WriteFile(agentID, path, content string) error {
	if err := m.checkWriteAllowed(agentID, path); err != nil {
		return err
	}

	full := filepath.Join(m.root, filepath.Clean(string(filepath.Separator)+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return core.NewFatalError("workspace.WriteFile", "creating parent directories for "+path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return core.NewFatalError("workspace.WriteFile", "writing "+path, err)
	}
	return nil
}

// ListFiles returns all regular files under directory (relative to the
// root; empty string lists the whole workspace), sorted by path.
func (m *Manager) ListFiles(directory string) ([]Entry, error) {
	target := m.root
	if directory != "" {
		target = filepath.Join(m.root, filepath.Clean(string(filepath.Separator)+directory))
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, core.NewFatalError("workspace.ListFiles", "stat "+directory, err)
	}
	if !info.IsDir() {
		return nil, core.NewBadRequestError("workspace.ListFiles", directory+" is not a directory", nil)
	}

	var entries []Entry
	walkErr := filepath.Walk(target, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(m.root, p)
		if relErr != nil {
			return relErr
		}
		entries = append(entries, Entry{Path: filepath.ToSlash(rel), Size: fi.Size()})
		return nil
	})
	if walkErr != nil {
		return nil, core.NewFatalError("workspace.ListFiles", "walking "+directory, walkErr)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// checkWriteAllowed resolves path against the root and agentID's
// write-root and returns a BadRequestError if the write would escape it.
//
// Both the write-root and the candidate are resolved with filepath.Clean
// and (best-effort) filepath.EvalSymlinks before comparison, and the
// containment check requires the write-root to be an exact match or a
// path-separator-bounded prefix of the resolved candidate — never a bare
// string prefix. This closes the reference implementation's
// "design-evil/" passing a prefix check scoped to "design/", and closes
// a symlink or ".." segment escaping the write-root entirely.
func (m *Manager) checkWriteAllowed(agentID, path string) error {
	writeRoot, ok := m.WriteRootFor(agentID)
	if !ok {
		return core.NewBadRequestError("workspace.checkWriteAllowed", "agent "+agentID+" has no write access", nil)
	}

	resolvedRoot, err := resolveBestEffort(filepath.Join(m.root, writeRoot))
	if err != nil {
		return core.NewFatalError("workspace.checkWriteAllowed", "resolving write-root for "+agentID, err)
	}

	candidate := filepath.Join(m.root, filepath.Clean(string(filepath.Separator)+path))
	resolvedCandidate, err := resolveBestEffort(candidate)
	if err != nil {
		return core.NewFatalError("workspace.checkWriteAllowed", "resolving candidate path "+path, err)
	}

	if resolvedCandidate == resolvedRoot {
		return nil
	}
	if strings.HasPrefix(resolvedCandidate, resolvedRoot+string(filepath.Separator)) {
		return nil
	}

	return core.NewBadRequestError("workspace.checkWriteAllowed",
		"agent "+agentID+" may not write outside "+writeRoot+": "+path, nil)
}

// resolveExisting resolves a read path that must already exist.
func (m *Manager) resolveExisting(path string) (string, error) {
	full := filepath.Join(m.root, filepath.Clean(string(filepath.Separator)+path))
	if _, err := os.Stat(full); err != nil {
		return "", core.NewBadRequestError("workspace.resolveExisting", "no such file: "+path, err)
	}
	return full, nil
}

// resolveBestEffort cleans and symlink-resolves p. If p (or a leaf
// component) does not yet exist, it walks up to the nearest existing
// ancestor, resolves that, and rejoins the non-existent tail.
func resolveBestEffort(p string) (string, error) {
	cleaned := filepath.Clean(p)

	resolved, err := filepath.EvalSymlinks(cleaned)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	dir := filepath.Dir(cleaned)
	tail := filepath.Base(cleaned)
	if dir == cleaned {
		// Reached the filesystem root without finding an existing ancestor.
		return cleaned, nil
	}

	resolvedDir, err := resolveBestEffort(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedDir, tail), nil
}
