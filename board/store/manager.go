// ABOUTME: StorageManager owns the kanban home directory: board creation, discovery, recovery, and exports.
// ABOUTME: Layout is home/boards/{ulid}/ with board.json, kv/, events.jsonl, index.db, and exports/.
package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/2389-research/kanban/board/core"
	"github.com/2389-research/kanban/board/export"
)

// StorageManager manages the home directory layout.
//
// Dir layout:
//
//	home/boards/{ulid}/board.json
//	home/boards/{ulid}/kv/
//	home/boards/{ulid}/events.jsonl
//	home/boards/{ulid}/index.db
//	home/boards/{ulid}/exports/
type StorageManager struct {
	home    string
	backend Backend
}

// NewStorageManager creates the home and boards directories if needed.
func NewStorageManager(home string, backend Backend) (*StorageManager, error) {
	if err := os.MkdirAll(filepath.Join(home, "boards"), 0o755); err != nil {
		return nil, fmt.Errorf("create boards dir: %w", err)
	}
	return &StorageManager{home: home, backend: backend}, nil
}

// Home returns the home directory path.
func (m *StorageManager) Home() string {
	return m.home
}

// Backend returns the snapshot backend used for every board.
func (m *StorageManager) Backend() Backend {
	return m.backend
}

// BoardDir pairs a board's ULID with its filesystem path.
type BoardDir struct {
	BoardID ulid.ULID
	Path    string
}

// GetBoardDir returns the path to a board's directory (does not create it).
func (m *StorageManager) GetBoardDir(boardID ulid.ULID) string {
	return filepath.Join(m.home, "boards", boardID.String())
}

// ListBoardDirs returns every directory under boards/ named by a ULID.
func (m *StorageManager) ListBoardDirs() ([]BoardDir, error) {
	boardsDir := filepath.Join(m.home, "boards")
	entries, err := os.ReadDir(boardsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read boards dir: %w", err)
	}

	var results []BoardDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := core.ParseBoardID(entry.Name())
		if err != nil {
			log.Printf("component=board.store action=list_skip_non_ulid dir=%s", entry.Name())
			continue
		}
		results = append(results, BoardDir{BoardID: id, Path: filepath.Join(boardsDir, entry.Name())})
	}
	return results, nil
}

// CreateBoard allocates a directory for a new board and writes its metadata.
func (m *StorageManager) CreateBoard(title string, rules core.Rules) (core.BoardInfo, string, error) {
	info, err := core.NewBoardInfo(title, rules)
	if err != nil {
		return core.BoardInfo{}, "", err
	}
	dir := m.GetBoardDir(info.BoardID)
	for _, sub := range []string{KVDir, ExportsDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return core.BoardInfo{}, "", fmt.Errorf("create %s dir: %w", sub, err)
		}
	}
	if err := WriteInfo(dir, info); err != nil {
		return core.BoardInfo{}, "", err
	}
	log.Printf("component=board.store action=create_board board_id=%s title=%q variant=%s",
		info.BoardID, info.Title, info.Rules.Variant)
	return info, dir, nil
}

// ListBoards returns the metadata of every readable board, oldest first.
func (m *StorageManager) ListBoards() ([]core.BoardInfo, error) {
	dirs, err := m.ListBoardDirs()
	if err != nil {
		return nil, err
	}
	var infos []core.BoardInfo
	for _, d := range dirs {
		info, err := ReadInfo(d.Path)
		if err != nil {
			log.Printf("component=board.store action=list_skip_unreadable board_id=%s err=%v", d.BoardID, err)
			continue
		}
		infos = append(infos, info)
	}
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos, nil
}

// FindBoard resolves ref as a ULID, a unique ULID prefix, or a board title (case-insensitive).
func (m *StorageManager) FindBoard(ref string) (core.BoardInfo, error) {
	ref = strings.TrimSpace(ref)
	infos, err := m.ListBoards()
	if err != nil {
		return core.BoardInfo{}, err
	}
	var matches []core.BoardInfo
	for _, info := range infos {
		id := info.BoardID.String()
		if strings.EqualFold(id, ref) || strings.EqualFold(info.Title, ref) {
			return info, nil
		}
		if ref != "" && strings.HasPrefix(id, strings.ToUpper(ref)) {
			matches = append(matches, info)
		}
	}
	switch len(matches) {
	case 0:
		return core.BoardInfo{}, fmt.Errorf("board not found: %q", ref)
	case 1:
		return matches[0], nil
	}
	return core.BoardInfo{}, fmt.Errorf("board reference %q is ambiguous (%d matches)", ref, len(matches))
}

// OpenBoard recovers one board by id.
func (m *StorageManager) OpenBoard(boardID ulid.ULID, opts ...core.Option) (*RecoveredBoard, error) {
	return RecoverBoard(m.GetBoardDir(boardID), m.backend, opts...)
}

// RecoverAllBoards recovers every board directory. Boards that fail to
// recover are logged and skipped.
func (m *StorageManager) RecoverAllBoards(opts ...core.Option) ([]*RecoveredBoard, error) {
	dirs, err := m.ListBoardDirs()
	if err != nil {
		return nil, err
	}
	var recovered []*RecoveredBoard
	for _, d := range dirs {
		rb, err := RecoverBoard(d.Path, m.backend, opts...)
		if err != nil {
			log.Printf("component=board.store action=recover_board_failed board_id=%s err=%v", d.BoardID, err)
			continue
		}
		recovered = append(recovered, rb)
	}
	return recovered, nil
}

// WriteExports renders the snapshot in every format into the board's exports/ directory.
func WriteExports(boardDir string, snap export.Snapshot) error {
	exportsDir := filepath.Join(boardDir, ExportsDir)
	if err := os.MkdirAll(exportsDir, 0o755); err != nil {
		return fmt.Errorf("create exports dir: %w", err)
	}

	yamlOut, err := export.ExportYAML(snap)
	if err != nil {
		return err
	}
	htmlOut, err := export.ExportHTML(snap)
	if err != nil {
		return err
	}

	files := map[string]string{
		"board.md":   export.ExportMarkdown(snap),
		"board.yaml": yamlOut,
		"board.html": htmlOut,
	}
	for name, content := range files {
		if err := writeFileAtomic(filepath.Join(exportsDir, name), []byte(content)); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
