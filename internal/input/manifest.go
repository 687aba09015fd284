package input

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/schemalift-labs/schemalift/pkg/repoparse"
)

// ManifestEntry is one line of a repository manifest: a SQL file path,
// the repository it belongs to, and optionally the raw source URL.
type ManifestEntry struct {
	Path    string
	RepoURL string
	RawURL  string
}

// ParseManifest reads a tab-separated manifest (path, repository URL,
// raw URL). Blank lines and lines starting with # are skipped; malformed
// lines are logged and dropped.
func ParseManifest(r io.Reader, logger *slog.Logger) ([]ManifestEntry, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var entries []ManifestEntry
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			logger.Warn("malformed manifest line", "line", lineNo)
			continue
		}
		entry := ManifestEntry{
			Path:    strings.TrimSpace(fields[0]),
			RepoURL: strings.TrimSpace(fields[1]),
		}
		if len(fields) > 2 {
			entry.RawURL = strings.TrimSpace(fields[2])
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return entries, nil
}

// LoadManifest reads the manifest file and loads every listed SQL file,
// grouped into repositories by repository URL. maxRepos caps the number
// of repositories loaded; zero means no cap. A file that cannot be read
// or decoded contributes nothing and is logged.
func LoadManifest(path string, maxRepos int, logger *slog.Logger) ([]*repoparse.Repository, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	entries, err := ParseManifest(f, logger)
	if err != nil {
		return nil, err
	}

	byRepo := make(map[string]*repoparse.Repository)
	var order []string
	for _, e := range entries {
		repo, ok := byRepo[e.RepoURL]
		if !ok {
			if maxRepos > 0 && len(order) >= maxRepos {
				continue
			}
			repo = &repoparse.Repository{
				Name: repoNameFromURL(e.RepoURL),
				URL:  e.RepoURL,
			}
			byRepo[e.RepoURL] = repo
			order = append(order, e.RepoURL)
		}

		file, err := loadFile(e.Path)
		if err != nil {
			logger.Warn("skipping file", "path", e.Path, "error", err)
			continue
		}
		repo.Files = append(repo.Files, file)
	}

	repos := make([]*repoparse.Repository, 0, len(order))
	for _, url := range order {
		if repo := byRepo[url]; len(repo.Files) > 0 {
			repos = append(repos, repo)
		}
	}
	return repos, nil
}

// LoadTree walks a directory and builds repositories from it: each
// immediate subdirectory containing SQL files becomes one repository,
// and SQL files directly under the root form a repository named after
// the root itself.
func LoadTree(root string, maxRepos int, logger *slog.Logger) ([]*repoparse.Repository, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		file, err := loadFile(root)
		if err != nil {
			return nil, err
		}
		name := strings.TrimSuffix(filepath.Base(root), filepath.Ext(root))
		return []*repoparse.Repository{{Name: name, Files: []repoparse.SQLFile{file}}}, nil
	}

	byName := make(map[string]*repoparse.Repository)
	var order []string
	add := func(repoName, path string) {
		repo, ok := byName[repoName]
		if !ok {
			if maxRepos > 0 && len(order) >= maxRepos {
				return
			}
			repo = &repoparse.Repository{Name: repoName}
			byName[repoName] = repo
			order = append(order, repoName)
		}
		file, err := loadFile(path)
		if err != nil {
			logger.Warn("skipping file", "path", path, "error", err)
			return
		}
		repo.Files = append(repo.Files, file)
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("walk error", "path", path, "error", err)
			return nil
		}
		if d.IsDir() || !isSQLFile(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) == 1 {
			add(filepath.Base(root), path)
		} else {
			add(parts[0], path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input: %w", err)
	}

	sort.Strings(order)
	repos := make([]*repoparse.Repository, 0, len(order))
	for _, name := range order {
		if repo := byName[name]; len(repo.Files) > 0 {
			repos = append(repos, repo)
		}
	}
	return repos, nil
}

// loadFile reads and decodes one SQL file, assigning it a fresh
// provenance id.
func loadFile(path string) (repoparse.SQLFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return repoparse.SQLFile{}, fmt.Errorf("read: %w", err)
	}
	content, err := Decode(raw)
	if err != nil {
		return repoparse.SQLFile{}, err
	}
	return repoparse.SQLFile{
		Path:    path,
		HashID:  uuid.New().String(),
		Content: content,
	}, nil
}

func isSQLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".sql")
}

// repoNameFromURL derives a short repository name from its URL, keeping
// the trailing owner/name segments when present.
func repoNameFromURL(url string) string {
	trimmed := strings.TrimSuffix(strings.TrimRight(url, "/"), ".git")
	parts := strings.Split(trimmed, "/")
	if n := len(parts); n >= 2 {
		return parts[n-2] + "/" + parts[n-1]
	}
	return trimmed
}
