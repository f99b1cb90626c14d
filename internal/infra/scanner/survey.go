package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"smartrouter/internal/domain"
)

var unitDirs = []struct {
	name string
	kind domain.UnitKind
}{
	{name: "skills", kind: domain.KindSkill},
	{name: "agents", kind: domain.KindAgent},
	{name: "commands", kind: domain.KindCommand},
	{name: "workflows", kind: domain.KindWorkflow},
}

const (
	skillDocument = "SKILL.md"
	manifestDir   = ".claude-plugin"
	manifestFile  = "plugin.json"
)

// walker carries the traversal settings for one root.
type walker struct {
	// root is the resolved root every path must stay within.
	root string
	// local rejects every symlink instead of checking its target.
	local  bool
	survey *Survey
}

func (w *walker) warn(code, path, message string) {
	w.survey.Problems = append(w.survey.Problems, domain.Warn(code, path, message))
}

func (w *walker) stamp(path string, info fs.FileInfo) {
	w.survey.Stamps = append(w.survey.Stamps, domain.PathStamp{Path: path, ModTime: info.ModTime()})
}

// entry returns the file info for path, following a symlink only when it stays inside the
// root. ok is false when the path must be skipped.
func (w *walker) entry(path string) (fs.FileInfo, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			w.warn(domain.ProblemDirUnreadable, path, err.Error())
		}
		return nil, false
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		return info, true
	}
	if w.local {
		w.warn(domain.ProblemSymlinkSkipped, path, "local tool units may not be symbolic links")
		return nil, false
	}
	_, inside, err := resolveWithin(w.root, path)
	if err != nil {
		w.warn(domain.ProblemSymlinkSkipped, path, fmt.Sprintf("unresolvable link: %v", err))
		return nil, false
	}
	if !inside {
		w.warn(domain.ProblemPathEscape, path, "link target is outside the scan root")
		return nil, false
	}
	target, err := os.Stat(path)
	if err != nil {
		w.warn(domain.ProblemDirUnreadable, path, err.Error())
		return nil, false
	}
	return target, true
}

func (w *walker) readDir(path string) ([]fs.DirEntry, bool) {
	entries, err := os.ReadDir(path)
	if err != nil {
		w.warn(domain.ProblemDirUnreadable, path, err.Error())
		return nil, false
	}
	return entries, true
}

// walkUnits collects unit documents of kind below dir. Directories deeper than limit are
// skipped; warnDepth reports them.
func (w *walker) walkUnits(base, dir string, kind domain.UnitKind, depth, limit int, warnDepth bool, out *[]unitFile) {
	entries, ok := w.readDir(dir)
	if !ok {
		return
	}
	for _, de := range entries {
		path := filepath.Join(dir, de.Name())
		info, ok := w.entry(path)
		if !ok {
			continue
		}
		if info.IsDir() {
			if depth+1 > limit {
				if warnDepth {
					w.warn(domain.ProblemDepthExceeded, path, fmt.Sprintf("directory deeper than %d levels skipped", limit))
				}
				continue
			}
			w.stamp(path, info)
			w.walkUnits(base, path, kind, depth+1, limit, warnDepth, out)
			continue
		}
		if !isUnitDocument(kind, de.Name(), depth) {
			continue
		}
		w.stamp(path, info)
		*out = append(*out, unitFile{path: path, entryRef: slashRel(base, path), kind: kind})
	}
}

func isUnitDocument(kind domain.UnitKind, name string, depth int) bool {
	if kind == domain.KindSkill {
		return name == skillDocument && depth >= 1
	}
	return strings.EqualFold(filepath.Ext(name), ".md")
}

// openRoot resolves a root directory. A missing root is reported and skipped; a root that
// exists but cannot be listed fails the scan. The root's own mtime is not stamped: entries
// below it are, and the root may also hold unrelated files such as the snapshot store.
func openRoot(root string, survey *Survey) (string, []fs.DirEntry, bool) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			survey.Problems = append(survey.Problems, domain.Warn(domain.ProblemRootMissing, root, "root does not exist"))
			return "", nil, false
		}
		failRoot(root, err, survey)
		return "", nil, false
	}
	if !info.IsDir() {
		failRoot(root, errors.New("not a directory"), survey)
		return "", nil, false
	}
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		failRoot(root, err, survey)
		return "", nil, false
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		failRoot(root, err, survey)
		return "", nil, false
	}
	return resolved, entries, true
}

func failRoot(root string, err error, survey *Survey) {
	survey.Problems = append(survey.Problems, domain.Problem{
		Severity: domain.SeverityError,
		Code:     domain.ProblemRootUnreadable,
		Path:     root,
		Message:  err.Error(),
	})
	survey.Failed = domain.Wrap(domain.CodeUnavailable, "scan", fmt.Errorf("%w: %s: %v", domain.ErrRootUnreadable, root, err))
}

func (s *Scanner) surveyExternal(root string, survey *Survey) {
	resolved, groups, ok := openRoot(root, survey)
	if !ok {
		return
	}
	w := &walker{root: resolved, survey: survey}
	for _, group := range groups {
		groupDir := filepath.Join(resolved, group.Name())
		info, ok := w.entry(groupDir)
		if !ok || !info.IsDir() {
			continue
		}
		w.stamp(groupDir, info)
		providers, ok := w.readDir(groupDir)
		if !ok {
			continue
		}
		for _, provider := range providers {
			providerDir := filepath.Join(groupDir, provider.Name())
			info, ok := w.entry(providerDir)
			if !ok || !info.IsDir() {
				continue
			}
			w.stamp(providerDir, info)
			siteDir, ok := s.selectSite(w, providerDir)
			if !ok {
				continue
			}
			s.surveySite(w, siteDir)
		}
	}
}

// selectSite returns the provider directory itself when it holds a manifest, otherwise
// its highest version directory.
func (s *Scanner) selectSite(w *walker, providerDir string) (string, bool) {
	entries, ok := w.readDir(providerDir)
	if !ok {
		return "", false
	}
	var versions []string
	for _, de := range entries {
		switch de.Name() {
		case manifestDir, manifestFile:
			return providerDir, true
		}
		path := filepath.Join(providerDir, de.Name())
		if de.IsDir() || de.Type()&fs.ModeSymlink != 0 {
			if info, ok := w.entry(path); ok && info.IsDir() {
				versions = append(versions, de.Name())
			}
		}
	}
	if len(versions) == 0 {
		return "", false
	}
	return filepath.Join(providerDir, selectVersion(versions)), true
}

func (s *Scanner) surveySite(w *walker, dir string) {
	info, err := os.Stat(dir)
	if err != nil {
		w.warn(domain.ProblemDirUnreadable, dir, err.Error())
		return
	}
	w.stamp(dir, info)
	site := providerSite{dir: dir}

	var candidates []string
	metaDir := filepath.Join(dir, manifestDir)
	if info, ok := w.entry(metaDir); ok && info.IsDir() {
		candidates = append(candidates, filepath.Join(metaDir, manifestFile))
	}
	candidates = append(candidates, filepath.Join(dir, manifestFile))
	for _, candidate := range candidates {
		if info, ok := w.entry(candidate); ok && !info.IsDir() {
			w.stamp(candidate, info)
			site.manifest = candidate
			break
		}
	}

	for _, ud := range unitDirs {
		unitDir := filepath.Join(dir, ud.name)
		info, ok := w.entry(unitDir)
		if !ok || !info.IsDir() {
			continue
		}
		w.stamp(unitDir, info)
		limit, warnDepth := 0, false
		switch ud.kind {
		case domain.KindSkill:
			limit = 1
		case domain.KindCommand:
			limit, warnDepth = s.maxDepth, true
		}
		w.walkUnits(dir, unitDir, ud.kind, 0, limit, warnDepth, &site.files)
	}

	services := filepath.Join(dir, domain.DefaultProjectMCPConfig)
	if info, ok := w.entry(services); ok && !info.IsDir() {
		w.stamp(services, info)
		site.services = services
	}
	survey := w.survey
	survey.sites = append(survey.sites, site)
}

func (s *Scanner) surveyLocal(root string, survey *Survey) {
	resolved, _, ok := openRoot(root, survey)
	if !ok {
		return
	}
	w := &walker{root: resolved, local: true, survey: survey}
	for _, ud := range unitDirs {
		unitDir := filepath.Join(resolved, ud.name)
		info, ok := w.entry(unitDir)
		if !ok || !info.IsDir() {
			continue
		}
		w.stamp(unitDir, info)
		w.walkUnits(resolved, unitDir, ud.kind, 0, s.maxDepth, true, &survey.localFiles)
	}
}

func (s *Scanner) surveyServiceFile(file serviceFile, survey *Survey) {
	info, err := os.Stat(file.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !file.required {
			return
		}
		survey.Problems = append(survey.Problems, domain.Warn(domain.ProblemServiceConfigInvalid, file.path, err.Error()))
		return
	}
	if info.IsDir() {
		survey.Problems = append(survey.Problems, domain.Warn(domain.ProblemServiceConfigInvalid, file.path, "service config is a directory"))
		return
	}
	survey.Stamps = append(survey.Stamps, domain.PathStamp{Path: file.path, ModTime: info.ModTime()})
	survey.serviceFiles = append(survey.serviceFiles, file)
}
