package scanner

import (
	"path/filepath"

	"go.uber.org/zap"

	"smartrouter/internal/domain"
)

// Roots are the locations a scan covers. Empty fields are skipped.
type Roots struct {
	// External is the plugin cache laid out as <group>/<provider>/<version>/.
	External string
	// Local is the project tool directory holding skills, agents, commands and workflows.
	Local string
	// ProjectServices is the project MCP config. Empty derives <Local>/../.mcp.json.
	ProjectServices string
	// ServiceConfigs are additional MCP config files (JSON mcpServers or TOML mcp_servers).
	ServiceConfigs []string
}

func (r Roots) projectServices() string {
	if r.ProjectServices != "" {
		return r.ProjectServices
	}
	if r.Local == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(filepath.Clean(r.Local)), domain.DefaultProjectMCPConfig)
}

// Options configures a Scanner.
type Options struct {
	Logger *zap.Logger
	// MaxDepth bounds directory recursion below a unit kind directory.
	MaxDepth int
}

// Scanner discovers tool units on disk.
type Scanner struct {
	logger   *zap.Logger
	maxDepth int
}

// New builds a Scanner.
func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	depth := opts.MaxDepth
	if depth <= 0 {
		depth = domain.DefaultMaxLocalDepth
	}
	return &Scanner{logger: logger.Named("scanner"), maxDepth: depth}
}

// providerSite is one selected provider version directory.
type providerSite struct {
	dir      string
	manifest string
	files    []unitFile
	services string
}

// unitFile is a unit document found by the survey.
type unitFile struct {
	path     string
	entryRef string
	kind     domain.UnitKind
}

// serviceFile is an MCP config file contributing service units.
type serviceFile struct {
	path   string
	origin domain.Origin
	// required files report a problem when missing.
	required bool
}

// Survey is the stat-only view of the tool tree. It carries enough to fingerprint the
// tree and to load it later without walking again.
type Survey struct {
	Stamps   []domain.PathStamp
	Problems []domain.Problem
	// Failed is set when a configured root exists but cannot be listed.
	Failed error

	sites        []providerSite
	localFiles   []unitFile
	serviceFiles []serviceFile
}

// Candidate is a discovered unit awaiting a description.
type Candidate struct {
	Unit domain.ToolUnit
	// Path is the document to describe. Empty for services.
	Path string
	// Service is set for service units.
	Service *ServiceEntry
}

// ScanResult is the outcome of Load.
type ScanResult struct {
	Candidates []Candidate
	Problems   []domain.Problem
}

// MaxDepth returns the directory recursion bound.
func (s *Scanner) MaxDepth() int {
	return s.maxDepth
}

// Survey walks the roots with stat and readdir calls only.
func (s *Scanner) Survey(roots Roots) Survey {
	var survey Survey
	if roots.External != "" {
		s.surveyExternal(roots.External, &survey)
	}
	if survey.Failed == nil && roots.Local != "" {
		s.surveyLocal(roots.Local, &survey)
	}
	if survey.Failed != nil {
		return Survey{Problems: survey.Problems, Failed: survey.Failed}
	}
	if project := roots.projectServices(); project != "" {
		s.surveyServiceFile(serviceFile{path: project, origin: domain.OriginLocal}, &survey)
	}
	for _, path := range roots.ServiceConfigs {
		if path == "" {
			continue
		}
		s.surveyServiceFile(serviceFile{path: path, origin: domain.OriginExternal, required: true}, &survey)
	}
	for _, problem := range survey.Problems {
		s.logger.Warn("scan problem",
			zap.String("code", problem.Code),
			zap.String("path", problem.Path),
			zap.String("message", problem.Message),
		)
	}
	return survey
}

// Load reads manifests and service configs found by the survey and returns candidates in
// discovery order.
func (s *Scanner) Load(survey Survey) ScanResult {
	var result ScanResult
	if survey.Failed != nil {
		return result
	}
	for _, site := range survey.sites {
		s.loadSite(site, &result)
	}
	for _, file := range survey.localFiles {
		result.Candidates = append(result.Candidates, Candidate{
			Unit: domain.ToolUnit{
				ProviderID: domain.LocalProviderID,
				Kind:       file.kind,
				EntryRef:   file.entryRef,
				Origin:     domain.OriginLocal,
			},
			Path: file.path,
		})
	}
	for _, file := range survey.serviceFiles {
		entries, problems := ReadServiceConfig(file.path)
		result.Problems = append(result.Problems, problems...)
		for _, entry := range entries {
			entry := entry
			result.Candidates = append(result.Candidates, Candidate{
				Unit: domain.ToolUnit{
					ProviderID: entry.Name,
					Kind:       domain.KindService,
					EntryRef:   ServiceEntryRef(entry.Name),
					Origin:     file.origin,
				},
				Service: &entry,
			})
		}
	}
	for _, problem := range result.Problems {
		s.logger.Warn("load problem",
			zap.String("code", problem.Code),
			zap.String("path", problem.Path),
			zap.String("message", problem.Message),
		)
	}
	s.logger.Debug("scan loaded", zap.Int("candidates", len(result.Candidates)))
	return result
}

func (s *Scanner) loadSite(site providerSite, result *ScanResult) {
	name, err := readManifest(site.manifest)
	if err != nil {
		path := site.manifest
		if path == "" {
			path = site.dir
		}
		result.Problems = append(result.Problems, domain.Warn(domain.ProblemManifestInvalid, path, err.Error()))
		return
	}
	for _, file := range site.files {
		result.Candidates = append(result.Candidates, Candidate{
			Unit: domain.ToolUnit{
				ProviderID: name,
				Kind:       file.kind,
				EntryRef:   file.entryRef,
				Origin:     domain.OriginExternal,
			},
			Path: file.path,
		})
	}
	if site.services == "" {
		return
	}
	entries, problems := ReadServiceConfig(site.services)
	result.Problems = append(result.Problems, problems...)
	for _, entry := range entries {
		entry := entry
		result.Candidates = append(result.Candidates, Candidate{
			Unit: domain.ToolUnit{
				ProviderID: name,
				Kind:       domain.KindService,
				EntryRef:   ServiceEntryRef(entry.Name),
				Origin:     domain.OriginExternal,
			},
			Service: &entry,
		})
	}
}

// ServiceEntryRef is the entry reference of a service unit.
func ServiceEntryRef(name string) string {
	return "mcp:" + name
}
