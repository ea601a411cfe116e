package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/joho/godotenv"
	"github.com/pluginpub/pluginpub/internal/domain"
	"github.com/spf13/viper"
)

// FileName is the optional config file looked up in the working directory.
const FileName = ".pluginpub"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PLUGINPUB"

var (
	// branchNameRegex matches valid git branch names
	branchNameRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]+$`)
	// tagPrefixRegex matches characters allowed in a tag prefix
	tagPrefixRegex = regexp.MustCompile(`^[a-zA-Z0-9._/-]*$`)
)

type Config struct {
	Branch         string `mapstructure:"branch"`
	Remote         string `mapstructure:"remote"`
	Descriptor     string `mapstructure:"descriptor"`
	Changelog      string `mapstructure:"changelog"`
	Manifest       string `mapstructure:"manifest"`
	PackageManager string `mapstructure:"package_manager"`
	TagPrefix      string `mapstructure:"tag_prefix"`
	GithubToken    string `mapstructure:"github_token"`
	GithubRelease  bool   `mapstructure:"github_release"`
	GithubOwner    string `mapstructure:"github_owner"`
	GithubRepo     string `mapstructure:"github_repo"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		Branch:         "master",
		Remote:         "origin",
		Descriptor:     "plugin.xml",
		Changelog:      "CHANGELOG.md",
		Manifest:       "package.json",
		PackageManager: "npm",
		TagPrefix:      "v",
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := ValidateBranchName(c.Branch); err != nil {
		return fmt.Errorf("invalid branch: %w", err)
	}
	if c.Remote == "" {
		return fmt.Errorf("remote cannot be empty")
	}
	for key, path := range map[string]string{
		"descriptor": c.Descriptor,
		"changelog":  c.Changelog,
		"manifest":   c.Manifest,
	} {
		if err := validatePath(path); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if c.PackageManager == "" {
		return fmt.Errorf("package_manager cannot be empty")
	}
	if !tagPrefixRegex.MatchString(c.TagPrefix) {
		return fmt.Errorf("invalid tag_prefix: %s", c.TagPrefix)
	}
	if !c.GithubRelease {
		return nil
	}
	// GitHub token is optional - only validate if provided
	if c.GithubToken != "" {
		if err := ValidateGitHubToken(c.GithubToken); err != nil {
			return fmt.Errorf("invalid github_token: %w", err)
		}
	}
	if err := ValidateGitHubOwnerRepo(c.GithubOwner, c.GithubRepo); err != nil {
		return fmt.Errorf("invalid github configuration: %w", err)
	}
	return nil
}

// CanCreateGitHubRelease reports whether the GitHub release task can run.
func (c *Config) CanCreateGitHubRelease() bool {
	return c.GithubRelease && c.GithubToken != ""
}

func validatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if filepath.IsAbs(path) {
		return fmt.Errorf("path must be relative to the package directory: %s", path)
	}
	if strings.Contains(path, "..") {
		return fmt.Errorf("path contains invalid path traversal: %s", path)
	}
	return nil
}

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	if strings.Contains(branch, "..") {
		return fmt.Errorf("branch name cannot contain consecutive dots: %s", branch)
	}
	if strings.HasSuffix(branch, ".lock") {
		return fmt.Errorf("branch name cannot end with .lock: %s", branch)
	}
	if !branchNameRegex.MatchString(branch) {
		return fmt.Errorf("invalid branch name format: %s", branch)
	}
	return nil
}

// ValidateGitHubToken validates GitHub token format (exported for reuse)
func ValidateGitHubToken(token string) error {
	token = strings.TrimSpace(token)
	if len(token) < 40 {
		return fmt.Errorf("token too short: expected at least 40 characters")
	}
	classicPAT := regexp.MustCompile(`^[a-fA-F0-9]{40}$`)
	fineGrainedPAT := regexp.MustCompile(`^github_pat_[a-zA-Z0-9_]{82}$`)
	appToken := regexp.MustCompile(`^ghs_[a-zA-Z0-9]{36}$`)
	oauthToken := regexp.MustCompile(`^gho_[a-zA-Z0-9]{36}$`)
	personalToken := regexp.MustCompile(`^ghp_[a-zA-Z0-9]{36}$`)
	if !classicPAT.MatchString(token) &&
		!fineGrainedPAT.MatchString(token) &&
		!appToken.MatchString(token) &&
		!oauthToken.MatchString(token) &&
		!personalToken.MatchString(token) {
		return fmt.Errorf("invalid token format")
	}
	return nil
}

// ValidateGitHubOwnerRepo validates GitHub owner and repository names (exported for reuse)
func ValidateGitHubOwnerRepo(owner, repo string) error {
	if owner == "" {
		return fmt.Errorf("owner cannot be empty")
	}
	if repo == "" {
		return fmt.Errorf("repository cannot be empty")
	}
	validName := regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9\-_.]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)
	if !validName.MatchString(owner) {
		return fmt.Errorf("invalid owner format: %s", owner)
	}
	if len(owner) > 39 {
		return fmt.Errorf("owner too long: maximum 39 characters")
	}
	if !validName.MatchString(repo) {
		return fmt.Errorf("invalid repository format: %s", repo)
	}
	if len(repo) > 100 {
		return fmt.Errorf("repository too long: maximum 100 characters")
	}
	return nil
}

// LoadConfig reads .env, .pluginpub.yaml and PLUGINPUB_* variables for the package in dir.
func LoadConfig(dir string) (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load(filepath.Join(dir, ".env"))
	v := viper.New()
	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// BindEnv checks the listed variables in order
	if err := v.BindEnv("github_token", "PLUGINPUB_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind github_token env: %w", err)
	}
	defaults := DefaultConfig()
	v.SetDefault("branch", defaults.Branch)
	v.SetDefault("remote", defaults.Remote)
	v.SetDefault("descriptor", defaults.Descriptor)
	v.SetDefault("changelog", defaults.Changelog)
	v.SetDefault("manifest", defaults.Manifest)
	v.SetDefault("package_manager", defaults.PackageManager)
	v.SetDefault("tag_prefix", defaults.TagPrefix)
	v.SetDefault("github_release", false)
	v.SetDefault("github_owner", "")
	v.SetDefault("github_repo", "")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if config.GithubRelease {
		if err := populateRepositoryDefaults(&config, dir); err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}

// populateRepositoryDefaults fills github_owner and github_repo from
// GITHUB_REPOSITORY or, failing that, from the configured git remote.
func populateRepositoryDefaults(cfg *Config, dir string) error {
	if cfg.GithubOwner != "" && cfg.GithubRepo != "" {
		return nil
	}
	if slug := strings.TrimSpace(os.Getenv("GITHUB_REPOSITORY")); slug != "" {
		owner, repo, ok := strings.Cut(slug, "/")
		if !ok || owner == "" || repo == "" {
			return fmt.Errorf("invalid GITHUB_REPOSITORY %q: expected owner/repo", slug)
		}
		fillRepository(cfg, owner, repo)
		return nil
	}
	remote := cfg.Remote
	if remote == "" {
		remote = DefaultConfig().Remote
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open git repository to detect GitHub repository: %w", err)
	}
	r, err := repo.Remote(remote)
	if err != nil {
		return fmt.Errorf("failed to read remote %s: %w", remote, err)
	}
	urls := r.Config().URLs
	if len(urls) == 0 {
		return fmt.Errorf("remote %s has no url", remote)
	}
	owner, name, err := parseGitRemoteURL(urls[0])
	if err != nil {
		return err
	}
	fillRepository(cfg, owner, name)
	return nil
}

func fillRepository(cfg *Config, owner, repo string) {
	if cfg.GithubOwner == "" {
		cfg.GithubOwner = owner
	}
	if cfg.GithubRepo == "" {
		cfg.GithubRepo = repo
	}
}

func parseGitRemoteURL(raw string) (string, string, error) {
	remote, err := domain.ParseRemoteURL(raw)
	if err != nil {
		return "", "", err
	}
	return remote.Owner, remote.Name, nil
}
