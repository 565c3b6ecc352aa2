// Package skills discovers agent skills from a skills directory. A skill is
// a subdirectory containing a SKILL.md file with YAML frontmatter. Skill
// execution is the runtime's concern; this package only surfaces what is
// installed.
package skills

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/stoewer/go-strcase"
	"gopkg.in/yaml.v3"

	apperrors "github.com/kagent-dev/kagent-bridge/pkg/adk/errors"
)

const skillFileName = "SKILL.md"

// Metadata is the YAML frontmatter of a SKILL.md file.
type Metadata struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Version     string   `yaml:"version"`
	Author      string   `yaml:"author"`
	Tags        []string `yaml:"tags"`
}

// Discovery lists skills installed under a directory.
type Discovery struct {
	dir string
}

// NewDiscovery creates a Discovery rooted at dir.
func NewDiscovery(dir string) *Discovery {
	return &Discovery{dir: dir}
}

// List returns metadata for every skill found. A missing skills directory
// yields an empty list, not an error; skills are optional.
func (d *Discovery) List() ([]Metadata, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.New(apperrors.ErrCodePathManagement, "failed to read skills directory", err)
	}

	var skills []Metadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := readSkillFile(filepath.Join(d.dir, entry.Name(), skillFileName))
		if err != nil {
			// Malformed skills are skipped, not fatal
			continue
		}
		if meta.Name == "" {
			meta.Name = entry.Name()
		}
		skills = append(skills, *meta)
	}
	return skills, nil
}

// Find returns the skill whose normalized name matches. Names are compared
// in snake_case so "ReadFile", "read-file" and "read_file" all resolve to
// the same skill.
func (d *Discovery) Find(name string) (*Metadata, error) {
	skills, err := d.List()
	if err != nil {
		return nil, err
	}

	want := strcase.SnakeCase(name)
	for i := range skills {
		if strcase.SnakeCase(skills[i].Name) == want {
			return &skills[i], nil
		}
	}
	return nil, apperrors.New(apperrors.ErrCodeSkillNotFound, "skill not found: "+name, nil)
}

// readSkillFile parses the YAML frontmatter of a SKILL.md file.
func readSkillFile(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content := string(data)
	if !strings.HasPrefix(content, "---") {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "missing frontmatter in "+path, nil)
	}

	rest := content[3:]
	end := strings.Index(rest, "---")
	if end < 0 {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "unterminated frontmatter in "+path, nil)
	}

	var meta Metadata
	if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
		return nil, apperrors.New(apperrors.ErrCodeInvalidInput, "invalid frontmatter in "+path, err)
	}
	return &meta, nil
}
