// Package catalog holds the checklist template catalog and copies it into
// per-client task rows.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/nataliagff23/checklist-clientes/domain"
)

//go:embed templates.yaml
var defaultCatalog []byte

type catalogFile struct {
	Checklists []struct {
		Type     string `yaml:"type"`
		Sections []struct {
			Name  string   `yaml:"name"`
			Tasks []string `yaml:"tasks"`
		} `yaml:"sections"`
	} `yaml:"checklists"`
}

// Default returns the catalog shipped with the binary.
func Default() ([]domain.TaskTemplate, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a YAML catalog. Section order and task order are 1-based
// positions within the checklist and the section respectively.
func Parse(data []byte) ([]domain.TaskTemplate, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	var out []domain.TaskTemplate
	for _, cl := range f.Checklists {
		ct, err := domain.ParseChecklistType(cl.Type)
		if err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		for si, sec := range cl.Sections {
			if sec.Name == "" {
				return nil, fmt.Errorf("parse catalog: %s section %d has no name", ct, si+1)
			}
			for ti, task := range sec.Tasks {
				out = append(out, domain.TaskTemplate{
					ChecklistType: ct,
					Section:       sec.Name,
					TaskName:      task,
					TaskOrder:     ti + 1,
					SectionOrder:  si + 1,
				})
			}
		}
	}
	return out, nil
}

// Instantiate copies every template into a task row for the client. Ordering
// fields are preserved and every task starts pending. IDs are left empty for
// the store to assign.
func Instantiate(clientID string, templates []domain.TaskTemplate) []domain.ChecklistTask {
	tasks := make([]domain.ChecklistTask, 0, len(templates))
	for _, t := range templates {
		tasks = append(tasks, domain.ChecklistTask{
			ClientID:      clientID,
			ChecklistType: t.ChecklistType,
			Section:       t.Section,
			TaskName:      t.TaskName,
			IsCompleted:   false,
			TaskOrder:     t.TaskOrder,
			SectionOrder:  t.SectionOrder,
		})
	}
	return tasks
}
