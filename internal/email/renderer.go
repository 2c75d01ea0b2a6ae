package email

import (
	"context"
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"sync"

	"bidrelay_backend/internal/conversation"
)

// TemplateRenderer implements conversation.Renderer: subjects come from
// the DB-backed subject templates, bodies from HTML files on disk.
// Stages written by the D party (B6/C9) get their project and company
// inputs converted to traditional Chinese first.
type TemplateRenderer struct {
	subjects SubjectSource
	dir      string
	conv     TextConverter

	mu    sync.Mutex
	cache map[conversation.Stage]*template.Template
}

// traditionalStages are the reply stages authored by the D party.
var traditionalStages = map[conversation.Stage]bool{
	conversation.StageB6: true,
	conversation.StageC9: true,
}

// NewTemplateRenderer creates a renderer over the given body template
// directory. A nil converter disables traditional-Chinese conversion.
func NewTemplateRenderer(subjects SubjectSource, dir string, conv TextConverter) *TemplateRenderer {
	if conv == nil {
		conv = PassthroughConverter{}
	}
	return &TemplateRenderer{
		subjects: subjects,
		dir:      dir,
		conv:     conv,
		cache:    make(map[conversation.Stage]*template.Template),
	}
}

// Compile-time check that TemplateRenderer implements conversation.Renderer.
var _ conversation.Renderer = (*TemplateRenderer)(nil)

// Subject renders the subject line for a stage and sending company.
func (r *TemplateRenderer) Subject(ctx context.Context, stage conversation.Stage, senderShortCode string, f conversation.Fields) (string, error) {
	raw, err := r.subjects.Get(ctx, string(stage), senderShortCode)
	if err != nil {
		return "", err
	}
	f = r.localize(stage, f)
	return substitute(raw, f), nil
}

// Body renders the HTML body for a stage.
func (r *TemplateRenderer) Body(ctx context.Context, stage conversation.Stage, f conversation.Fields) (string, error) {
	tmpl, err := r.bodyTemplate(stage)
	if err != nil {
		return "", err
	}
	f = r.localize(stage, f)

	var sb strings.Builder
	if err := tmpl.Execute(&sb, f); err != nil {
		return "", fmt.Errorf("render body for stage %s: %w", stage, err)
	}
	return sb.String(), nil
}

func (r *TemplateRenderer) bodyTemplate(stage conversation.Stage) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.cache[stage]; ok {
		return tmpl, nil
	}

	name := string(stage) + ".html"
	tmpl, err := template.ParseFiles(filepath.Join(r.dir, name))
	if err != nil {
		return nil, fmt.Errorf("parse body template %s: %w", name, err)
	}
	r.cache[stage] = tmpl
	return tmpl, nil
}

func (r *TemplateRenderer) localize(stage conversation.Stage, f conversation.Fields) conversation.Fields {
	if !traditionalStages[stage] {
		return f
	}
	f.ProjectName = r.conv.ToTraditional(f.ProjectName)
	f.CompanyName = r.conv.ToTraditional(f.CompanyName)
	f.ShortName = r.conv.ToTraditional(f.ShortName)
	return f
}

// substitute fills the {placeholder} vocabulary into a subject template.
func substitute(raw string, f conversation.Fields) string {
	return strings.NewReplacer(
		"{company_name}", f.CompanyName,
		"{short_name}", f.ShortName,
		"{project_name}", f.ProjectName,
		"{serial_number}", f.SerialNumber,
		"{tender_number}", f.TenderNumber,
		"{contract_amount}", f.ContractAmount,
		"{winning_time}", f.WinningTime,
	).Replace(raw)
}
