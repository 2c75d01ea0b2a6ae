package email

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bidrelay_backend/internal/conversation"
	"bidrelay_backend/platform/apperr"
)

type fakeSubjects struct {
	templates map[string]string
	calls     []string
}

func (s *fakeSubjects) Get(_ context.Context, stage, shortCode string) (string, error) {
	s.calls = append(s.calls, stage+"/"+shortCode)
	if tmpl, ok := s.templates[stage+"/"+shortCode]; ok {
		return tmpl, nil
	}
	if tmpl, ok := s.templates[stage+"/"]; ok {
		return tmpl, nil
	}
	return "", apperr.Config("no subject template for stage " + stage)
}

type markerConverter struct{}

func (markerConverter) ToTraditional(s string) string { return "trad:" + s }

func writeBodyTemplate(t *testing.T, dir string, stage conversation.Stage, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, string(stage)+".html"), []byte(content), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}
}

func TestSubjectSubstitution(t *testing.T) {
	subjects := &fakeSubjects{templates: map[string]string{
		"B5/": "关于{project_name}的通知（{serial_number}）",
	}}
	r := NewTemplateRenderer(subjects, t.TempDir(), nil)

	got, err := r.Subject(context.Background(), conversation.StageB5, "JT", conversation.Fields{
		ProjectName:  "机房改造",
		SerialNumber: "SN-001",
	})
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if got != "关于机房改造的通知（SN-001）" {
		t.Fatalf("unexpected subject %q", got)
	}
	if subjects.calls[0] != "B5/JT" {
		t.Fatalf("expected lookup by sender short code first, got %q", subjects.calls[0])
	}
}

func TestSubjectCompanySpecificOverridesDefault(t *testing.T) {
	subjects := &fakeSubjects{templates: map[string]string{
		"B5/":   "default {company_name}",
		"B5/JT": "special {company_name}",
	}}
	r := NewTemplateRenderer(subjects, t.TempDir(), nil)

	got, err := r.Subject(context.Background(), conversation.StageB5, "JT", conversation.Fields{CompanyName: "供货商"})
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if got != "special 供货商" {
		t.Fatalf("expected company-specific template, got %q", got)
	}
}

func TestSubjectMissingTemplateIsConfigError(t *testing.T) {
	r := NewTemplateRenderer(&fakeSubjects{}, t.TempDir(), nil)

	_, err := r.Subject(context.Background(), conversation.StageB5, "", conversation.Fields{})
	if err == nil {
		t.Fatal("expected error for missing subject template")
	}
	if apperr.GetKind(err) != apperr.KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestBodyRendersTemplateFile(t *testing.T) {
	dir := t.TempDir()
	writeBodyTemplate(t, dir, conversation.StageB5, "<p>{{.CompanyName}}：{{.ProjectName}}</p>")

	r := NewTemplateRenderer(&fakeSubjects{}, dir, nil)
	got, err := r.Body(context.Background(), conversation.StageB5, conversation.Fields{
		CompanyName: "供货商",
		ProjectName: "机房改造",
	})
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if got != "<p>供货商：机房改造</p>" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestBodyMissingTemplateFile(t *testing.T) {
	r := NewTemplateRenderer(&fakeSubjects{}, t.TempDir(), nil)
	if _, err := r.Body(context.Background(), conversation.StageB5, conversation.Fields{}); err == nil {
		t.Fatal("expected error for missing body template file")
	}
}

func TestReplyStagesLocalizeToTraditional(t *testing.T) {
	dir := t.TempDir()
	writeBodyTemplate(t, dir, conversation.StageB6, "{{.CompanyName}}|{{.ProjectName}}|{{.SenderCompany}}")
	writeBodyTemplate(t, dir, conversation.StageB5, "{{.CompanyName}}")

	subjects := &fakeSubjects{templates: map[string]string{
		"B6/": "{company_name}",
		"B5/": "{company_name}",
	}}
	r := NewTemplateRenderer(subjects, dir, markerConverter{})

	fields := conversation.Fields{CompanyName: "公司", ProjectName: "项目", SenderCompany: "发件方"}

	body, err := r.Body(context.Background(), conversation.StageB6, fields)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if !strings.HasPrefix(body, "trad:公司|trad:项目|") {
		t.Fatalf("B6 company and project fields should be converted, got %q", body)
	}
	if !strings.HasSuffix(body, "|发件方") {
		t.Fatalf("sender signature fields must stay untouched, got %q", body)
	}

	subject, err := r.Subject(context.Background(), conversation.StageB6, "", fields)
	if err != nil {
		t.Fatalf("Subject: %v", err)
	}
	if subject != "trad:公司" {
		t.Fatalf("B6 subject should be converted, got %q", subject)
	}

	plain, err := r.Body(context.Background(), conversation.StageB5, fields)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if plain != "公司" {
		t.Fatalf("B5 must not be converted, got %q", plain)
	}
}

func TestBodyTemplateCached(t *testing.T) {
	dir := t.TempDir()
	writeBodyTemplate(t, dir, conversation.StageB5, "one")

	r := NewTemplateRenderer(&fakeSubjects{}, dir, nil)
	if _, err := r.Body(context.Background(), conversation.StageB5, conversation.Fields{}); err != nil {
		t.Fatalf("Body: %v", err)
	}

	// Rewrite the file; the cached parse must keep serving.
	writeBodyTemplate(t, dir, conversation.StageB5, "two")
	got, err := r.Body(context.Background(), conversation.StageB5, conversation.Fields{})
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if got != "one" {
		t.Fatalf("expected cached template, got %q", got)
	}
}
