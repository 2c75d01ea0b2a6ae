package conversation

import (
	"context"
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"bidrelay_backend/platform/apperr"
)

type fakeRenderer struct {
	subjectCalls []Stage
	fields       map[Stage]Fields
}

func (r *fakeRenderer) Subject(_ context.Context, stage Stage, _ string, f Fields) (string, error) {
	r.subjectCalls = append(r.subjectCalls, stage)
	if r.fields == nil {
		r.fields = make(map[Stage]Fields)
	}
	r.fields[stage] = f
	return "subject " + string(stage), nil
}

func (r *fakeRenderer) Body(_ context.Context, stage Stage, _ Fields) (string, error) {
	return "body " + string(stage), nil
}

func testParticipant(name, email string) Participant {
	return Participant{
		Name:        name,
		ShortName:   name,
		Email:       email,
		ContactName: "contact",
		Phone:       "+8613800000000",
		SMTP: SMTPAccount{
			Host:     "smtp.example.com",
			Port:     465,
			Username: email,
			Password: "secret",
			FromName: name,
			FromAddr: email,
		},
	}
}

func testChainInput(classification Classification) ChainInput {
	return ChainInput{
		Project: ProjectInfo{
			ID:             uuid.New(),
			Name:           "数据中心机房改造",
			SerialNumber:   "SN-001",
			Classification: classification,
		},
		B: testParticipant("甲方代理", "b@example.com"),
		C: testParticipant("中间商", "c@example.com"),
		D: testParticipant("供货商", "d@example.com"),
	}
}

func stagesOf(head *Descriptor) []Stage {
	return head.Stages()
}

func assertStages(t *testing.T, head *Descriptor, want ...Stage) {
	t.Helper()
	got := stagesOf(head)
	if len(got) != len(want) {
		t.Fatalf("expected %d stages %v, got %v", len(want), want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected stage %s at position %d, got %s", want[i], i, got[i])
		}
	}
}

func assertReplyDelays(t *testing.T, head *Descriptor) {
	t.Helper()
	for cur := head; cur != nil; cur = cur.Followup {
		if cur.Followup == nil {
			if cur.FollowupDelay != 0 {
				t.Fatalf("tail stage %s carries delay %d", cur.Stage, cur.FollowupDelay)
			}
			continue
		}
		if cur.FollowupDelay < replyDelayMinMinutes*60 || cur.FollowupDelay > replyDelayMaxMinutes*60 {
			t.Fatalf("stage %s delay %d outside reply window", cur.Stage, cur.FollowupDelay)
		}
		if cur.FollowupDelay%60 != 0 {
			t.Fatalf("stage %s delay %d is not whole minutes", cur.Stage, cur.FollowupDelay)
		}
	}
}

func newTestBuilder(cc CCPolicy) (*Builder, *fakeRenderer) {
	render := &fakeRenderer{}
	return NewBuilder(rand.New(rand.NewSource(1)), render, cc), render
}

func TestBuildBidChainBCD(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	head, err := b.BuildBidChain(context.Background(), testChainInput(BCD))
	if err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}
	assertStages(t, head, StageB3, StageB4, StageB5, StageB6)
	assertReplyDelays(t, head)

	if head.To != "c@example.com" {
		t.Fatalf("B3 should go to C, got %s", head.To)
	}
	if head.SMTP.FromAddr != "b@example.com" {
		t.Fatalf("B3 should be sent by B, got from %s", head.SMTP.FromAddr)
	}
	b4 := head.Followup
	if b4.To != "b@example.com" || b4.SMTP.FromAddr != "c@example.com" {
		t.Fatalf("B4 should run C→B, got %s→%s", b4.SMTP.FromAddr, b4.To)
	}
}

func TestBuildBidChainCCDUsesSpecialB5(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := testChainInput(CCD)
	in.C = Participant{}

	head, err := b.BuildBidChain(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}
	assertStages(t, head, StageB5Spec, StageB6)
	assertReplyDelays(t, head)
	if head.To != "d@example.com" || head.SMTP.FromAddr != "b@example.com" {
		t.Fatalf("B5_SPEC should run B→D, got %s→%s", head.SMTP.FromAddr, head.To)
	}
}

func TestBuildBidChainBD(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := testChainInput(BD)
	in.C = Participant{}

	head, err := b.BuildBidChain(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}
	assertStages(t, head, StageB5, StageB6)
	assertReplyDelays(t, head)
}

func TestBuildBidChainUnclassifiedRejected(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	_, err := b.BuildBidChain(context.Background(), testChainInput(Unclassified))
	if err == nil {
		t.Fatal("expected error for unclassified project")
	}
}

func TestBuildBidChainBCDRequiresC(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := testChainInput(BCD)
	in.C = Participant{}

	_, err := b.BuildBidChain(context.Background(), in)
	if err == nil {
		t.Fatal("expected error for BCD chain without C")
	}
	if apperr.GetKind(err) != apperr.KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestBuildBidChainMissingSMTPRejected(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := testChainInput(BD)
	in.D.SMTP.Host = ""

	_, err := b.BuildBidChain(context.Background(), in)
	if err == nil {
		t.Fatal("expected error for participant without mail account")
	}
	if apperr.GetKind(err) != apperr.KindConfig {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestBuildBidChainFieldsCarrySenderAndRecipient(t *testing.T) {
	b, render := newTestBuilder(CCPolicy{})
	in := testChainInput(BD)

	if _, err := b.BuildBidChain(context.Background(), in); err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}

	f, ok := render.fields[StageB5]
	if !ok {
		t.Fatal("renderer never saw B5")
	}
	if f.CompanyName != in.D.Name {
		t.Fatalf("B5 company placeholder should be the recipient D, got %q", f.CompanyName)
	}
	if f.SenderCompany != in.B.Name {
		t.Fatalf("B5 sender placeholder should be B, got %q", f.SenderCompany)
	}
	if f.ProjectName != in.Project.Name {
		t.Fatalf("expected project name %q, got %q", in.Project.Name, f.ProjectName)
	}
}

func TestCCInjectionOnDesignatedStages(t *testing.T) {
	policy := CCPolicy{Addresses: []string{"compliance@example.com"}, Aliases: []string{"B"}}
	b, _ := newTestBuilder(policy)

	in := testChainInput(BCD)
	in.Project.Alias = "B"
	in.D.IsPR = true

	head, err := b.BuildBidChain(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}

	for cur := head; cur != nil; cur = cur.Followup {
		wantCC := cur.Stage == StageB5 || cur.Stage == StageB6
		if wantCC && len(cur.CC) != 1 {
			t.Fatalf("stage %s should carry the compliance CC, got %v", cur.Stage, cur.CC)
		}
		if !wantCC && len(cur.CC) != 0 {
			t.Fatalf("stage %s should not carry a CC, got %v", cur.Stage, cur.CC)
		}
	}
}

func TestCCSkippedWhenAliasNotDesignated(t *testing.T) {
	policy := CCPolicy{Addresses: []string{"compliance@example.com"}, Aliases: []string{"B"}}
	b, _ := newTestBuilder(policy)

	in := testChainInput(BD)
	in.Project.Alias = "A"
	in.D.IsPR = true

	head, err := b.BuildBidChain(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}
	for cur := head; cur != nil; cur = cur.Followup {
		if len(cur.CC) != 0 {
			t.Fatalf("stage %s should not carry a CC for alias A, got %v", cur.Stage, cur.CC)
		}
	}
}

func TestCCSkippedWhenDNotPR(t *testing.T) {
	policy := CCPolicy{Addresses: []string{"compliance@example.com"}, Aliases: []string{"B"}}
	b, _ := newTestBuilder(policy)

	in := testChainInput(BD)
	in.Project.Alias = "B"

	head, err := b.BuildBidChain(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildBidChain: %v", err)
	}
	for cur := head; cur != nil; cur = cur.Followup {
		if len(cur.CC) != 0 {
			t.Fatalf("stage %s should not carry a CC for an external D, got %v", cur.Stage, cur.CC)
		}
	}
}

func TestBuildSettlementChainBCD(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := SettlementInput{
		Project: testChainInput(BCD).Project,
		B:       testParticipant("甲方代理", "b@example.com"),
		C:       testParticipant("中间商", "c@example.com"),
		D:       testParticipant("供货商", "d@example.com"),
		SheetBC: []Attachment{{Filename: "bc.xlsx", Path: "/tmp/bc.xlsx"}},
		SheetBD: []Attachment{{Filename: "bd.xlsx", Path: "/tmp/bd.xlsx"}},
	}

	head, err := b.BuildSettlementChain(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildSettlementChain: %v", err)
	}
	assertStages(t, head, StageC7, StageC8, StageC9, StageC10)
	assertReplyDelays(t, head)

	c7, c8 := head, head.Followup
	c9, c10 := c8.Followup, c8.Followup.Followup
	if c7.To != "b@example.com" || c7.SMTP.FromAddr != "c@example.com" {
		t.Fatalf("C7 should run C→B, got %s→%s", c7.SMTP.FromAddr, c7.To)
	}
	if len(c7.Attachments) != 1 || c7.Attachments[0].Filename != "bc.xlsx" {
		t.Fatalf("C7 should carry the B-C sheet, got %v", c7.Attachments)
	}
	if c8.To != "d@example.com" || c8.SMTP.FromAddr != "b@example.com" {
		t.Fatalf("C8 should run B→D, got %s→%s", c8.SMTP.FromAddr, c8.To)
	}
	if len(c8.Attachments) != 1 || c8.Attachments[0].Filename != "bd.xlsx" {
		t.Fatalf("C8 should carry the B-D sheet, got %v", c8.Attachments)
	}
	if c9.To != "b@example.com" || c9.SMTP.FromAddr != "d@example.com" {
		t.Fatalf("C9 should run D→B, got %s→%s", c9.SMTP.FromAddr, c9.To)
	}
	if len(c9.Attachments) != 0 {
		t.Fatalf("C9 should have no attachments, got %v", c9.Attachments)
	}
	if c10.To != "c@example.com" || c10.SMTP.FromAddr != "b@example.com" {
		t.Fatalf("C10 should run B→C, got %s→%s", c10.SMTP.FromAddr, c10.To)
	}
	if len(c10.Attachments) != 0 {
		t.Fatalf("C10 should have no attachments, got %v", c10.Attachments)
	}
}

func TestBuildSettlementChainCollapsed(t *testing.T) {
	for _, class := range []Classification{CCD, BD} {
		b, _ := newTestBuilder(CCPolicy{})
		in := SettlementInput{
			Project: testChainInput(class).Project,
			B:       testParticipant("甲方代理", "b@example.com"),
			D:       testParticipant("供货商", "d@example.com"),
			SheetBD: []Attachment{{Filename: "bd.xlsx", Path: "/tmp/bd.xlsx"}},
		}

		head, err := b.BuildSettlementChain(context.Background(), in)
		if err != nil {
			t.Fatalf("BuildSettlementChain(%s): %v", class, err)
		}
		assertStages(t, head, StageC8, StageC9)
		if len(head.Attachments) != 1 {
			t.Fatalf("%s: C8 should carry the B-D sheet, got %v", class, head.Attachments)
		}
	}
}

func TestBuildRegistrationChains(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := RegistrationInput{
		Project: ProjectInfo{ID: uuid.New(), Name: "数据中心机房改造"},
		B:       testParticipant("甲方代理", "b@example.com"),
		Invitations: []Invitation{
			{D: testParticipant("供货商一", "d1@example.com"), SerialNumber: "SN-001"},
			{D: testParticipant("供货商二", "d2@example.com"), SerialNumber: "SN-002"},
			{D: testParticipant("供货商三", "d3@example.com"), SerialNumber: "SN-003"},
		},
	}

	chains, err := b.BuildRegistrationChains(context.Background(), in)
	if err != nil {
		t.Fatalf("BuildRegistrationChains: %v", err)
	}
	if len(chains) != 3 {
		t.Fatalf("expected 3 chains, got %d", len(chains))
	}

	for i, chain := range chains {
		assertStages(t, chain.Head, StageA1, StageA2)
		assertReplyDelays(t, chain.Head)
		if chain.InitialDelay < 0 || chain.InitialDelay > inviteDelayMaxMinutes*60 {
			t.Fatalf("chain %d initial delay %d outside invitation window", i, chain.InitialDelay)
		}
		if chain.InitialDelay%60 != 0 {
			t.Fatalf("chain %d initial delay %d is not whole minutes", i, chain.InitialDelay)
		}
		if chain.Head.To != "b@example.com" {
			t.Fatalf("A1 goes D→B, got recipient %s", chain.Head.To)
		}
	}

	if chains[0].Head.SMTP.FromAddr != "d1@example.com" || chains[1].Head.SMTP.FromAddr != "d2@example.com" {
		t.Fatal("each chain should be sent from its own counterparty account")
	}
}

func TestBuildRegistrationChainsPerChainSerial(t *testing.T) {
	b, render := newTestBuilder(CCPolicy{})
	in := RegistrationInput{
		Project: ProjectInfo{ID: uuid.New(), Name: "数据中心机房改造"},
		B:       testParticipant("甲方代理", "b@example.com"),
		Invitations: []Invitation{
			{D: testParticipant("供货商", "d@example.com"), SerialNumber: "SN-042"},
		},
	}

	if _, err := b.BuildRegistrationChains(context.Background(), in); err != nil {
		t.Fatalf("BuildRegistrationChains: %v", err)
	}
	if render.fields[StageA1].SerialNumber != "SN-042" {
		t.Fatalf("A1 should render the invitation serial, got %q", render.fields[StageA1].SerialNumber)
	}
}

func TestBuildRegistrationChainsEmptyRejected(t *testing.T) {
	b, _ := newTestBuilder(CCPolicy{})
	in := RegistrationInput{
		Project: ProjectInfo{ID: uuid.New(), Name: "数据中心机房改造"},
		B:       testParticipant("甲方代理", "b@example.com"),
	}
	if _, err := b.BuildRegistrationChains(context.Background(), in); err == nil {
		t.Fatal("expected error for registration without counterparties")
	}
}
