package runtime

import "testing"

func testRegistry() *Registry {
	return NewRegistry(&Env{
		Locks:  NewLockManager(newTestLogger()),
		Notify: noopTestPublisher{},
		Log:    newTestLogger(),
	})
}

type noopTestPublisher struct{}

func (noopTestPublisher) Publish(string, map[string]any, []string) error { return nil }

func TestSortingConfigValidateRequiresExactlyOneMatcher(t *testing.T) {
	registry := testRegistry()

	bothSet := &SortingConfig{Pipelines: []Pipeline{{Name: "p", Input: "/in", Re: ".*", Glob: "*"}}}
	if err := bothSet.Validate(registry); err == nil {
		t.Error("Validate should reject a pipeline with both re and glob set")
	}

	neitherSet := &SortingConfig{Pipelines: []Pipeline{{Name: "p", Input: "/in"}}}
	if err := neitherSet.Validate(registry); err == nil {
		t.Error("Validate should reject a pipeline with neither re nor glob set")
	}

	unknownType := &SortingConfig{Pipelines: []Pipeline{{
		Name: "p", Input: "/in", Glob: "*.txt",
		Process: []Step{{Type: "not_a_real_processor"}},
	}}}
	if err := unknownType.Validate(registry); err == nil {
		t.Error("Validate should reject an unregistered processor type")
	}

	ok := &SortingConfig{Pipelines: []Pipeline{{Name: "p", Input: "/in", Glob: "*.txt"}}}
	if err := ok.Validate(registry); err != nil {
		t.Errorf("Validate rejected a well-formed pipeline: %v", err)
	}
}

func TestPipelineMatchesGlobAndBlacklist(t *testing.T) {
	registry := testRegistry()
	cfg := &SortingConfig{Pipelines: []Pipeline{{
		Name: "p", Input: "/in", Glob: "*.txt", Blacklist: []string{"draft-*"},
	}}}
	if err := cfg.Validate(registry); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	p := &cfg.Pipelines[0]

	if !p.Matches("report.txt") {
		t.Error("expected report.txt to match *.txt")
	}
	if p.Matches("report.log") {
		t.Error("expected report.log not to match *.txt")
	}
	if p.Matches("draft-report.txt") {
		t.Error("expected draft-report.txt to be rejected by the draft-* blacklist entry")
	}
}

func TestPipelineMatchesRegexAndBlacklistComponent(t *testing.T) {
	registry := testRegistry()
	cfg := &SortingConfig{Pipelines: []Pipeline{{
		Name: "p", Input: "/in", Re: `.*\.txt$`, Blacklist: []string{"drafts"},
	}}}
	if err := cfg.Validate(registry); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	p := &cfg.Pipelines[0]

	if !p.Matches("a/b/c.txt") {
		t.Error("expected a/b/c.txt to match the regex")
	}
	if p.Matches("drafts/c.txt") {
		t.Error("expected a path under the blacklisted 'drafts' component to be rejected")
	}
}
