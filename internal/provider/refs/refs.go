// Package refs is a library-based provider that reads tag and release events
// straight from a repository's ref store using go-git, without shelling out.
// Canonical IDs mirror the extraction engine's encoding so the orchestration
// layer collapses overlapping results during merge.
package refs

import (
	"context"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/rkellner/gitline/internal/model"
	"github.com/rkellner/gitline/internal/provider"
)

const providerID = "refs"

// fallbackBranch labels tag targets no branch tip reaches.
const fallbackBranch = "(detached)"

// Provider emits tag and release events from ref metadata.
type Provider struct {
	initialized bool
}

// New creates a refs provider.
func New() *Provider {
	return &Provider{}
}

func (p *Provider) ID() string      { return providerID }
func (p *Provider) Name() string    { return "Git Refs" }
func (p *Provider) Version() string { return "1.0.0" }

func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportedEventTypes:    []model.EventType{model.TypeTag, model.TypeRelease},
		SupportsHistoricalData: true,
	}
}

func (p *Provider) Initialize(ctx context.Context, cfg provider.Config) error {
	p.initialized = true
	return nil
}

// FetchEvents opens the repository and emits one event per tag ref. Annotated
// tags become releases with the tagger as author; lightweight tags stay plain
// tags attributed to the target commit's author.
func (p *Provider) FetchEvents(ctx context.Context, fc provider.FetchContext) ([]model.Event, error) {
	repo, err := git.PlainOpen(fc.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository %s: %w", fc.RepoPath, err)
	}

	membership, err := branchMembership(repo)
	if err != nil {
		return nil, fmt.Errorf("walk branches: %w", err)
	}

	tagIter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	var events []model.Event
	err = tagIter.ForEach(func(ref *plumbing.Reference) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ev, ok := p.tagEvent(repo, ref, membership)
		if ok {
			events = append(events, ev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	model.SortEvents(events)
	return events, nil
}

func (p *Provider) tagEvent(repo *git.Repository, ref *plumbing.Reference, membership map[string][]string) (model.Event, bool) {
	name := ref.Name().Short()

	evType := model.TypeTag
	kind := "tag"
	var commit *object.Commit
	var author model.Author

	if tag, err := repo.TagObject(ref.Hash()); err == nil {
		evType = model.TypeRelease
		kind = "release"
		c, err := tag.Commit()
		if err != nil {
			return model.Event{}, false
		}
		commit = c
		author = model.Author{ID: tag.Tagger.Email, Name: tag.Tagger.Name, Email: tag.Tagger.Email}
	} else {
		c, err := repo.CommitObject(ref.Hash())
		if err != nil {
			return model.Event{}, false
		}
		commit = c
		author = model.Author{ID: c.Author.Email, Name: c.Author.Name, Email: c.Author.Email}
	}

	target := commit.Hash.String()
	branches := membership[target]
	if len(branches) == 0 {
		branches = []string{fallbackBranch}
	}

	return model.Event{
		ID:            "tag:" + name,
		CanonicalID:   kind + ":" + name + ":" + target,
		ProviderID:    providerID,
		Type:          evType,
		Timestamp:     commit.Author.When,
		Author:        author,
		Title:         kind + " " + name,
		Branches:      branches,
		PrimaryBranch: branches[0],
		Tags:          []string{name},
		Metadata:      map[string]string{"target": target},
		Hint:          &model.Hint{Icon: kind},
	}, true
}

// FilterOptions derives the option universe from a fresh fetch.
func (p *Provider) FilterOptions(ctx context.Context, fc provider.FetchContext) (model.FilterOptions, error) {
	events, err := p.FetchEvents(ctx, fc)
	if err != nil {
		return model.FilterOptions{}, err
	}
	return model.DeriveFilterOptions(events), nil
}

func (p *Provider) Healthy() bool { return p.initialized }

func (p *Provider) Dispose() error {
	p.initialized = false
	return nil
}

// branchMembership maps each reachable commit hash to the branches whose tip
// can reach it, by walking parent edges from every branch head.
func branchMembership(repo *git.Repository) (map[string][]string, error) {
	membership := make(map[string][]string)

	branches, err := repo.Branches()
	if err != nil {
		return nil, err
	}
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		tip, err := repo.CommitObject(ref.Hash())
		if err != nil {
			return nil
		}
		iter := object.NewCommitPreorderIter(tip, nil, nil)
		return iter.ForEach(func(c *object.Commit) error {
			membership[c.Hash.String()] = append(membership[c.Hash.String()], name)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return membership, nil
}
